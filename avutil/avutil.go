//go:build !ios && !android && (amd64 || arm64)

// Package avutil holds the FFmpeg-shaped building blocks of frame
// inspection: pixel formats and their descriptors, rationals, picture
// types, and optional purego bindings to a system libavutil.
//
// Everything except the functions documented as requiring libavutil works
// without FFmpeg installed.
package avutil

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/showinfo/internal/bindings"
)

// Frame is an opaque FFmpeg AVFrame pointer.
type Frame = unsafe.Pointer

// ErrFrameLayout is returned when the loaded libavutil has an AVFrame
// layout whose field offsets are not known.
var ErrFrameLayout = errors.New("showinfo: unsupported AVFrame layout for this libavutil version")

// Function bindings - registered by Load
var (
	avFrameAlloc     func() unsafe.Pointer
	avFrameFree      func(frame *unsafe.Pointer)
	avFrameGetBuffer func(frame unsafe.Pointer, align int32) int32

	avAdler32Update func(adler uint64, buf unsafe.Pointer, size uintptr) uint64
	avPixFmtDescGet func(pixFmt int32) unsafe.Pointer
	avStrerror      func(errnum int32, errbuf unsafe.Pointer, errbufSize uintptr) int32
	avLogSetLevel   func(level int32)
	avLogGetLevel   func() int32

	bindOnce sync.Once
	bindErr  error

	libDescriptors sync.Map // PixelFormat -> *PixFmtDescriptor (nil when unknown)
)

// Load loads libavutil and registers the bindings used by this package.
// It is safe to call multiple times.
func Load() error {
	bindOnce.Do(func() {
		bindErr = registerBindings()
	})
	return bindErr
}

// IsLoaded returns true if the libavutil bindings are registered.
func IsLoaded() bool {
	return Load() == nil
}

func registerBindings() error {
	if err := bindings.Load(); err != nil {
		return err
	}

	lib := bindings.LibAVUtil()
	if lib == 0 {
		return bindings.ErrNotLoaded
	}

	purego.RegisterLibFunc(&avFrameAlloc, lib, "av_frame_alloc")
	purego.RegisterLibFunc(&avFrameFree, lib, "av_frame_free")
	purego.RegisterLibFunc(&avFrameGetBuffer, lib, "av_frame_get_buffer")

	purego.RegisterLibFunc(&avAdler32Update, lib, "av_adler32_update")
	purego.RegisterLibFunc(&avPixFmtDescGet, lib, "av_pix_fmt_desc_get")
	purego.RegisterLibFunc(&avStrerror, lib, "av_strerror")
	purego.RegisterLibFunc(&avLogSetLevel, lib, "av_log_set_level")
	purego.RegisterLibFunc(&avLogGetLevel, lib, "av_log_get_level")
	return nil
}

// SetLogLevel sets libavutil's global log level (av_log_set_level).
func SetLogLevel(level int32) error {
	if err := Load(); err != nil {
		return err
	}
	avLogSetLevel(level)
	return nil
}

// LogLevel returns libavutil's global log level.
func LogLevel() (int32, error) {
	if err := Load(); err != nil {
		return 0, err
	}
	return avLogGetLevel(), nil
}

// Adler32Update feeds p into a running Adler-32 value using libavutil's
// av_adler32_update. Start from 1. Requires libavutil.
func Adler32Update(adler uint32, p []byte) (uint32, error) {
	if err := Load(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return adler, nil
	}
	// AVAdler is uint32_t; the upper half of the return register is not defined.
	sum := avAdler32Update(uint64(adler), unsafe.Pointer(&p[0]), uintptr(len(p)))
	return uint32(sum & 0xFFFFFFFF), nil
}

// AVPixFmtDescriptor layout (libavutil >= 57):
//
//	const char *name;                 0
//	uint8_t nb_components;            8
//	uint8_t log2_chroma_w;            9
//	uint8_t log2_chroma_h;           10
//	uint64_t flags;                  16
//	AVComponentDescriptor comp[4];   24, 20 bytes each (5 x int)
const (
	descOffsetName       = 0
	descOffsetNbComp     = 8
	descOffsetLog2W      = 9
	descOffsetLog2H      = 10
	descOffsetFlags      = 16
	descOffsetComp       = 24
	descComponentSize    = 20
	descMinAVUtilVersion = 57
)

// LibDescriptor resolves a pixel format descriptor, consulting the
// built-in table first and libavutil's av_pix_fmt_desc_get for anything
// else. Library lookups are cached. Without libavutil it behaves like
// Descriptor.
func LibDescriptor(p PixelFormat) (*PixFmtDescriptor, bool) {
	if d, ok := Descriptor(p); ok {
		return d, true
	}
	if cached, ok := libDescriptors.Load(p); ok {
		d := cached.(*PixFmtDescriptor)
		return d, d != nil
	}
	if Load() != nil || bindings.AVUtilMajor() < descMinAVUtilVersion {
		return nil, false
	}

	d := decodePixFmtDescriptor(avPixFmtDescGet(int32(p)))
	libDescriptors.Store(p, d)
	return d, d != nil
}

func decodePixFmtDescriptor(ptr unsafe.Pointer) *PixFmtDescriptor {
	if ptr == nil {
		return nil
	}
	d := &PixFmtDescriptor{
		Name:         goString(*(**byte)(unsafe.Add(ptr, descOffsetName))),
		NbComponents: int(*(*uint8)(unsafe.Add(ptr, descOffsetNbComp))),
		Log2ChromaW:  int(*(*uint8)(unsafe.Add(ptr, descOffsetLog2W))),
		Log2ChromaH:  int(*(*uint8)(unsafe.Add(ptr, descOffsetLog2H))),
		Flags:        *(*uint64)(unsafe.Add(ptr, descOffsetFlags)),
	}
	for i := range d.Comp {
		c := (*[5]int32)(unsafe.Add(ptr, descOffsetComp+i*descComponentSize))
		d.Comp[i] = ComponentDescriptor{
			Plane:  int(c[0]),
			Step:   int(c[1]),
			Offset: int(c[2]),
			Shift:  int(c[3]),
			Depth:  int(c[4]),
		}
	}
	return d
}

// goString copies a NUL-terminated C string.
func goString(p *byte) string {
	if p == nil {
		return ""
	}
	const limit = 4096
	for i := 0; i < limit; i++ {
		if *(*byte)(unsafe.Add(unsafe.Pointer(p), i)) == 0 {
			return string(unsafe.Slice(p, i))
		}
	}
	return string(unsafe.Slice(p, limit))
}

func libErrorString(errnum int32) (string, bool) {
	if avStrerror == nil {
		return "", false
	}
	buf := make([]byte, 256)
	if avStrerror(errnum, unsafe.Pointer(&buf[0]), uintptr(len(buf))) < 0 {
		return "", false
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), true
		}
	}
	return string(buf), true
}

// FrameAlloc allocates an AVFrame. The frame must be freed with FrameFree.
// Returns nil when libavutil is not available.
func FrameAlloc() Frame {
	if Load() != nil {
		return nil
	}
	return avFrameAlloc()
}

// FrameFree frees an AVFrame and sets the pointer to nil.
// Safe to call with nil pointer.
func FrameFree(frame *Frame) {
	if frame == nil || *frame == nil || avFrameFree == nil {
		return
	}
	avFrameFree(frame)
	*frame = nil
}

// FrameGetBuffer allocates data buffers for a frame whose format, width
// and height are set.
func FrameGetBuffer(frame Frame, align int32) error {
	if err := Load(); err != nil {
		return err
	}
	return NewError(avFrameGetBuffer(frame, align), "av_frame_get_buffer")
}

// AVFrame struct field offsets for libavutil 58 (FFmpeg 6.x), as read with
// offsetof() on 58.29.100. Data, linesize and geometry are stable since 57;
// the remaining fields moved in 59 when the deprecated flags were removed.
const (
	offsetData     = 0   // uint8_t *data[8]
	offsetLinesize = 64  // int linesize[8]
	offsetWidth    = 104 // int width
	offsetHeight   = 108 // int height
	offsetFormat   = 116 // int format

	offsetKeyFrame      = 120 // int key_frame
	offsetPictType      = 124 // enum AVPictureType pict_type
	offsetSAR           = 128 // AVRational sample_aspect_ratio
	offsetPts           = 136 // int64_t pts
	offsetTimeBase      = 152 // AVRational time_base
	offsetInterlaced    = 188 // int interlaced_frame
	offsetTopFieldFirst = 192 // int top_field_first

	frameLayoutVersion = 58
)

// FrameFieldsSupported reports whether the loaded libavutil uses the AVFrame
// layout these accessors were written for. Only data, linesize, width,
// height and format may be used otherwise.
func FrameFieldsSupported() bool {
	return IsLoaded() && bindings.AVUtilMajor() == frameLayoutVersion
}

func field[T any](frame Frame, offset uintptr) *T {
	return (*T)(unsafe.Add(frame, offset))
}

// GetFrameWidth returns the width of the frame.
func GetFrameWidth(frame Frame) int32 {
	if frame == nil {
		return 0
	}
	return *field[int32](frame, offsetWidth)
}

// SetFrameWidth sets the width of the frame.
func SetFrameWidth(frame Frame, width int32) {
	if frame != nil {
		*field[int32](frame, offsetWidth) = width
	}
}

// GetFrameHeight returns the height of the frame.
func GetFrameHeight(frame Frame) int32 {
	if frame == nil {
		return 0
	}
	return *field[int32](frame, offsetHeight)
}

// SetFrameHeight sets the height of the frame.
func SetFrameHeight(frame Frame, height int32) {
	if frame != nil {
		*field[int32](frame, offsetHeight) = height
	}
}

// GetFrameFormat returns the pixel format of a video frame.
func GetFrameFormat(frame Frame) PixelFormat {
	if frame == nil {
		return PixelFormatNone
	}
	return PixelFormat(*field[int32](frame, offsetFormat))
}

// SetFrameFormat sets the pixel format of a video frame.
func SetFrameFormat(frame Frame, format PixelFormat) {
	if frame != nil {
		*field[int32](frame, offsetFormat) = int32(format)
	}
}

// GetFrameDataPlane returns the data pointer for a given plane.
func GetFrameDataPlane(frame Frame, plane int) unsafe.Pointer {
	if frame == nil || plane < 0 || plane >= 8 {
		return nil
	}
	return field[[8]unsafe.Pointer](frame, offsetData)[plane]
}

// GetFrameLinesizePlane returns the linesize for a given plane.
func GetFrameLinesizePlane(frame Frame, plane int) int32 {
	if frame == nil || plane < 0 || plane >= 8 {
		return 0
	}
	return field[[8]int32](frame, offsetLinesize)[plane]
}

// GetFrameKeyFrame returns true if the frame is a key frame.
func GetFrameKeyFrame(frame Frame) bool {
	return frame != nil && *field[int32](frame, offsetKeyFrame) != 0
}

// GetFramePictType returns the picture type.
func GetFramePictType(frame Frame) PictureType {
	if frame == nil {
		return PictureTypeNone
	}
	return PictureType(*field[int32](frame, offsetPictType))
}

// SetFramePictType sets the picture type.
func SetFramePictType(frame Frame, t PictureType) {
	if frame != nil {
		*field[int32](frame, offsetPictType) = int32(t)
	}
}

// GetFrameSampleAspectRatio returns the sample aspect ratio.
func GetFrameSampleAspectRatio(frame Frame) Rational {
	if frame == nil {
		return Rational{}
	}
	return *field[Rational](frame, offsetSAR)
}

// GetFramePTS returns the presentation timestamp.
func GetFramePTS(frame Frame) int64 {
	if frame == nil {
		return NoPTSValue
	}
	return *field[int64](frame, offsetPts)
}

// SetFramePTS sets the presentation timestamp.
func SetFramePTS(frame Frame, pts int64) {
	if frame != nil {
		*field[int64](frame, offsetPts) = pts
	}
}

// GetFrameTimeBase returns the frame's time base; zero when the producer
// did not set it.
func GetFrameTimeBase(frame Frame) Rational {
	if frame == nil {
		return Rational{}
	}
	return *field[Rational](frame, offsetTimeBase)
}

// GetFrameInterlaced returns the interlaced_frame and top_field_first flags.
func GetFrameInterlaced(frame Frame) (interlaced, topFieldFirst bool) {
	if frame == nil {
		return false, false
	}
	return *field[int32](frame, offsetInterlaced) != 0, *field[int32](frame, offsetTopFieldFirst) != 0
}

// SetFrameInterlaced sets the interlaced_frame and top_field_first flags.
func SetFrameInterlaced(frame Frame, interlaced, topFieldFirst bool) {
	if frame == nil {
		return
	}
	*field[int32](frame, offsetInterlaced) = boolInt(interlaced)
	*field[int32](frame, offsetTopFieldFirst) = boolInt(topFieldFirst)
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// NoPTSValue is the value used to indicate no PTS (AV_NOPTS_VALUE).
const NoPTSValue int64 = -9223372036854775808
