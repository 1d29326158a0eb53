//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"math"
	"sort"
	"strconv"
)

// PixelFormat represents FFmpeg pixel formats.
type PixelFormat int32

// Pixel formats with a built-in descriptor. Values match FFmpeg's pixfmt.h.
const (
	PixelFormatNone     PixelFormat = -1
	PixelFormatYUV420P  PixelFormat = 0  // Planar YUV 4:2:0
	PixelFormatYUYV422  PixelFormat = 1  // Packed YUV 4:2:2, Y0 Cb Y1 Cr
	PixelFormatRGB24    PixelFormat = 2  // Packed RGB 8:8:8
	PixelFormatBGR24    PixelFormat = 3  // Packed BGR 8:8:8
	PixelFormatYUV422P  PixelFormat = 4  // Planar YUV 4:2:2
	PixelFormatYUV444P  PixelFormat = 5  // Planar YUV 4:4:4
	PixelFormatYUV410P  PixelFormat = 6  // Planar YUV 4:1:0
	PixelFormatYUV411P  PixelFormat = 7  // Planar YUV 4:1:1
	PixelFormatGray8    PixelFormat = 8  // 8-bit grayscale
	PixelFormatMonoW    PixelFormat = 9  // 1-bit monochrome, 0 is white
	PixelFormatMonoB    PixelFormat = 10 // 1-bit monochrome, 0 is black
	PixelFormatPAL8     PixelFormat = 11 // 8-bit palette
	PixelFormatYUVJ420P PixelFormat = 12 // Planar YUV 4:2:0 (JPEG range)
	PixelFormatYUVJ422P PixelFormat = 13 // Planar YUV 4:2:2 (JPEG range)
	PixelFormatYUVJ444P PixelFormat = 14 // Planar YUV 4:4:4 (JPEG range)
	PixelFormatUYVY422  PixelFormat = 15 // Packed YUV 4:2:2, Cb Y0 Cr Y1
	PixelFormatNV12     PixelFormat = 23 // Planar YUV 4:2:0 (UV interleaved)
	PixelFormatNV21     PixelFormat = 24 // Planar YUV 4:2:0 (VU interleaved)
	PixelFormatARGB     PixelFormat = 25 // Packed ARGB 8:8:8:8
	PixelFormatRGBA     PixelFormat = 26 // Packed RGBA 8:8:8:8
	PixelFormatABGR     PixelFormat = 27 // Packed ABGR 8:8:8:8
	PixelFormatBGRA     PixelFormat = 28 // Packed BGRA 8:8:8:8
	PixelFormatGray16BE PixelFormat = 29 // 16-bit grayscale (big endian)
	PixelFormatGray16LE PixelFormat = 30 // 16-bit grayscale (little endian)
	PixelFormatYUV440P  PixelFormat = 31 // Planar YUV 4:4:0
	PixelFormatYUVJ440P PixelFormat = 32 // Planar YUV 4:4:0 (JPEG range)
	PixelFormatYUVA420P PixelFormat = 33 // Planar YUV 4:2:0 with alpha plane
	PixelFormatRGB48BE  PixelFormat = 34 // Packed RGB 16:16:16 (big endian)
	PixelFormatRGB48LE  PixelFormat = 35 // Packed RGB 16:16:16 (little endian)
)

// Descriptor flags (AV_PIX_FMT_FLAG_*).
const (
	PixFmtFlagBE        uint64 = 1 << 0
	PixFmtFlagPAL       uint64 = 1 << 1
	PixFmtFlagBitstream uint64 = 1 << 2
	PixFmtFlagHWAccel   uint64 = 1 << 3
	PixFmtFlagPlanar    uint64 = 1 << 4
	PixFmtFlagRGB       uint64 = 1 << 5
	PixFmtFlagAlpha     uint64 = 1 << 7
	PixFmtFlagBayer     uint64 = 1 << 8
	PixFmtFlagFloat     uint64 = 1 << 9
)

// ComponentDescriptor locates one color component inside a frame's planes.
type ComponentDescriptor struct {
	Plane  int // plane holding the component
	Step   int // bytes (bits for bitstream formats) between horizontally adjacent pixels
	Offset int // bytes (bits) before the first pixel's component
	Shift  int // right shift applied to the stored value
	Depth  int // bits per component
}

// PixFmtDescriptor describes how a pixel format lays out its planes.
// It mirrors the fields of AVPixFmtDescriptor that frame inspection needs.
type PixFmtDescriptor struct {
	Name         string
	NbComponents int

	// Log2ChromaW is the horizontal chroma shift: chroma width is
	// -((-luma_width) >> Log2ChromaW).
	Log2ChromaW int

	// Log2ChromaH is the vertical chroma shift: chroma planes hold
	// height >> Log2ChromaH rows.
	Log2ChromaH int

	Flags uint64
	Comp  [4]ComponentDescriptor
}

// NbPlanes returns the number of planes used by the format
// (av_pix_fmt_count_planes).
func (d *PixFmtDescriptor) NbPlanes() int {
	if d == nil {
		return 0
	}
	n := 0
	for i := 0; i < d.NbComponents && i < len(d.Comp); i++ {
		if d.Comp[i].Plane+1 > n {
			n = d.Comp[i].Plane + 1
		}
	}
	return n
}

// HasFlag reports whether all bits of flag are set.
func (d *PixFmtDescriptor) HasFlag(flag uint64) bool {
	return d != nil && d.Flags&flag == flag
}

// MaxPixSteps returns, per plane, the largest component step and the index
// of the component that has it (av_image_fill_max_pixsteps).
func (d *PixFmtDescriptor) MaxPixSteps() (steps, comps [4]int) {
	if d == nil {
		return steps, comps
	}
	for i := 0; i < d.NbComponents && i < len(d.Comp); i++ {
		c := d.Comp[i]
		if c.Plane < 0 || c.Plane >= 4 {
			continue
		}
		if c.Step > steps[c.Plane] {
			steps[c.Plane] = c.Step
			comps[c.Plane] = i
		}
	}
	return steps, comps
}

// ImageLinesize returns the number of meaningful bytes in one row of the
// given plane for an image of the given width (av_image_get_linesize).
// Padding is not included. It returns AVERROR_EINVAL for a negative width,
// hardware formats or an overflowing width.
func (d *PixFmtDescriptor) ImageLinesize(width, plane int) (int, error) {
	if d == nil || d.HasFlag(PixFmtFlagHWAccel) {
		return 0, NewError(AVERROR_EINVAL, "av_image_get_linesize")
	}
	if width < 0 || plane < 0 || plane >= 4 {
		return 0, NewError(AVERROR_EINVAL, "av_image_get_linesize")
	}

	steps, comps := d.MaxPixSteps()
	maxStep := steps[plane]

	s := 0
	if comps[plane] == 1 || comps[plane] == 2 {
		s = d.Log2ChromaW
	}
	shiftedW := (width + (1 << s) - 1) >> s
	if shiftedW != 0 && maxStep > math.MaxInt32/shiftedW {
		return 0, NewError(AVERROR_EINVAL, "av_image_get_linesize")
	}
	linesize := maxStep * shiftedW
	if d.HasFlag(PixFmtFlagBitstream) {
		linesize = (linesize + 7) >> 3
	}
	return linesize, nil
}

// String returns the FFmpeg name of the format, or its numeric value when
// no descriptor is known.
func (p PixelFormat) String() string {
	if d, ok := Descriptor(p); ok {
		return d.Name
	}
	if p == PixelFormatNone {
		return "none"
	}
	return strconv.Itoa(int(p))
}

func planar3(name string, log2w, log2h int) *PixFmtDescriptor {
	return &PixFmtDescriptor{
		Name:         name,
		NbComponents: 3,
		Log2ChromaW:  log2w,
		Log2ChromaH:  log2h,
		Flags:        PixFmtFlagPlanar,
		Comp: [4]ComponentDescriptor{
			{Plane: 0, Step: 1, Depth: 8},
			{Plane: 1, Step: 1, Depth: 8},
			{Plane: 2, Step: 1, Depth: 8},
		},
	}
}

func packed(name string, flags uint64, step int, offsets ...int) *PixFmtDescriptor {
	d := &PixFmtDescriptor{Name: name, NbComponents: len(offsets), Flags: flags}
	for i, off := range offsets {
		d.Comp[i] = ComponentDescriptor{Plane: 0, Step: step, Offset: off, Depth: 8}
	}
	return d
}

var descriptors = map[PixelFormat]*PixFmtDescriptor{
	PixelFormatYUV420P:  planar3("yuv420p", 1, 1),
	PixelFormatYUV422P:  planar3("yuv422p", 1, 0),
	PixelFormatYUV444P:  planar3("yuv444p", 0, 0),
	PixelFormatYUV410P:  planar3("yuv410p", 2, 2),
	PixelFormatYUV411P:  planar3("yuv411p", 2, 0),
	PixelFormatYUVJ420P: planar3("yuvj420p", 1, 1),
	PixelFormatYUVJ422P: planar3("yuvj422p", 1, 0),
	PixelFormatYUVJ444P: planar3("yuvj444p", 0, 0),
	PixelFormatYUV440P:  planar3("yuv440p", 0, 1),
	PixelFormatYUVJ440P: planar3("yuvj440p", 0, 1),

	PixelFormatYUYV422: {
		Name: "yuyv422", NbComponents: 3, Log2ChromaW: 1,
		Comp: [4]ComponentDescriptor{
			{Plane: 0, Step: 2, Offset: 0, Depth: 8},
			{Plane: 0, Step: 4, Offset: 1, Depth: 8},
			{Plane: 0, Step: 4, Offset: 3, Depth: 8},
		},
	},
	PixelFormatUYVY422: {
		Name: "uyvy422", NbComponents: 3, Log2ChromaW: 1,
		Comp: [4]ComponentDescriptor{
			{Plane: 0, Step: 2, Offset: 1, Depth: 8},
			{Plane: 0, Step: 4, Offset: 0, Depth: 8},
			{Plane: 0, Step: 4, Offset: 2, Depth: 8},
		},
	},

	PixelFormatRGB24: packed("rgb24", PixFmtFlagRGB, 3, 0, 1, 2),
	PixelFormatBGR24: packed("bgr24", PixFmtFlagRGB, 3, 2, 1, 0),
	PixelFormatARGB:  packed("argb", PixFmtFlagRGB|PixFmtFlagAlpha, 4, 1, 2, 3, 0),
	PixelFormatRGBA:  packed("rgba", PixFmtFlagRGB|PixFmtFlagAlpha, 4, 0, 1, 2, 3),
	PixelFormatABGR:  packed("abgr", PixFmtFlagRGB|PixFmtFlagAlpha, 4, 3, 2, 1, 0),
	PixelFormatBGRA:  packed("bgra", PixFmtFlagRGB|PixFmtFlagAlpha, 4, 2, 1, 0, 3),

	PixelFormatGray8: packed("gray", 0, 1, 0),
	PixelFormatPAL8:  packed("pal8", PixFmtFlagPAL, 1, 0),
	PixelFormatMonoW: {
		Name: "monow", NbComponents: 1, Flags: PixFmtFlagBitstream,
		Comp: [4]ComponentDescriptor{{Plane: 0, Step: 1, Depth: 1}},
	},
	PixelFormatMonoB: {
		Name: "monob", NbComponents: 1, Flags: PixFmtFlagBitstream,
		Comp: [4]ComponentDescriptor{{Plane: 0, Step: 1, Depth: 1}},
	},
	PixelFormatGray16BE: {
		Name: "gray16be", NbComponents: 1, Flags: PixFmtFlagBE,
		Comp: [4]ComponentDescriptor{{Plane: 0, Step: 2, Depth: 16}},
	},
	PixelFormatGray16LE: {
		Name: "gray16le", NbComponents: 1,
		Comp: [4]ComponentDescriptor{{Plane: 0, Step: 2, Depth: 16}},
	},

	PixelFormatNV12: {
		Name: "nv12", NbComponents: 3, Log2ChromaW: 1, Log2ChromaH: 1, Flags: PixFmtFlagPlanar,
		Comp: [4]ComponentDescriptor{
			{Plane: 0, Step: 1, Offset: 0, Depth: 8},
			{Plane: 1, Step: 2, Offset: 0, Depth: 8},
			{Plane: 1, Step: 2, Offset: 1, Depth: 8},
		},
	},
	PixelFormatNV21: {
		Name: "nv21", NbComponents: 3, Log2ChromaW: 1, Log2ChromaH: 1, Flags: PixFmtFlagPlanar,
		Comp: [4]ComponentDescriptor{
			{Plane: 0, Step: 1, Offset: 0, Depth: 8},
			{Plane: 1, Step: 2, Offset: 1, Depth: 8},
			{Plane: 1, Step: 2, Offset: 0, Depth: 8},
		},
	},

	PixelFormatYUVA420P: {
		Name: "yuva420p", NbComponents: 4, Log2ChromaW: 1, Log2ChromaH: 1,
		Flags: PixFmtFlagPlanar | PixFmtFlagAlpha,
		Comp: [4]ComponentDescriptor{
			{Plane: 0, Step: 1, Depth: 8},
			{Plane: 1, Step: 1, Depth: 8},
			{Plane: 2, Step: 1, Depth: 8},
			{Plane: 3, Step: 1, Depth: 8},
		},
	},

	PixelFormatRGB48BE: {
		Name: "rgb48be", NbComponents: 3, Flags: PixFmtFlagRGB | PixFmtFlagBE,
		Comp: [4]ComponentDescriptor{
			{Plane: 0, Step: 6, Offset: 0, Depth: 16},
			{Plane: 0, Step: 6, Offset: 2, Depth: 16},
			{Plane: 0, Step: 6, Offset: 4, Depth: 16},
		},
	},
	PixelFormatRGB48LE: {
		Name: "rgb48le", NbComponents: 3, Flags: PixFmtFlagRGB,
		Comp: [4]ComponentDescriptor{
			{Plane: 0, Step: 6, Offset: 0, Depth: 16},
			{Plane: 0, Step: 6, Offset: 2, Depth: 16},
			{Plane: 0, Step: 6, Offset: 4, Depth: 16},
		},
	},
}

var descriptorsByName = func() map[string]PixelFormat {
	m := make(map[string]PixelFormat, len(descriptors))
	for f, d := range descriptors {
		m[d.Name] = f
	}
	return m
}()

// Descriptor returns the built-in descriptor for the format.
// The returned descriptor is shared and must not be modified.
func Descriptor(p PixelFormat) (*PixFmtDescriptor, bool) {
	d, ok := descriptors[p]
	return d, ok
}

// PixelFormatByName returns the format with the given FFmpeg name
// (av_get_pix_fmt), or PixelFormatNone.
func PixelFormatByName(name string) PixelFormat {
	if f, ok := descriptorsByName[name]; ok {
		return f
	}
	return PixelFormatNone
}

// PixelFormats returns every format with a built-in descriptor, in
// ascending order.
func PixelFormats() []PixelFormat {
	out := make([]PixelFormat, 0, len(descriptors))
	for f := range descriptors {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
