//go:build !ios && !android && (amd64 || arm64)

// Package showinfo is a pass-through diagnostic stage for video pipelines.
// For every frame it computes Adler-32 checksums of the pixel planes and
// emits one line describing the frame, then hands the frame back
// unchanged:
//
//	n:0 pts:0 pts_time:0.000000 pos:-1 fmt:gray sar:1/1 s:2x2 i:P iskey:1 type:I checksum:262145 plane_checksum:[262145 0 0 0]
//
// The checksum core is pure Go. libavutil is loaded with purego only when
// asked for (Init, WithLibAVUtil, FrameFromAVFrame) and is never required.
package showinfo

import (
	"github.com/obinnaokechukwu/showinfo/avutil"
	"github.com/obinnaokechukwu/showinfo/internal/bindings"
)

// Init loads libavutil. It is optional; call it to use FFmpeg-allocated
// frames or to resolve pixel formats missing from the built-in table.
// It is safe to call multiple times.
func Init() error {
	return avutil.Load()
}

// IsLoaded returns true if libavutil has been successfully loaded.
func IsLoaded() bool {
	return bindings.IsLoaded()
}

// Version returns the libavutil version, or 0 if it is not loaded.
func Version() uint32 {
	return bindings.AVUtilVersion()
}

// Re-export common types for convenience
type (
	// Rational represents a rational number (fraction).
	Rational = avutil.Rational

	// PixelFormat represents video pixel formats.
	PixelFormat = avutil.PixelFormat

	// PictureType is the coding role of a frame.
	PictureType = avutil.PictureType
)

// Re-export common constants
const (
	PixelFormatNone     = avutil.PixelFormatNone
	PixelFormatYUV420P  = avutil.PixelFormatYUV420P
	PixelFormatYUVJ420P = avutil.PixelFormatYUVJ420P
	PixelFormatYUV422P  = avutil.PixelFormatYUV422P
	PixelFormatYUV444P  = avutil.PixelFormatYUV444P
	PixelFormatYUVA420P = avutil.PixelFormatYUVA420P
	PixelFormatNV12     = avutil.PixelFormatNV12
	PixelFormatGray8    = avutil.PixelFormatGray8
	PixelFormatRGB24    = avutil.PixelFormatRGB24
	PixelFormatRGBA     = avutil.PixelFormatRGBA

	PictureTypeNone = avutil.PictureTypeNone
	PictureTypeI    = avutil.PictureTypeI
	PictureTypeP    = avutil.PictureTypeP
	PictureTypeB    = avutil.PictureTypeB

	// NoPTSValue marks a frame without a presentation timestamp.
	NoPTSValue = avutil.NoPTSValue
)

// NewRational creates a new rational number.
func NewRational(num, den int32) Rational {
	return avutil.NewRational(num, den)
}
