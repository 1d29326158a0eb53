//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"fmt"
	"unsafe"

	"github.com/obinnaokechukwu/showinfo/avutil"
)

// FrameFromAVFrame returns a Frame viewing the buffers of an FFmpeg
// AVFrame. No pixel data is copied: the view is valid only while the
// AVFrame is alive and unmodified.
//
// The AVFrame's own time base is used when it is set; tb otherwise. Pos is
// always -1. Requires libavutil with a known AVFrame layout.
func FrameFromAVFrame(f avutil.Frame, tb Rational) (*Frame, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	if err := avutil.Load(); err != nil {
		return nil, err
	}
	if !avutil.FrameFieldsSupported() {
		return nil, avutil.ErrFrameLayout
	}

	format := avutil.GetFrameFormat(f)
	desc, ok := avutil.LibDescriptor(format)
	if !ok {
		return nil, &FormatError{Format: format}
	}

	frame := NewFrame(int(avutil.GetFrameWidth(f)), int(avutil.GetFrameHeight(f)), format)
	frame.PTS = avutil.GetFramePTS(f)
	frame.TimeBase = tb
	if ftb := avutil.GetFrameTimeBase(f); ftb.Den != 0 && !ftb.IsZero() {
		frame.TimeBase = ftb
	}
	frame.SampleAspectRatio = avutil.GetFrameSampleAspectRatio(f)
	frame.Interlaced, frame.TopFieldFirst = avutil.GetFrameInterlaced(f)
	frame.KeyFrame = avutil.GetFrameKeyFrame(f)
	frame.PictureType = avutil.GetFramePictType(f)

	for i := range frame.Planes {
		ptr := avutil.GetFrameDataPlane(f, i)
		if ptr == nil {
			break
		}
		linesize := int(avutil.GetFrameLinesizePlane(f, i))
		rowBytes, err := desc.ImageLinesize(frame.Width, i)
		if err != nil {
			return nil, err
		}
		rows := planeRows(i, frame.Height, desc.Log2ChromaH)
		if linesize < rowBytes {
			// Negative linesizes (bottom-up images) land here too.
			return nil, fmt.Errorf("showinfo: plane %d: linesize %d shorter than row of %d bytes: %w",
				i, linesize, rowBytes, ErrMalformedPlane)
		}

		size := 0
		if rows > 0 {
			size = (rows-1)*linesize + rowBytes
		}
		frame.Planes[i] = Plane{
			Data:     unsafe.Slice((*byte)(ptr), size),
			Stride:   linesize,
			RowBytes: rowBytes,
		}
	}
	return frame, nil
}
