//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"errors"
	"fmt"

	"github.com/obinnaokechukwu/showinfo/avutil"
)

// FFmpegError is an error from a libavutil call.
// It contains the raw FFmpeg error code and a human-readable message.
type FFmpegError = avutil.Error

// Common errors
var (
	// ErrUnsupportedFormat indicates the frame's pixel format has no descriptor.
	ErrUnsupportedFormat = errors.New("showinfo: unsupported pixel format")

	// ErrMalformedPlane indicates a plane's geometry does not fit its buffer.
	ErrMalformedPlane = errors.New("showinfo: malformed plane")

	// ErrClosed indicates the inspector has been shut down.
	ErrClosed = errors.New("showinfo: inspector is closed")

	// ErrNilFrame indicates a nil frame was passed to Process.
	ErrNilFrame = errors.New("showinfo: nil frame")
)

// FormatError reports a frame whose pixel format could not be resolved.
type FormatError struct {
	Format PixelFormat
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: %d", ErrUnsupportedFormat, int32(e.Format))
}

func (e *FormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// PlaneError describes a plane whose rows would read past its buffer.
type PlaneError struct {
	Plane    int
	Rows     int
	Stride   int
	RowBytes int
	Len      int
}

func (e *PlaneError) Error() string {
	return fmt.Sprintf("%v %d: %d rows of %d bytes at stride %d need more than %d bytes",
		ErrMalformedPlane, e.Plane, e.Rows, e.RowBytes, e.Stride, e.Len)
}

func (e *PlaneError) Unwrap() error {
	return ErrMalformedPlane
}

// InitError reports a failure to create an Inspector.
type InitError struct {
	Op  string
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("showinfo: init %s: %v", e.Op, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the FFmpeg error code from an error, or 0 if not an FFmpeg error.
func ErrorCode(err error) int32 {
	return avutil.Code(err)
}
