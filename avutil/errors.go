//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"errors"
	"fmt"
	"syscall"
)

// Common FFmpeg error codes (AVERROR values)
const (
	AVERROR_EINVAL      int32 = -int32(syscall.EINVAL) // Invalid argument
	AVERROR_ENOMEM      int32 = -int32(syscall.ENOMEM) // Out of memory
	AVERROR_INVALIDDATA int32 = -1094995529            // Invalid data
	AVERROR_BUG         int32 = -558323010             // Bug detected
)

// Error represents an FFmpeg error.
type Error struct {
	Code    int32  // Raw FFmpeg error code
	Message string // Human-readable message
	Op      string // Operation that failed
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ffmpeg %s: %s (code %d)", e.Op, e.Message, e.Code)
}

// NewError creates a new FFmpeg error from an error code.
// Returns nil if code >= 0.
func NewError(code int32, op string) error {
	if code >= 0 {
		return nil
	}
	return &Error{
		Code:    code,
		Message: ErrorString(code),
		Op:      op,
	}
}

// Code returns the FFmpeg error code from an error, or 0 if not an FFmpeg error.
func Code(err error) int32 {
	var ffErr *Error
	if errors.As(err, &ffErr) {
		return ffErr.Code
	}
	return 0
}

// ErrorString returns a human-readable message for an FFmpeg error code.
// libavutil's av_strerror is used when loaded.
func ErrorString(errnum int32) string {
	if msg, ok := libErrorString(errnum); ok {
		return msg
	}
	switch errnum {
	case AVERROR_EINVAL:
		return "Invalid argument"
	case AVERROR_ENOMEM:
		return "Cannot allocate memory"
	case AVERROR_INVALIDDATA:
		return "Invalid data found when processing input"
	case AVERROR_BUG:
		return "Internal bug, should not have happened"
	default:
		return fmt.Sprintf("Error number %d occurred", errnum)
	}
}
