//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"errors"
	"fmt"
)

// Stage is one step of a frame pipeline. Process may return the input
// frame or a different one; the next stage receives whatever it returns.
type Stage interface {
	Process(frame *Frame) (*Frame, error)
	Shutdown() error
}

var _ Stage = (*Inspector)(nil)

// Chain runs frames through stages in order.
type Chain []Stage

// Process passes frame through each stage, stopping at the first error.
func (c Chain) Process(frame *Frame) (*Frame, error) {
	for i, s := range c {
		out, err := s.Process(frame)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		frame = out
	}
	return frame, nil
}

// Shutdown shuts down every stage, even after a failure, and returns the
// joined errors.
func (c Chain) Shutdown() error {
	var errs []error
	for i, s := range c {
		if err := s.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("stage %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
