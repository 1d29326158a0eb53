//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"errors"
	"fmt"
	"math"
)

// FrameTiming stamps frames that arrive without timestamps, such as raw
// video read from a file, with evenly spaced PTS values.
type FrameTiming struct {
	TimeBase Rational
	FPS      float64

	// Step is the per-frame increment in TimeBase units.
	Step int64

	NextPTS int64
}

// NewFrameTiming constructs a FrameTiming for the given time base and nominal frame rate.
func NewFrameTiming(timebase Rational, fps float64) (*FrameTiming, error) {
	if timebase.Den <= 0 || timebase.Num <= 0 {
		return nil, errors.New("showinfo: invalid time base")
	}
	if fps <= 0 {
		return nil, errors.New("showinfo: fps must be positive")
	}
	step := int64(math.Round(float64(timebase.Den) / (float64(timebase.Num) * fps)))
	if step <= 0 {
		step = 1
	}
	return &FrameTiming{
		TimeBase: timebase,
		FPS:      fps,
		Step:     step,
	}, nil
}

// Next returns the next PTS and advances.
func (t *FrameTiming) Next() int64 {
	if t == nil {
		return NoPTSValue
	}
	pts := t.NextPTS
	t.NextPTS += t.Step
	return pts
}

// Stamp sets the frame's PTS and time base from the timing.
func (t *FrameTiming) Stamp(f *Frame) {
	if f == nil {
		return
	}
	f.PTS = t.Next()
	f.TimeBase = t.TimeBase
}

// ValidateTimestamps checks that record PTS values are non-decreasing,
// ignoring records without a timestamp.
func ValidateTimestamps(records []Record) error {
	last := NoPTSValue
	for i, r := range records {
		if r.PTS == NoPTSValue {
			continue
		}
		if last != NoPTSValue && r.PTS < last {
			return fmt.Errorf("showinfo: non-monotonic PTS at record %d: prev=%d curr=%d", i, last, r.PTS)
		}
		last = r.PTS
	}
	return nil
}
