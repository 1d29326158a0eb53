//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"math"
	"testing"
)

func TestFrameTimingStep(t *testing.T) {
	ft, err := NewFrameTiming(NewRational(1, 90000), 25)
	if err != nil {
		t.Fatalf("NewFrameTiming: %v", err)
	}
	if ft.Step != 3600 {
		t.Fatalf("step: got %d want 3600", ft.Step)
	}

	f := NewFrame(2, 2, PixelFormatGray8)
	ft.Stamp(f)
	ft.Stamp(f)
	if f.PTS != 3600 {
		t.Fatalf("pts: got %d want 3600", f.PTS)
	}
	if f.TimeBase != NewRational(1, 90000) {
		t.Fatalf("time base: got %v", f.TimeBase)
	}
	if got := f.PTSTime(); math.Abs(got-0.04) > 1e-12 {
		t.Fatalf("pts_time: got %f want 0.04", got)
	}
}

func TestNewFrameTimingInvalid(t *testing.T) {
	if _, err := NewFrameTiming(NewRational(0, 1), 25); err == nil {
		t.Fatal("expected error for zero time base")
	}
	if _, err := NewFrameTiming(NewRational(1, 25), 0); err == nil {
		t.Fatal("expected error for zero fps")
	}
	var ft *FrameTiming
	if got := ft.Next(); got != NoPTSValue {
		t.Fatalf("nil timing: got %d", got)
	}
}

func TestValidateTimestamps(t *testing.T) {
	recs := []Record{{PTS: 0}, {PTS: NoPTSValue}, {PTS: 1}, {PTS: 2}}
	if err := ValidateTimestamps(recs); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	recs[2].PTS = -1
	if err := ValidateTimestamps(recs); err == nil {
		t.Fatalf("expected error for non-monotonic pts")
	}
}
