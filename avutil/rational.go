//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"fmt"
	"strconv"
	"strings"
)

// Rational is an AVRational: frame time bases and sample aspect ratios.
type Rational struct {
	Num int32
	Den int32
}

// NewRational returns num/den. It does not reduce.
func NewRational(num, den int32) Rational {
	return Rational{Num: num, Den: den}
}

// Float64 is av_q2d. A zero denominator yields 0.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// IsZero reports whether the numerator is zero.
func (r Rational) IsZero() bool {
	return r.Num == 0
}

// String formats the rational as "num/den", the way the sar field is
// printed.
func (r Rational) String() string {
	return strconv.FormatInt(int64(r.Num), 10) + "/" + strconv.FormatInt(int64(r.Den), 10)
}

// ParseRational parses "num/den", "num:den" or a bare integer ("25" is 25/1).
func ParseRational(s string) (Rational, error) {
	num, den := s, "1"
	if i := strings.IndexAny(s, "/:"); i >= 0 {
		num, den = s[:i], s[i+1:]
	}
	n, err := strconv.ParseInt(num, 10, 32)
	if err != nil {
		return Rational{}, fmt.Errorf("rational %q: %w", s, err)
	}
	d, err := strconv.ParseInt(den, 10, 32)
	if err != nil {
		return Rational{}, fmt.Errorf("rational %q: %w", s, err)
	}
	return Rational{Num: int32(n), Den: int32(d)}, nil
}
