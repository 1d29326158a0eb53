//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"hash"
	"hash/adler32"

	"github.com/obinnaokechukwu/showinfo/avutil"
)

// Checksums holds the Adler-32 fingerprints of one frame.
//
// Frame covers every present plane, fed in plane order 0 to 3. Planes[i]
// covers plane i alone; it is 0 when the plane is absent or was skipped
// as malformed.
type Checksums struct {
	Frame  uint32
	Planes [4]uint32
}

// MalformedPlanePolicy selects what happens when a plane's rows do not fit
// its buffer.
type MalformedPlanePolicy int

const (
	// PolicySkipPlane leaves the plane out of every checksum, reports 0
	// for it and logs a warning.
	PolicySkipPlane MalformedPlanePolicy = iota

	// PolicyFail aborts processing of the frame with a *PlaneError.
	PolicyFail
)

func (p MalformedPlanePolicy) String() string {
	switch p {
	case PolicySkipPlane:
		return "skip"
	case PolicyFail:
		return "fail"
	default:
		return "unknown"
	}
}

// planeGeometry returns plane i with RowBytes filled in and its row count.
// A zero RowBytes on a present plane is derived from the format and width;
// a format that cannot describe the plane yields RowBytes -1, which fails
// validation.
func planeGeometry(f *Frame, d *avutil.PixFmtDescriptor, i int) (Plane, int) {
	p := f.Planes[i]
	if p.RowBytes == 0 {
		n, err := d.ImageLinesize(f.Width, i)
		if err != nil {
			n = -1
		}
		p.RowBytes = n
	}
	rows := planeRows(i, f.Height, d.Log2ChromaH)
	if rows < 0 {
		rows = 0
	}
	return p, rows
}

// computeChecksums walks the present planes of f. skipped is called for
// each plane left out under PolicySkipPlane.
func computeChecksums(f *Frame, d *avutil.PixFmtDescriptor, policy MalformedPlanePolicy, skipped func(*PlaneError)) (Checksums, error) {
	var sums Checksums
	combined := adler32.New()

	for i := 0; i < len(f.Planes) && f.Planes[i].Present(); i++ {
		p, rows := planeGeometry(f, d, i)
		if !p.fits(rows) {
			perr := &PlaneError{
				Plane:    i,
				Rows:     rows,
				Stride:   p.Stride,
				RowBytes: p.RowBytes,
				Len:      len(p.Data),
			}
			if policy == PolicyFail {
				return Checksums{}, perr
			}
			if skipped != nil {
				skipped(perr)
			}
			continue
		}
		sums.Planes[i] = feedPlane(p, rows, combined)
	}

	sums.Frame = combined.Sum32()
	return sums, nil
}

// feedPlane writes each logical row of p to its own accumulator and to
// combined, and returns the plane's checksum.
func feedPlane(p Plane, rows int, combined hash.Hash32) uint32 {
	h := adler32.New()
	for r := 0; r < rows; r++ {
		row := p.Row(r)
		// hash.Hash writes never fail.
		h.Write(row)
		combined.Write(row)
	}
	return h.Sum32()
}
