//go:build !ios && !android && (amd64 || arm64)

package showinfo

// Plane is one pixel plane of a frame.
//
// Stride is the distance in bytes between the starts of consecutive rows
// and may include padding. RowBytes is the number of meaningful bytes at
// the start of each row. A zero RowBytes on a present plane means "derive
// it from the pixel format and frame width".
type Plane struct {
	Data     []byte
	Stride   int
	RowBytes int
}

// Present reports whether the plane has a buffer.
func (p Plane) Present() bool {
	return p.Data != nil
}

// Row returns the logical bytes of row i, never the padding after them.
// It returns nil when the row does not lie entirely inside Data.
// The returned slice has no spare capacity.
func (p Plane) Row(i int) []byte {
	if i < 0 || p.RowBytes < 0 || p.Stride < 0 || p.RowBytes > len(p.Data) {
		return nil
	}
	// Compare by division so huge strides cannot overflow.
	if i > 0 && p.Stride > (len(p.Data)-p.RowBytes)/i {
		return nil
	}
	start := i * p.Stride
	end := start + p.RowBytes
	return p.Data[start:end:end]
}

// fits reports whether rows rows of RowBytes bytes, Stride apart, lie
// inside Data without overlapping. Stride only matters past the first row.
func (p Plane) fits(rows int) bool {
	if p.RowBytes < 0 {
		return false
	}
	if rows <= 0 {
		return true
	}
	if p.RowBytes > len(p.Data) {
		return false
	}
	if rows == 1 {
		return true
	}
	if p.Stride < p.RowBytes {
		return false
	}
	return p.Stride <= (len(p.Data)-p.RowBytes)/(rows-1)
}

// Frame is a read-only view of one video frame owned by the pipeline host.
// The inspector never writes to it and never keeps it after Process
// returns.
type Frame struct {
	// Planes holds up to four planes. The first plane with a nil Data ends
	// the list.
	Planes [4]Plane

	Width  int
	Height int
	Format PixelFormat

	PTS      int64
	TimeBase Rational

	// Pos is the byte offset of the frame in its source, or -1.
	Pos int64

	SampleAspectRatio Rational

	Interlaced    bool
	TopFieldFirst bool // meaningful only when Interlaced
	KeyFrame      bool
	PictureType   PictureType
}

// NewFrame returns a frame with the given geometry and no planes.
// Pos is -1 and PTS is NoPTSValue until set.
func NewFrame(width, height int, format PixelFormat) *Frame {
	return &Frame{
		Width:             width,
		Height:            height,
		Format:            format,
		PTS:               NoPTSValue,
		Pos:               -1,
		SampleAspectRatio: Rational{Num: 0, Den: 1},
	}
}

// NumPlanes returns the number of leading present planes.
func (f *Frame) NumPlanes() int {
	if f == nil {
		return 0
	}
	n := 0
	for n < len(f.Planes) && f.Planes[n].Present() {
		n++
	}
	return n
}

// Interlace returns the field classification: 'P' progressive, 'T' top
// field first, 'B' bottom field first.
func (f *Frame) Interlace() byte {
	switch {
	case !f.Interlaced:
		return 'P'
	case f.TopFieldFirst:
		return 'T'
	default:
		return 'B'
	}
}

// PTSTime returns the presentation time in seconds, PTS * TimeBase.
func (f *Frame) PTSTime() float64 {
	return float64(f.PTS) * f.TimeBase.Float64()
}

// planeRows returns how many rows plane holds in a frame of the given
// height. Chroma planes 1 and 2 are subsampled; luma and alpha are not.
func planeRows(plane, height, log2ChromaH int) int {
	if plane == 1 || plane == 2 {
		return height >> log2ChromaH
	}
	return height
}
