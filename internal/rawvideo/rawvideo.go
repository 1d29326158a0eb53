//go:build !ios && !android && (amd64 || arm64)

// Package rawvideo reads headerless raw video, the layout written by
// "ffmpeg -f rawvideo": frames back to back, planes back to back within a
// frame, rows without padding.
package rawvideo

import (
	"errors"
	"fmt"
	"io"

	"github.com/obinnaokechukwu/showinfo"
	"github.com/obinnaokechukwu/showinfo/avutil"
)

// ErrUnsupportedFormat is returned for formats that raw files cannot carry
// as plain planes (palette and hardware formats).
var ErrUnsupportedFormat = errors.New("rawvideo: unsupported pixel format")

type planeLayout struct {
	rowBytes int
	rows     int
}

// Reader splits a raw stream into frames.
type Reader struct {
	r      io.Reader
	width  int
	height int
	format avutil.PixelFormat
	planes []planeLayout
	size   int

	timing *showinfo.FrameTiming
	offset int64

	pool *BufferPool
	held map[*showinfo.Frame][]byte
}

// NewReader returns a Reader for frames of the given geometry.
func NewReader(r io.Reader, width, height int, format avutil.PixelFormat) (*Reader, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("rawvideo: invalid size %dx%d", width, height)
	}
	desc, ok := avutil.Descriptor(format)
	if !ok || desc.HasFlag(avutil.PixFmtFlagPAL) || desc.HasFlag(avutil.PixFmtFlagHWAccel) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}

	rd := &Reader{r: r, width: width, height: height, format: format}
	for i := 0; i < desc.NbPlanes(); i++ {
		rowBytes, err := desc.ImageLinesize(width, i)
		if err != nil {
			return nil, err
		}
		rows := height
		if i == 1 || i == 2 {
			// Stored chroma rows round up; only height>>log2 of them are
			// fingerprinted.
			rows = -((-height) >> desc.Log2ChromaH)
		}
		rd.planes = append(rd.planes, planeLayout{rowBytes: rowBytes, rows: rows})
		rd.size += rowBytes * rows
	}
	return rd, nil
}

// SetTiming stamps every frame read from now on with timing's PTS values.
func (rd *Reader) SetTiming(t *showinfo.FrameTiming) {
	rd.timing = t
}

// SetPool makes Next take frame buffers from pool. Frames must then be
// handed back with Release once the caller is done with them.
func (rd *Reader) SetPool(pool *BufferPool) {
	rd.pool = pool
	rd.held = make(map[*showinfo.Frame][]byte)
}

// Release returns the buffer behind f to the pool. It is a no-op without a
// pool or for frames not read by rd.
func (rd *Reader) Release(f *showinfo.Frame) error {
	buf, ok := rd.held[f]
	if !ok {
		return nil
	}
	delete(rd.held, f)
	return rd.pool.Put(buf)
}

// FrameSize returns the number of bytes in one frame.
func (rd *Reader) FrameSize() int {
	return rd.size
}

// Next reads one frame into a fresh or pooled buffer. It returns io.EOF
// at a clean end of stream and io.ErrUnexpectedEOF for a trailing partial
// frame.
func (rd *Reader) Next() (*showinfo.Frame, error) {
	buf, err := rd.buffer()
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(rd.r, buf); err != nil {
		if rd.pool != nil {
			_ = rd.pool.Put(buf)
		}
		return nil, err
	}

	f := showinfo.NewFrame(rd.width, rd.height, rd.format)
	f.Pos = rd.offset
	f.SampleAspectRatio = showinfo.NewRational(1, 1)
	f.KeyFrame = true
	f.PictureType = showinfo.PictureTypeI

	off := 0
	for i, p := range rd.planes {
		n := p.rowBytes * p.rows
		f.Planes[i] = showinfo.Plane{
			Data:     buf[off : off+n : off+n],
			Stride:   p.rowBytes,
			RowBytes: p.rowBytes,
		}
		off += n
	}
	rd.offset += int64(rd.size)

	if rd.timing != nil {
		rd.timing.Stamp(f)
	}
	if rd.pool != nil {
		rd.held[f] = buf
	}
	return f, nil
}

func (rd *Reader) buffer() ([]byte, error) {
	if rd.pool == nil {
		return make([]byte, rd.size), nil
	}
	if rd.pool.size != rd.size {
		return nil, fmt.Errorf("rawvideo: pool buffers are %d bytes, frames need %d", rd.pool.size, rd.size)
	}
	return rd.pool.Get()
}
