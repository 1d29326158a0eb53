//go:build !ios && !android && (amd64 || arm64)

// Package recordlog stores diagnostic records in an append-only binary
// file: an 8-byte magic, then for each record a little-endian header of
// write time (unix nanoseconds, 8 bytes) and payload length (4 bytes)
// followed by the CBOR-encoded record.
package recordlog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/obinnaokechukwu/showinfo"
)

// Magic opens every record log.
const Magic = "SHWINFO1"

const headerSize = 12

// ErrClosed is returned when appending to a closed writer.
var ErrClosed = errors.New("recordlog: writer is closed")

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Writer appends records to a log. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	c   io.Closer
	w   *bufio.Writer
	now func() time.Time
}

// Create creates (or truncates) the log file at path, creating parent
// directories as needed.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// NewWriter writes the magic to w and returns a Writer appending to it.
// If w is an io.Closer it is closed by Close.
func NewWriter(w io.Writer) (*Writer, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	if _, err := bw.WriteString(Magic); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	c, _ := w.(io.Closer)
	return &Writer{c: c, w: bw, now: time.Now}, nil
}

// EmitRecord appends rec and flushes it.
func (l *Writer) EmitRecord(rec *showinfo.Record) error {
	payload, err := encMode.Marshal(rec)
	if err != nil {
		return fmt.Errorf("recordlog: encode record %d: %w", rec.N, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return ErrClosed
	}
	var header [headerSize]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(l.now().UnixNano()))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := l.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := l.w.Write(payload); err != nil {
		return err
	}
	return l.w.Flush()
}

// Close flushes and closes the log. Calling it again is a no-op.
func (l *Writer) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	err := l.w.Flush()
	l.w = nil
	if l.c != nil {
		if cerr := l.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Entry is one decoded log entry.
type Entry struct {
	Time   time.Time
	Record showinfo.Record
}

// Reader reads records back from a log.
type Reader struct {
	r io.Reader
}

// NewReader checks the magic and returns a Reader positioned at the
// first record.
func NewReader(r io.Reader) (*Reader, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("recordlog: read magic: %w", err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("recordlog: unexpected magic %q", string(magic))
	}
	return &Reader{r: r}, nil
}

// Next returns the next entry, or io.EOF at a clean end of log. A log cut
// off inside a record yields io.ErrUnexpectedEOF.
func (r *Reader) Next() (*Entry, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		return nil, err
	}
	ts := int64(binary.LittleEndian.Uint64(header[:8]))
	size := binary.LittleEndian.Uint32(header[8:12])

	payload := make([]byte, size)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	e := &Entry{Time: time.Unix(0, ts)}
	if err := cbor.Unmarshal(payload, &e.Record); err != nil {
		return nil, fmt.Errorf("recordlog: decode record: %w", err)
	}
	return e, nil
}

// ReadAll reads every remaining entry.
func (r *Reader) ReadAll() ([]Entry, error) {
	var out []Entry
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, *e)
	}
}
