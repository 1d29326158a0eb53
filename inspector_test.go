//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"bytes"
	"errors"
	"fmt"
	"hash/adler32"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// lineCollector records every emitted line.
type lineCollector struct {
	lines  []string
	closed bool
}

func (c *lineCollector) Emit(line string) error {
	c.lines = append(c.lines, line)
	return nil
}

func (c *lineCollector) Close() error {
	c.closed = true
	return nil
}

type recordCollector struct {
	records []Record
}

func (c *recordCollector) EmitRecord(rec *Record) error {
	c.records = append(c.records, *rec)
	return nil
}

// grayFrame returns a gray frame of w x h with the given stride, filled
// row by row from pixels (len w*h). Padding bytes are set to pad.
func grayFrame(t *testing.T, w, h, stride int, pixels []byte, pad byte) *Frame {
	t.Helper()
	if len(pixels) != w*h {
		t.Fatalf("grayFrame: %d pixels for %dx%d", len(pixels), w, h)
	}
	data := bytes.Repeat([]byte{pad}, stride*h)
	for y := 0; y < h; y++ {
		copy(data[y*stride:], pixels[y*w:(y+1)*w])
	}
	f := NewFrame(w, h, PixelFormatGray8)
	f.Planes[0] = Plane{Data: data, Stride: stride, RowBytes: w}
	f.PTS = 0
	f.TimeBase = NewRational(1, 25)
	f.SampleAspectRatio = NewRational(1, 1)
	f.KeyFrame = true
	f.PictureType = PictureTypeI
	return f
}

// yuv420Frame builds a w x h yuv420p frame with tight strides. Each plane
// is filled with its index-based ramp so planes differ.
func yuv420Frame(w, h int) *Frame {
	cw, ch := (w+1)/2, h/2
	f := NewFrame(w, h, PixelFormatYUV420P)
	f.Planes[0] = Plane{Data: ramp(w*h, 0), Stride: w, RowBytes: w}
	f.Planes[1] = Plane{Data: ramp(cw*ch, 100), Stride: cw, RowBytes: cw}
	f.Planes[2] = Plane{Data: ramp(cw*ch, 200), Stride: cw, RowBytes: cw}
	f.PTS = 0
	f.TimeBase = NewRational(1, 25)
	return f
}

func ramp(n int, start byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}

func newTestInspector(t *testing.T, opts ...Option) (*Inspector, *lineCollector) {
	t.Helper()
	lc := &lineCollector{}
	in, err := New(append([]Option{WithSink(lc)}, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return in, lc
}

func TestGray2x2Zero(t *testing.T) {
	in, lc := newTestInspector(t)
	f := grayFrame(t, 2, 2, 2, make([]byte, 4), 0)

	for i := 0; i < 2; i++ {
		out, err := in.Process(f)
		if err != nil {
			t.Fatalf("Process %d: %v", i, err)
		}
		if out != f {
			t.Fatalf("Process %d returned a different frame", i)
		}
	}

	want := []string{
		"n:0 pts:0 pts_time:0.000000 pos:-1 fmt:gray sar:1/1 s:2x2 i:P iskey:1 type:I checksum:262145 plane_checksum:[262145 0 0 0]",
		"n:1 pts:0 pts_time:0.000000 pos:-1 fmt:gray sar:1/1 s:2x2 i:P iskey:1 type:I checksum:262145 plane_checksum:[262145 0 0 0]",
	}
	if len(lc.lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lc.lines), len(want))
	}
	for i := range want {
		if lc.lines[i] != want[i] {
			t.Errorf("line %d:\n got %s\nwant %s", i, lc.lines[i], want[i])
		}
	}
	if in.FrameCount() != 2 {
		t.Errorf("FrameCount: got %d want 2", in.FrameCount())
	}
}

func TestGrayTwoZeroBytes(t *testing.T) {
	in, _ := newTestInspector(t)
	sums, err := in.Checksums(grayFrame(t, 2, 1, 2, []byte{0, 0}, 0))
	if err != nil {
		t.Fatalf("Checksums: %v", err)
	}
	if sums.Frame != 0x00020001 || sums.Planes[0] != 0x00020001 {
		t.Fatalf("got %#08x/%#08x, want 0x00020001", sums.Frame, sums.Planes[0])
	}
}

func TestWikipediaKnownValue(t *testing.T) {
	in, _ := newTestInspector(t)
	f := grayFrame(t, 9, 1, 16, []byte("Wikipedia"), 0xAA)
	sums, err := in.Checksums(f)
	if err != nil {
		t.Fatalf("Checksums: %v", err)
	}
	if sums.Frame != 0x11E60398 {
		t.Errorf("frame checksum: got %#08x want 0x11e60398", sums.Frame)
	}
	if sums.Planes[0] != 0x11E60398 {
		t.Errorf("plane checksum: got %#08x want 0x11e60398", sums.Planes[0])
	}
}

func TestStridePaddingIgnored(t *testing.T) {
	in, _ := newTestInspector(t)
	pixels := []byte{1, 2, 3, 4, 5, 6}

	tight, err := in.Checksums(grayFrame(t, 3, 2, 3, pixels, 0))
	if err != nil {
		t.Fatal(err)
	}
	for _, pad := range []byte{0x00, 0xFF, 0x5A} {
		padded, err := in.Checksums(grayFrame(t, 3, 2, 8, pixels, pad))
		if err != nil {
			t.Fatal(err)
		}
		if padded != tight {
			t.Errorf("pad %#x: got %+v want %+v", pad, padded, tight)
		}
	}
	if want := adler32.Checksum(pixels); tight.Frame != want {
		t.Errorf("frame checksum: got %d want %d", tight.Frame, want)
	}
}

func TestChromaRowsFollowSubsampling(t *testing.T) {
	in, _ := newTestInspector(t)
	f := yuv420Frame(4, 4)

	// Extra rows past height>>1 must not be read.
	f.Planes[1].Data = append(append([]byte{}, f.Planes[1].Data...), 0xEE, 0xEE, 0xEE, 0xEE)

	sums, err := in.Checksums(f)
	if err != nil {
		t.Fatal(err)
	}
	if want := adler32.Checksum(f.Planes[0].Data); sums.Planes[0] != want {
		t.Errorf("plane 0: got %d want %d", sums.Planes[0], want)
	}
	if want := adler32.Checksum(f.Planes[1].Data[:4]); sums.Planes[1] != want {
		t.Errorf("plane 1: got %d want %d", sums.Planes[1], want)
	}
	if want := adler32.Checksum(f.Planes[2].Data); sums.Planes[2] != want {
		t.Errorf("plane 2: got %d want %d", sums.Planes[2], want)
	}
	if sums.Planes[3] != 0 {
		t.Errorf("plane 3: got %d want 0", sums.Planes[3])
	}

	var all []byte
	all = append(all, f.Planes[0].Data...)
	all = append(all, f.Planes[1].Data[:4]...)
	all = append(all, f.Planes[2].Data...)
	if want := adler32.Checksum(all); sums.Frame != want {
		t.Errorf("frame: got %d want %d", sums.Frame, want)
	}
}

func TestCombinedChecksumIsOrdered(t *testing.T) {
	in, _ := newTestInspector(t)
	f := yuv420Frame(4, 2)
	a, err := in.Checksums(f)
	if err != nil {
		t.Fatal(err)
	}

	f.Planes[1], f.Planes[2] = f.Planes[2], f.Planes[1]
	b, err := in.Checksums(f)
	if err != nil {
		t.Fatal(err)
	}
	if a.Planes[1] != b.Planes[2] || a.Planes[2] != b.Planes[1] {
		t.Errorf("per-plane checksums did not follow the swap: %+v %+v", a, b)
	}
	if a.Frame == b.Frame {
		t.Errorf("combined checksum unchanged after swapping planes 1 and 2")
	}
}

func TestAbsentPlaneEndsIteration(t *testing.T) {
	in, _ := newTestInspector(t)
	f := yuv420Frame(2, 2)
	f.Planes[1] = Plane{}

	sums, err := in.Checksums(f)
	if err != nil {
		t.Fatal(err)
	}
	if sums.Planes[1] != 0 || sums.Planes[2] != 0 {
		t.Errorf("planes after the first absent one were read: %+v", sums)
	}
	if sums.Frame != sums.Planes[0] {
		t.Errorf("frame %d != plane 0 %d", sums.Frame, sums.Planes[0])
	}
}

func TestEmptyPlaneChecksumIsSeed(t *testing.T) {
	in, _ := newTestInspector(t)
	f := NewFrame(0, 0, PixelFormatGray8)
	f.Planes[0] = Plane{Data: []byte{}, Stride: 0, RowBytes: 0}

	sums, err := in.Checksums(f)
	if err != nil {
		t.Fatal(err)
	}
	if sums.Frame != 1 || sums.Planes[0] != 1 {
		t.Fatalf("got %+v, want seed 1 for frame and plane 0", sums)
	}

	sums, err = in.Checksums(NewFrame(2, 2, PixelFormatGray8))
	if err != nil {
		t.Fatal(err)
	}
	if sums.Frame != 1 || sums.Planes != [4]uint32{} {
		t.Fatalf("no planes: got %+v", sums)
	}
}

func TestRowBytesDerivedFromFormat(t *testing.T) {
	in, _ := newTestInspector(t)
	pixels := ramp(12, 1) // 2x2 rgb24
	data := make([]byte, 16)
	copy(data[0:6], pixels[0:6])
	copy(data[8:14], pixels[6:12])

	f := NewFrame(2, 2, PixelFormatRGB24)
	f.Planes[0] = Plane{Data: data, Stride: 8}

	sums, err := in.Checksums(f)
	if err != nil {
		t.Fatal(err)
	}
	if want := adler32.Checksum(pixels); sums.Planes[0] != want {
		t.Fatalf("got %d want %d", sums.Planes[0], want)
	}
}

func TestInterlaceAndPictureType(t *testing.T) {
	tests := []struct {
		interlaced, tff bool
		pict            PictureType
		want            string
	}{
		{false, true, PictureTypeI, "i:P iskey:1 type:I"},
		{true, true, PictureTypeP, "i:T iskey:1 type:P"},
		{true, false, PictureTypeB, "i:B iskey:1 type:B"},
		{false, false, PictureType(5), "i:P iskey:1 type:i"},
		{false, false, PictureTypeNone, "i:P iskey:1 type:?"},
	}
	for _, tt := range tests {
		in, lc := newTestInspector(t)
		f := grayFrame(t, 2, 2, 2, make([]byte, 4), 0)
		f.Interlaced = tt.interlaced
		f.TopFieldFirst = tt.tff
		f.PictureType = tt.pict
		if _, err := in.Process(f); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(lc.lines[0], tt.want) {
			t.Errorf("interlaced=%v tff=%v: line %q lacks %q", tt.interlaced, tt.tff, lc.lines[0], tt.want)
		}
	}
}

func TestRecordTiming(t *testing.T) {
	in, lc := newTestInspector(t)
	f := grayFrame(t, 2, 2, 2, make([]byte, 4), 0)
	f.PTS = 3003
	f.TimeBase = NewRational(1, 90000)
	f.Pos = 4096
	f.KeyFrame = false
	if _, err := in.Process(f); err != nil {
		t.Fatal(err)
	}
	want := "n:0 pts:3003 pts_time:0.033367 pos:4096 fmt:gray sar:1/1 s:2x2 i:P iskey:0 type:I"
	if !strings.HasPrefix(lc.lines[0], want) {
		t.Fatalf("got %q, want prefix %q", lc.lines[0], want)
	}
}

func TestProcessDoesNotModifyFrame(t *testing.T) {
	in, _ := newTestInspector(t)
	f := yuv420Frame(6, 4)
	before := *f
	var copies [4][]byte
	for i, p := range f.Planes {
		copies[i] = append([]byte(nil), p.Data...)
	}

	out, err := in.Process(f)
	if err != nil {
		t.Fatal(err)
	}
	if out != f {
		t.Fatal("Process returned a different frame")
	}
	for i, p := range f.Planes {
		if !bytes.Equal(p.Data, copies[i]) {
			t.Errorf("plane %d data changed", i)
		}
		if p.Stride != before.Planes[i].Stride || p.RowBytes != before.Planes[i].RowBytes {
			t.Errorf("plane %d geometry changed", i)
		}
	}
	if f.Width != before.Width || f.Height != before.Height || f.PTS != before.PTS {
		t.Error("frame metadata changed")
	}
}

func TestChecksumsDeterministic(t *testing.T) {
	a, _ := newTestInspector(t)
	b, _ := newTestInspector(t)
	f := yuv420Frame(8, 6)

	first, err := a.Checksums(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Process(f); err != nil {
		t.Fatal(err)
	}
	second, err := b.Checksums(f)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("checksums differ across instances: %+v %+v", first, second)
	}
	if a.FrameCount() != 1 || b.FrameCount() != 0 {
		t.Fatalf("counters: a=%d b=%d", a.FrameCount(), b.FrameCount())
	}
}

func TestUnsupportedFormat(t *testing.T) {
	in, lc := newTestInspector(t)
	f := grayFrame(t, 2, 2, 2, make([]byte, 4), 0)
	f.Format = PixelFormat(9999)

	out, err := in.Process(f)
	if out != nil {
		t.Error("expected nil frame on error")
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	var ferr *FormatError
	if !errors.As(err, &ferr) || ferr.Format != 9999 {
		t.Fatalf("expected *FormatError for 9999, got %v", err)
	}
	if len(lc.lines) != 0 || in.FrameCount() != 0 {
		t.Fatalf("record emitted or counter advanced: %d lines, count %d", len(lc.lines), in.FrameCount())
	}
}

func TestMalformedPlaneSkipped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	in, lc := newTestInspector(t, WithLogger(zap.New(core)))

	f := yuv420Frame(4, 4)
	f.Planes[1].Data = f.Planes[1].Data[:3] // needs 4

	if _, err := in.Process(f); err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := fmt.Sprintf("plane_checksum:[%d 0 %d 0]",
		adler32.Checksum(f.Planes[0].Data), adler32.Checksum(f.Planes[2].Data))
	if !strings.HasSuffix(lc.lines[0], want) {
		t.Errorf("plane 1 not reported as 0: %s", lc.lines[0])
	}
	entries := logs.FilterMessage("skipping malformed plane").All()
	if len(entries) != 1 {
		t.Fatalf("got %d warnings, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["plane"]; got != int64(1) {
		t.Errorf("warning plane field: got %v", got)
	}
	if in.FrameCount() != 1 {
		t.Errorf("FrameCount: got %d", in.FrameCount())
	}
}

func TestMalformedPlaneHugeStride(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	in, lc := newTestInspector(t, WithLogger(zap.New(core)))

	f := NewFrame(2, 3, PixelFormatGray8)
	f.Planes[0] = Plane{Data: make([]byte, 8), Stride: 1 << 62, RowBytes: 2}

	if _, err := in.Process(f); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.HasSuffix(lc.lines[0], "checksum:1 plane_checksum:[0 0 0 0]") {
		t.Errorf("line: %s", lc.lines[0])
	}
	if n := logs.FilterMessage("skipping malformed plane").Len(); n != 1 {
		t.Errorf("got %d warnings, want 1", n)
	}
}

func TestSingleRowPlaneIgnoresStride(t *testing.T) {
	in, lc := newTestInspector(t)

	f := NewFrame(2, 1, PixelFormatGray8)
	f.Planes[0] = Plane{Data: make([]byte, 2), Stride: 0, RowBytes: 2}

	if _, err := in.Process(f); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.HasSuffix(lc.lines[0], "checksum:131073 plane_checksum:[131073 0 0 0]") {
		t.Errorf("line: %s", lc.lines[0])
	}
}

func TestMalformedPlaneFails(t *testing.T) {
	in, lc := newTestInspector(t, WithMalformedPlanePolicy(PolicyFail))
	f := grayFrame(t, 4, 2, 4, make([]byte, 8), 0)
	f.Planes[0].Stride = 2 // shorter than a row

	_, err := in.Process(f)
	if !errors.Is(err, ErrMalformedPlane) {
		t.Fatalf("expected ErrMalformedPlane, got %v", err)
	}
	var perr *PlaneError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PlaneError, got %T", err)
	}
	if perr.Plane != 0 || perr.Stride != 2 || perr.RowBytes != 4 || perr.Rows != 2 {
		t.Errorf("unexpected plane error: %+v", perr)
	}
	if len(lc.lines) != 0 || in.FrameCount() != 0 {
		t.Fatal("record emitted for failed frame")
	}
}

func TestSinkFailureKeepsCounter(t *testing.T) {
	sinkErr := errors.New("disk full")
	fail := true
	var lines []string
	in, err := New(WithSink(SinkFunc(func(line string) error {
		if fail {
			return sinkErr
		}
		lines = append(lines, line)
		return nil
	})))
	if err != nil {
		t.Fatal(err)
	}

	f := grayFrame(t, 2, 2, 2, make([]byte, 4), 0)
	if _, err := in.Process(f); !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if in.FrameCount() != 0 {
		t.Fatalf("counter advanced after sink failure")
	}

	fail = false
	if _, err := in.Process(f); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "n:0 ") {
		t.Fatalf("got %v", lines)
	}
}

func TestRecordSinkReceivesRecord(t *testing.T) {
	rc := &recordCollector{}
	in, err := New(WithRecordSink(rc), WithDescription("camera 1"))
	if err != nil {
		t.Fatal(err)
	}
	f := grayFrame(t, 2, 2, 2, make([]byte, 4), 0)
	if _, err := in.Process(f); err != nil {
		t.Fatal(err)
	}

	if len(rc.records) != 1 {
		t.Fatalf("got %d records", len(rc.records))
	}
	rec := rc.records[0]
	if rec.Checksum != 0x00040001 || rec.Format != "gray" || rec.Interlace != 'P' || rec.PictureType != 'I' {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Description == nil || *rec.Description != "camera 1" {
		t.Errorf("description: %v", rec.Description)
	}
	if rec.Instance != in.ID().String() {
		t.Errorf("instance: got %q want %q", rec.Instance, in.ID())
	}
	if strings.Contains(rec.String(), "camera") {
		t.Errorf("description leaked into line: %s", rec.String())
	}
}

func TestShutdown(t *testing.T) {
	in, lc := newTestInspector(t)
	if err := in.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !lc.closed {
		t.Error("sink not closed")
	}
	f := grayFrame(t, 2, 2, 2, make([]byte, 4), 0)
	if _, err := in.Process(f); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := in.Shutdown(); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}

func TestProcessNilFrame(t *testing.T) {
	in, _ := newTestInspector(t)
	if _, err := in.Process(nil); !errors.Is(err, ErrNilFrame) {
		t.Fatalf("expected ErrNilFrame, got %v", err)
	}
}

func TestNewInvalidOptions(t *testing.T) {
	var ierr *InitError
	if _, err := New(WithSink(nil)); !errors.As(err, &ierr) {
		t.Errorf("nil sink: expected *InitError, got %v", err)
	}
	if _, err := New(WithMalformedPlanePolicy(MalformedPlanePolicy(7))); !errors.As(err, &ierr) {
		t.Errorf("bad policy: expected *InitError, got %v", err)
	}
}

func TestCustomResolver(t *testing.T) {
	custom := PixelFormat(4242)
	in, lc := newTestInspector(t, WithDescriptorResolver(ResolverFunc(func(p PixelFormat) (*PixFmtDescriptor, bool) {
		if p == custom {
			return &PixFmtDescriptor{Name: "custom8", NbComponents: 1}, true
		}
		return nil, false
	})))

	f := grayFrame(t, 2, 2, 2, make([]byte, 4), 0)
	f.Format = custom
	if _, err := in.Process(f); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(lc.lines[0], "fmt:custom8") {
		t.Errorf("line: %s", lc.lines[0])
	}

	f.Format = PixelFormatGray8
	if _, err := in.Process(f); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected resolver to reject gray, got %v", err)
	}
}
