//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/obinnaokechukwu/showinfo"
	"github.com/obinnaokechukwu/showinfo/avutil"
	"github.com/obinnaokechukwu/showinfo/internal/recordlog"
)

// checksumVerifier recomputes frame checksums with av_adler32_update and
// counts disagreements with the inspector.
type checksumVerifier struct {
	desc       *avutil.PixFmtDescriptor
	logger     *zap.SugaredLogger
	frames     uint64
	mismatches uint64
}

func newChecksumVerifier(format avutil.PixelFormat, logger *zap.SugaredLogger) (*checksumVerifier, error) {
	desc, ok := avutil.LibDescriptor(format)
	if !ok {
		return nil, fmt.Errorf("no descriptor for pixel format %v", format)
	}
	return &checksumVerifier{desc: desc, logger: logger}, nil
}

func (v *checksumVerifier) check(f *showinfo.Frame, got showinfo.Checksums) error {
	want, err := v.libChecksums(f)
	if err != nil {
		return err
	}
	n := v.frames
	v.frames++
	if want == got {
		return nil
	}
	v.mismatches++
	v.logger.Errorw("checksum mismatch",
		"n", n,
		"checksum", got.Frame,
		"libavutil_checksum", want.Frame,
		"plane_checksum", got.Planes,
		"libavutil_plane_checksum", want.Planes)
	return nil
}

func (v *checksumVerifier) libChecksums(f *showinfo.Frame) (showinfo.Checksums, error) {
	var sums showinfo.Checksums
	combined := uint32(1)
	for i := 0; i < f.NumPlanes(); i++ {
		p := f.Planes[i]
		rows := f.Height
		if i == 1 || i == 2 {
			rows = f.Height >> v.desc.Log2ChromaH
		}
		plane := uint32(1)
		for r := 0; r < rows; r++ {
			row := p.Row(r)
			var err error
			if plane, err = avutil.Adler32Update(plane, row); err != nil {
				return sums, err
			}
			if combined, err = avutil.Adler32Update(combined, row); err != nil {
				return sums, err
			}
		}
		sums.Planes[i] = plane
	}
	sums.Frame = combined
	return sums, nil
}

// checkRecordLog reads back the record log written during the run and
// checks that it holds want records, numbered from 0, with non-decreasing
// PTS.
func checkRecordLog(path string, want uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := recordlog.NewReader(f)
	if err != nil {
		return err
	}
	entries, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("record log %s: %w", path, err)
	}
	if uint64(len(entries)) != want {
		return fmt.Errorf("record log %s: %d records, processed %d frames", path, len(entries), want)
	}
	records := make([]showinfo.Record, len(entries))
	for i, e := range entries {
		if e.Record.N != uint64(i) {
			return fmt.Errorf("record log %s: record %d has n:%d", path, i, e.Record.N)
		}
		records[i] = e.Record
	}
	return showinfo.ValidateTimestamps(records)
}
