//go:build !ios && !android && (amd64 || arm64)

package showinfo

import (
	"fmt"
)

// Record is the diagnostic summary of one processed frame.
type Record struct {
	N       uint64  `cbor:"n" json:"n"`
	PTS     int64   `cbor:"pts" json:"pts"`
	PTSTime float64 `cbor:"pts_time" json:"pts_time"`
	Pos     int64   `cbor:"pos" json:"pos"`
	Format  string  `cbor:"fmt" json:"fmt"`

	SAR    Rational `cbor:"sar" json:"sar"`
	Width  int      `cbor:"w" json:"w"`
	Height int      `cbor:"h" json:"h"`

	// Interlace is 'P', 'T' or 'B'.
	Interlace byte `cbor:"i" json:"i"`
	KeyFrame  bool `cbor:"iskey" json:"iskey"`

	// PictureType is the picture type character, '?' when unknown.
	PictureType byte `cbor:"type" json:"type"`

	Checksum       uint32    `cbor:"checksum" json:"checksum"`
	PlaneChecksums [4]uint32 `cbor:"plane_checksum" json:"plane_checksum"`

	// Description and Instance label the inspector that produced the
	// record. Neither appears in the text line.
	Description *string `cbor:"desc,omitempty" json:"desc,omitempty"`
	Instance    string  `cbor:"instance,omitempty" json:"instance,omitempty"`
}

// String formats the record as the single diagnostic line.
func (r *Record) String() string {
	return fmt.Sprintf("n:%d pts:%d pts_time:%f pos:%d fmt:%s sar:%d/%d s:%dx%d i:%c iskey:%d type:%c checksum:%d plane_checksum:[%d %d %d %d]",
		r.N, r.PTS, r.PTSTime, r.Pos, r.Format,
		r.SAR.Num, r.SAR.Den,
		r.Width, r.Height,
		r.Interlace, boolDigit(r.KeyFrame), r.PictureType,
		r.Checksum,
		r.PlaneChecksums[0], r.PlaneChecksums[1], r.PlaneChecksums[2], r.PlaneChecksums[3])
}

func boolDigit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newRecord assembles the record for frame n.
func newRecord(n uint64, f *Frame, formatName string, sums Checksums) Record {
	return Record{
		N:              n,
		PTS:            f.PTS,
		PTSTime:        f.PTSTime(),
		Pos:            f.Pos,
		Format:         formatName,
		SAR:            f.SampleAspectRatio,
		Width:          f.Width,
		Height:         f.Height,
		Interlace:      f.Interlace(),
		KeyFrame:       f.KeyFrame,
		PictureType:    f.PictureType.Char(),
		Checksum:       sums.Frame,
		PlaneChecksums: sums.Planes,
	}
}
