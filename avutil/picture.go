//go:build !ios && !android && (amd64 || arm64)

package avutil

// PictureType is the coding role of a video frame (AVPictureType).
type PictureType int32

const (
	PictureTypeNone PictureType = 0 // Undefined
	PictureTypeI    PictureType = 1 // Intra
	PictureTypeP    PictureType = 2 // Predicted
	PictureTypeB    PictureType = 3 // Bi-directionally predicted
	PictureTypeS    PictureType = 4 // S(GMC)-VOP MPEG-4
	PictureTypeSI   PictureType = 5 // Switching intra
	PictureTypeSP   PictureType = 6 // Switching predicted
	PictureTypeBI   PictureType = 7 // BI type
)

// Char returns the single-character code of the picture type
// (av_get_picture_type_char). Unknown types map to '?'.
func (t PictureType) Char() byte {
	switch t {
	case PictureTypeI:
		return 'I'
	case PictureTypeP:
		return 'P'
	case PictureTypeB:
		return 'B'
	case PictureTypeS:
		return 'S'
	case PictureTypeSI:
		return 'i'
	case PictureTypeSP:
		return 'p'
	case PictureTypeBI:
		return 'b'
	default:
		return '?'
	}
}

// String returns the picture type code as a string.
func (t PictureType) String() string {
	return string(t.Char())
}
