package bitmap

import "math/bits"

// BmpPermissiveness selects how strictly the BMP decoder rejects
// deviations from the format. The zero value is Standard, matching the
// spec's documented default.
type BmpPermissiveness int

const (
	BmpStandard BmpPermissiveness = iota
	BmpStrict
	BmpPermissive
)

func (p BmpPermissiveness) String() string {
	switch p {
	case BmpStandard:
		return "Standard"
	case BmpStrict:
		return "Strict"
	case BmpPermissive:
		return "Permissive"
	default:
		return "BmpPermissiveness(?)"
	}
}

type bmpCompression uint32

const (
	compNone           bmpCompression = 0
	compRLE8           bmpCompression = 1
	compRLE4           bmpCompression = 2
	compBitfields      bmpCompression = 3
	compJPEG           bmpCompression = 4
	compPNG            bmpCompression = 5
	compAlphaBitfields bmpCompression = 6
)

const (
	bmpFileHeaderLen = 14
)

// bmpHeader is the flat, polymorphic parsed intermediate described in §9's
// design notes: every info-header revision's fields land here with
// documented defaults for whichever fields that revision doesn't carry,
// instead of an inheritance hierarchy per variant.
type bmpHeader struct {
	FileSize         uint32
	DataOffset       uint32
	InfoHeaderSize   uint32
	Width            uint32
	Height           uint32
	TopDown          bool
	Planes           uint16
	BitDepth         uint16
	Compression      bmpCompression
	ImageByteSize    uint32
	PaletteCount     uint32
	PaletteImportant uint32
	MaskR            uint32
	MaskG            uint32
	MaskB            uint32
	MaskA            uint32
	HasAlphaMask     bool
	paletteEntryLen  int
}

var validInfoHeaderSizes = map[uint32]bool{
	12: true, 16: true, 40: true, 52: true, 56: true, 64: true, 108: true, 124: true,
}

func validBMPMagic(magic string, perm BmpPermissiveness) bool {
	if magic == "BM" {
		return true
	}
	if perm != BmpPermissive {
		return false
	}
	switch magic {
	case "BA", "CI", "CP", "IC", "PT":
		return true
	}
	return false
}

func validBitDepth(d uint16) bool {
	switch d {
	case 1, 2, 4, 8, 16, 24, 32:
		return true
	}
	return false
}

// parseBMPHeader reads the 14-byte file header and the polymorphic info
// header, validates the bit depth/compression pairing and palette bounds,
// and resolves channel masks for 16/32bpp bitfield images.
func parseBMPHeader(data []byte, perm BmpPermissiveness) (bmpHeader, error) {
	r := newByteReader(data)
	magicBytes, err := r.readSlice(2)
	if err != nil {
		return bmpHeader{}, newError(KindTruncated, "BMP file header truncated")
	}
	if !validBMPMagic(string(magicBytes), perm) {
		return bmpHeader{}, newError(KindBadMagic, "not a BMP file")
	}
	fileSize, err := r.readU32LE()
	if err != nil {
		return bmpHeader{}, newError(KindTruncated, "BMP file header truncated")
	}
	reserved1, err := r.readU16LE()
	if err != nil {
		return bmpHeader{}, newError(KindTruncated, "BMP file header truncated")
	}
	reserved2, err := r.readU16LE()
	if err != nil {
		return bmpHeader{}, newError(KindTruncated, "BMP file header truncated")
	}
	if perm == BmpStrict && (reserved1 != 0 || reserved2 != 0) {
		return bmpHeader{}, newError(KindBadHeader, "reserved file header fields must be zero")
	}
	dataOffset, err := r.readU32LE()
	if err != nil {
		return bmpHeader{}, newError(KindTruncated, "BMP file header truncated")
	}

	infoSize, err := r.readU32LE()
	if err != nil {
		return bmpHeader{}, newError(KindTruncated, "BMP info header truncated")
	}
	variant := infoSize
	if !validInfoHeaderSizes[infoSize] {
		if perm == BmpPermissive && infoSize >= 40 {
			variant = 40
		} else {
			return bmpHeader{}, newErrorf(KindUnsupportedFormat, "unsupported DIB header size %d", infoSize)
		}
	}
	if infoSize < 4 {
		return bmpHeader{}, newError(KindBadHeader, "DIB header size too small")
	}
	infoBody, err := r.readSlice(int(infoSize) - 4)
	if err != nil {
		return bmpHeader{}, newError(KindTruncated, "BMP info header truncated")
	}

	h := bmpHeader{FileSize: fileSize, DataOffset: dataOffset, InfoHeaderSize: infoSize}
	if infoSize == 12 || infoSize == 16 {
		h.paletteEntryLen = 3
		if len(infoBody) < 8 {
			return bmpHeader{}, newError(KindTruncated, "BMP core header truncated")
		}
		w := uint16(infoBody[0]) | uint16(infoBody[1])<<8
		ht := uint16(infoBody[2]) | uint16(infoBody[3])<<8
		h.Width = uint32(w)
		h.Height = uint32(ht)
		h.Planes = uint16(infoBody[4]) | uint16(infoBody[5])<<8
		h.BitDepth = uint16(infoBody[6]) | uint16(infoBody[7])<<8
		h.Compression = compNone
	} else {
		h.paletteEntryLen = 4
		if len(infoBody) < 36 {
			return bmpHeader{}, newError(KindTruncated, "BMP info header truncated")
		}
		width := int32(le32(infoBody[0:]))
		height := int32(le32(infoBody[4:]))
		if height < 0 {
			h.TopDown = true
			height = -height
		}
		if width < 0 {
			return bmpHeader{}, newError(KindUnsupportedFormat, "negative width")
		}
		h.Width = uint32(width)
		h.Height = uint32(height)
		h.Planes = le16(infoBody[8:])
		h.BitDepth = le16(infoBody[10:])
		h.Compression = bmpCompression(le32(infoBody[12:]))
		h.ImageByteSize = le32(infoBody[16:])
		h.PaletteCount = le32(infoBody[28:])
		h.PaletteImportant = le32(infoBody[32:])
		if variant >= 52 && len(infoBody) >= 44 {
			h.MaskR = le32(infoBody[36:])
			h.MaskG = le32(infoBody[40:])
			h.MaskB = le32(infoBody[44:])
		}
		if variant >= 56 && len(infoBody) >= 48 {
			h.MaskA = le32(infoBody[48:])
			h.HasAlphaMask = true
		}
	}

	if perm == BmpStrict && h.Planes != 1 {
		return bmpHeader{}, newErrorf(KindBadHeader, "planes must be 1, got %d", h.Planes)
	}
	if !validBitDepth(h.BitDepth) {
		return bmpHeader{}, newErrorf(KindUnsupportedBitDepth, "bit depth %d", h.BitDepth)
	}
	switch h.Compression {
	case compNone:
	case compRLE8:
		if h.BitDepth != 8 {
			return bmpHeader{}, newError(KindUnsupportedCompression, "RLE8 requires 8 bpp")
		}
	case compRLE4:
		if h.BitDepth != 4 {
			return bmpHeader{}, newError(KindUnsupportedCompression, "RLE4 requires 4 bpp")
		}
	case compBitfields, compAlphaBitfields:
		if h.BitDepth != 16 && h.BitDepth != 32 {
			return bmpHeader{}, newError(KindUnsupportedCompression, "bitfields require 16 or 32 bpp")
		}
	case compJPEG, compPNG:
		return bmpHeader{}, newError(KindUnsupportedCompression, "embedded JPEG/PNG payloads are not supported")
	default:
		return bmpHeader{}, newErrorf(KindUnsupportedCompression, "unknown compression tag %d", uint32(h.Compression))
	}

	// Masks for BITMAPINFOHEADER (v40) bitfields images are appended
	// immediately after the 40-byte header rather than embedded in it.
	if variant == 40 && (h.Compression == compBitfields || h.Compression == compAlphaBitfields) {
		n := 3
		if h.Compression == compAlphaBitfields {
			n = 4
		}
		maskBytes, err := r.readSlice(n * 4)
		if err != nil {
			return bmpHeader{}, newError(KindTruncated, "BMP bitfield masks truncated")
		}
		h.MaskR = le32(maskBytes[0:])
		h.MaskG = le32(maskBytes[4:])
		h.MaskB = le32(maskBytes[8:])
		if n == 4 {
			h.MaskA = le32(maskBytes[12:])
			h.HasAlphaMask = true
		}
	}
	if h.Compression == compBitfields || h.Compression == compAlphaBitfields || h.BitDepth == 16 {
		applyDefaultMasks(&h)
		if err := validateMasks(&h, perm); err != nil {
			return bmpHeader{}, err
		}
	}

	if h.BitDepth <= 8 {
		maxEntries := uint32(1) << h.BitDepth
		declared := h.PaletteCount
		if declared == 0 {
			declared = maxEntries
		}
		if declared > maxEntries {
			if perm == BmpStrict {
				return bmpHeader{}, newErrorf(KindBadPalette, "palette count %d exceeds %d for %d bpp", declared, maxEntries, h.BitDepth)
			}
			declared = maxEntries
		}
		h.PaletteCount = declared
	} else {
		h.PaletteCount = 0
	}

	return h, nil
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func applyDefaultMasks(h *bmpHeader) {
	if h.MaskR != 0 || h.MaskG != 0 || h.MaskB != 0 {
		return
	}
	switch h.BitDepth {
	case 16:
		h.MaskR, h.MaskG, h.MaskB = 0x7C00, 0x03E0, 0x001F
	case 32:
		h.MaskR, h.MaskG, h.MaskB = 0x00FF0000, 0x0000FF00, 0x000000FF
		if h.Compression == compAlphaBitfields && h.MaskA == 0 {
			h.MaskA = 0xFF000000
			h.HasAlphaMask = true
		}
	}
}

func validateMasks(h *bmpHeader, perm BmpPermissiveness) error {
	masks := []uint32{h.MaskR, h.MaskG, h.MaskB}
	if h.HasAlphaMask {
		masks = append(masks, h.MaskA)
	}
	for i := 0; i < len(masks); i++ {
		for j := i + 1; j < len(masks); j++ {
			if masks[i]&masks[j] != 0 {
				if perm == BmpStrict {
					return newError(KindBadBitfields, "channel masks overlap")
				}
			}
		}
	}
	for _, m := range masks {
		if !isContiguousMask(m) {
			if perm == BmpStrict {
				return newErrorf(KindBadBitfields, "mask 0x%08X is not contiguous", m)
			}
		}
	}
	return nil
}

func isContiguousMask(m uint32) bool {
	if m == 0 {
		return true
	}
	tz := bits.TrailingZeros32(m)
	w := bits.OnesCount32(m)
	return (m >> uint(tz)) == (uint32(1)<<uint(w))-1
}
