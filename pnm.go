package bitmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// pnmLayoutFor resolves the PixelLayout a parsed PNM header decodes to.
func pnmLayoutFor(h pnmHeader) (PixelLayout, int, error) {
	switch h.Magic {
	case "P5":
		if h.Maxval <= 255 {
			return LayoutGray8, 1, nil
		}
		return LayoutGray16, 1, nil
	case "P6":
		if h.Maxval <= 255 {
			return LayoutRgb8, 3, nil
		}
		return LayoutRgb16, 3, nil
	case "P7":
		switch h.Depth {
		case 1:
			if h.Maxval <= 255 {
				return LayoutGray8, 1, nil
			}
			return LayoutGray16, 1, nil
		case 2:
			if h.Maxval <= 255 {
				return LayoutGrayAlpha8, 2, nil
			}
			return 0, 0, newError(KindUnsupportedFormat, "16-bit GRAYSCALE_ALPHA has no PixelLayout")
		case 3:
			if h.Maxval <= 255 {
				return LayoutRgb8, 3, nil
			}
			return LayoutRgb16, 3, nil
		case 4:
			if h.Maxval <= 255 {
				return LayoutRgba8, 4, nil
			}
			return LayoutRgba16, 4, nil
		default:
			return 0, 0, newErrorf(KindUnsupportedFormat, "unsupported PAM depth %d", h.Depth)
		}
	case "Pf":
		return LayoutGrayF32, 1, nil
	case "PF":
		return LayoutRgbF32, 3, nil
	default:
		return 0, 0, newErrorf(KindBadMagic, "unknown PNM magic %q", h.Magic)
	}
}

// decodePNM implements §4.5: header parse, limits gate, then the
// zero-copy / scaled / 16-bit / float body paths.
func decodePNM(data []byte, limits Limits, stop StopFunc) (DecodeOutput, error) {
	h, err := parsePNMHeader(data)
	if err != nil {
		return DecodeOutput{}, err
	}
	layout, channels, err := pnmLayoutFor(h)
	if err != nil {
		return DecodeOutput{}, err
	}
	if err := checkLimits(h.Width, h.Height, layout.BytesPerPixel(), limits); err != nil {
		return DecodeOutput{}, err
	}
	if err := checkCancel(stop); err != nil {
		return DecodeOutput{}, err
	}
	body := data[h.bodyOffset:]
	// Checked in 64-bit so dimensions whose byte count overflows int fail
	// as Truncated instead of wrapping.
	if uint64(h.Width)*uint64(h.Height) > uint64(len(body))/uint64(layout.BytesPerPixel()) {
		return DecodeOutput{}, newError(KindTruncated, "PNM body shorter than declared dimensions")
	}
	pixelCount := int(h.Width) * int(h.Height)

	if layout.IsFloat() {
		return decodePFMBody(h, layout, channels, body, pixelCount, stop)
	}
	if layout.SampleBytes() == 2 {
		return decode16BitBody(h, layout, channels, body, pixelCount, stop)
	}
	return decode8BitBody(h, layout, channels, body, pixelCount, stop)
}

func decode8BitBody(h pnmHeader, layout PixelLayout, channels int, body []byte, pixelCount int, stop StopFunc) (DecodeOutput, error) {
	need := pixelCount * channels
	if len(body) < need {
		return DecodeOutput{}, newError(KindTruncated, "PNM body shorter than declared dimensions")
	}
	if h.Maxval == 255 {
		return newBorrowedOutput(body[:need], h.Width, h.Height, layout), nil
	}
	if err := checkCancelForAlloc(stop, need); err != nil {
		return DecodeOutput{}, err
	}
	out := make([]byte, need)
	for i := 0; i < need; i++ {
		if i%int(h.Width*uint32(channels)) == 0 {
			if err := checkCancel(stop); err != nil {
				return DecodeOutput{}, err
			}
		}
		s, err := scaleSample8(body[i], h.Maxval)
		if err != nil {
			return DecodeOutput{}, err
		}
		out[i] = s
	}
	return newOwnedOutput(out, h.Width, h.Height, layout), nil
}

func decode16BitBody(h pnmHeader, layout PixelLayout, channels int, body []byte, pixelCount int, stop StopFunc) (DecodeOutput, error) {
	sampleCount := pixelCount * channels
	need := sampleCount * 2
	if len(body) < need {
		return DecodeOutput{}, newError(KindTruncated, "PNM body shorter than declared dimensions")
	}
	if err := checkCancelForAlloc(stop, need); err != nil {
		return DecodeOutput{}, err
	}
	out := make([]byte, need)
	rowSamples := int(h.Width) * channels
	for i := 0; i < sampleCount; i++ {
		if rowSamples > 0 && i%rowSamples == 0 {
			if err := checkCancel(stop); err != nil {
				return DecodeOutput{}, err
			}
		}
		s := uint16(body[2*i])<<8 | uint16(body[2*i+1])
		scaled, err := scaleSample16(s, h.Maxval)
		if err != nil {
			return DecodeOutput{}, err
		}
		binary.NativeEndian.PutUint16(out[2*i:], scaled)
	}
	return newOwnedOutput(out, h.Width, h.Height, layout), nil
}

// decodePFMBody reads f32 samples per the header's declared endianness,
// and flips PFM's bottom-up row order to the envelope's top-down order.
func decodePFMBody(h pnmHeader, layout PixelLayout, channels int, body []byte, pixelCount int, stop StopFunc) (DecodeOutput, error) {
	sampleCount := pixelCount * channels
	need := sampleCount * 4
	if len(body) < need {
		return DecodeOutput{}, newError(KindTruncated, "PFM body shorter than declared dimensions")
	}
	if err := checkCancelForAlloc(stop, need); err != nil {
		return DecodeOutput{}, err
	}
	little := h.Scale < 0
	rowBytes := int(h.Width) * channels * 4
	out := make([]byte, need)
	for row := 0; row < int(h.Height); row++ {
		if err := checkCancel(stop); err != nil {
			return DecodeOutput{}, err
		}
		// PFM stores rows bottom-up; the envelope is top-down.
		srcRow := body[row*rowBytes : (row+1)*rowBytes]
		dstRow := out[(int(h.Height)-1-row)*rowBytes : (int(h.Height)-row)*rowBytes]
		for i := 0; i < rowBytes; i += 4 {
			var bits uint32
			if little {
				bits = binary.LittleEndian.Uint32(srcRow[i:])
			} else {
				bits = binary.BigEndian.Uint32(srcRow[i:])
			}
			binary.NativeEndian.PutUint32(dstRow[i:], bits)
		}
	}
	return newOwnedOutput(out, h.Width, h.Height, layout), nil
}

func scaleSample8(s byte, maxval uint32) (byte, error) {
	if uint32(s) > maxval {
		return 0, newErrorf(KindBadSample, "sample %d exceeds maxval %d", s, maxval)
	}
	scaled := (uint64(s)*255 + uint64(maxval)/2) / uint64(maxval)
	return byte(scaled), nil
}

func scaleSample16(s uint16, maxval uint32) (uint16, error) {
	if uint32(s) > maxval {
		return 0, newErrorf(KindBadSample, "sample %d exceeds maxval %d", s, maxval)
	}
	scaled := (uint64(s)*65535 + uint64(maxval)/2) / uint64(maxval)
	return uint16(scaled), nil
}

// EncodePGM writes a Gray8 or Gray16 buffer as a P5 PGM.
func EncodePGM(pixels []byte, width, height uint32, layout PixelLayout) ([]byte, error) {
	if layout != LayoutGray8 && layout != LayoutGray16 {
		return nil, newErrorf(KindLayoutMismatch, "PGM requires Gray8 or Gray16, got %s", layout)
	}
	return encodePNMRaster("P5", pixels, width, height, layout, 1)
}

// EncodePPM writes an Rgb8, Rgb16 or Bgr8 buffer as a P6 PPM, swizzling
// Bgr8 to RGB channel order on the fly.
func EncodePPM(pixels []byte, width, height uint32, layout PixelLayout) ([]byte, error) {
	switch layout {
	case LayoutRgb8, LayoutRgb16:
		return encodePNMRaster("P6", pixels, width, height, layout, 3)
	case LayoutBgr8:
		rgb, err := toRGB8(pixels, layout, int(width)*int(height))
		if err != nil {
			return nil, err
		}
		return encodePNMRaster("P6", rgb, width, height, LayoutRgb8, 3)
	default:
		return nil, newErrorf(KindLayoutMismatch, "PPM requires Rgb8, Rgb16 or Bgr8, got %s", layout)
	}
}

// EncodePAM writes any supported layout as a P7 PAM, the only PNM variant
// that can carry an explicit alpha channel or a 2-channel gray+alpha pair.
func EncodePAM(pixels []byte, width, height uint32, layout PixelLayout) ([]byte, error) {
	var tupleType string
	var channels int
	switch layout {
	case LayoutGray8, LayoutGray16:
		tupleType, channels = "GRAYSCALE", 1
	case LayoutGrayAlpha8:
		tupleType, channels = "GRAYSCALE_ALPHA", 2
	case LayoutRgb8, LayoutRgb16:
		tupleType, channels = "RGB", 3
	case LayoutRgba8, LayoutRgba16:
		tupleType, channels = "RGB_ALPHA", 4
	case LayoutBgr8:
		rgb, err := toRGB8(pixels, layout, int(width)*int(height))
		if err != nil {
			return nil, err
		}
		return encodePAMRaster(rgb, width, height, LayoutRgb8, "RGB", 3)
	case LayoutBgra8, LayoutBgrx8:
		rgba, err := toRGBA8(pixels, layout, int(width)*int(height))
		if err != nil {
			return nil, err
		}
		return encodePAMRaster(rgba, width, height, LayoutRgba8, "RGB_ALPHA", 4)
	default:
		return nil, newErrorf(KindLayoutMismatch, "PAM cannot encode %s", layout)
	}
	return encodePAMRaster(pixels, width, height, layout, tupleType, channels)
}

func encodePAMRaster(pixels []byte, width, height uint32, layout PixelLayout, tupleType string, channels int) ([]byte, error) {
	sampleBytes := layout.SampleBytes()
	want := int(width) * int(height) * channels * sampleBytes
	if len(pixels) != want {
		return nil, newErrorf(KindLayoutMismatch, "pixel buffer length %d does not match %dx%dx%d", len(pixels), width, height, channels)
	}
	maxval := uint32(255)
	if sampleBytes == 2 {
		maxval = 65535
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "P7\nWIDTH %d\nHEIGHT %d\nDEPTH %d\nMAXVAL %d\nTUPLTYPE %s\nENDHDR\n", width, height, channels, maxval, tupleType)
	writeRawSamples(&buf, pixels, sampleBytes)
	return buf.Bytes(), nil
}

func encodePNMRaster(magic string, pixels []byte, width, height uint32, layout PixelLayout, channels int) ([]byte, error) {
	sampleBytes := layout.SampleBytes()
	want := int(width) * int(height) * channels * sampleBytes
	if len(pixels) != want {
		return nil, newErrorf(KindLayoutMismatch, "pixel buffer length %d does not match %dx%dx%d", len(pixels), width, height, channels)
	}
	maxval := uint32(255)
	if sampleBytes == 2 {
		maxval = 65535
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n%d %d\n%d\n", magic, width, height, maxval)
	writeRawSamples(&buf, pixels, sampleBytes)
	return buf.Bytes(), nil
}

// writeRawSamples appends pixels to buf, re-encoding 16-bit native-endian
// samples as big-endian on the wire per §4.9.
func writeRawSamples(buf *bytes.Buffer, pixels []byte, sampleBytes int) {
	if sampleBytes == 1 {
		buf.Write(pixels)
		return
	}
	for i := 0; i+1 < len(pixels); i += 2 {
		v := binary.NativeEndian.Uint16(pixels[i:])
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], v)
		buf.Write(tmp[:])
	}
}

// EncodePFM writes a GrayF32 or RgbF32 buffer as a PFM, bottom-up, with a
// little-endian scale marker of -1.0.
func EncodePFM(pixels []byte, width, height uint32, layout PixelLayout) ([]byte, error) {
	var magic string
	var channels int
	switch layout {
	case LayoutGrayF32:
		magic, channels = "Pf", 1
	case LayoutRgbF32:
		magic, channels = "PF", 3
	default:
		return nil, newErrorf(KindLayoutMismatch, "PFM requires GrayF32 or RgbF32, got %s", layout)
	}
	rowBytes := int(width) * channels * 4
	want := rowBytes * int(height)
	if len(pixels) != want {
		return nil, newErrorf(KindLayoutMismatch, "pixel buffer length %d does not match %dx%dx%d", len(pixels), width, height, channels)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n%d %d\n-1.0\n", magic, width, height)
	for row := int(height) - 1; row >= 0; row-- {
		srcRow := pixels[row*rowBytes : (row+1)*rowBytes]
		for i := 0; i < rowBytes; i += 4 {
			bits := binary.NativeEndian.Uint32(srcRow[i:])
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], bits)
			buf.Write(tmp[:])
		}
	}
	return buf.Bytes(), nil
}
