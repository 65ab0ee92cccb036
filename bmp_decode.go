package bitmap

import "math/bits"

// decodeBMP implements §4.7-§4.9: polymorphic header parsing, palette
// expansion (with monochrome-palette promotion to Gray8), bitfield channel
// extraction, RLE4/RLE8 decompression and the uncompressed 24/32bpp paths.
// Every pixel path is decoded into a native BGR-ordered buffer first; when
// native is false the result is swizzled to RGB order before returning, per
// §4.8's decode_bmp vs decode_bmp_native distinction. Output rows are
// always normalized to top-down regardless of the source's row order.
func decodeBMP(data []byte, perm BmpPermissiveness, native bool, limits Limits, stop StopFunc) (DecodeOutput, error) {
	h, err := parseBMPHeader(data, perm)
	if err != nil {
		return DecodeOutput{}, err
	}
	if h.Width == 0 || h.Height == 0 {
		return DecodeOutput{}, newError(KindBadHeader, "width and height must be >= 1")
	}

	maskAppendedBytes := 0
	if h.InfoHeaderSize == 40 && (h.Compression == compBitfields || h.Compression == compAlphaBitfields) {
		if h.Compression == compAlphaBitfields {
			maskAppendedBytes = 16
		} else {
			maskAppendedBytes = 12
		}
	}
	paletteOffset := bmpFileHeaderLen + int(h.InfoHeaderSize) + maskAppendedBytes
	paletteBytes := int(h.PaletteCount) * h.paletteEntryLen
	if paletteBytes > 0 {
		if paletteOffset+paletteBytes > len(data) {
			return DecodeOutput{}, newError(KindTruncated, "BMP palette truncated")
		}
	}
	palette := data[paletteOffset : paletteOffset+paletteBytes]
	monochrome := h.BitDepth <= 8 && paletteIsMonochrome(palette, h.paletteEntryLen)

	layout, bpp := provisionalLayout(h, monochrome)
	if err := checkLimits(h.Width, h.Height, bpp, limits); err != nil {
		return DecodeOutput{}, err
	}
	if err := checkCancel(stop); err != nil {
		return DecodeOutput{}, err
	}

	pixelOffset := int(h.DataOffset)
	if pixelOffset < paletteOffset+paletteBytes || pixelOffset > len(data) {
		if perm == BmpStrict {
			return DecodeOutput{}, newError(KindBadHeader, "bitmap data offset out of range")
		}
		if paletteOffset+paletteBytes <= len(data) {
			pixelOffset = paletteOffset + paletteBytes
		}
	}
	body := data[pixelOffset:]
	width, height := int(h.Width), int(h.Height)

	// The 32bpp real-alpha-vs-padding heuristic requires scanning the
	// whole pixel array, so it only runs after limits have cleared.
	if h.BitDepth == 32 && h.Compression == compNone && perm != BmpStrict && scanForRealAlpha(data, pixelOffset, width, height) {
		layout, bpp = LayoutBgra8, 4
	}

	outSize := width * height * bpp
	if err := checkCancelForAlloc(stop, outSize); err != nil {
		return DecodeOutput{}, err
	}
	out := make([]byte, outSize)

	switch h.Compression {
	case compRLE4, compRLE8:
		rleBpp := 8
		if h.Compression == compRLE4 {
			rleBpp = 4
		}
		indices, err := decodeRLE(body, width, height, rleBpp, h.TopDown, perm)
		if err != nil {
			return DecodeOutput{}, err
		}
		if err := expandPaletteRows(out, indices, width, height, palette, h.paletteEntryLen, monochrome, stop); err != nil {
			return DecodeOutput{}, err
		}
	case compBitfields, compAlphaBitfields:
		if err := decodeBitfieldRows(out, body, h, width, height, stop); err != nil {
			return DecodeOutput{}, err
		}
	default: // compNone
		switch h.BitDepth {
		case 1, 2, 4, 8:
			rowBits := width * int(h.BitDepth)
			rowBytes := (rowBits + 7) / 8
			padded := ((rowBytes + 3) / 4) * 4
			if err := checkCancelForAlloc(stop, width*height); err != nil {
				return DecodeOutput{}, err
			}
			indices := make([]byte, width*height)
			if err := need(len(body), padded*height); err != nil {
				return DecodeOutput{}, err
			}
			for y := 0; y < height; y++ {
				srcRow := rowIndex(y, height, h.TopDown)
				row := body[srcRow*padded : srcRow*padded+rowBytes]
				unpackIndices(indices[y*width:(y+1)*width], row, int(h.BitDepth))
			}
			if err := expandPaletteRows(out, indices, width, height, palette, h.paletteEntryLen, monochrome, stop); err != nil {
				return DecodeOutput{}, err
			}
		case 16:
			if err := decodeBitfieldRows(out, body, h, width, height, stop); err != nil {
				return DecodeOutput{}, err
			}
		case 24:
			rowBytes := width * 3
			padded := ((rowBytes + 3) / 4) * 4
			if err := need(len(body), padded*height); err != nil {
				return DecodeOutput{}, err
			}
			for y := 0; y < height; y++ {
				if err := checkCancel(stop); err != nil {
					return DecodeOutput{}, err
				}
				srcRow := rowIndex(y, height, h.TopDown)
				copy(out[y*rowBytes:(y+1)*rowBytes], body[srcRow*padded:srcRow*padded+rowBytes])
			}
		case 32:
			rowBytes := width * 4
			if err := need(len(body), rowBytes*height); err != nil {
				return DecodeOutput{}, err
			}
			hasRealAlpha := layout == LayoutBgra8
			for y := 0; y < height; y++ {
				if err := checkCancel(stop); err != nil {
					return DecodeOutput{}, err
				}
				srcRow := rowIndex(y, height, h.TopDown)
				srow := body[srcRow*rowBytes : (srcRow+1)*rowBytes]
				drow := out[y*rowBytes : (y+1)*rowBytes]
				copy(drow, srow)
				if !hasRealAlpha {
					for x := 0; x < width; x++ {
						drow[x*4+3] = 0xFF
					}
				}
			}
		}
	}

	if native || layout == LayoutGray8 {
		return newOwnedOutput(out, h.Width, h.Height, layout), nil
	}
	pixelCount := width * height
	switch layout {
	case LayoutBgr8:
		rgb, err := toRGB8(out, LayoutBgr8, pixelCount)
		if err != nil {
			return DecodeOutput{}, err
		}
		return newOwnedOutput(rgb, h.Width, h.Height, LayoutRgb8), nil
	case LayoutBgra8:
		rgba, err := toRGBA8(out, LayoutBgra8, pixelCount)
		if err != nil {
			return DecodeOutput{}, err
		}
		return newOwnedOutput(rgba, h.Width, h.Height, LayoutRgba8), nil
	case LayoutBgrx8:
		rgb, err := toRGB8(out, LayoutBgrx8, pixelCount)
		if err != nil {
			return DecodeOutput{}, err
		}
		return newOwnedOutput(rgb, h.Width, h.Height, LayoutRgb8), nil
	default:
		return newOwnedOutput(out, h.Width, h.Height, layout), nil
	}
}

func need(have, want int) error {
	if have < want {
		return newError(KindTruncated, "bitmap pixel data shorter than declared dimensions")
	}
	return nil
}

func rowIndex(y, height int, topDown bool) int {
	if topDown {
		return y
	}
	return height - 1 - y
}

// paletteIsMonochrome reports whether every palette entry has R==G==B,
// per §4.8's "Gray8 if palette is detected monochrome" rule.
func paletteIsMonochrome(palette []byte, entryLen int) bool {
	if len(palette) == 0 || entryLen == 0 {
		return false
	}
	for i := 0; i+2 < len(palette); i += entryLen {
		b, g, r := palette[i], palette[i+1], palette[i+2]
		if r != g || g != b {
			return false
		}
	}
	return true
}

// provisionalLayout picks the internal (native, BGR-ordered) layout and
// bytes-per-pixel from header fields alone, before any pixel-array scan.
// For 32bpp BI_RGB this may be refined to Bgra8 after the limits check.
func provisionalLayout(h bmpHeader, monochrome bool) (PixelLayout, int) {
	switch h.BitDepth {
	case 1, 2, 4, 8:
		if monochrome {
			return LayoutGray8, 1
		}
		return LayoutBgr8, 3
	case 16:
		if h.HasAlphaMask {
			return LayoutBgra8, 4
		}
		return LayoutBgr8, 3
	case 24:
		return LayoutBgr8, 3
	case 32:
		if h.Compression == compBitfields || h.Compression == compAlphaBitfields {
			if h.HasAlphaMask {
				return LayoutBgra8, 4
			}
			return LayoutBgr8, 3
		}
		return LayoutBgrx8, 4
	default:
		return LayoutBgr8, 3
	}
}

// scanForRealAlpha implements the Standard/Permissive heuristic in §4.8:
// outside Strict mode, if any reserved byte in an uncompressed 32bpp pixel
// array is neither 0x00 nor 0xFF, that channel is treated as real alpha.
func scanForRealAlpha(data []byte, pixelOffset, width, height int) bool {
	if pixelOffset < 0 || pixelOffset >= len(data) {
		return false
	}
	body := data[pixelOffset:]
	rowBytes := width * 4
	scanLen := rowBytes * height
	if scanLen > len(body) {
		scanLen = len(body) - len(body)%rowBytes
	}
	for i := 3; i+1 <= scanLen; i += 4 {
		x := body[i]
		if x != 0x00 && x != 0xFF {
			return true
		}
	}
	return false
}

// unpackIndices expands a packed sub-byte row (1/2/4 bpp) into one palette
// index per output byte, most significant bits first.
func unpackIndices(dst, row []byte, bitDepth int) {
	perByte := 8 / bitDepth
	mask := byte(1<<uint(bitDepth)) - 1
	for x := range dst {
		byteIdx := x / perByte
		if byteIdx >= len(row) {
			dst[x] = 0
			continue
		}
		shift := uint(8 - bitDepth*(x%perByte+1))
		dst[x] = (row[byteIdx] >> shift) & mask
	}
}

// expandPaletteRows resolves one palette index per pixel into either a
// Gray8 (monochrome) or Bgr8 output buffer.
func expandPaletteRows(out, indices []byte, width, height int, palette []byte, entryLen int, monochrome bool, stop StopFunc) error {
	entries := len(palette) / entryLen
	outBPP := 3
	if monochrome {
		outBPP = 1
	}
	for i := 0; i < width*height; i++ {
		if i%width == 0 {
			if err := checkCancel(stop); err != nil {
				return err
			}
		}
		idx := int(indices[i])
		if idx >= entries {
			idx = entries - 1
		}
		if idx < 0 {
			idx = 0
		}
		e := palette[idx*entryLen:]
		if monochrome {
			out[i] = e[2] // R == G == B
			continue
		}
		out[i*outBPP+0] = e[0]
		out[i*outBPP+1] = e[1]
		out[i*outBPP+2] = e[2]
	}
	return nil
}

func decodeBitfieldRows(out, body []byte, h bmpHeader, width, height int, stop StopFunc) error {
	bytesPerPixel := int(h.BitDepth) / 8
	rowBytes := width * bytesPerPixel
	padded := rowBytes
	if h.BitDepth == 16 {
		padded = ((rowBytes + 3) / 4) * 4
	}
	if err := need(len(body), padded*height); err != nil {
		return err
	}
	outBPP := 3
	if h.HasAlphaMask {
		outBPP = 4
	}
	rShift, rBits := maskShiftWidth(h.MaskR)
	gShift, gBits := maskShiftWidth(h.MaskG)
	bShift, bBits := maskShiftWidth(h.MaskB)
	aShift, aBits := maskShiftWidth(h.MaskA)
	for y := 0; y < height; y++ {
		if err := checkCancel(stop); err != nil {
			return err
		}
		srcRow := rowIndex(y, height, h.TopDown)
		srow := body[srcRow*padded : srcRow*padded+rowBytes]
		for x := 0; x < width; x++ {
			var raw uint32
			if bytesPerPixel == 2 {
				raw = uint32(srow[x*2]) | uint32(srow[x*2+1])<<8
			} else {
				raw = uint32(srow[x*4]) | uint32(srow[x*4+1])<<8 | uint32(srow[x*4+2])<<16 | uint32(srow[x*4+3])<<24
			}
			di := (y*width + x) * outBPP
			out[di+0] = extractChannel(raw, h.MaskB, bShift, bBits)
			out[di+1] = extractChannel(raw, h.MaskG, gShift, gBits)
			out[di+2] = extractChannel(raw, h.MaskR, rShift, rBits)
			if outBPP == 4 {
				if h.HasAlphaMask && h.MaskA != 0 {
					out[di+3] = extractChannel(raw, h.MaskA, aShift, aBits)
				} else {
					out[di+3] = 0xFF
				}
			}
		}
	}
	return nil
}

func maskShiftWidth(m uint32) (shift, width int) {
	if m == 0 {
		return 0, 0
	}
	return bits.TrailingZeros32(m), bits.OnesCount32(m)
}

// extractChannel pulls the bits of mask out of raw and scales them to a
// full 8-bit channel per §4.8: widths > 8 are truncated by a right shift;
// widths <= 8 are left-aligned and filled from their own high bits
// (the classic 555/565-to-888 bit-replication trick), which is exact for
// width == 8 and degrades gracefully (no low-order fill) for width < 4,
// an edge case no real BMP bitfield mask exercises.
func extractChannel(raw, mask uint32, shift, width int) byte {
	if mask == 0 || width == 0 {
		return 0
	}
	v := (raw & mask) >> uint(shift)
	if width > 8 {
		return byte(v >> uint(width-8))
	}
	high := v << uint(8-width)
	lowShift := 2*width - 8
	var low uint32
	if lowShift > 0 {
		low = v >> uint(lowShift)
	}
	return byte(high | low)
}
