package bitmap

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBMP24RoundTrip(t *testing.T) {
	pixels := []byte{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 255, 255, 255,
	}
	encoded, err := EncodeBMP24(pixels, 2, 2, LayoutRgb8)
	require.NoError(t, err)

	out, err := DecodeBMP(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), out.Width)
	assert.Equal(t, uint32(2), out.Height)
	assert.Equal(t, LayoutRgb8, out.Layout, "default decode swizzles to RGB order")

	if diff := cmp.Diff(pixels, out.Pixels.Bytes()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBMP32RoundTripPreservesAlpha(t *testing.T) {
	pixels := []byte{
		255, 0, 0, 128,
		0, 255, 0, 64,
	}
	encoded, err := EncodeBMP32(pixels, 2, 1, LayoutRgba8)
	require.NoError(t, err)

	out, err := DecodeBMP(encoded)
	require.NoError(t, err)
	assert.Equal(t, LayoutRgba8, out.Layout, "non-0/0xFF alpha bytes should be recognized as real alpha")

	if diff := cmp.Diff(pixels, out.Pixels.Bytes()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBMP32StrictModeTreatsReservedByteAsPadding(t *testing.T) {
	pixels := []byte{255, 0, 0, 128, 0, 255, 0, 64}
	encoded, err := EncodeBMP32(pixels, 2, 1, LayoutRgba8)
	require.NoError(t, err)
	out, err := DecodeBMPWithLimits(encoded, BmpStrict, Limits{}, nil)
	require.NoError(t, err)
	assert.Equal(t, LayoutRgb8, out.Layout, "Strict mode drops the reserved channel entirely, leaving plain RGB")
}

func TestBMP24NativeModeSkipsSwizzle(t *testing.T) {
	pixels := []byte{255, 0, 0, 0, 255, 0}
	encoded, err := EncodeBMP24(pixels, 2, 1, LayoutRgb8)
	require.NoError(t, err)
	out, err := DecodeBMPNative(encoded)
	require.NoError(t, err)
	assert.Equal(t, LayoutBgr8, out.Layout)
	want := []byte{0, 0, 255, 0, 255, 0}
	if diff := cmp.Diff(want, out.Pixels.Bytes()); diff != "" {
		t.Errorf("native decode mismatch (-want +got):\n%s", diff)
	}
}

func TestBMPHeaderParsesPaletteCountAtCorrectOffsetForStandardHeader(t *testing.T) {
	// A bare 40-byte BITMAPINFOHEADER (infoBody length exactly 36): biClrUsed
	// and biClrImportant live at infoBody[28:]/[32:]. Reading past the end of
	// a 36-byte infoBody (the old infoBody[32:]/[36:] offsets) would panic
	// instead of returning cleanly, on every standard-header BMP.
	data := buildBMP(t, bmpBuildSpec{
		width: 4, height: 1, bitDepth: 8,
		palette: [][4]byte{{0, 0, 0, 0}, {1, 1, 1, 0}, {2, 2, 2, 0}, {3, 3, 3, 0}},
		rows:    [][]byte{{0, 1, 2, 3}},
	})
	binary.LittleEndian.PutUint32(data[bmpFileHeaderLen+32:], 3) // biClrUsed
	binary.LittleEndian.PutUint32(data[bmpFileHeaderLen+36:], 1) // biClrImportant

	h, err := parseBMPHeader(data, BmpStandard)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), h.PaletteCount)
	assert.Equal(t, uint32(1), h.PaletteImportant)
}

func TestBMPRejectsBadMagic(t *testing.T) {
	_, err := DecodeBMP([]byte("NOTABMPFILE12345678901234567890"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBadMagic))
}

func TestBMPPalettedDecodeMonochromePromotesToGray8(t *testing.T) {
	// 2x1, 1bpp, 2-entry black/white palette (R==G==B for every entry):
	// this promotes the output to Gray8 per the monochrome-palette rule.
	data := buildBMP(t, bmpBuildSpec{
		width: 2, height: 1, bitDepth: 1,
		palette: [][4]byte{{0, 0, 0, 0}, {255, 255, 255, 0}},
		rows:    [][]byte{{0x80}}, // bit7=1 -> white, bit6=0 -> black; row padded to 4 bytes
	})
	out, err := DecodeBMP(data)
	require.NoError(t, err)
	assert.Equal(t, LayoutGray8, out.Layout)
	want := []byte{255, 0}
	if diff := cmp.Diff(want, out.Pixels.Bytes()); diff != "" {
		t.Errorf("palette expand mismatch (-want +got):\n%s", diff)
	}
}

func TestBMPPalettedDecodeColorPaletteSwizzlesToRgb(t *testing.T) {
	// A non-monochrome 2-entry palette: red and green.
	data := buildBMP(t, bmpBuildSpec{
		width: 2, height: 1, bitDepth: 1,
		palette: [][4]byte{{0, 0, 255, 0}, {0, 255, 0, 0}}, // BGR: red, green
		rows:    [][]byte{{0x80}},                          // bit7=1 -> green, bit6=0 -> red
	})
	out, err := DecodeBMP(data)
	require.NoError(t, err)
	assert.Equal(t, LayoutRgb8, out.Layout)
	want := []byte{0, 255, 0, 255, 0, 0}
	if diff := cmp.Diff(want, out.Pixels.Bytes()); diff != "" {
		t.Errorf("palette expand mismatch (-want +got):\n%s", diff)
	}
}

func TestBMP16bppDefaultMasksAre555(t *testing.T) {
	// One pixel, raw u16 = 0x7C00 => pure red in 5-5-5.
	data := buildBMP16(t, 1, 1, []uint16{0x7C00})
	out, err := DecodeBMP(data)
	require.NoError(t, err)
	assert.Equal(t, LayoutRgb8, out.Layout)
	got := out.Pixels.Bytes()
	assert.Equal(t, byte(255), got[0], "red channel")
	assert.Equal(t, byte(0), got[1], "green channel")
	assert.Equal(t, byte(0), got[2], "blue channel")
}

func TestBMPRLE8DecodesEncodedRun(t *testing.T) {
	palette := [][4]byte{{0, 0, 0, 0}, {0, 0, 255, 0}, {0, 255, 0, 0}, {255, 0, 0, 0}}
	// 4 pixels of palette index 3 (a single encoded run), then EOL, then EOF.
	rle := []byte{4, 3, 0, 0, 0, 1}
	data := buildBMPRLE(t, 4, 1, 8, palette, rle)
	out, err := DecodeBMP(data)
	require.NoError(t, err)
	entry3 := palette[3] // stored B,G,R; default decode swizzles to R,G,B
	want := make([]byte, 0, 12)
	for i := 0; i < 4; i++ {
		want = append(want, entry3[2], entry3[1], entry3[0])
	}
	if diff := cmp.Diff(want, out.Pixels.Bytes()); diff != "" {
		t.Errorf("RLE8 decode mismatch (-want +got):\n%s", diff)
	}
}

func TestBMPEnforcesLimits(t *testing.T) {
	pixels := make([]byte, 4*4*3)
	encoded, err := EncodeBMP24(pixels, 4, 4, LayoutRgb8)
	require.NoError(t, err)
	_, err = DecodeBMPWithLimits(encoded, BmpStandard, Limits{MaxWidth: 2}, nil)
	assert.True(t, IsKind(err, KindTooWide))
}

func TestBMPUnsupportedBitDepthIsReported(t *testing.T) {
	data := buildBMP(t, bmpBuildSpec{width: 1, height: 1, bitDepth: 6, rows: [][]byte{{0}}})
	_, err := DecodeBMP(data)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnsupportedBitDepth))
}

// --- test helpers to construct minimal well-formed BMP byte streams ---

type bmpBuildSpec struct {
	width, height int
	bitDepth      uint16
	palette       [][4]byte
	rows          [][]byte // one entry per row; buildBMP pads each to a 4-byte multiple
}

func buildBMP(t *testing.T, spec bmpBuildSpec) []byte {
	t.Helper()
	paletteBytes := len(spec.palette) * 4
	dataOffset := bmpFileHeaderLen + bmpInfoHeaderLenV40 + paletteBytes
	rowBits := spec.width * int(spec.bitDepth)
	minRowBytes := (rowBits + 7) / 8
	padded := ((minRowBytes + 3) / 4) * 4
	if padded == 0 {
		padded = 4
	}
	fileSize := dataOffset + padded*len(spec.rows)
	buf := make([]byte, fileSize)
	writeBMPFileHeader(buf, uint32(fileSize), uint32(dataOffset))
	writeBMPInfoHeaderV40(buf[bmpFileHeaderLen:], uint32(spec.width), uint32(spec.height), spec.bitDepth, compNone, uint32(padded*len(spec.rows)))
	if len(spec.palette) > 0 {
		binary.LittleEndian.PutUint32(buf[bmpFileHeaderLen+32:], uint32(len(spec.palette)))
	}
	off := bmpFileHeaderLen + bmpInfoHeaderLenV40
	for _, e := range spec.palette {
		buf[off] = e[0]
		buf[off+1] = e[1]
		buf[off+2] = e[2]
		buf[off+3] = e[3]
		off += 4
	}
	for i, r := range spec.rows {
		copy(buf[dataOffset+i*padded:], r)
	}
	return buf
}

func buildBMP16(t *testing.T, width, height int, samples []uint16) []byte {
	t.Helper()
	rowBytes := width * 2
	padded := ((rowBytes + 3) / 4) * 4
	dataOffset := bmpFileHeaderLen + bmpInfoHeaderLenV40
	fileSize := dataOffset + padded*height
	buf := make([]byte, fileSize)
	writeBMPFileHeader(buf, uint32(fileSize), uint32(dataOffset))
	writeBMPInfoHeaderV40(buf[bmpFileHeaderLen:], uint32(width), uint32(height), 16, compNone, uint32(padded*height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			binary.LittleEndian.PutUint16(buf[dataOffset+y*padded+x*2:], samples[y*width+x])
		}
	}
	return buf
}

func buildBMPRLE(t *testing.T, width, height int, bitDepth uint16, palette [][4]byte, rle []byte) []byte {
	t.Helper()
	paletteBytes := len(palette) * 4
	dataOffset := bmpFileHeaderLen + bmpInfoHeaderLenV40 + paletteBytes
	fileSize := dataOffset + len(rle)
	buf := make([]byte, fileSize)
	writeBMPFileHeader(buf, uint32(fileSize), uint32(dataOffset))
	comp := compRLE8
	if bitDepth == 4 {
		comp = compRLE4
	}
	writeBMPInfoHeaderV40(buf[bmpFileHeaderLen:], uint32(width), uint32(height), bitDepth, comp, uint32(len(rle)))
	if len(palette) > 0 {
		binary.LittleEndian.PutUint32(buf[bmpFileHeaderLen+32:], uint32(len(palette)))
	}
	off := bmpFileHeaderLen + bmpInfoHeaderLenV40
	for _, e := range palette {
		buf[off] = e[0]
		buf[off+1] = e[1]
		buf[off+2] = e[2]
		buf[off+3] = e[3]
		off += 4
	}
	copy(buf[dataOffset:], rle)
	return buf
}
