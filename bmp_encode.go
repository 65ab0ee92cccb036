package bitmap

import "encoding/binary"

const bmpInfoHeaderLenV40 = 40

// EncodeBMP24 writes pixels as an uncompressed 24bpp, bottom-up
// BITMAPINFOHEADER bitmap. Accepted layouts are Rgb8, Bgr8, Rgba8, Bgra8
// and Bgrx8; alpha, if present, is dropped.
func EncodeBMP24(pixels []byte, width, height uint32, layout PixelLayout) ([]byte, error) {
	pixelCount := int(width) * int(height)
	rgb, err := toRGB8(pixels, layout, pixelCount)
	if err != nil {
		return nil, err
	}
	rowBytes := int(width) * 3
	padded := ((rowBytes + 3) / 4) * 4
	dataOffset := bmpFileHeaderLen + bmpInfoHeaderLenV40
	fileSize := dataOffset + padded*int(height)

	buf := make([]byte, fileSize)
	writeBMPFileHeader(buf, uint32(fileSize), uint32(dataOffset))
	writeBMPInfoHeaderV40(buf[bmpFileHeaderLen:], width, height, 24, compNone, uint32(padded*int(height)))

	for y := 0; y < int(height); y++ {
		srcRow := int(height) - 1 - y
		src := rgb[srcRow*rowBytes : (srcRow+1)*rowBytes]
		dst := buf[dataOffset+y*padded : dataOffset+y*padded+rowBytes]
		for x := 0; x < int(width); x++ {
			dst[x*3+0] = src[x*3+2]
			dst[x*3+1] = src[x*3+1]
			dst[x*3+2] = src[x*3+0]
		}
	}
	return buf, nil
}

// EncodeBMP32 writes pixels as an uncompressed 32bpp, bottom-up
// BITMAPINFOHEADER bitmap with BI_RGB compression. The fourth byte per
// pixel carries real alpha rather than padding, matching how decodeBMP's
// Standard/Permissive heuristic recognizes it on the way back in.
func EncodeBMP32(pixels []byte, width, height uint32, layout PixelLayout) ([]byte, error) {
	pixelCount := int(width) * int(height)
	rgba, err := toRGBA8(pixels, layout, pixelCount)
	if err != nil {
		return nil, err
	}
	rowBytes := int(width) * 4
	dataOffset := bmpFileHeaderLen + bmpInfoHeaderLenV40
	fileSize := dataOffset + rowBytes*int(height)

	buf := make([]byte, fileSize)
	writeBMPFileHeader(buf, uint32(fileSize), uint32(dataOffset))
	writeBMPInfoHeaderV40(buf[bmpFileHeaderLen:], width, height, 32, compNone, uint32(rowBytes*int(height)))

	for y := 0; y < int(height); y++ {
		srcRow := int(height) - 1 - y
		src := rgba[srcRow*rowBytes : (srcRow+1)*rowBytes]
		dst := buf[dataOffset+y*rowBytes : dataOffset+(y+1)*rowBytes]
		for x := 0; x < int(width); x++ {
			dst[x*4+0] = src[x*4+2]
			dst[x*4+1] = src[x*4+1]
			dst[x*4+2] = src[x*4+0]
			dst[x*4+3] = src[x*4+3]
		}
	}
	return buf, nil
}

func writeBMPFileHeader(buf []byte, fileSize, dataOffset uint32) {
	buf[0], buf[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(buf[2:], fileSize)
	binary.LittleEndian.PutUint32(buf[6:], 0)
	binary.LittleEndian.PutUint32(buf[10:], dataOffset)
}

func writeBMPInfoHeaderV40(buf []byte, width, height uint32, bitDepth uint16, comp bmpCompression, imageSize uint32) {
	binary.LittleEndian.PutUint32(buf[0:], bmpInfoHeaderLenV40)
	binary.LittleEndian.PutUint32(buf[4:], width)
	binary.LittleEndian.PutUint32(buf[8:], height) // positive => bottom-up
	binary.LittleEndian.PutUint16(buf[12:], 1)
	binary.LittleEndian.PutUint16(buf[14:], bitDepth)
	binary.LittleEndian.PutUint32(buf[16:], uint32(comp))
	binary.LittleEndian.PutUint32(buf[20:], imageSize)
	binary.LittleEndian.PutUint32(buf[24:], 2835) // 72 DPI
	binary.LittleEndian.PutUint32(buf[28:], 2835)
	binary.LittleEndian.PutUint32(buf[32:], 0)
	binary.LittleEndian.PutUint32(buf[36:], 0)
}
