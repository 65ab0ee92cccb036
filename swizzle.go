package bitmap

// swizzleBGR8ToRGB8 reorders one B,G,R triplet in place to R,G,B.
func swizzleBGR8ToRGB8(p []byte) {
	p[0], p[2] = p[2], p[0]
}

// swizzleBGRA8ToRGBA8 reorders one B,G,R,A quad in place to R,G,B,A.
func swizzleBGRA8ToRGBA8(p []byte) {
	p[0], p[2] = p[2], p[0]
}

// toRGB8 returns an RGB8-ordered copy of src, which must be Rgb8, Bgr8,
// Rgba8, Bgra8 or Bgrx8 (alpha, if any, is dropped).
func toRGB8(src []byte, layout PixelLayout, pixelCount int) ([]byte, error) {
	if bpp := layout.BytesPerPixel(); bpp > 0 && len(src) != pixelCount*bpp {
		return nil, newErrorf(KindLayoutMismatch, "pixel buffer length %d does not match %d pixels of %s", len(src), pixelCount, layout)
	}
	switch layout {
	case LayoutRgb8:
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	case LayoutBgr8:
		out := make([]byte, len(src))
		for i := 0; i < pixelCount; i++ {
			out[i*3+0] = src[i*3+2]
			out[i*3+1] = src[i*3+1]
			out[i*3+2] = src[i*3+0]
		}
		return out, nil
	case LayoutRgba8:
		out := make([]byte, pixelCount*3)
		for i := 0; i < pixelCount; i++ {
			out[i*3+0] = src[i*4+0]
			out[i*3+1] = src[i*4+1]
			out[i*3+2] = src[i*4+2]
		}
		return out, nil
	case LayoutBgra8, LayoutBgrx8:
		out := make([]byte, pixelCount*3)
		for i := 0; i < pixelCount; i++ {
			out[i*3+0] = src[i*4+2]
			out[i*3+1] = src[i*4+1]
			out[i*3+2] = src[i*4+0]
		}
		return out, nil
	default:
		return nil, newErrorf(KindLayoutMismatch, "cannot derive Rgb8 from %s", layout)
	}
}

// toRGBA8 returns an RGBA8-ordered copy of src, forcing alpha to 0xFF for
// layouts without one.
func toRGBA8(src []byte, layout PixelLayout, pixelCount int) ([]byte, error) {
	if bpp := layout.BytesPerPixel(); bpp > 0 && len(src) != pixelCount*bpp {
		return nil, newErrorf(KindLayoutMismatch, "pixel buffer length %d does not match %d pixels of %s", len(src), pixelCount, layout)
	}
	switch layout {
	case LayoutRgba8:
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	case LayoutBgra8:
		out := make([]byte, len(src))
		for i := 0; i < pixelCount; i++ {
			out[i*4+0] = src[i*4+2]
			out[i*4+1] = src[i*4+1]
			out[i*4+2] = src[i*4+0]
			out[i*4+3] = src[i*4+3]
		}
		return out, nil
	case LayoutBgrx8:
		out := make([]byte, len(src))
		for i := 0; i < pixelCount; i++ {
			out[i*4+0] = src[i*4+2]
			out[i*4+1] = src[i*4+1]
			out[i*4+2] = src[i*4+0]
			out[i*4+3] = 0xFF
		}
		return out, nil
	case LayoutRgb8:
		out := make([]byte, pixelCount*4)
		for i := 0; i < pixelCount; i++ {
			out[i*4+0] = src[i*3+0]
			out[i*4+1] = src[i*3+1]
			out[i*4+2] = src[i*3+2]
			out[i*4+3] = 0xFF
		}
		return out, nil
	case LayoutBgr8:
		out := make([]byte, pixelCount*4)
		for i := 0; i < pixelCount; i++ {
			out[i*4+0] = src[i*3+2]
			out[i*4+1] = src[i*3+1]
			out[i*4+2] = src[i*3+0]
			out[i*4+3] = 0xFF
		}
		return out, nil
	default:
		return nil, newErrorf(KindLayoutMismatch, "cannot derive Rgba8 from %s", layout)
	}
}
