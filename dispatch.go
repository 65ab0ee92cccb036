package bitmap

import "bytes"

// DetectFormat sniffs the container format from a magic prefix without
// parsing the rest of the header. It never consumes or retains data.
func DetectFormat(data []byte) (ImageFormat, error) {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte(farbfeldMagic)):
		return FormatFarbfeld, nil
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		return FormatBmp, nil
	case len(data) >= 2 && data[0] == 'P' && isPNMMagicSecondByte(data[1]):
		return FormatPNM, nil
	default:
		return 0, newError(KindBadMagic, "unrecognized container format")
	}
}

func isPNMMagicSecondByte(b byte) bool {
	switch b {
	case '5', '6', '7', 'F', 'f':
		return true
	}
	return false
}

// Decode detects the container format and decodes it with no resource
// limits and no cancellation support.
func Decode(data []byte) (DecodeOutput, error) {
	return DecodeWithLimits(data, Limits{}, nil)
}

// DecodeWithLimits detects the container format and decodes it, enforcing
// limits and polling stop for cooperative cancellation. BMP is decoded in
// Standard permissiveness; use DecodeBMPWithLimits to choose another.
func DecodeWithLimits(data []byte, limits Limits, stop StopFunc) (DecodeOutput, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return DecodeOutput{}, err
	}
	switch format {
	case FormatPNM:
		return decodePNM(data, limits, stop)
	case FormatBmp:
		return decodeBMP(data, BmpStandard, false, limits, stop)
	case FormatFarbfeld:
		return decodeFarbfeld(data, limits, stop)
	default:
		return DecodeOutput{}, newErrorf(KindUnsupportedFormat, "unhandled format %s", format)
	}
}

// DecodePNM decodes a PNM-family (PGM/PPM/PAM/PFM) image with no limits.
func DecodePNM(data []byte) (DecodeOutput, error) {
	return decodePNM(data, Limits{}, nil)
}

// DecodePNMWithLimits decodes a PNM-family image, enforcing limits and
// polling stop for cancellation.
func DecodePNMWithLimits(data []byte, limits Limits, stop StopFunc) (DecodeOutput, error) {
	return decodePNM(data, limits, stop)
}

// DecodeFarbfeld decodes a farbfeld image with no limits.
func DecodeFarbfeld(data []byte) (DecodeOutput, error) {
	return decodeFarbfeld(data, Limits{}, nil)
}

// DecodeFarbfeldWithLimits decodes a farbfeld image, enforcing limits and
// polling stop for cancellation.
func DecodeFarbfeldWithLimits(data []byte, limits Limits, stop StopFunc) (DecodeOutput, error) {
	return decodeFarbfeld(data, limits, stop)
}

// DecodeBMP decodes a BMP image at Standard permissiveness with no limits,
// swizzling palette/bitfield/direct-color pixels to RGB order.
func DecodeBMP(data []byte) (DecodeOutput, error) {
	return decodeBMP(data, BmpStandard, false, Limits{}, nil)
}

// DecodeBMPNative decodes a BMP image at Standard permissiveness, omitting
// the BGR-to-RGB swizzle and returning pixels in the file's native
// Bgr8/Bgra8/Bgrx8/Gray8 order.
func DecodeBMPNative(data []byte) (DecodeOutput, error) {
	return decodeBMP(data, BmpStandard, true, Limits{}, nil)
}

// DecodeBMPPermissive decodes a BMP image at Permissive permissiveness,
// tolerating the widest range of real-world encoder quirks, and swizzles
// to RGB order like DecodeBMP.
func DecodeBMPPermissive(data []byte) (DecodeOutput, error) {
	return decodeBMP(data, BmpPermissive, false, Limits{}, nil)
}

// DecodeBMPWithLimits decodes a BMP image at the given permissiveness,
// enforcing limits and polling stop for cancellation, swizzled to RGB order.
func DecodeBMPWithLimits(data []byte, perm BmpPermissiveness, limits Limits, stop StopFunc) (DecodeOutput, error) {
	return decodeBMP(data, perm, false, limits, stop)
}

// DecodeBMPNativeWithLimits is DecodeBMPNative with limits and cancellation.
func DecodeBMPNativeWithLimits(data []byte, perm BmpPermissiveness, limits Limits, stop StopFunc) (DecodeOutput, error) {
	return decodeBMP(data, perm, true, limits, stop)
}
