package bitmap

import "fmt"

// ImageFormat identifies a container format this package knows how to
// sniff. Like PixelLayout and ErrorKind, the set is designed to be open;
// callers switching on it must carry a default arm.
type ImageFormat int

const (
	FormatPNM ImageFormat = iota
	FormatBmp
	FormatFarbfeld
)

func (f ImageFormat) String() string {
	switch f {
	case FormatPNM:
		return "PNM"
	case FormatBmp:
		return "BMP"
	case FormatFarbfeld:
		return "farbfeld"
	default:
		return fmt.Sprintf("ImageFormat(%d)", int(f))
	}
}

// PixelData is the borrowed-or-owned discriminant described in §9: rather
// than a tagged union, it is a slice plus a boolean, which is the
// representation the design notes recommend for implementers without a
// native sum type.
type PixelData struct {
	bytes []byte
	owned bool
}

func borrowed(b []byte) PixelData {
	return PixelData{bytes: b, owned: false}
}

func owned(b []byte) PixelData {
	return PixelData{bytes: b, owned: true}
}

// Bytes returns the underlying pixel bytes. When IsBorrowed is true, the
// returned slice aliases the decoder's input and must not be retained past
// the input's lifetime if the caller mutates or frees it.
func (p PixelData) Bytes() []byte {
	return p.bytes
}

// IsBorrowed reports whether Bytes aliases the original input with no
// transformation, per the zero-copy invariant in §3.
func (p PixelData) IsBorrowed() bool {
	return !p.owned
}

// DecodeOutput is the result of a successful decode.
type DecodeOutput struct {
	Pixels PixelData
	Width  uint32
	Height uint32
	Layout PixelLayout
}

// IsBorrowed reports whether Pixels.Bytes aliases the decoder input.
func (o DecodeOutput) IsBorrowed() bool {
	return o.Pixels.IsBorrowed()
}

func newBorrowedOutput(b []byte, width, height uint32, layout PixelLayout) DecodeOutput {
	return DecodeOutput{Pixels: borrowed(b), Width: width, Height: height, Layout: layout}
}

func newOwnedOutput(b []byte, width, height uint32, layout PixelLayout) DecodeOutput {
	return DecodeOutput{Pixels: owned(b), Width: width, Height: height, Layout: layout}
}
