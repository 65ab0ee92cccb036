package bitmap

import "fmt"

// PixelLayout fixes the channel count, sample type and channel order of a
// decoded or to-be-encoded pixel buffer. §9's design notes call this out
// as an open enum alongside ImageFormat and ErrorKind: §3 enumerates the
// layouts a minimal implementation needs, and this package extends that
// set with Rgb16 and GrayAlpha8 so every canonical PAM tuple type and every
// 16-bit PNM channel count has a home (see DESIGN.md for the rationale).
// External switches over PixelLayout must include a default arm.
type PixelLayout int

const (
	LayoutGray8 PixelLayout = iota
	LayoutGray16
	LayoutGrayAlpha8
	LayoutRgb8
	LayoutRgb16
	LayoutRgba8
	LayoutRgba16
	LayoutBgr8
	LayoutBgra8
	LayoutBgrx8
	LayoutGrayF32
	LayoutRgbF32
)

func (l PixelLayout) String() string {
	switch l {
	case LayoutGray8:
		return "Gray8"
	case LayoutGray16:
		return "Gray16"
	case LayoutGrayAlpha8:
		return "GrayAlpha8"
	case LayoutRgb8:
		return "Rgb8"
	case LayoutRgb16:
		return "Rgb16"
	case LayoutRgba8:
		return "Rgba8"
	case LayoutRgba16:
		return "Rgba16"
	case LayoutBgr8:
		return "Bgr8"
	case LayoutBgra8:
		return "Bgra8"
	case LayoutBgrx8:
		return "Bgrx8"
	case LayoutGrayF32:
		return "GrayF32"
	case LayoutRgbF32:
		return "RgbF32"
	default:
		return fmt.Sprintf("PixelLayout(%d)", int(l))
	}
}

// Channels returns the number of channels in the layout.
func (l PixelLayout) Channels() int {
	switch l {
	case LayoutGray8, LayoutGray16, LayoutGrayF32:
		return 1
	case LayoutGrayAlpha8:
		return 2
	case LayoutRgb8, LayoutRgb16, LayoutBgr8, LayoutRgbF32:
		return 3
	case LayoutRgba8, LayoutRgba16, LayoutBgra8, LayoutBgrx8:
		return 4
	default:
		return 0
	}
}

// SampleBytes returns the byte width of a single channel sample.
func (l PixelLayout) SampleBytes() int {
	switch l {
	case LayoutGray8, LayoutGrayAlpha8, LayoutRgb8, LayoutRgba8, LayoutBgr8, LayoutBgra8, LayoutBgrx8:
		return 1
	case LayoutGray16, LayoutRgb16, LayoutRgba16:
		return 2
	case LayoutGrayF32, LayoutRgbF32:
		return 4
	default:
		return 0
	}
}

// BytesPerPixel returns Channels()*SampleBytes().
func (l PixelLayout) BytesPerPixel() int {
	return l.Channels() * l.SampleBytes()
}

// IsFloat reports whether samples are IEEE-754 f32.
func (l PixelLayout) IsFloat() bool {
	return l == LayoutGrayF32 || l == LayoutRgbF32
}

// HasAlpha reports whether the layout carries a true alpha channel.
// Bgrx8's fourth byte is padding, not alpha, so it reports false.
func (l PixelLayout) HasAlpha() bool {
	switch l {
	case LayoutGrayAlpha8, LayoutRgba8, LayoutRgba16, LayoutBgra8:
		return true
	default:
		return false
	}
}

// RedChannelIndex returns the sample index of the red channel within a
// pixel tuple, or -1 for layouts with no red channel (grayscale).
func (l PixelLayout) RedChannelIndex() int {
	switch l {
	case LayoutRgb8, LayoutRgb16, LayoutRgba8, LayoutRgba16, LayoutRgbF32:
		return 0
	case LayoutBgr8, LayoutBgra8, LayoutBgrx8:
		return 2
	default:
		return -1
	}
}

// isBGROrder reports whether l stores color channels in B,G,R(,X) order.
func (l PixelLayout) isBGROrder() bool {
	switch l {
	case LayoutBgr8, LayoutBgra8, LayoutBgrx8:
		return true
	default:
		return false
	}
}
