package bitmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestToRGB8FromBgr8Swaps(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6} // two BGR pixels
	out, err := toRGB8(src, LayoutBgr8, 2)
	require.NoError(t, err)
	want := []byte{3, 2, 1, 6, 5, 4}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("toRGB8 mismatch (-want +got):\n%s", diff)
	}
}

func TestToRGBA8FromBgrx8ForcesOpaqueAlpha(t *testing.T) {
	src := []byte{10, 20, 30, 0x00}
	out, err := toRGBA8(src, LayoutBgrx8, 1)
	require.NoError(t, err)
	want := []byte{30, 20, 10, 0xFF}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("toRGBA8 mismatch (-want +got):\n%s", diff)
	}
}

func TestToRGB8RejectsUnsupportedLayout(t *testing.T) {
	_, err := toRGB8([]byte{1, 2}, LayoutGray16, 1)
	require.Error(t, err)
	require.True(t, IsKind(err, KindLayoutMismatch))
}

func TestToRGBA8RoundTripsRgb8(t *testing.T) {
	src := []byte{1, 2, 3}
	out, err := toRGBA8(src, LayoutRgb8, 1)
	require.NoError(t, err)
	want := []byte{1, 2, 3, 0xFF}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("toRGBA8 mismatch (-want +got):\n%s", diff)
	}
}
