package avdec

import (
	"errors"
	"testing"
)

func TestAllocPicture(t *testing.T) {
	tests := []struct {
		format       PixelFormat
		wantPlanes   int
		wantSizes    []int
		wantLinesize []int
	}{
		{PixelFormatYUV420P, 3, []int{64 * 48, 32 * 24, 32 * 24}, []int{64, 32, 32}},
		{PixelFormatNV12, 2, []int{64 * 48, 32 * 24 * 2}, []int{64, 64}},
		{PixelFormatRGB24, 1, []int{64 * 48 * 3}, []int{64 * 3}},
		{PixelFormatBGR24, 1, []int{64 * 48 * 3}, []int{64 * 3}},
		{PixelFormatRGBA32, 1, []int{64 * 48 * 4}, []int{64 * 4}},
		{PixelFormatBGRA32, 1, []int{64 * 48 * 4}, []int{64 * 4}},
		{PixelFormatGray8, 1, []int{64 * 48}, []int{64}},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			pic, err := AllocPicture(tt.format, 64, 48)
			if err != nil {
				t.Fatalf("AllocPicture() error = %v", err)
			}

			if len(pic.Planes) != tt.wantPlanes {
				t.Fatalf("planes = %d, want %d", len(pic.Planes), tt.wantPlanes)
			}
			for i := range pic.Planes {
				if len(pic.Planes[i]) != tt.wantSizes[i] {
					t.Errorf("plane %d size = %d, want %d", i, len(pic.Planes[i]), tt.wantSizes[i])
				}
				if pic.Linesize[i] != tt.wantLinesize[i] {
					t.Errorf("linesize %d = %d, want %d", i, pic.Linesize[i], tt.wantLinesize[i])
				}
			}
		})
	}
}

func TestAllocPicture_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		format PixelFormat
		width  int
		height int
	}{
		{"zero width", PixelFormatBGR24, 0, 48},
		{"negative height", PixelFormatBGR24, 64, -1},
		{"no format", PixelFormatNone, 64, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AllocPicture(tt.format, tt.width, tt.height); !errors.Is(err, ErrPictureAlloc) {
				t.Errorf("AllocPicture() error = %v, want ErrPictureAlloc", err)
			}
		})
	}
}

func TestPicture_PictureFormat(t *testing.T) {
	pic, err := AllocPicture(PixelFormatYUV420P, 320, 240)
	if err != nil {
		t.Fatalf("AllocPicture() error = %v", err)
	}

	want := PictureFormat{Width: 320, Height: 240, PixelFormat: PixelFormatYUV420P}
	if got := pic.PictureFormat(); got != want {
		t.Errorf("PictureFormat() = %v, want %v", got, want)
	}
}
