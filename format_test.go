package avdec

import (
	"testing"
)

func TestPixelFormat_String(t *testing.T) {
	tests := []struct {
		format PixelFormat
		want   string
	}{
		{PixelFormatYUV420P, "yuv420p"},
		{PixelFormatNV12, "nv12"},
		{PixelFormatRGB24, "rgb24"},
		{PixelFormatBGR24, "bgr24"},
		{PixelFormatRGBA32, "rgba"},
		{PixelFormatBGRA32, "bgra"},
		{PixelFormatGray8, "gray8"},
		{PixelFormatNone, "none"},
		{PixelFormat(99), "none"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.format.String(); got != tt.want {
				t.Errorf("PixelFormat.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPixelFormat_PlaneCount(t *testing.T) {
	tests := []struct {
		format PixelFormat
		want   int
	}{
		{PixelFormatYUV420P, 3},
		{PixelFormatNV12, 2},
		{PixelFormatRGB24, 1},
		{PixelFormatBGR24, 1},
		{PixelFormatRGBA32, 1},
		{PixelFormatBGRA32, 1},
		{PixelFormatGray8, 1},
		{PixelFormatNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.PlaneCount(); got != tt.want {
				t.Errorf("PlaneCount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleFormat_IsPlanar(t *testing.T) {
	tests := []struct {
		format SampleFormat
		want   bool
	}{
		{SampleFormatU8, false},
		{SampleFormatS16, false},
		{SampleFormatS32, false},
		{SampleFormatFLT, false},
		{SampleFormatDBL, false},
		{SampleFormatU8P, true},
		{SampleFormatS16P, true},
		{SampleFormatS32P, true},
		{SampleFormatFLTP, true},
		{SampleFormatDBLP, true},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.IsPlanar(); got != tt.want {
				t.Errorf("IsPlanar() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleFormat_BytesPerSample(t *testing.T) {
	tests := []struct {
		format SampleFormat
		want   int
	}{
		{SampleFormatU8, 1},
		{SampleFormatS16, 2},
		{SampleFormatS32, 4},
		{SampleFormatFLT, 4},
		{SampleFormatDBL, 8},
		{SampleFormatS16P, 2},
		{SampleFormatFLTP, 4},
		{SampleFormatNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.BytesPerSample(); got != tt.want {
				t.Errorf("BytesPerSample() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChannelLayout_Channels(t *testing.T) {
	tests := []struct {
		layout ChannelLayout
		want   int
	}{
		{ChannelLayoutNone, 0},
		{ChannelLayoutMono, 1},
		{ChannelLayoutStereo, 2},
		{ChannelLayout2Point1, 3},
		{ChannelLayoutSurround, 3},
		{ChannelLayoutQuad, 4},
		{ChannelLayout5Point1, 6},
		{ChannelLayout7Point1, 8},
	}

	for _, tt := range tests {
		t.Run(tt.layout.String(), func(t *testing.T) {
			if got := tt.layout.Channels(); got != tt.want {
				t.Errorf("Channels() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultChannelLayout(t *testing.T) {
	tests := []struct {
		channels int
		want     ChannelLayout
	}{
		{1, ChannelLayoutMono},
		{2, ChannelLayoutStereo},
		{3, ChannelLayoutSurround},
		{4, ChannelLayoutQuad},
		{6, ChannelLayout5Point1},
		{8, ChannelLayout7Point1},
		{5, ChannelLayoutNone},
		{0, ChannelLayoutNone},
	}

	for _, tt := range tests {
		if got := DefaultChannelLayout(tt.channels); got != tt.want {
			t.Errorf("DefaultChannelLayout(%d) = %v, want %v", tt.channels, got, tt.want)
		}
	}
}

func TestPictureFormat_Equality(t *testing.T) {
	a := PictureFormat{Width: 640, Height: 480, PixelFormat: PixelFormatBGR24}
	b := PictureFormat{Width: 640, Height: 480, PixelFormat: PixelFormatBGR24}
	c := PictureFormat{Width: 640, Height: 480, PixelFormat: PixelFormatRGB24}

	if a != b {
		t.Error("identical picture formats compare unequal")
	}
	if a == c {
		t.Error("different pixel formats compare equal")
	}
}

func TestPictureFormat_Valid(t *testing.T) {
	tests := []struct {
		name   string
		format PictureFormat
		want   bool
	}{
		{"ok", PictureFormat{640, 480, PixelFormatBGR24}, true},
		{"zero width", PictureFormat{0, 480, PixelFormatBGR24}, false},
		{"zero height", PictureFormat{640, 0, PixelFormatBGR24}, false},
		{"no format", PictureFormat{640, 480, PixelFormatNone}, false},
		{"zero value", PictureFormat{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleBufferSize(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		samples  int
		format   SampleFormat
		want     int
	}{
		{"stereo s16", 2, 1024, SampleFormatS16, 4096},
		{"mono fltp", 1, 960, SampleFormatFLTP, 3840},
		{"5.1 s32", 6, 256, SampleFormatS32, 6144},
		{"zero channels", 0, 1024, SampleFormatS16, 0},
		{"zero samples", 2, 0, SampleFormatS16, 0},
		{"no format", 2, 1024, SampleFormatNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleBufferSize(tt.channels, tt.samples, tt.format, 1); got != tt.want {
				t.Errorf("SampleBufferSize() = %v, want %v", got, tt.want)
			}
		})
	}
}
