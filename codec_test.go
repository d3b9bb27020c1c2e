package avdec

import (
	"testing"
)

func TestCodecID_String(t *testing.T) {
	tests := []struct {
		codec CodecID
		want  string
	}{
		{CodecIDH264, "h264"},
		{CodecIDH265, "h265"},
		{CodecIDVP8, "vp8"},
		{CodecIDVP9, "vp9"},
		{CodecIDAV1, "av1"},
		{CodecIDAAC, "aac"},
		{CodecIDOpus, "opus"},
		{CodecIDMP3, "mp3"},
		{CodecIDNone, "none"},
		{CodecID(99), "none"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.codec.String(); got != tt.want {
				t.Errorf("CodecID.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodecID_MediaType(t *testing.T) {
	tests := []struct {
		codec CodecID
		want  MediaType
	}{
		{CodecIDH264, MediaTypeVideo},
		{CodecIDH265, MediaTypeVideo},
		{CodecIDVP8, MediaTypeVideo},
		{CodecIDVP9, MediaTypeVideo},
		{CodecIDAV1, MediaTypeVideo},
		{CodecIDMPEG4, MediaTypeVideo},
		{CodecIDMJPEG, MediaTypeVideo},
		{CodecIDAAC, MediaTypeAudio},
		{CodecIDOpus, MediaTypeAudio},
		{CodecIDMP3, MediaTypeAudio},
		{CodecIDVorbis, MediaTypeAudio},
		{CodecIDFLAC, MediaTypeAudio},
		{CodecIDPCMS16LE, MediaTypeAudio},
		{CodecIDPCMALaw, MediaTypeAudio},
		{CodecIDPCMMuLaw, MediaTypeAudio},
		{CodecIDNone, MediaTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.codec.String(), func(t *testing.T) {
			if got := tt.codec.MediaType(); got != tt.want {
				t.Errorf("MediaType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodecID_Valid(t *testing.T) {
	if CodecIDNone.Valid() {
		t.Error("CodecIDNone.Valid() = true, want false")
	}
	if CodecID(99).Valid() {
		t.Error("CodecID(99).Valid() = true, want false")
	}
	if !CodecIDH264.Valid() {
		t.Error("CodecIDH264.Valid() = false, want true")
	}
	if !CodecIDOpus.Valid() {
		t.Error("CodecIDOpus.Valid() = false, want true")
	}
}
