package avdec

import (
	"bytes"
	"testing"
)

func TestLengthPrefixedToAnnexB(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{
			"single nal",
			[]byte{0, 0, 0, 3, 0x65, 1, 2},
			[]byte{0, 0, 0, 1, 0x65, 1, 2},
		},
		{
			"two nals",
			[]byte{0, 0, 0, 2, 0x67, 0xaa, 0, 0, 0, 2, 0x68, 0xbb},
			[]byte{0, 0, 0, 1, 0x67, 0xaa, 0, 0, 0, 1, 0x68, 0xbb},
		},
		{
			"truncated length",
			[]byte{0, 0, 0, 10, 0x65},
			nil,
		},
		{
			"empty",
			nil,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lengthPrefixedToAnnexB(tt.in); !bytes.Equal(got, tt.want) {
				t.Errorf("lengthPrefixedToAnnexB() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodecFromSampleEntry(t *testing.T) {
	tests := []struct {
		boxType string
		want    CodecID
	}{
		{"avc1", CodecIDH264},
		{"avc3", CodecIDH264},
		{"hvc1", CodecIDH265},
		{"hev1", CodecIDH265},
		{"vp08", CodecIDVP8},
		{"vp09", CodecIDVP9},
		{"av01", CodecIDAV1},
		{"mp4a", CodecIDAAC},
		{"Opus", CodecIDOpus},
		{"fLaC", CodecIDFLAC},
		{"enca", CodecIDNone},
	}

	for _, tt := range tests {
		t.Run(tt.boxType, func(t *testing.T) {
			if got := codecFromSampleEntry(tt.boxType); got != tt.want {
				t.Errorf("codecFromSampleEntry(%q) = %v, want %v", tt.boxType, got, tt.want)
			}
		})
	}
}
