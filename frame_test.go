package avdec

import (
	"testing"
)

func TestNewAudioFrame_Packed(t *testing.T) {
	format := AudioFormat{
		SampleFormat:  SampleFormatS16,
		ChannelLayout: ChannelLayoutStereo,
		Channels:      2,
		SampleRate:    48000,
	}

	frame := NewAudioFrame(format, 1024)

	if frame.PlaneCount() != 1 {
		t.Errorf("PlaneCount() = %d, want 1 for packed format", frame.PlaneCount())
	}
	// 1024 samples * 2 bytes * 2 channels interleaved
	if len(frame.Plane(0)) != 4096 {
		t.Errorf("plane size = %d, want 4096", len(frame.Plane(0)))
	}
	if frame.Samples() != 1024 {
		t.Errorf("Samples() = %d, want 1024", frame.Samples())
	}
}

func TestNewAudioFrame_Planar(t *testing.T) {
	format := AudioFormat{
		SampleFormat:  SampleFormatFLTP,
		ChannelLayout: ChannelLayoutStereo,
		Channels:      2,
		SampleRate:    48000,
	}

	frame := NewAudioFrame(format, 960)

	if frame.PlaneCount() != 2 {
		t.Errorf("PlaneCount() = %d, want 2 for planar stereo", frame.PlaneCount())
	}
	// 960 samples * 4 bytes, one channel per plane
	for i := 0; i < 2; i++ {
		if len(frame.Plane(i)) != 3840 {
			t.Errorf("plane %d size = %d, want 3840", i, len(frame.Plane(i)))
		}
	}
	if frame.Plane(2) != nil {
		t.Error("Plane(2) should be nil out of range")
	}
}

func TestAudioFrame_Clone(t *testing.T) {
	format := AudioFormat{
		SampleFormat:  SampleFormatS16,
		ChannelLayout: ChannelLayoutMono,
		Channels:      1,
		SampleRate:    16000,
	}

	frame := NewAudioFrame(format, 4)
	frame.SetTimestamp(12345)
	frame.SetKeyFrame(true)
	copy(frame.Plane(0), []byte{1, 2, 3, 4, 5, 6, 7, 8})

	clone := frame.Clone()

	if clone.Timestamp() != 12345 || !clone.KeyFrame() {
		t.Error("clone lost timestamp or keyframe flag")
	}
	if clone.Format() != format {
		t.Errorf("clone format = %v, want %v", clone.Format(), format)
	}

	// Mutating the clone must not touch the original.
	clone.Plane(0)[0] = 99
	if frame.Plane(0)[0] != 1 {
		t.Error("clone shares plane storage with original")
	}
}

func TestVideoFrame_Empty(t *testing.T) {
	var zero VideoFrame
	if !zero.Empty() {
		t.Error("zero value should be empty")
	}

	frame := NewVideoFrame(make([]byte, 12), 2, 2, PixelFormatBGR24)
	if frame.Empty() {
		t.Error("frame with data should not be empty")
	}
}

func TestVideoFrame_Clone(t *testing.T) {
	data := []byte{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120}
	frame := NewVideoFrame(data, 2, 2, PixelFormatBGR24)
	frame.SetTimestamp(777)
	frame.SetKeyFrame(true)

	clone := frame.Clone()

	if clone.Width() != 2 || clone.Height() != 2 || clone.Format() != PixelFormatBGR24 {
		t.Error("clone lost geometry or format")
	}
	if clone.Timestamp() != 777 || !clone.KeyFrame() {
		t.Error("clone lost timestamp or keyframe flag")
	}

	clone.Data()[0] = 0
	if frame.Data()[0] != 10 {
		t.Error("clone shares pixel storage with original")
	}
}
