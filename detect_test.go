package avdec

import (
	"errors"
	"testing"
)

func TestDetectVideoCodec(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want CodecID
	}{
		{
			name: "h264 annexb 4-byte start code sps",
			data: []byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x42, 0x00, 0x1E},
			want: CodecIDH264,
		},
		{
			name: "h264 annexb 3-byte start code idr",
			data: []byte{0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x00},
			want: CodecIDH264,
		},
		{
			name: "h265 annexb vps",
			data: []byte{0x00, 0x00, 0x00, 0x01, 0x40, 0x01, 0x0C, 0x01},
			want: CodecIDH265,
		},
		{
			name: "h265 annexb sps",
			data: []byte{0x00, 0x00, 0x00, 0x01, 0x42, 0x01, 0x01, 0x01},
			want: CodecIDH265,
		},
		{
			name: "h264 avcc length prefixed",
			data: []byte{0x00, 0x00, 0x00, 0x02, 0x67, 0x42},
			want: CodecIDH264,
		},
		{
			name: "avcc with implausible length",
			data: []byte{0x00, 0x00, 0x10, 0x00, 0x67, 0x42},
			want: CodecIDNone,
		},
		{
			name: "ivf vp8",
			data: []byte("DKIF\x00\x00\x20\x00VP80\x40\x01\xF0\x00"),
			want: CodecIDVP8,
		},
		{
			name: "ivf vp9",
			data: []byte("DKIF\x00\x00\x20\x00VP90\x40\x01\xF0\x00"),
			want: CodecIDVP9,
		},
		{
			name: "ivf av1",
			data: []byte("DKIF\x00\x00\x20\x00AV01\x40\x01\xF0\x00"),
			want: CodecIDAV1,
		},
		{
			name: "ivf unknown fourcc",
			data: []byte("DKIF\x00\x00\x20\x00XXXX\x40\x01\xF0\x00"),
			want: CodecIDNone,
		},
		{
			name: "vp8 keyframe sync code",
			data: []byte{0x10, 0x02, 0x00, 0x9D, 0x01, 0x2A, 0x40, 0x01},
			want: CodecIDVP8,
		},
		{
			name: "vp8 interframe is not detected",
			data: []byte{0x11, 0x02, 0x00, 0x9D, 0x01, 0x2A, 0x40, 0x01},
			want: CodecIDNone,
		},
		{
			name: "vp9 keyframe sync code",
			data: []byte{0x82, 0x49, 0x83, 0x42, 0x00, 0x00},
			want: CodecIDVP9,
		},
		{
			name: "vp9 marker without sync code",
			data: []byte{0x82, 0x00, 0x00, 0x00, 0x00, 0x00},
			want: CodecIDNone,
		},
		{
			name: "av1 sequence header obu",
			data: []byte{0x0A, 0x0B, 0x00, 0x00, 0x00, 0x24},
			want: CodecIDAV1,
		},
		{
			name: "av1 forbidden bit set",
			data: []byte{0x8A, 0x0B, 0x00, 0x00},
			want: CodecIDNone,
		},
		{
			name: "av1 reserved bit set",
			data: []byte{0x0B, 0x0B, 0x00, 0x00},
			want: CodecIDNone,
		},
		{
			name: "too short",
			data: []byte{0x00, 0x00, 0x01},
			want: CodecIDNone,
		},
		{
			name: "garbage",
			data: []byte{0x01, 0x02, 0x03, 0x04},
			want: CodecIDNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectVideoCodec(tt.data); got != tt.want {
				t.Errorf("DetectVideoCodec() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectAudioCodec(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want CodecID
	}{
		{
			name: "aac adts mpeg-4",
			data: []byte{0xFF, 0xF1, 0x50, 0x80, 0x00, 0x1F, 0xFC},
			want: CodecIDAAC,
		},
		{
			name: "aac adts mpeg-2",
			data: []byte{0xFF, 0xF9, 0x50, 0x80, 0x00, 0x1F, 0xFC},
			want: CodecIDAAC,
		},
		{
			name: "ogg opus",
			data: append([]byte("OggS\x00\x02"), []byte("OpusHead\x01\x02")...),
			want: CodecIDOpus,
		},
		{
			name: "ogg vorbis",
			data: append([]byte("OggS\x00\x02"), []byte("\x01vorbis\x00")...),
			want: CodecIDVorbis,
		},
		{
			name: "ogg without known header",
			data: []byte("OggS\x00\x02\x00\x00\x00\x00"),
			want: CodecIDNone,
		},
		{
			name: "flac stream marker",
			data: []byte("fLaC\x00\x00\x00\x22"),
			want: CodecIDFLAC,
		},
		{
			name: "mp3 frame sync layer iii",
			data: []byte{0xFF, 0xFB, 0x90, 0x00},
			want: CodecIDMP3,
		},
		{
			name: "too short",
			data: []byte{0xFF, 0xFB},
			want: CodecIDNone,
		},
		{
			name: "garbage",
			data: []byte{0x01, 0x02, 0x03, 0x04},
			want: CodecIDNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectAudioCodec(tt.data); got != tt.want {
				t.Errorf("DetectAudioCodec() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectCodec(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want CodecID
	}{
		{
			name: "video first",
			data: []byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x42, 0x00, 0x1E},
			want: CodecIDH264,
		},
		{
			name: "falls through to audio",
			data: []byte{0xFF, 0xFB, 0x90, 0x00},
			want: CodecIDMP3,
		},
		{
			name: "unknown",
			data: []byte{0x01, 0x02, 0x03, 0x04},
			want: CodecIDNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCodec(tt.data); got != tt.want {
				t.Errorf("DetectCodec() = %s, want %s", got, tt.want)
			}
		})
	}
}

func annexBIDRPacket(t *testing.T) *MediaPacket {
	t.Helper()
	return NewMediaPacket([]byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x00})
}

func TestAutoDecoder_DetectsOnFirstPacket(t *testing.T) {
	const width, height = 16, 16
	backend := newVideoBackend(width, height, PixelFormatBGR24)
	backend.onDecodeVideo = func(f *fakeFrame, data []byte, pts int64) (int, bool) {
		pic, err := AllocPicture(PixelFormatBGR24, width, height)
		if err != nil {
			t.Fatalf("AllocPicture() error = %v", err)
		}
		f.picture = pic
		f.keyFrame = true
		f.pts = 10
		return len(data), true
	}

	dec := NewAutoDecoderWithBackend(backend)
	defer dec.Close()

	if got := dec.Codec(); got != CodecIDNone {
		t.Errorf("Codec() before decode = %s, want none", got)
	}

	frame, err := dec.DecodeVideo(annexBIDRPacket(t))
	if err != nil {
		t.Fatalf("DecodeVideo() error = %v", err)
	}
	if frame == nil || frame.Empty() {
		t.Fatal("DecodeVideo() produced no frame")
	}
	if got := dec.Codec(); got != CodecIDH264 {
		t.Errorf("Codec() = %s, want h264", got)
	}
}

func TestAutoDecoder_UndetectableCodec(t *testing.T) {
	dec := NewAutoDecoderWithBackend(newVideoBackend(16, 16, PixelFormatBGR24))
	defer dec.Close()

	_, err := dec.DecodeVideo(NewMediaPacket([]byte{0x01, 0x02, 0x03, 0x04}))
	if !errors.Is(err, ErrCodecDetect) {
		t.Errorf("DecodeVideo() error = %v, want ErrCodecDetect", err)
	}
}

func TestAutoDecoder_NilFirstPacket(t *testing.T) {
	dec := NewAutoDecoderWithBackend(newVideoBackend(16, 16, PixelFormatBGR24))
	defer dec.Close()

	if _, err := dec.DecodeVideo(nil); !errors.Is(err, ErrNoPacket) {
		t.Errorf("DecodeVideo(nil) error = %v, want ErrNoPacket", err)
	}
}

func TestAutoDecoder_SetPixelFormat(t *testing.T) {
	const width, height = 16, 16
	backend := newVideoBackend(width, height, PixelFormatYUV420P)
	backend.onDecodeVideo = func(f *fakeFrame, data []byte, pts int64) (int, bool) {
		f.picture = grayPicture(t, width, height)
		f.keyFrame = true
		f.pts = 10
		return len(data), true
	}

	dec := NewAutoDecoderWithBackend(backend)
	defer dec.Close()
	dec.SetPixelFormat(PixelFormatRGBA32)

	frame, err := dec.DecodeVideo(annexBIDRPacket(t))
	if err != nil {
		t.Fatalf("DecodeVideo() error = %v", err)
	}
	if frame.Format() != PixelFormatRGBA32 {
		t.Errorf("Format() = %s, want rgba", frame.Format())
	}
	if len(frame.Data()) != width*height*4 {
		t.Errorf("Data() = %d bytes, want %d", len(frame.Data()), width*height*4)
	}
}

func TestAutoDecoder_FlushBeforeDetect(t *testing.T) {
	dec := NewAutoDecoder()
	defer dec.Close()

	frames, err := dec.Flush()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if frames != nil {
		t.Errorf("Flush() = %d frames, want none", len(frames))
	}
}
