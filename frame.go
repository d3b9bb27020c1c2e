package avdec

// Typed output frames produced by the Decoder. Frames own their buffers;
// ownership transfers to the caller on return.

// AudioFrame holds one decoded unit of PCM audio. For planar sample
// formats each channel occupies its own plane; packed formats use a
// single interleaved plane.
type AudioFrame struct {
	planes    [][]byte
	format    AudioFormat
	samples   int
	timestamp int64 // microseconds
	keyFrame  bool
}

// NewAudioFrame allocates a frame sized to hold samples per channel in the
// given format.
func NewAudioFrame(format AudioFormat, samples int) *AudioFrame {
	planes := 1
	if format.SampleFormat.IsPlanar() {
		planes = format.Channels
	}
	planeSize := samples * format.SampleFormat.BytesPerSample()
	if !format.SampleFormat.IsPlanar() {
		planeSize *= format.Channels
	}

	f := &AudioFrame{
		planes:  make([][]byte, planes),
		format:  format,
		samples: samples,
	}
	for i := range f.planes {
		f.planes[i] = make([]byte, planeSize)
	}
	return f
}

// Format returns the shape of the samples in this frame.
func (f *AudioFrame) Format() AudioFormat { return f.format }

// Samples returns the number of samples per channel.
func (f *AudioFrame) Samples() int { return f.samples }

// PlaneCount returns the number of sample planes.
func (f *AudioFrame) PlaneCount() int { return len(f.planes) }

// Plane returns the i-th sample plane, or nil if out of range.
func (f *AudioFrame) Plane(i int) []byte {
	if i < 0 || i >= len(f.planes) {
		return nil
	}
	return f.planes[i]
}

// Timestamp returns the presentation timestamp in microseconds.
func (f *AudioFrame) Timestamp() int64 { return f.timestamp }

// SetTimestamp sets the presentation timestamp in microseconds.
func (f *AudioFrame) SetTimestamp(ts int64) { f.timestamp = ts }

// KeyFrame reports whether the frame was decoded from a key frame.
func (f *AudioFrame) KeyFrame() bool { return f.keyFrame }

// SetKeyFrame sets the key-frame flag.
func (f *AudioFrame) SetKeyFrame(key bool) { f.keyFrame = key }

// Clone creates a deep copy of the audio frame.
func (f *AudioFrame) Clone() *AudioFrame {
	clone := &AudioFrame{
		planes:    make([][]byte, len(f.planes)),
		format:    f.format,
		samples:   f.samples,
		timestamp: f.timestamp,
		keyFrame:  f.keyFrame,
	}
	for i, p := range f.planes {
		clone.planes[i] = make([]byte, len(p))
		copy(clone.planes[i], p)
	}
	return clone
}

// VideoFrame holds one decoded picture as a single contiguous pixel
// buffer. The zero value is the empty sentinel returned when the decoder
// produced no picture for a data-carrying packet.
type VideoFrame struct {
	data      []byte
	width     int
	height    int
	format    PixelFormat
	timestamp int64 // microseconds
	keyFrame  bool
}

// NewVideoFrame wraps an owned pixel buffer with its geometry.
func NewVideoFrame(data []byte, width, height int, format PixelFormat) *VideoFrame {
	return &VideoFrame{
		data:   data,
		width:  width,
		height: height,
		format: format,
	}
}

// Empty reports whether the frame carries no picture data.
func (f *VideoFrame) Empty() bool { return len(f.data) == 0 }

// Data returns the pixel buffer.
func (f *VideoFrame) Data() []byte { return f.data }

// Width returns the picture width in pixels.
func (f *VideoFrame) Width() int { return f.width }

// Height returns the picture height in pixels.
func (f *VideoFrame) Height() int { return f.height }

// Format returns the pixel format of the buffer.
func (f *VideoFrame) Format() PixelFormat { return f.format }

// Timestamp returns the presentation timestamp in microseconds.
func (f *VideoFrame) Timestamp() int64 { return f.timestamp }

// SetTimestamp sets the presentation timestamp in microseconds.
func (f *VideoFrame) SetTimestamp(ts int64) { f.timestamp = ts }

// KeyFrame reports whether the frame was decoded from a key frame.
func (f *VideoFrame) KeyFrame() bool { return f.keyFrame }

// SetKeyFrame sets the key-frame flag.
func (f *VideoFrame) SetKeyFrame(key bool) { f.keyFrame = key }

// Clone creates a deep copy of the video frame.
func (f *VideoFrame) Clone() *VideoFrame {
	clone := &VideoFrame{
		width:     f.width,
		height:    f.height,
		format:    f.format,
		timestamp: f.timestamp,
		keyFrame:  f.keyFrame,
	}
	if f.data != nil {
		clone.data = make([]byte, len(f.data))
		copy(clone.data, f.data)
	}
	return clone
}
