package avdec

import (
	"errors"
	"fmt"
	"sync"
)

// Common errors
var (
	ErrNoBackend         = errors.New("no codec backend available")
	ErrDecoderCreate     = errors.New("could not create decoder")
	ErrNotOpened         = errors.New("decoder is not opened")
	ErrMediaTypeMismatch = errors.New("media type mismatch")
	ErrNoPacket          = errors.New("no packet to decode")
	ErrPictureAlloc      = errors.New("could not allocate picture")
	ErrResample          = errors.New("could not resample picture")
)

// DecoderStats provides decoding metrics.
type DecoderStats struct {
	FramesDecoded    uint64
	KeyframesDecoded uint64
	BytesDecoded     uint64
}

// videoResult tags the outcome of one video decode attempt. Externally
// both drained and errored flush packets surface as an absent frame; the
// tag keeps the distinction available inside the package.
type videoResult int

const (
	videoResultFrame     videoResult = iota // a picture was produced
	videoResultBuffering                    // decoder consumed data, no output yet
	videoResultDrained                      // no buffered output left (or flush decode error)
)

// Decoder turns compressed media packets into normalized frames. Audio
// packets are drained through a working window loop; video packets are
// decoded one call per packet. Decoded pictures are converted into the
// desired output pixel format when it differs from the source.
//
// A Decoder is not safe for concurrent use: it reuses a working packet,
// a native scratch frame and, for video, a resampler and scratch picture
// across calls.
type Decoder struct {
	Coder

	// Convert decoded pictures to this pixel format. Default is BGR24.
	pixelFormat PixelFormat

	resampler        *PictureResampler
	srcPictureFormat PictureFormat
	dstPictureFormat PictureFormat

	// Scratch picture used as resampling output.
	picture *Picture

	stats   DecoderStats
	statsMu sync.Mutex
}

// NewDecoder creates a decoder for the given codec using the default
// backend.
func NewDecoder(codec CodecID) (*Decoder, error) {
	backend, err := DefaultBackend()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoderCreate, err)
	}
	return NewDecoderWithBackend(codec, backend)
}

// NewDecoderWithBackend creates a decoder bound to an explicit backend.
func NewDecoderWithBackend(codec CodecID, backend Backend) (*Decoder, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrDecoderCreate)
	}
	if !codec.Valid() {
		return nil, fmt.Errorf("%w: unknown codec %d", ErrDecoderCreate, int(codec))
	}
	return &Decoder{
		Coder:       Coder{codec: codec, backend: backend},
		pixelFormat: PixelFormatBGR24,
	}, nil
}

// Open creates the native decode context and, for video codecs, computes
// the source and destination picture formats from the negotiated context.
func (d *Decoder) Open(options map[string]string) error {
	if err := d.open(options); err != nil {
		return err
	}

	if d.ctx.MediaType() == MediaTypeVideo {
		d.srcPictureFormat = PictureFormat{
			Width:       d.ctx.Width(),
			Height:      d.ctx.Height(),
			PixelFormat: d.ctx.PixelFormat(),
		}
		d.dstPictureFormat = PictureFormat{
			Width:       d.ctx.Width(),
			Height:      d.ctx.Height(),
			PixelFormat: d.pixelFormat,
		}
	}

	// Correct the malformed time bases some codecs report.
	if tb := d.ctx.TimeBase(); tb.Num > 1000 && tb.Den == 1 {
		d.ctx.SetTimeBase(Rational{Num: tb.Num, Den: 1000})
	}

	return nil
}

// Close releases the scratch picture and the resampler, then the native
// context. Idempotent.
func (d *Decoder) Close() {
	d.picture = nil

	if d.resampler != nil {
		d.resampler.Close()
		d.resampler = nil
	}

	d.close()
}

// Width returns the negotiated picture width, or 0 while closed.
func (d *Decoder) Width() int {
	if d.ctx == nil {
		return 0
	}
	return d.ctx.Width()
}

// Height returns the negotiated picture height, or 0 while closed.
func (d *Decoder) Height() int {
	if d.ctx == nil {
		return 0
	}
	return d.ctx.Height()
}

// Channels returns the negotiated channel count, or 0 while closed.
func (d *Decoder) Channels() int {
	if d.ctx == nil {
		return 0
	}
	return d.ctx.Channels()
}

// SampleRate returns the negotiated sample rate, or 0 while closed.
func (d *Decoder) SampleRate() int {
	if d.ctx == nil {
		return 0
	}
	return d.ctx.SampleRate()
}

// SampleFormat returns the negotiated sample format.
func (d *Decoder) SampleFormat() SampleFormat {
	if d.ctx == nil {
		return SampleFormatNone
	}
	return d.ctx.SampleFormat()
}

// PixelFormat returns the source pixel format of the native context, not
// the converted output format.
func (d *Decoder) PixelFormat() PixelFormat {
	if d.ctx == nil {
		return PixelFormatNone
	}
	return d.ctx.PixelFormat()
}

// SetPixelFormat sets the desired output pixel format for subsequent
// video decodes. Unknown formats are ignored. The format is read when
// the output picture format is fixed, at Open; calls made after that
// have no effect until the decoder is reopened.
func (d *Decoder) SetPixelFormat(format PixelFormat) {
	if !format.Valid() {
		return
	}
	d.pixelFormat = format
}

// Stats returns decoding statistics.
func (d *Decoder) Stats() DecoderStats {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	return d.stats
}

// DecodeAudio decodes a packet of compressed audio into an AudioFrame
// with normalized PCM samples. It returns nil when the packet produced no
// output; a single call yields at most one frame even when the native
// decoder needs several invocations to consume the packet.
func (d *Decoder) DecodeAudio(pkt *MediaPacket) (*AudioFrame, error) {
	if d.state != StateOpened {
		return nil, fmt.Errorf("could not decode audio: %w", ErrNotOpened)
	}
	if d.codec.MediaType() != MediaTypeAudio {
		return nil, fmt.Errorf("could not decode audio: %w: %s decoder", ErrMediaTypeMismatch, d.codec.MediaType())
	}
	if pkt == nil {
		return nil, fmt.Errorf("could not decode audio: %w", ErrNoPacket)
	}

	var frame *AudioFrame

	if len(pkt.Data) > 0 {
		d.packet.copyFrom(pkt)
	} else {
		d.packet.setData(nil)
	}

	for d.packet.size() > 0 {
		d.frame.Reset()

		consumed, got := d.backend.DecodeAudio(d.ctx, d.frame, d.packet.data, d.packet.pts)
		if consumed <= 0 {
			break
		}
		d.packet.advance(consumed)
		if !got {
			// No more output available from this packet.
			break
		}

		tb := d.ctx.TimeBase()
		pts := d.frame.BestEffortTimestamp()
		var timestamp int64
		if tb.Den > 0 {
			timestamp = 1000000 * pts * int64(tb.Num) / int64(tb.Den)
		}

		sampleFormat := d.frame.SampleFormat()
		planes := 1
		if sampleFormat.IsPlanar() {
			planes = d.frame.Channels()
		}
		bufferSize := SampleBufferSize(d.ctx.Channels(), d.frame.Samples(), d.ctx.SampleFormat(), 1) / planes

		format := AudioFormat{
			SampleFormat:  sampleFormat,
			ChannelLayout: d.frame.ChannelLayout(),
			Channels:      d.frame.Channels(),
			SampleRate:    d.frame.SampleRate(),
		}

		frame = NewAudioFrame(format, d.frame.Samples())
		frame.SetKeyFrame(d.frame.KeyFrame())
		frame.SetTimestamp(timestamp)

		for i := 0; i < planes; i++ {
			copy(frame.Plane(i), d.frame.Plane(i, bufferSize))
		}

		// One output frame per call.
		break
	}

	d.packet.free()

	if frame != nil {
		d.statsMu.Lock()
		d.stats.FramesDecoded++
		d.stats.BytesDecoded += uint64(len(pkt.Data))
		if frame.KeyFrame() {
			d.stats.KeyframesDecoded++
		}
		d.statsMu.Unlock()
	}

	return frame, nil
}

// DecodeVideo decodes a packet of compressed video into a VideoFrame in
// the desired output pixel format. It returns an empty frame when the
// decoder consumed data without producing output, and nil when a flush
// packet yielded nothing. A nil result covers both end-of-buffered-frames
// and a decode error during flush; callers should treat it as "try more
// input or stop".
func (d *Decoder) DecodeVideo(pkt *MediaPacket) (*VideoFrame, error) {
	frame, _, err := d.decodeVideo(pkt)
	return frame, err
}

func (d *Decoder) decodeVideo(pkt *MediaPacket) (*VideoFrame, videoResult, error) {
	if d.state != StateOpened {
		return nil, videoResultDrained, fmt.Errorf("could not decode video: %w", ErrNotOpened)
	}
	if d.codec.MediaType() != MediaTypeVideo {
		return nil, videoResultDrained, fmt.Errorf("could not decode video: %w: %s decoder", ErrMediaTypeMismatch, d.codec.MediaType())
	}
	if pkt == nil {
		return nil, videoResultDrained, fmt.Errorf("could not decode video: %w", ErrNoPacket)
	}

	frame := &VideoFrame{}
	result := videoResultBuffering

	if pkt.Timed() {
		// Reuse the source packet timing for better timestamp estimation.
		d.packet.copyFrom(pkt)
	} else if len(pkt.Data) > 0 {
		d.packet.setData(pkt.Data)
	}

	d.frame.Reset()

	status, got := d.backend.DecodeVideo(d.ctx, d.frame, d.packet.data, d.packet.pts)

	if status >= 0 && got {
		tb := d.ctx.TimeBase()
		pts := d.frame.BestEffortTimestamp()
		var timestamp int64
		if tb.Den > 0 {
			// Video PTS uses a doubled unit convention in this pipeline.
			timestamp = 1000000 * pts * int64(tb.Num) / int64(tb.Den) * 2
		}

		width := d.ctx.Width()
		height := d.ctx.Height()

		if err := d.validateResampler(width, height); err != nil {
			d.packet.free()
			return nil, videoResultDrained, err
		}

		var channels int
		var data []byte

		if d.srcPictureFormat != d.dstPictureFormat {
			if d.picture == nil {
				pic, err := AllocPicture(d.dstPictureFormat.PixelFormat, width, height)
				if err != nil {
					d.packet.free()
					return nil, videoResultDrained, err
				}
				d.picture = pic
			}

			if err := d.resampler.Resample(d.frame.Picture(), d.picture); err != nil {
				d.packet.free()
				return nil, videoResultDrained, fmt.Errorf("%w: %v", ErrResample, err)
			}

			channels = d.picture.Linesize[0] / width
			data = d.picture.Planes[0]
		} else {
			pic := d.frame.Picture()
			channels = pic.Linesize[0] / width
			data = pic.Planes[0]
		}

		// Bound the output to exactly the visible pixels.
		size := width * height * channels
		buf := make([]byte, size)
		copy(buf, data[:size])

		frame = NewVideoFrame(buf, width, height, d.dstPictureFormat.PixelFormat)
		frame.SetKeyFrame(d.frame.KeyFrame())
		frame.SetTimestamp(timestamp)
		result = videoResultFrame

		d.statsMu.Lock()
		d.stats.FramesDecoded++
		d.stats.BytesDecoded += uint64(len(pkt.Data))
		if frame.KeyFrame() {
			d.stats.KeyframesDecoded++
		}
		d.statsMu.Unlock()
	} else if d.packet.data == nil && d.packet.size() == 0 {
		// Decode error during flush or all buffered frames drained; the
		// two are not distinguished by the native primitive.
		frame = nil
		result = videoResultDrained
	}

	d.packet.free()

	return frame, result, nil
}

// validateResampler computes the source and destination picture formats
// from the current context on first use and creates the resampler when
// they differ. A pixel format set after this point has no effect until
// the decoder is reopened.
func (d *Decoder) validateResampler(width, height int) error {
	if d.resampler != nil {
		return nil
	}

	if !d.srcPictureFormat.Valid() {
		d.srcPictureFormat = PictureFormat{Width: width, Height: height, PixelFormat: d.ctx.PixelFormat()}
	}
	if !d.dstPictureFormat.Valid() {
		d.dstPictureFormat = PictureFormat{Width: width, Height: height, PixelFormat: d.pixelFormat}
	}

	if d.srcPictureFormat == d.dstPictureFormat {
		return nil
	}

	resampler := NewPictureResampler()
	if err := resampler.Open(d.srcPictureFormat, d.dstPictureFormat); err != nil {
		return err
	}
	d.resampler = resampler
	return nil
}

// Flush drains the frames still buffered inside a video decoder by
// submitting empty packets until no more output is produced.
func (d *Decoder) Flush() ([]*VideoFrame, error) {
	if d.state != StateOpened {
		return nil, fmt.Errorf("could not flush: %w", ErrNotOpened)
	}
	if d.codec.MediaType() != MediaTypeVideo {
		return nil, nil
	}

	var frames []*VideoFrame
	for {
		frame, result, err := d.decodeVideo(FlushPacket())
		if err != nil {
			return frames, err
		}
		if result != videoResultFrame {
			return frames, nil
		}
		frames = append(frames, frame)
	}
}
