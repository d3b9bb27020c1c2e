package avdec

// Format descriptors shared by the decode pipeline: pixel formats, sample
// formats, channel layouts and the composite picture/audio formats.

import (
	"fmt"
	"math/bits"
)

// PixelFormat represents video pixel formats.
type PixelFormat int

const (
	PixelFormatNone    PixelFormat = iota
	PixelFormatYUV420P             // Planar YUV 4:2:0 (Y + U + V)
	PixelFormatNV12                // Semi-planar YUV 4:2:0 (Y + interleaved UV)
	PixelFormatRGB24               // Packed RGB, 3 bytes per pixel
	PixelFormatBGR24               // Packed BGR, 3 bytes per pixel
	PixelFormatRGBA32              // Packed RGBA, 4 bytes per pixel
	PixelFormatBGRA32              // Packed BGRA, 4 bytes per pixel
	PixelFormatGray8               // Single 8-bit luma plane
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatYUV420P:
		return "yuv420p"
	case PixelFormatNV12:
		return "nv12"
	case PixelFormatRGB24:
		return "rgb24"
	case PixelFormatBGR24:
		return "bgr24"
	case PixelFormatRGBA32:
		return "rgba"
	case PixelFormatBGRA32:
		return "bgra"
	case PixelFormatGray8:
		return "gray8"
	default:
		return "none"
	}
}

// Valid reports whether the format names a known pixel layout.
func (p PixelFormat) Valid() bool {
	return p > PixelFormatNone && p <= PixelFormatGray8
}

// PlaneCount returns the number of planes for this pixel format.
func (p PixelFormat) PlaneCount() int {
	switch p {
	case PixelFormatYUV420P:
		return 3
	case PixelFormatNV12:
		return 2
	case PixelFormatRGB24, PixelFormatBGR24, PixelFormatRGBA32, PixelFormatBGRA32, PixelFormatGray8:
		return 1
	default:
		return 0
	}
}

// BytesPerPixel returns the packed size of one pixel in the first plane.
// Planar chroma subsampling is not accounted for.
func (p PixelFormat) BytesPerPixel() int {
	switch p {
	case PixelFormatRGB24, PixelFormatBGR24:
		return 3
	case PixelFormatRGBA32, PixelFormatBGRA32:
		return 4
	case PixelFormatYUV420P, PixelFormatNV12, PixelFormatGray8:
		return 1
	default:
		return 0
	}
}

// SampleFormat represents audio sample formats. The planar variants store
// one channel per plane; the packed variants interleave all channels.
type SampleFormat int

const (
	SampleFormatNone SampleFormat = iota
	SampleFormatU8                // Unsigned 8-bit, interleaved
	SampleFormatS16               // Signed 16-bit, interleaved
	SampleFormatS32               // Signed 32-bit, interleaved
	SampleFormatFLT               // 32-bit float, interleaved
	SampleFormatDBL               // 64-bit float, interleaved
	SampleFormatU8P               // Unsigned 8-bit, planar
	SampleFormatS16P              // Signed 16-bit, planar
	SampleFormatS32P              // Signed 32-bit, planar
	SampleFormatFLTP              // 32-bit float, planar
	SampleFormatDBLP              // 64-bit float, planar
)

func (f SampleFormat) String() string {
	switch f {
	case SampleFormatU8:
		return "u8"
	case SampleFormatS16:
		return "s16"
	case SampleFormatS32:
		return "s32"
	case SampleFormatFLT:
		return "flt"
	case SampleFormatDBL:
		return "dbl"
	case SampleFormatU8P:
		return "u8p"
	case SampleFormatS16P:
		return "s16p"
	case SampleFormatS32P:
		return "s32p"
	case SampleFormatFLTP:
		return "fltp"
	case SampleFormatDBLP:
		return "dblp"
	default:
		return "none"
	}
}

// Valid reports whether the format names a known sample layout.
func (f SampleFormat) Valid() bool {
	return f > SampleFormatNone && f <= SampleFormatDBLP
}

// IsPlanar reports whether samples are stored one channel per plane.
func (f SampleFormat) IsPlanar() bool {
	switch f {
	case SampleFormatU8P, SampleFormatS16P, SampleFormatS32P, SampleFormatFLTP, SampleFormatDBLP:
		return true
	default:
		return false
	}
}

// BytesPerSample returns the storage size of one sample of one channel.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case SampleFormatU8, SampleFormatU8P:
		return 1
	case SampleFormatS16, SampleFormatS16P:
		return 2
	case SampleFormatS32, SampleFormatS32P, SampleFormatFLT, SampleFormatFLTP:
		return 4
	case SampleFormatDBL, SampleFormatDBLP:
		return 8
	default:
		return 0
	}
}

// ChannelLayout is a bitmask of speaker positions.
type ChannelLayout uint64

const (
	ChannelFrontLeft   ChannelLayout = 1 << iota // FL
	ChannelFrontRight                            // FR
	ChannelFrontCenter                           // FC
	ChannelLowFreq                               // LFE
	ChannelBackLeft                              // BL
	ChannelBackRight                             // BR
	ChannelSideLeft                              // SL
	ChannelSideRight                             // SR
)

const (
	ChannelLayoutNone     ChannelLayout = 0
	ChannelLayoutMono                   = ChannelFrontCenter
	ChannelLayoutStereo                 = ChannelFrontLeft | ChannelFrontRight
	ChannelLayout2Point1                = ChannelLayoutStereo | ChannelLowFreq
	ChannelLayoutSurround               = ChannelLayoutStereo | ChannelFrontCenter
	ChannelLayoutQuad                   = ChannelLayoutStereo | ChannelBackLeft | ChannelBackRight
	ChannelLayout5Point1                = ChannelLayoutSurround | ChannelLowFreq | ChannelBackLeft | ChannelBackRight
	ChannelLayout7Point1                = ChannelLayout5Point1 | ChannelSideLeft | ChannelSideRight
)

// Channels returns the number of channels in the layout.
func (l ChannelLayout) Channels() int {
	return bits.OnesCount64(uint64(l))
}

func (l ChannelLayout) String() string {
	switch l {
	case ChannelLayoutMono:
		return "mono"
	case ChannelLayoutStereo:
		return "stereo"
	case ChannelLayout2Point1:
		return "2.1"
	case ChannelLayoutSurround:
		return "3.0"
	case ChannelLayoutQuad:
		return "quad"
	case ChannelLayout5Point1:
		return "5.1"
	case ChannelLayout7Point1:
		return "7.1"
	default:
		return fmt.Sprintf("%dch", l.Channels())
	}
}

// DefaultChannelLayout returns the conventional layout for a channel count.
func DefaultChannelLayout(channels int) ChannelLayout {
	switch channels {
	case 1:
		return ChannelLayoutMono
	case 2:
		return ChannelLayoutStereo
	case 3:
		return ChannelLayoutSurround
	case 4:
		return ChannelLayoutQuad
	case 6:
		return ChannelLayout5Point1
	case 8:
		return ChannelLayout7Point1
	default:
		return ChannelLayoutNone
	}
}

// Rational is a time base expressed as Num/Den seconds per tick.
type Rational struct {
	Num int
	Den int
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// PictureFormat describes the layout of one video buffer. Two formats are
// equal iff width, height and pixel format all match; equality gates
// whether resampling is needed.
type PictureFormat struct {
	Width       int
	Height      int
	PixelFormat PixelFormat
}

// Valid reports whether the format describes a usable picture.
func (f PictureFormat) Valid() bool {
	return f.Width > 0 && f.Height > 0 && f.PixelFormat.Valid()
}

func (f PictureFormat) String() string {
	return fmt.Sprintf("%dx%d %s", f.Width, f.Height, f.PixelFormat)
}

// AudioFormat describes the shape of one decoded audio unit.
type AudioFormat struct {
	SampleFormat  SampleFormat
	ChannelLayout ChannelLayout
	Channels      int
	SampleRate    int
}

// Valid reports whether the format describes usable audio.
func (f AudioFormat) Valid() bool {
	return f.SampleFormat.Valid() && f.Channels > 0 && f.SampleRate > 0
}

func (f AudioFormat) String() string {
	return fmt.Sprintf("%s %s %dHz", f.SampleFormat, f.ChannelLayout, f.SampleRate)
}

// SampleBufferSize returns the total byte size of a decoded audio unit with
// the given shape. Only 1-byte alignment is supported; any other align is
// treated as 1.
func SampleBufferSize(channels, samples int, format SampleFormat, align int) int {
	_ = align
	if channels <= 0 || samples <= 0 || !format.Valid() {
		return 0
	}
	return channels * samples * format.BytesPerSample()
}
