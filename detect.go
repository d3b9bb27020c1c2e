package avdec

import (
	"bytes"
	"errors"
	"sync"
)

var ErrCodecDetect = errors.New("could not detect codec")

// DetectCodec inspects raw bitstream data and returns the codec it carries.
// Video formats are checked first, then audio. Returns CodecIDNone when the
// data matches no known signature.
func DetectCodec(data []byte) CodecID {
	if c := DetectVideoCodec(data); c != CodecIDNone {
		return c
	}
	return DetectAudioCodec(data)
}

// DetectVideoCodec detects the video codec from raw bitstream data.
// Supports detection of:
//   - H.264/AVC: Annex-B format (ITU-T H.264) and AVCC format (ISO/IEC 14496-15)
//   - H.265/HEVC: Annex-B format (ITU-T H.265)
//   - VP8: RFC 6386 - VP8 Data Format and Decoding Guide
//   - VP9: VP9 Bitstream & Decoding Process Specification
//   - AV1: AV1 Bitstream & Decoding Process Specification
//   - IVF: WebM Project container format
//
// Returns CodecIDNone if the codec cannot be determined.
func DetectVideoCodec(data []byte) CodecID {
	if len(data) < 4 {
		return CodecIDNone
	}

	// Annex-B start code (H.264/H.265). The H.265 header is two bytes and
	// carries a signature the one-byte H.264 header lacks, so it is
	// checked first.
	if isAnnexBStartCode(data) {
		b1, b2, ok := nalHeaderAfterStartCode(data)
		if ok {
			if isH265NALHeader(b1, b2) {
				return CodecIDH265
			}
			if isH264NALType(b1 & 0x1F) {
				return CodecIDH264
			}
		}
	}

	// AVCC format (H.264 in container)
	if isAVCCFormat(data) {
		return CodecIDH264
	}

	// IVF container carries its own fourCC; an unknown fourCC is final,
	// the raw-bitstream heuristics below must not see the header bytes.
	if bytes.HasPrefix(data, []byte("DKIF")) {
		return detectIVFCodec(data)
	}

	if isVP8Keyframe(data) {
		return CodecIDVP8
	}
	if isVP9Frame(data) {
		return CodecIDVP9
	}
	if isAV1OBU(data) {
		return CodecIDAV1
	}

	return CodecIDNone
}

// DetectAudioCodec detects the audio codec from raw bitstream data.
// Supports AAC (ADTS), Opus (Ogg-encapsulated), MP3, and FLAC.
// Returns CodecIDNone if the codec cannot be determined.
func DetectAudioCodec(data []byte) CodecID {
	if len(data) < 4 {
		return CodecIDNone
	}

	if isAACADTS(data) {
		return CodecIDAAC
	}

	// Ogg page; look for an OpusHead or Vorbis identification header inside.
	if bytes.HasPrefix(data, []byte("OggS")) {
		if bytes.Contains(data, []byte("OpusHead")) {
			return CodecIDOpus
		}
		if bytes.Contains(data, []byte("\x01vorbis")) {
			return CodecIDVorbis
		}
		return CodecIDNone
	}

	if bytes.HasPrefix(data, []byte("fLaC")) {
		return CodecIDFLAC
	}

	if isMP3Frame(data) {
		return CodecIDMP3
	}

	return CodecIDNone
}

// isAnnexBStartCode checks for a 3-byte or 4-byte Annex-B start code.
func isAnnexBStartCode(data []byte) bool {
	if len(data) >= 4 && data[0] == 0 && data[1] == 0 && data[2] == 0 && data[3] == 1 {
		return true
	}
	if len(data) >= 3 && data[0] == 0 && data[1] == 0 && data[2] == 1 {
		return true
	}
	return false
}

// nalHeaderAfterStartCode returns the first two bytes following the
// start code. The second byte is zero when the data ends early.
func nalHeaderAfterStartCode(data []byte) (byte, byte, bool) {
	var rest []byte
	if data[2] == 0 {
		rest = data[4:] // 4-byte start code
	} else {
		rest = data[3:] // 3-byte start code
	}
	switch len(rest) {
	case 0:
		return 0, 0, false
	case 1:
		return rest[0], 0, true
	default:
		return rest[0], rest[1], true
	}
}

// isH265NALHeader checks the two-byte H.265 NAL header: forbidden bit
// clear, a plausible NAL unit type, and nuh_layer_id 0 with
// nuh_temporal_id_plus1 1 — the values carried by parameter sets and by
// virtually all slice NALs in practice.
func isH265NALHeader(b1, b2 byte) bool {
	if b1&0x80 != 0 || b1&0x01 != 0 {
		return false
	}
	if b2 != 0x01 {
		return false
	}
	return isH265NALType((b1 >> 1) & 0x3F)
}

// isH264NALType reports whether the type is a valid H.264 NAL unit type
// commonly seen at the head of a stream.
func isH264NALType(nalType byte) bool {
	switch nalType {
	case 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12:
		return true
	case 19, 20, 21:
		return true
	default:
		return false
	}
}

// isH265NALType reports whether the type is an H.265 NAL unit type commonly
// seen at the head of a stream (slices, parameter sets, AUD, SEI).
func isH265NALType(nalType byte) bool {
	switch nalType {
	case 0, 1, 16, 17, 18, 19, 20, 21: // slice segments
		return true
	case 32, 33, 34: // VPS, SPS, PPS
		return true
	case 35, 39, 40: // AUD, prefix/suffix SEI
		return true
	default:
		return false
	}
}

// isAVCCFormat checks for length-prefixed H.264 (AVCC). The first 4 bytes
// are a big-endian NAL length; it must be plausible against the buffer and
// the byte after it must carry a valid H.264 NAL type.
func isAVCCFormat(data []byte) bool {
	if len(data) < 5 {
		return false
	}
	length := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	if length == 0 || length > uint32(len(data)-4) {
		return false
	}
	return isH264NALType(data[4] & 0x1F)
}

// detectIVFCodec reads the fourCC out of an IVF file header.
func detectIVFCodec(data []byte) CodecID {
	if len(data) < 12 || !bytes.HasPrefix(data, []byte("DKIF")) {
		return CodecIDNone
	}
	switch string(data[8:12]) {
	case "VP80":
		return CodecIDVP8
	case "VP90":
		return CodecIDVP9
	case "AV01":
		return CodecIDAV1
	default:
		return CodecIDNone
	}
}

// isVP8Keyframe checks for a VP8 keyframe: frame tag with keyframe bit
// clear, followed by the 0x9D 0x01 0x2A sync code.
func isVP8Keyframe(data []byte) bool {
	if len(data) < 6 {
		return false
	}
	if data[0]&0x01 != 0 {
		return false // interframe
	}
	return data[3] == 0x9D && data[4] == 0x01 && data[5] == 0x2A
}

// isVP9Frame checks for a profile-0 VP9 keyframe: frame marker 0b10,
// frame_type 0, followed by the 0x49 0x83 0x42 sync code. The marker
// alone matches far too many byte streams to be usable.
func isVP9Frame(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	if data[0]>>6 != 0x02 {
		return false
	}
	if data[0]&0x3C != 0 {
		return false // profile > 0, show_existing_frame, or interframe
	}
	return data[1] == 0x49 && data[2] == 0x83 && data[3] == 0x42
}

// isAV1OBU checks for an AV1 OBU header: forbidden bit clear, reserved
// bit clear, and an OBU type that can start a temporal unit.
func isAV1OBU(data []byte) bool {
	if len(data) < 1 {
		return false
	}
	if data[0]&0x80 != 0 || data[0]&0x01 != 0 {
		return false
	}
	obuType := (data[0] >> 3) & 0x0F
	switch obuType {
	case 1, 2, 3, 4, 5, 6, 7, 8, 15:
		return true
	default:
		return false
	}
}

// isAACADTS checks for the ADTS syncword (12 set bits) with layer 00.
func isAACADTS(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	if data[0] != 0xFF || data[1]&0xF0 != 0xF0 {
		return false
	}
	return data[1]&0x06 == 0
}

// isMP3Frame checks for an MPEG audio frame sync with layer III (0b01).
func isMP3Frame(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	if data[0] != 0xFF || data[1]&0xE0 != 0xE0 {
		return false
	}
	return data[1]&0x06 == 0x02
}

// AutoDecoder is a video decoder that detects the codec from the first
// packet it sees and opens the real decoder lazily. Useful for streams
// where the container or signaling does not name the codec.
type AutoDecoder struct {
	mu      sync.Mutex
	backend Backend
	pixFmt  PixelFormat
	codec   CodecID
	dec     *Decoder
}

// NewAutoDecoder creates a decoder that auto-detects the codec from the
// first packet.
func NewAutoDecoder() *AutoDecoder {
	return &AutoDecoder{}
}

// NewAutoDecoderWithBackend is like NewAutoDecoder but pins the backend
// used once the codec is known.
func NewAutoDecoderWithBackend(backend Backend) *AutoDecoder {
	return &AutoDecoder{backend: backend}
}

// SetPixelFormat sets the output pixel format for the detected decoder.
// Must be called before the first packet to take effect.
func (d *AutoDecoder) SetPixelFormat(format PixelFormat) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pixFmt = format
}

// DecodeVideo decodes a packet, detecting the codec and opening the
// underlying decoder on the first call.
func (d *AutoDecoder) DecodeVideo(pkt *MediaPacket) (*VideoFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dec == nil {
		if pkt == nil || len(pkt.Data) == 0 {
			return nil, ErrNoPacket
		}
		codec := DetectVideoCodec(pkt.Data)
		if codec == CodecIDNone {
			return nil, ErrCodecDetect
		}

		var (
			dec *Decoder
			err error
		)
		if d.backend != nil {
			dec, err = NewDecoderWithBackend(codec, d.backend)
		} else {
			dec, err = NewDecoder(codec)
		}
		if err != nil {
			return nil, err
		}
		if d.pixFmt.Valid() {
			dec.SetPixelFormat(d.pixFmt)
		}
		if err := dec.Open(nil); err != nil {
			dec.Close()
			return nil, err
		}
		d.codec = codec
		d.dec = dec
	}

	return d.dec.DecodeVideo(pkt)
}

// Codec returns the detected codec, or CodecIDNone if not yet detected.
func (d *AutoDecoder) Codec() CodecID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codec
}

// Flush drains buffered frames from the underlying decoder.
func (d *AutoDecoder) Flush() ([]*VideoFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dec == nil {
		return nil, nil
	}
	return d.dec.Flush()
}

// Close closes the underlying decoder if one was opened.
func (d *AutoDecoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dec != nil {
		d.dec.Close()
		d.dec = nil
	}
}
