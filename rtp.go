package avdec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pion/rtp"
)

// H264 NAL unit types
const (
	nalTypeIDR   = 5
	nalTypeSTAPA = 24
	nalTypeFUA   = 28
)

// RTPPacketReader reads RTP packets from a transport. ReadRTP returns io.EOF
// when the stream ends.
type RTPPacketReader interface {
	ReadRTP() (*rtp.Packet, error)
}

// RTPSource assembles RTP payloads into access units and yields them as
// media packets. Payloads sharing an RTP timestamp belong to one access
// unit; the unit is emitted when the marker bit is set or when the
// timestamp changes. Packet PTS is expressed in RTP clock ticks; use
// TimeBase to interpret it.
type RTPSource struct {
	reader    RTPPacketReader
	codec     CodecID
	clockRate uint32

	depack    rtpDepacketizer
	timestamp uint32
	started   bool
	pending   *rtp.Packet
	done      bool
}

// NewRTPSource creates a packet source over an RTP packet reader. The clock
// rate is the codec's RTP clock in ticks per second (90000 for video
// codecs, the sample rate for audio).
func NewRTPSource(reader RTPPacketReader, codec CodecID, clockRate uint32) *RTPSource {
	return &RTPSource{
		reader:    reader,
		codec:     codec,
		clockRate: clockRate,
		depack:    newRTPDepacketizer(codec),
	}
}

// Codec returns the codec carried by the stream.
func (s *RTPSource) Codec() CodecID { return s.codec }

// ClockRate returns the RTP clock rate in ticks per second.
func (s *RTPSource) ClockRate() uint32 { return s.clockRate }

// TimeBase returns the duration of one packet timestamp tick.
func (s *RTPSource) TimeBase() Rational {
	return Rational{Num: 1, Den: int(s.clockRate)}
}

// ReadPacket returns the next complete access unit, or io.EOF after the
// stream ends. A trailing access unit without a marker bit is flushed at
// end of stream.
func (s *RTPSource) ReadPacket() (*MediaPacket, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		pkt := s.pending
		s.pending = nil
		if pkt == nil {
			var err error
			pkt, err = s.reader.ReadRTP()
			if err == io.EOF {
				s.done = true
				if !s.depack.empty() {
					return s.emit(), nil
				}
				return nil, io.EOF
			}
			if err != nil {
				return nil, fmt.Errorf("read rtp: %w", err)
			}
		}

		if s.started && pkt.Header.Timestamp != s.timestamp && !s.depack.empty() {
			s.pending = pkt
			return s.emit(), nil
		}
		s.timestamp = pkt.Header.Timestamp
		s.started = true

		if err := s.depack.push(pkt.Payload); err != nil {
			return nil, err
		}
		if pkt.Header.Marker && !s.depack.empty() {
			return s.emit(), nil
		}
	}
}

func (s *RTPSource) emit() *MediaPacket {
	data, key := s.depack.take()
	out := NewMediaPacket(data)
	out.PTS = int64(s.timestamp)
	out.KeyFrame = key
	return out
}

// rtpDepacketizer reassembles one access unit from RTP payloads.
type rtpDepacketizer interface {
	push(payload []byte) error
	// take returns the assembled access unit and keyframe flag, resetting
	// the assembler.
	take() ([]byte, bool)
	empty() bool
}

func newRTPDepacketizer(codec CodecID) rtpDepacketizer {
	switch codec {
	case CodecIDH264:
		return &h264Depacketizer{}
	default:
		return &rawDepacketizer{key: codec.MediaType() == MediaTypeAudio}
	}
}

// rawDepacketizer concatenates payloads as-is. Audio access units are always
// marked as keyframes.
type rawDepacketizer struct {
	data []byte
	key  bool
}

func (d *rawDepacketizer) push(payload []byte) error {
	d.data = append(d.data, payload...)
	return nil
}

func (d *rawDepacketizer) take() ([]byte, bool) {
	data := make([]byte, len(d.data))
	copy(data, d.data)
	d.data = d.data[:0]
	return data, d.key
}

func (d *rawDepacketizer) empty() bool { return len(d.data) == 0 }

// h264Depacketizer rebuilds Annex B access units from H.264 RTP payloads,
// handling single NAL, STAP-A and FU-A packetization (RFC 6184).
type h264Depacketizer struct {
	frameData   []byte
	fuaBuffer   []byte
	fragmenting bool
	keyFrame    bool
}

func (d *h264Depacketizer) push(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}

	nalType := payload[0] & 0x1F
	switch {
	case nalType >= 1 && nalType <= 23:
		d.appendNALUnit(payload)
	case nalType == nalTypeSTAPA:
		return d.pushSTAPA(payload)
	case nalType == nalTypeFUA:
		return d.pushFUA(payload)
	default:
		return fmt.Errorf("unsupported NAL type: %d", nalType)
	}
	return nil
}

func (d *h264Depacketizer) pushSTAPA(payload []byte) error {
	// Skip STAP-A header
	offset := 1
	for offset+2 <= len(payload) {
		naluSize := int(binary.BigEndian.Uint16(payload[offset:]))
		offset += 2
		if offset+naluSize > len(payload) {
			break
		}
		if naluSize > 0 {
			d.appendNALUnit(payload[offset : offset+naluSize])
		}
		offset += naluSize
	}
	return nil
}

func (d *h264Depacketizer) pushFUA(payload []byte) error {
	if len(payload) < 2 {
		return fmt.Errorf("FU-A packet too short")
	}

	fuIndicator := payload[0]
	fuHeader := payload[1]
	isStart := (fuHeader & 0x80) != 0
	isEnd := (fuHeader & 0x40) != 0
	nalType := fuHeader & 0x1F

	if isStart {
		if nalType == nalTypeIDR {
			d.keyFrame = true
		}
		// Reconstruct the NAL header and start a fresh fragment buffer.
		nalHeader := (fuIndicator & 0xE0) | nalType
		d.fuaBuffer = d.fuaBuffer[:0]
		d.fuaBuffer = append(d.fuaBuffer, nalHeader)
		d.fragmenting = true
	}
	if !d.fragmenting {
		return nil
	}

	d.fuaBuffer = append(d.fuaBuffer, payload[2:]...)

	if isEnd {
		d.frameData = append(d.frameData, 0, 0, 0, 1)
		d.frameData = append(d.frameData, d.fuaBuffer...)
		d.fuaBuffer = d.fuaBuffer[:0]
		d.fragmenting = false
	}
	return nil
}

func (d *h264Depacketizer) appendNALUnit(nalu []byte) {
	if nalu[0]&0x1F == nalTypeIDR {
		d.keyFrame = true
	}
	d.frameData = append(d.frameData, 0, 0, 0, 1)
	d.frameData = append(d.frameData, nalu...)
}

func (d *h264Depacketizer) take() ([]byte, bool) {
	data := make([]byte, len(d.frameData))
	copy(data, d.frameData)
	key := d.keyFrame
	d.frameData = d.frameData[:0]
	d.fuaBuffer = d.fuaBuffer[:0]
	d.fragmenting = false
	d.keyFrame = false
	return data, key
}

func (d *h264Depacketizer) empty() bool {
	return len(d.frameData) == 0 && len(d.fuaBuffer) == 0
}
