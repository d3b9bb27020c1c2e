package avdec

import "math"

// NoPTS marks an absent presentation or decoding timestamp.
const NoPTS int64 = math.MinInt64

// MediaPacket carries one unit of compressed media data from a packet
// source to the decoder. A packet with no data is the flush signal that
// drains frames buffered inside the native decoder.
type MediaPacket struct {
	Data        []byte
	PTS         int64 // presentation timestamp in time-base units, NoPTS if unknown
	DTS         int64 // decoding timestamp in time-base units, NoPTS if unknown
	KeyFrame    bool
	StreamIndex int
}

// NewMediaPacket wraps a raw byte payload with no timing information.
func NewMediaPacket(data []byte) *MediaPacket {
	return &MediaPacket{Data: data, PTS: NoPTS, DTS: NoPTS}
}

// FlushPacket returns the empty packet used to drain buffered frames.
func FlushPacket() *MediaPacket {
	return &MediaPacket{PTS: NoPTS, DTS: NoPTS}
}

// Timed reports whether the packet carries demuxer timestamps. Timed
// packets are copied into the working packet wholesale so the native
// decoder sees continuous timing.
func (p *MediaPacket) Timed() bool {
	return p.PTS != NoPTS || p.DTS != NoPTS
}

// PacketSource supplies compressed packets in stream order.
type PacketSource interface {
	// ReadPacket returns the next packet, or io.EOF when the stream ends.
	ReadPacket() (*MediaPacket, error)
}

// workPacket is the decoder-owned working packet. It tracks the byte
// window still to be consumed by the native decode primitive along with
// the timing carried over from the source packet.
type workPacket struct {
	data []byte
	pts  int64
	dts  int64
}

func newWorkPacket() *workPacket {
	return &workPacket{pts: NoPTS, dts: NoPTS}
}

// setData binds a byte range as the working payload.
func (p *workPacket) setData(data []byte) {
	p.data = data
}

// copyFrom takes over a source packet's payload and timing.
func (p *workPacket) copyFrom(src *MediaPacket) {
	p.data = src.Data
	p.pts = src.PTS
	p.dts = src.DTS
}

func (p *workPacket) size() int { return len(p.data) }

// advance drops n consumed bytes from the front of the window.
func (p *workPacket) advance(n int) {
	if n >= len(p.data) {
		p.data = p.data[:0]
		return
	}
	p.data = p.data[n:]
}

// free releases the payload reference and resets timing. The packet is
// reusable afterwards.
func (p *workPacket) free() {
	p.data = nil
	p.pts = NoPTS
	p.dts = NoPTS
}
