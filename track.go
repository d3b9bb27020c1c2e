package avdec

import (
	"errors"
	"io"
	"strings"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// TrackSource adapts a remote WebRTC track to a packet source. The codec
// and clock rate are taken from the negotiated track parameters.
type TrackSource struct {
	track *webrtc.TrackRemote
	rtp   *RTPSource
}

// NewTrackSource wraps a remote track received from a peer connection's
// OnTrack callback.
func NewTrackSource(track *webrtc.TrackRemote) (*TrackSource, error) {
	codec := CodecFromMimeType(track.Codec().MimeType)
	if !codec.Valid() {
		return nil, errors.New("unsupported track codec: " + track.Codec().MimeType)
	}
	src := &TrackSource{track: track}
	src.rtp = NewRTPSource(trackRTPReader{track}, codec, track.Codec().ClockRate)
	return src, nil
}

// Codec returns the codec negotiated for the track.
func (s *TrackSource) Codec() CodecID { return s.rtp.Codec() }

// TimeBase returns the duration of one packet timestamp tick.
func (s *TrackSource) TimeBase() Rational { return s.rtp.TimeBase() }

// ReadPacket returns the next complete access unit from the track, or
// io.EOF once the track closes.
func (s *TrackSource) ReadPacket() (*MediaPacket, error) {
	return s.rtp.ReadPacket()
}

// trackRTPReader narrows TrackRemote.ReadRTP to the RTPPacketReader shape,
// mapping track shutdown to io.EOF.
type trackRTPReader struct {
	track *webrtc.TrackRemote
}

func (r trackRTPReader) ReadRTP() (*rtp.Packet, error) {
	pkt, _, err := r.track.ReadRTP()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
			return nil, io.EOF
		}
		return nil, err
	}
	return pkt, nil
}

// CodecFromMimeType maps an RTP mime type to a codec identifier.
func CodecFromMimeType(mime string) CodecID {
	switch strings.ToLower(mime) {
	case "video/h264":
		return CodecIDH264
	case "video/h265", "video/hevc":
		return CodecIDH265
	case "video/vp8":
		return CodecIDVP8
	case "video/vp9":
		return CodecIDVP9
	case "video/av1":
		return CodecIDAV1
	case "audio/opus":
		return CodecIDOpus
	case "audio/pcmu":
		return CodecIDPCMMuLaw
	case "audio/pcma":
		return CodecIDPCMALaw
	default:
		return CodecIDNone
	}
}
