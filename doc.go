// Package avdec decodes compressed audio/video packets into normalized,
// format-converted frames ready for playback or further processing.
//
// The package sits between a packet source (demuxer, RTP depacketizer,
// RTMP ingest) and a consumer that expects uniform pixel and sample
// formats regardless of the source codec.
//
// # Architecture
//
//	PacketSource -> MediaPacket -> Decoder -> AudioFrame / VideoFrame
//
// A Decoder drives a native codec backend in a loop until the packet is
// exhausted (audio) or once per packet (video), derives microsecond
// timestamps from the negotiated time base, and converts decoded pictures
// into the desired output pixel format with a lazily created
// PictureResampler.
//
// # Native Backends
//
// The default backend binds libavwrap via purego (CGO_ENABLED=0). Set
// AVWRAP_LIB_PATH to the wrapper library location. Backends register
// themselves at init time; DefaultBackend returns the first one available.
//
// # Packet Sources
//
// Built-in PacketSource implementations cover progressive MP4 files
// (MP4Source), RTP streams (RTPSource), and WebRTC remote tracks
// (TrackSource). An empty packet is the flush signal that drains frames
// buffered inside the native decoder.
package avdec
