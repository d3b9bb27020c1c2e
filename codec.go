package avdec

// MediaType classifies the payload a codec produces.
type MediaType int

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeAudio
	MediaTypeVideo
	MediaTypeData
	MediaTypeSubtitle
)

func (t MediaType) String() string {
	switch t {
	case MediaTypeAudio:
		return "audio"
	case MediaTypeVideo:
		return "video"
	case MediaTypeData:
		return "data"
	case MediaTypeSubtitle:
		return "subtitle"
	default:
		return "unknown"
	}
}

// CodecID identifies the codec a Decoder is bound to.
type CodecID int

const (
	CodecIDNone CodecID = iota

	// Video codecs
	CodecIDH264
	CodecIDH265
	CodecIDVP8
	CodecIDVP9
	CodecIDAV1
	CodecIDMPEG4
	CodecIDMJPEG

	// Audio codecs
	CodecIDAAC
	CodecIDOpus
	CodecIDMP3
	CodecIDVorbis
	CodecIDFLAC
	CodecIDPCMS16LE
	CodecIDPCMALaw
	CodecIDPCMMuLaw
)

func (c CodecID) String() string {
	switch c {
	case CodecIDH264:
		return "h264"
	case CodecIDH265:
		return "h265"
	case CodecIDVP8:
		return "vp8"
	case CodecIDVP9:
		return "vp9"
	case CodecIDAV1:
		return "av1"
	case CodecIDMPEG4:
		return "mpeg4"
	case CodecIDMJPEG:
		return "mjpeg"
	case CodecIDAAC:
		return "aac"
	case CodecIDOpus:
		return "opus"
	case CodecIDMP3:
		return "mp3"
	case CodecIDVorbis:
		return "vorbis"
	case CodecIDFLAC:
		return "flac"
	case CodecIDPCMS16LE:
		return "pcm_s16le"
	case CodecIDPCMALaw:
		return "pcm_alaw"
	case CodecIDPCMMuLaw:
		return "pcm_mulaw"
	default:
		return "none"
	}
}

// MediaType returns the media type this codec produces.
func (c CodecID) MediaType() MediaType {
	switch c {
	case CodecIDH264, CodecIDH265, CodecIDVP8, CodecIDVP9, CodecIDAV1, CodecIDMPEG4, CodecIDMJPEG:
		return MediaTypeVideo
	case CodecIDAAC, CodecIDOpus, CodecIDMP3, CodecIDVorbis, CodecIDFLAC,
		CodecIDPCMS16LE, CodecIDPCMALaw, CodecIDPCMMuLaw:
		return MediaTypeAudio
	default:
		return MediaTypeUnknown
	}
}

// Valid reports whether the codec id names a known codec.
func (c CodecID) Valid() bool {
	return c.MediaType() != MediaTypeUnknown
}
