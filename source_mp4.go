package avdec

import (
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// MP4Source reads encoded samples from an MP4 file and yields them as
// media packets. Progressive and fragmented layouts are both supported.
// Packet timestamps are expressed in track timescale ticks; use TimeBase
// to interpret them.
type MP4Source struct {
	rs     io.ReadSeeker
	closer io.Closer

	codec     CodecID
	media     MediaType
	timescale uint32

	// Parameter sets in Annex B form, prepended to keyframe packets.
	paramSets []byte

	// Progressive files read sample data lazily through stbl; fragmented
	// files carry sample data inline in the index.
	stbl    *mp4.StblBox
	samples []mp4Sample
	next    int
}

type mp4Sample struct {
	data []byte // fragmented only
	nr   uint32 // progressive only, 1-based
	pts  int64
	dts  int64
	key  bool
}

// OpenMP4Source opens an MP4 file and selects the first track of the given
// media type.
func OpenMP4Source(path string, media MediaType) (*MP4Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mp4: %w", err)
	}
	src, err := NewMP4Source(f, media)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

// NewMP4Source parses an MP4 stream and selects the first track of the given
// media type. The reader must remain valid for the lifetime of the source.
func NewMP4Source(rs io.ReadSeeker, media MediaType) (*MP4Source, error) {
	mp4File, err := mp4.DecodeFile(rs)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	src := &MP4Source{rs: rs, media: media, timescale: 1000}

	if mp4File.IsFragmented() {
		err = src.indexFragmented(mp4File)
	} else {
		err = src.indexProgressive(mp4File)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Codec returns the codec of the selected track.
func (s *MP4Source) Codec() CodecID { return s.codec }

// Timescale returns the track timescale in ticks per second.
func (s *MP4Source) Timescale() uint32 { return s.timescale }

// TimeBase returns the duration of one packet timestamp tick.
func (s *MP4Source) TimeBase() Rational {
	return Rational{Num: 1, Den: int(s.timescale)}
}

// ReadPacket returns the next sample as a media packet, or io.EOF after the
// last sample.
func (s *MP4Source) ReadPacket() (*MediaPacket, error) {
	if s.next >= len(s.samples) {
		return nil, io.EOF
	}
	sample := s.samples[s.next]
	s.next++

	data := sample.data
	if data == nil {
		var err error
		data, err = s.readSampleData(sample.nr)
		if err != nil {
			return nil, fmt.Errorf("read sample %d: %w", sample.nr, err)
		}
	}

	if s.codec == CodecIDH264 || s.codec == CodecIDH265 {
		data = lengthPrefixedToAnnexB(data)
	}
	if sample.key && len(s.paramSets) > 0 {
		joined := make([]byte, len(s.paramSets)+len(data))
		copy(joined, s.paramSets)
		copy(joined[len(s.paramSets):], data)
		data = joined
	}

	pkt := NewMediaPacket(data)
	pkt.PTS = sample.pts
	pkt.DTS = sample.dts
	pkt.KeyFrame = sample.key
	return pkt, nil
}

// Close releases the underlying file when the source was opened from a path.
func (s *MP4Source) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *MP4Source) indexProgressive(mp4File *mp4.File) error {
	if mp4File.Moov == nil {
		return fmt.Errorf("no moov box found")
	}

	trak := findTrack(mp4File.Moov, s.media)
	if trak == nil {
		return fmt.Errorf("no %s track found", s.media)
	}
	if trak.Mdia != nil && trak.Mdia.Mdhd != nil {
		s.timescale = trak.Mdia.Mdhd.Timescale
	}
	if err := s.readSampleEntry(trak); err != nil {
		return err
	}

	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return fmt.Errorf("no sample table found")
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil {
		return fmt.Errorf("no stsz box found")
	}
	s.stbl = stbl

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	count := stbl.Stsz.SampleNumber
	s.samples = make([]mp4Sample, 0, count)
	for nr := uint32(1); nr <= count; nr++ {
		var decodeTime uint64
		if stbl.Stts != nil {
			decodeTime, _ = stbl.Stts.GetDecodeTime(nr)
		}
		pts := int64(decodeTime)
		if stbl.Ctts != nil {
			pts += int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}

		s.samples = append(s.samples, mp4Sample{
			nr:  nr,
			pts: pts,
			dts: int64(decodeTime),
			key: syncSamples[nr] || len(syncSamples) == 0,
		})
	}
	return nil
}

func (s *MP4Source) indexFragmented(mp4File *mp4.File) error {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return fmt.Errorf("no init segment found")
	}
	moov := mp4File.Init.Moov

	trak := findTrack(moov, s.media)
	if trak == nil {
		return fmt.Errorf("no %s track found", s.media)
	}
	trackID := trak.Tkhd.TrackID
	if trak.Mdia != nil && trak.Mdia.Mdhd != nil {
		s.timescale = trak.Mdia.Mdhd.Timescale
	}
	if err := s.readSampleEntry(trak); err != nil {
		return err
	}

	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != trackID {
					continue
				}

				var baseDecodeTime uint64
				if traf.Tfdt != nil {
					baseDecodeTime = traf.Tfdt.BaseMediaDecodeTime()
				}

				fullSamples, err := frag.GetFullSamples(trex)
				if err != nil {
					return fmt.Errorf("get samples: %w", err)
				}

				decodeTime := baseDecodeTime
				for _, fs := range fullSamples {
					key := fs.Flags == mp4.SyncSampleFlags
					if s.media == MediaTypeAudio {
						key = true
					}
					s.samples = append(s.samples, mp4Sample{
						data: fs.Data,
						pts:  int64(decodeTime) + int64(fs.CompositionTimeOffset),
						dts:  int64(decodeTime),
						key:  key,
					})
					decodeTime += uint64(fs.Dur)
				}
			}
		}
	}
	return nil
}

// readSampleEntry resolves the track codec and collects parameter sets for
// codecs that store them out of band.
func (s *MP4Source) readSampleEntry(trak *mp4.TrakBox) error {
	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil ||
		trak.Mdia.Minf.Stbl.Stsd == nil {
		return fmt.Errorf("no sample description found")
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch entry := child.(type) {
		case *mp4.VisualSampleEntryBox:
			s.codec = codecFromSampleEntry(entry.Type())
			if entry.AvcC != nil {
				for _, sps := range entry.AvcC.SPSnalus {
					s.paramSets = append(s.paramSets, 0, 0, 0, 1)
					s.paramSets = append(s.paramSets, sps...)
				}
				for _, pps := range entry.AvcC.PPSnalus {
					s.paramSets = append(s.paramSets, 0, 0, 0, 1)
					s.paramSets = append(s.paramSets, pps...)
				}
			}
			return nil
		case *mp4.AudioSampleEntryBox:
			s.codec = codecFromSampleEntry(entry.Type())
			return nil
		}
	}
	return fmt.Errorf("unsupported sample entry")
}

// readSampleData reads one sample from a progressive file by walking the
// chunk tables.
func (s *MP4Source) readSampleData(sampleNr uint32) ([]byte, error) {
	stbl := s.stbl
	if stbl.Stsc == nil {
		return nil, fmt.Errorf("missing stsc box")
	}

	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
	if err != nil {
		return nil, fmt.Errorf("get chunk nr: %w", err)
	}

	var chunkOffset uint64
	switch {
	case stbl.Stco != nil:
		chunkOffset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, fmt.Errorf("get chunk offset: %w", err)
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk nr out of range")
		}
		chunkOffset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no stco or co64 box")
	}

	offset := chunkOffset
	for nr := uint32(firstSampleInChunk); nr < sampleNr; nr++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(nr)))
	}
	size := stbl.Stsz.GetSampleSize(int(sampleNr))

	if _, err := s.rs.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(s.rs, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return data, nil
}

func findTrack(moov *mp4.MoovBox, media MediaType) *mp4.TrakBox {
	handler := "vide"
	if media == MediaTypeAudio {
		handler = "soun"
	}
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == handler {
			return trak
		}
	}
	return nil
}

func codecFromSampleEntry(boxType string) CodecID {
	switch boxType {
	case "avc1", "avc3":
		return CodecIDH264
	case "hvc1", "hev1":
		return CodecIDH265
	case "vp08":
		return CodecIDVP8
	case "vp09":
		return CodecIDVP9
	case "av01":
		return CodecIDAV1
	case "mp4a":
		return CodecIDAAC
	case "Opus":
		return CodecIDOpus
	case "fLaC":
		return CodecIDFLAC
	default:
		return CodecIDNone
	}
}

// lengthPrefixedToAnnexB rewrites length-prefixed NAL units with Annex B
// start codes.
func lengthPrefixedToAnnexB(data []byte) []byte {
	var out []byte
	offset := 0
	for offset+4 <= len(data) {
		naluLen := int(data[offset])<<24 | int(data[offset+1])<<16 |
			int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4
		if naluLen < 0 || offset+naluLen > len(data) {
			break
		}
		out = append(out, 0, 0, 0, 1)
		out = append(out, data[offset:offset+naluLen]...)
		offset += naluLen
	}
	return out
}
