//go:build darwin || linux

// Native codec backend bound to libavwrap via purego. libavwrap is a flat
// C wrapper over the system codec libraries exposing decode contexts,
// scratch frames and the audio/video decode primitives by handle.

package avdec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	avwrapOnce    sync.Once
	avwrapHandle  uintptr
	avwrapInitErr error
	avwrapLoaded  bool
)

// libavwrap function pointers
var (
	avwrapDecoderCreate    func(codecID int32) uint64
	avwrapDecoderSetOption func(decoder uint64, key, value string) int32
	avwrapDecoderOpen      func(decoder uint64) int32
	avwrapDecoderDestroy   func(decoder uint64)
	avwrapDecoderAvailable func(codecID int32) int32

	avwrapContextMediaType     func(decoder uint64) int32
	avwrapContextWidth         func(decoder uint64) int32
	avwrapContextHeight        func(decoder uint64) int32
	avwrapContextPixFmt        func(decoder uint64) int32
	avwrapContextChannels      func(decoder uint64) int32
	avwrapContextChannelLayout func(decoder uint64) uint64
	avwrapContextSampleRate    func(decoder uint64) int32
	avwrapContextSampleFmt     func(decoder uint64) int32
	avwrapContextTimeBase      func(decoder uint64, num, den uintptr)
	avwrapContextSetTimeBase   func(decoder uint64, num, den int32)

	avwrapFrameAlloc        func() uint64
	avwrapFrameFree         func(frame uint64)
	avwrapFrameReset        func(frame uint64)
	avwrapFrameKeyFrame     func(frame uint64) int32
	avwrapFrameBestEffortTS func(frame uint64) int64
	avwrapFrameSampleFmt    func(frame uint64) int32
	avwrapFrameChannels     func(frame uint64) int32
	avwrapFrameChanLayout   func(frame uint64) uint64
	avwrapFrameSampleRate   func(frame uint64) int32
	avwrapFrameNbSamples    func(frame uint64) int32
	avwrapFrameWidth        func(frame uint64) int32
	avwrapFrameHeight       func(frame uint64) int32
	avwrapFramePixFmt       func(frame uint64) int32
	avwrapFrameData         func(frame uint64, plane int32) uintptr
	avwrapFrameLinesize     func(frame uint64, plane int32) int32

	avwrapDecodeAudio func(decoder, frame uint64, data uintptr, size int32, pts int64, gotFrame uintptr) int32
	avwrapDecodeVideo func(decoder, frame uint64, data uintptr, size int32, pts int64, gotFrame uintptr) int32

	avwrapGetError func() uintptr
)

func loadAVWrap() error {
	avwrapOnce.Do(func() {
		avwrapInitErr = loadAVWrapLib()
		if avwrapInitErr == nil {
			avwrapLoaded = true
		}
	})
	return avwrapInitErr
}

func loadAVWrapLib() error {
	paths := getAVWrapLibPaths()

	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			avwrapHandle = handle
			loadAVWrapSymbols()
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to load libavwrap: %w", lastErr)
	}
	return errors.New("libavwrap not found in any standard location")
}

func getAVWrapLibPaths() []string {
	var paths []string

	libName := "libavwrap.so"
	if runtime.GOOS == "darwin" {
		libName = "libavwrap.dylib"
	}

	// Environment variable overrides (highest priority)
	if envPath := os.Getenv("AVWRAP_LIB_PATH"); envPath != "" {
		paths = append(paths, envPath, filepath.Join(envPath, libName))
	}

	// Search relative to executable location
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	// Search relative to working directory
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths,
			filepath.Join(wd, "build", libName),
			filepath.Join(wd, "..", "build", libName),
		)
	}

	// Search relative to module root (find go.mod from cwd)
	if moduleRoot := findModuleRoot(); moduleRoot != "" {
		paths = append(paths, filepath.Join(moduleRoot, "build", libName))
	}

	// System paths (lowest priority)
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			libName,
			"/usr/local/lib/"+libName,
			"/opt/homebrew/lib/"+libName,
		)
	case "linux":
		paths = append(paths,
			libName,
			"/usr/local/lib/"+libName,
			"/usr/lib/"+libName,
		)
	}

	return paths
}

func loadAVWrapSymbols() {
	purego.RegisterLibFunc(&avwrapDecoderCreate, avwrapHandle, "avwrap_decoder_create")
	purego.RegisterLibFunc(&avwrapDecoderSetOption, avwrapHandle, "avwrap_decoder_set_option")
	purego.RegisterLibFunc(&avwrapDecoderOpen, avwrapHandle, "avwrap_decoder_open")
	purego.RegisterLibFunc(&avwrapDecoderDestroy, avwrapHandle, "avwrap_decoder_destroy")
	purego.RegisterLibFunc(&avwrapDecoderAvailable, avwrapHandle, "avwrap_decoder_available")

	purego.RegisterLibFunc(&avwrapContextMediaType, avwrapHandle, "avwrap_context_media_type")
	purego.RegisterLibFunc(&avwrapContextWidth, avwrapHandle, "avwrap_context_width")
	purego.RegisterLibFunc(&avwrapContextHeight, avwrapHandle, "avwrap_context_height")
	purego.RegisterLibFunc(&avwrapContextPixFmt, avwrapHandle, "avwrap_context_pix_fmt")
	purego.RegisterLibFunc(&avwrapContextChannels, avwrapHandle, "avwrap_context_channels")
	purego.RegisterLibFunc(&avwrapContextChannelLayout, avwrapHandle, "avwrap_context_channel_layout")
	purego.RegisterLibFunc(&avwrapContextSampleRate, avwrapHandle, "avwrap_context_sample_rate")
	purego.RegisterLibFunc(&avwrapContextSampleFmt, avwrapHandle, "avwrap_context_sample_fmt")
	purego.RegisterLibFunc(&avwrapContextTimeBase, avwrapHandle, "avwrap_context_time_base")
	purego.RegisterLibFunc(&avwrapContextSetTimeBase, avwrapHandle, "avwrap_context_set_time_base")

	purego.RegisterLibFunc(&avwrapFrameAlloc, avwrapHandle, "avwrap_frame_alloc")
	purego.RegisterLibFunc(&avwrapFrameFree, avwrapHandle, "avwrap_frame_free")
	purego.RegisterLibFunc(&avwrapFrameReset, avwrapHandle, "avwrap_frame_reset")
	purego.RegisterLibFunc(&avwrapFrameKeyFrame, avwrapHandle, "avwrap_frame_key_frame")
	purego.RegisterLibFunc(&avwrapFrameBestEffortTS, avwrapHandle, "avwrap_frame_best_effort_timestamp")
	purego.RegisterLibFunc(&avwrapFrameSampleFmt, avwrapHandle, "avwrap_frame_sample_fmt")
	purego.RegisterLibFunc(&avwrapFrameChannels, avwrapHandle, "avwrap_frame_channels")
	purego.RegisterLibFunc(&avwrapFrameChanLayout, avwrapHandle, "avwrap_frame_channel_layout")
	purego.RegisterLibFunc(&avwrapFrameSampleRate, avwrapHandle, "avwrap_frame_sample_rate")
	purego.RegisterLibFunc(&avwrapFrameNbSamples, avwrapHandle, "avwrap_frame_nb_samples")
	purego.RegisterLibFunc(&avwrapFrameWidth, avwrapHandle, "avwrap_frame_width")
	purego.RegisterLibFunc(&avwrapFrameHeight, avwrapHandle, "avwrap_frame_height")
	purego.RegisterLibFunc(&avwrapFramePixFmt, avwrapHandle, "avwrap_frame_pix_fmt")
	purego.RegisterLibFunc(&avwrapFrameData, avwrapHandle, "avwrap_frame_data")
	purego.RegisterLibFunc(&avwrapFrameLinesize, avwrapHandle, "avwrap_frame_linesize")

	purego.RegisterLibFunc(&avwrapDecodeAudio, avwrapHandle, "avwrap_decode_audio")
	purego.RegisterLibFunc(&avwrapDecodeVideo, avwrapHandle, "avwrap_decode_video")

	purego.RegisterLibFunc(&avwrapGetError, avwrapHandle, "avwrap_get_error")
}

// IsAVWrapAvailable checks if libavwrap is available.
func IsAVWrapAvailable() bool {
	if err := loadAVWrap(); err != nil {
		return false
	}
	return avwrapLoaded
}

func getAVWrapError() string {
	ptr := avwrapGetError()
	if ptr == 0 {
		return "unknown error"
	}
	return goStringFromPtr(ptr)
}

// --- enum mapping between avdec and the native wrapper ---

var codecIDToNative = map[CodecID]int32{
	CodecIDH264:     27,
	CodecIDH265:     173,
	CodecIDVP8:      139,
	CodecIDVP9:      167,
	CodecIDAV1:      226,
	CodecIDMPEG4:    12,
	CodecIDMJPEG:    7,
	CodecIDAAC:      86018,
	CodecIDOpus:     86076,
	CodecIDMP3:      86017,
	CodecIDVorbis:   86021,
	CodecIDFLAC:     86028,
	CodecIDPCMS16LE: 65536,
	CodecIDPCMALaw:  65543,
	CodecIDPCMMuLaw: 65542,
}

func pixelFormatFromNative(v int32) PixelFormat {
	switch v {
	case 0:
		return PixelFormatYUV420P
	case 23:
		return PixelFormatNV12
	case 2:
		return PixelFormatRGB24
	case 3:
		return PixelFormatBGR24
	case 26:
		return PixelFormatRGBA32
	case 28:
		return PixelFormatBGRA32
	case 8:
		return PixelFormatGray8
	default:
		return PixelFormatNone
	}
}

func sampleFormatFromNative(v int32) SampleFormat {
	switch v {
	case 0:
		return SampleFormatU8
	case 1:
		return SampleFormatS16
	case 2:
		return SampleFormatS32
	case 3:
		return SampleFormatFLT
	case 4:
		return SampleFormatDBL
	case 5:
		return SampleFormatU8P
	case 6:
		return SampleFormatS16P
	case 7:
		return SampleFormatS32P
	case 8:
		return SampleFormatFLTP
	case 9:
		return SampleFormatDBLP
	default:
		return SampleFormatNone
	}
}

func mediaTypeFromNative(v int32) MediaType {
	switch v {
	case 0:
		return MediaTypeVideo
	case 1:
		return MediaTypeAudio
	default:
		return MediaTypeUnknown
	}
}

// --- Backend implementation ---

// avwrapBackend implements Backend over libavwrap handles.
type avwrapBackend struct{}

// NewAVWrapBackend returns the libavwrap-backed codec backend.
func NewAVWrapBackend() (Backend, error) {
	if err := loadAVWrap(); err != nil {
		return nil, err
	}
	return &avwrapBackend{}, nil
}

func (b *avwrapBackend) OpenDecoder(codec CodecID, options map[string]string) (DecodeContext, error) {
	native, ok := codecIDToNative[codec]
	if !ok {
		return nil, fmt.Errorf("no native codec id for %s", codec)
	}
	if avwrapDecoderAvailable(native) == 0 {
		return nil, fmt.Errorf("codec %s not available: %s", codec, getAVWrapError())
	}

	handle := avwrapDecoderCreate(native)
	if handle == 0 {
		return nil, fmt.Errorf("failed to create %s decoder: %s", codec, getAVWrapError())
	}

	for key, value := range options {
		if avwrapDecoderSetOption(handle, key, value) != 0 {
			avwrapDecoderDestroy(handle)
			return nil, fmt.Errorf("failed to set option %q: %s", key, getAVWrapError())
		}
	}

	if avwrapDecoderOpen(handle) != 0 {
		avwrapDecoderDestroy(handle)
		return nil, fmt.Errorf("failed to open %s decoder: %s", codec, getAVWrapError())
	}

	return &avwrapContext{handle: handle}, nil
}

func (b *avwrapBackend) NewFrame() NativeFrame {
	return &avwrapFrame{handle: avwrapFrameAlloc()}
}

func (b *avwrapBackend) DecodeAudio(ctx DecodeContext, frame NativeFrame, data []byte, pts int64) (int, bool) {
	c := ctx.(*avwrapContext)
	f := frame.(*avwrapFrame)

	var dataPtr uintptr
	if len(data) > 0 {
		dataPtr = uintptr(unsafe.Pointer(&data[0]))
	}

	consumed := avwrapDecodeAudio(c.handle, f.handle, dataPtr, int32(len(data)), pts,
		uintptr(unsafe.Pointer(&f.gotFrame)))
	runtime.KeepAlive(data)

	return int(consumed), f.gotFrame != 0
}

func (b *avwrapBackend) DecodeVideo(ctx DecodeContext, frame NativeFrame, data []byte, pts int64) (int, bool) {
	c := ctx.(*avwrapContext)
	f := frame.(*avwrapFrame)

	var dataPtr uintptr
	if len(data) > 0 {
		dataPtr = uintptr(unsafe.Pointer(&data[0]))
	}

	status := avwrapDecodeVideo(c.handle, f.handle, dataPtr, int32(len(data)), pts,
		uintptr(unsafe.Pointer(&f.gotFrame)))
	runtime.KeepAlive(data)

	return int(status), f.gotFrame != 0
}

// avwrapContext implements DecodeContext over a native decoder handle.
type avwrapContext struct {
	handle uint64
}

func (c *avwrapContext) MediaType() MediaType {
	return mediaTypeFromNative(avwrapContextMediaType(c.handle))
}

func (c *avwrapContext) Width() int  { return int(avwrapContextWidth(c.handle)) }
func (c *avwrapContext) Height() int { return int(avwrapContextHeight(c.handle)) }

func (c *avwrapContext) PixelFormat() PixelFormat {
	return pixelFormatFromNative(avwrapContextPixFmt(c.handle))
}

func (c *avwrapContext) Channels() int   { return int(avwrapContextChannels(c.handle)) }
func (c *avwrapContext) SampleRate() int { return int(avwrapContextSampleRate(c.handle)) }

func (c *avwrapContext) ChannelLayout() ChannelLayout {
	return ChannelLayout(avwrapContextChannelLayout(c.handle))
}

func (c *avwrapContext) SampleFormat() SampleFormat {
	return sampleFormatFromNative(avwrapContextSampleFmt(c.handle))
}

func (c *avwrapContext) TimeBase() Rational {
	var num, den int32
	avwrapContextTimeBase(c.handle, uintptr(unsafe.Pointer(&num)), uintptr(unsafe.Pointer(&den)))
	return Rational{Num: int(num), Den: int(den)}
}

func (c *avwrapContext) SetTimeBase(tb Rational) {
	avwrapContextSetTimeBase(c.handle, int32(tb.Num), int32(tb.Den))
}

func (c *avwrapContext) Close() {
	if c.handle != 0 {
		avwrapDecoderDestroy(c.handle)
		c.handle = 0
	}
}

// avwrapFrame implements NativeFrame over a native scratch frame handle.
// gotFrame must be part of the struct so it stays heap-allocated during
// the native call.
type avwrapFrame struct {
	handle   uint64
	gotFrame int32
}

func (f *avwrapFrame) Free() {
	if f.handle != 0 {
		avwrapFrameFree(f.handle)
		f.handle = 0
	}
}

func (f *avwrapFrame) Reset() {
	f.gotFrame = 0
	avwrapFrameReset(f.handle)
}

func (f *avwrapFrame) KeyFrame() bool {
	return avwrapFrameKeyFrame(f.handle) != 0
}

func (f *avwrapFrame) BestEffortTimestamp() int64 {
	return avwrapFrameBestEffortTS(f.handle)
}

func (f *avwrapFrame) SampleFormat() SampleFormat {
	return sampleFormatFromNative(avwrapFrameSampleFmt(f.handle))
}

func (f *avwrapFrame) Channels() int   { return int(avwrapFrameChannels(f.handle)) }
func (f *avwrapFrame) SampleRate() int { return int(avwrapFrameSampleRate(f.handle)) }
func (f *avwrapFrame) Samples() int    { return int(avwrapFrameNbSamples(f.handle)) }

func (f *avwrapFrame) ChannelLayout() ChannelLayout {
	return ChannelLayout(avwrapFrameChanLayout(f.handle))
}

func (f *avwrapFrame) Plane(i, n int) []byte {
	ptr := avwrapFrameData(f.handle, int32(i))
	if ptr == 0 || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n)
}

func (f *avwrapFrame) Picture() *Picture {
	width := int(avwrapFrameWidth(f.handle))
	height := int(avwrapFrameHeight(f.handle))
	format := pixelFormatFromNative(avwrapFramePixFmt(f.handle))

	pic := &Picture{
		Width:  width,
		Height: height,
		Format: format,
	}

	planes := format.PlaneCount()
	for i := 0; i < planes; i++ {
		linesize := int(avwrapFrameLinesize(f.handle, int32(i)))
		planeHeight := height
		if i > 0 && (format == PixelFormatYUV420P || format == PixelFormatNV12) {
			planeHeight = (height + 1) / 2
		}
		pic.Linesize = append(pic.Linesize, linesize)
		pic.Planes = append(pic.Planes, f.Plane(i, linesize*planeHeight))
	}

	return pic
}

func init() {
	registerBackend("avwrap", NewAVWrapBackend)
}
