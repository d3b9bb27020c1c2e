package avdec

import (
	"fmt"
	"sync"
)

// DecodeContext exposes the negotiated state of a native codec context.
// The context is owned by the backend that created it; the Coder holds a
// reference, never a copy, so accessor reads always see the current
// negotiated values.
type DecodeContext interface {
	MediaType() MediaType

	// Video geometry and layout.
	Width() int
	Height() int
	PixelFormat() PixelFormat

	// Audio shape.
	Channels() int
	ChannelLayout() ChannelLayout
	SampleRate() int
	SampleFormat() SampleFormat

	TimeBase() Rational
	SetTimeBase(tb Rational)

	// Close releases the native context. Idempotent.
	Close()
}

// NativeFrame is the backend-owned scratch frame that receives the output
// of one native decode invocation. It is reused across calls; Reset must
// be called before each decode.
type NativeFrame interface {
	Reset()

	KeyFrame() bool

	// BestEffortTimestamp returns the presentation timestamp derived by
	// the native decoder from the most reliable available source, in
	// time-base units.
	BestEffortTimestamp() int64

	// Audio accessors, meaningful after an audio decode produced output.
	SampleFormat() SampleFormat
	Channels() int
	ChannelLayout() ChannelLayout
	SampleRate() int
	Samples() int
	// Plane returns the first n bytes of the i-th sample plane.
	Plane(i, n int) []byte

	// Picture returns a view of the decoded picture planes, meaningful
	// after a video decode produced output. The view is only valid until
	// the next Reset.
	Picture() *Picture

	// Free releases native frame resources. Idempotent.
	Free()
}

// Backend drives a native codec implementation. The audio primitive may
// consume a packet partially and must be called again with the remaining
// window; the video primitive fully consumes one packet per call.
type Backend interface {
	// OpenDecoder creates and opens a native decode context for the codec.
	OpenDecoder(codec CodecID, options map[string]string) (DecodeContext, error)

	// NewFrame allocates a scratch frame tied to this backend.
	NewFrame() NativeFrame

	// DecodeAudio feeds the byte window to the native audio decoder.
	// It returns the number of bytes consumed (<= 0 on error) and whether
	// frame now holds a decoded unit. pts carries the source packet
	// timestamp in time-base units, NoPTS if unknown.
	DecodeAudio(ctx DecodeContext, frame NativeFrame, data []byte, pts int64) (int, bool)

	// DecodeVideo feeds one whole packet to the native video decoder.
	// It returns a status (< 0 on error) and whether frame now holds a
	// decoded picture.
	DecodeVideo(ctx DecodeContext, frame NativeFrame, data []byte, pts int64) (int, bool)
}

// --- Registry ---

type backendEntry struct {
	name    string
	factory func() (Backend, error)
}

var (
	backendMu  sync.RWMutex
	backendReg []backendEntry
)

// registerBackend adds a backend factory. Called from init() by backend
// implementations; registration order decides DefaultBackend preference.
func registerBackend(name string, factory func() (Backend, error)) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendReg = append(backendReg, backendEntry{name: name, factory: factory})
}

// DefaultBackend returns the first registered backend that is available
// at runtime.
func DefaultBackend() (Backend, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()

	var lastErr error
	for _, e := range backendReg {
		b, err := e.factory()
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBackend, lastErr)
	}
	return nil, ErrNoBackend
}

// Backends returns the names of all registered backends.
func Backends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()

	names := make([]string, 0, len(backendReg))
	for _, e := range backendReg {
		names = append(names, e.name)
	}
	return names
}
