package avdec

import "fmt"

// State tracks the coder lifecycle.
type State int

const (
	StateClosed State = iota
	StateOpened
)

func (s State) String() string {
	switch s {
	case StateOpened:
		return "opened"
	default:
		return "closed"
	}
}

// Coder owns the native codec context and the open/close lifecycle shared
// by encoders and decoders. It also holds the per-instance working packet
// and scratch frame reused across decode calls, which makes a single
// instance unsafe for concurrent use.
type Coder struct {
	codec   CodecID
	backend Backend
	ctx     DecodeContext
	state   State

	packet *workPacket
	frame  NativeFrame
}

// Codec returns the codec id this coder is bound to.
func (c *Coder) Codec() CodecID { return c.codec }

// State returns the current lifecycle state.
func (c *Coder) State() State { return c.state }

// Context returns the native decode context, or nil while closed.
func (c *Coder) Context() DecodeContext { return c.ctx }

// open creates the native context and transitions to Opened.
func (c *Coder) open(options map[string]string) error {
	if c.state == StateOpened {
		return fmt.Errorf("%w: already opened", ErrDecoderCreate)
	}
	if !c.codec.Valid() {
		return fmt.Errorf("%w: unknown codec %d", ErrDecoderCreate, int(c.codec))
	}

	ctx, err := c.backend.OpenDecoder(c.codec, options)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecoderCreate, err)
	}

	c.ctx = ctx
	c.packet = newWorkPacket()
	c.frame = c.backend.NewFrame()
	c.state = StateOpened
	return nil
}

// close releases the native context and transitions to Closed. Idempotent.
func (c *Coder) close() {
	if c.ctx != nil {
		c.ctx.Close()
		c.ctx = nil
	}
	if c.frame != nil {
		c.frame.Free()
		c.frame = nil
	}
	c.packet = nil
	c.state = StateClosed
}
