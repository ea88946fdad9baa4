package audio

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// ContextFactory builds the platform audio context. It is called at most once
// per Output, on the first EnsureReady.
type ContextFactory func() (Context, error)

// Output owns the one audio context and the master gain every generator
// feeds. All methods run on the control thread.
type Output struct {
	factory  ContextFactory
	logger   *log.Logger
	ctx      Context
	master   Gain
	disposed bool
}

// NewOutput returns an output that has not built its context yet.
func NewOutput(factory ContextFactory, logger *log.Logger) *Output {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Output{factory: factory, logger: logger.WithPrefix("output")}
}

// EnsureReady builds the context and master gain on first use and resumes a
// suspended context. Call it from a user gesture.
//
// A context the platform refuses to resume is kept and ErrSuspended is
// returned; the next call tries again.
func (o *Output) EnsureReady() error {
	if o.disposed {
		return ErrDisposed
	}
	if o.ctx == nil {
		if o.factory == nil {
			return ErrNoContext
		}
		ctx, err := o.factory()
		if err != nil {
			return fmt.Errorf("create audio context: %w", err)
		}
		master, err := ctx.NewGain()
		if err != nil {
			_ = ctx.Close()
			return graphErr("output", "master gain", err)
		}
		master.Gain().SetValue(AudioConfig.MasterVolume)
		if err := master.Connect(ctx.Destination()); err != nil {
			_ = ctx.Close()
			return graphErr("output", "destination", err)
		}
		o.ctx, o.master = ctx, master
		o.logger.Debug("context created", "rate", ctx.SampleRate(), "state", ctx.State())
	}

	if o.ctx.State() == StateSuspended {
		if err := o.ctx.Resume(); err != nil {
			o.logger.Warn("resume blocked", "err", err)
			return fmt.Errorf("%w: %v", ErrSuspended, err)
		}
	}
	return nil
}

// Ready reports whether the context exists and has not been disposed.
func (o *Output) Ready() bool {
	return !o.disposed && o.ctx != nil
}

// Context returns the shared context, or nil before EnsureReady.
func (o *Output) Context() Context {
	if o.disposed {
		return nil
	}
	return o.ctx
}

// Master returns the master gain, or nil before EnsureReady.
func (o *Output) Master() Gain {
	if o.disposed {
		return nil
	}
	return o.master
}

// Now returns the context clock, or 0 when there is no context.
func (o *Output) Now() float64 {
	if ctx := o.Context(); ctx != nil {
		return ctx.CurrentTime()
	}
	return 0
}

// Dispose disconnects the master and closes the context. The output cannot
// be used again; repeated calls are no-ops.
func (o *Output) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true
	if o.master != nil {
		o.master.Disconnect()
	}
	if o.ctx != nil {
		if err := o.ctx.Close(); err != nil {
			o.logger.Warn("close context", "err", err)
		}
	}
	o.ctx, o.master = nil, nil
	o.logger.Debug("disposed")
}

// Disposed reports whether Dispose has run.
func (o *Output) Disposed() bool { return o.disposed }
