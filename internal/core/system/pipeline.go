package system

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrRegistrationClosed is returned by Register once the pipeline has been
// initialised.
var ErrRegistrationClosed = errors.New("system registration is closed")

// ErrNotInitialised is returned by Update before a successful Init.
var ErrNotInitialised = errors.New("pipeline not initialised")

// Pipeline runs systems in the exact order they were registered. There is no
// sorting and no dependency inference: whoever registers the systems declares
// the order.
type Pipeline struct {
	systems []System
	closed  bool
	started int // systems whose Init was attempted
	ready   bool
	log     *zap.Logger
}

func NewPipeline(log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		systems: make([]System, 0, 16),
		log:     log,
	}
}

// Register appends s to the declared order.
func (p *Pipeline) Register(s System) error {
	if p.closed {
		return fmt.Errorf("register %s: %w", s.Name(), ErrRegistrationClosed)
	}
	p.systems = append(p.systems, s)
	return nil
}

// Closed reports whether registration is over.
func (p *Pipeline) Closed() bool { return p.closed }

// Init closes registration and initialises every system in order. The first
// failure is returned; later systems are not initialised.
func (p *Pipeline) Init(ctx *Context) error {
	p.closed = true
	ctx.pipeline = p
	if ctx.Log == nil {
		ctx.Log = p.log
	}
	for _, s := range p.systems {
		p.started++
		if err := s.Init(ctx); err != nil {
			return fmt.Errorf("init system %s: %w", s.Name(), err)
		}
		p.log.Debug("system initialised",
			zap.String("system", s.Name()),
			zap.Stringer("stage", s.Stage()))
	}
	p.ready = true
	return nil
}

// Update runs one frame. Systems observe writes of the systems before them in
// this frame. An error aborts the rest of the frame.
func (p *Pipeline) Update(dt time.Duration) error {
	if !p.ready {
		return ErrNotInitialised
	}
	if dt < 0 {
		dt = 0
	}
	for _, s := range p.systems {
		if err := s.Update(dt); err != nil {
			return fmt.Errorf("update system %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Shutdown shuts systems down in reverse order. Only systems whose Init was
// attempted are shut down, each at most once. A panicking Shutdown is logged
// and does not prevent the remaining systems from shutting down.
func (p *Pipeline) Shutdown() {
	for i := p.started - 1; i >= 0; i-- {
		p.shutdownOne(p.systems[i])
	}
	p.started = 0
	p.ready = false
}

func (p *Pipeline) shutdownOne(s System) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("system shutdown panicked",
				zap.String("system", s.Name()),
				zap.Any("panic", r))
		}
	}()
	s.Shutdown()
}

// Len returns the number of registered systems.
func (p *Pipeline) Len() int { return len(p.systems) }

// Names returns system names in execution order.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.systems))
	for i, s := range p.systems {
		out[i] = s.Name()
	}
	return out
}

// Stages returns each system's stage in execution order.
func (p *Pipeline) Stages() []Stage {
	out := make([]Stage, len(p.systems))
	for i, s := range p.systems {
		out[i] = s.Stage()
	}
	return out
}
