package game

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/thrive/thrive/internal/config"
	"github.com/thrive/thrive/internal/core/ecs"
	"github.com/thrive/thrive/internal/engine"
	"go.uber.org/zap"
)

// Game drives the engine from a frame ticker until something asks it to
// quit: a closed window, a quit key, or a cancelled context.
type Game struct {
	cfg    *config.Config
	world  *ecs.World
	engine *engine.Engine
	log    *zap.Logger
	quit   atomic.Bool
	frames uint64
}

func New(cfg *config.Config, log *zap.Logger, opts ...engine.Option) *Game {
	g := &Game{cfg: cfg, world: ecs.NewWorld(), log: log}
	opts = append([]engine.Option{engine.WithLogger(log)}, opts...)
	g.engine = engine.New(g.world, g, cfg, opts...)
	return g
}

// Quit asks the frame loop to stop after the current frame. Safe from any
// goroutine.
func (g *Game) Quit() { g.quit.Store(true) }

func (g *Game) Quitting() bool { return g.quit.Load() }

func (g *Game) Engine() *engine.Engine { return g.engine }
func (g *Game) World() *ecs.World      { return g.world }
func (g *Game) Frames() uint64         { return g.frames }

// Run initialises the engine, builds the demo scene and runs frames until
// quit. Cancelling ctx requests a window close, which quits through the
// engine's close listener on the next frame.
func (g *Game) Run(ctx context.Context) error {
	e := g.engine
	if err := e.AddSystem(NewSpinSystem()); err != nil {
		return err
	}
	if err := e.AddSystem(NewControlSystem(g)); err != nil {
		return err
	}
	if err := e.Init(); err != nil {
		if errors.Is(err, engine.ErrDisplayConfigCancelled) {
			return nil
		}
		return err
	}
	BuildDemoScene(g.world)

	frameRate := g.cfg.Engine.FrameRate
	if frameRate <= 0 {
		frameRate = 33 * time.Millisecond
	}
	ticker := time.NewTicker(frameRate)
	defer ticker.Stop()

	g.log.Info("game loop started", zap.Duration("frame_rate", frameRate))
	done := ctx.Done()
	last := time.Now()
	for !g.Quitting() {
		select {
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			if err := e.Update(int(elapsed / time.Millisecond)); err != nil {
				_ = e.Shutdown()
				return err
			}
			g.frames++
		case <-done:
			g.log.Info("stop requested", zap.Error(ctx.Err()))
			done = nil
			if err := e.Window().RequestClose(); err != nil {
				g.Quit()
			}
		}
	}
	g.log.Info("game loop stopped", zap.Uint64("frames", g.frames))
	return e.Shutdown()
}
