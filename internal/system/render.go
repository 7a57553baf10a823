package system

import (
	"errors"
	"time"

	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/scene"
)

// RenderSystem submits the frame to the rendering root. A render error means
// the scene state is inconsistent and is returned to stop the engine. Stage
// 10 (Render).
type RenderSystem struct {
	root *scene.Root
}

func NewRenderSystem() *RenderSystem { return &RenderSystem{} }

func (s *RenderSystem) Name() string         { return "render" }
func (s *RenderSystem) Stage() coresys.Stage { return coresys.StageRender }

func (s *RenderSystem) Init(ctx *coresys.Context) error {
	if ctx.Root == nil {
		return errors.New("render system needs a rendering root")
	}
	s.root = ctx.Root
	return nil
}

func (s *RenderSystem) Update(dt time.Duration) error {
	return s.root.RenderOneFrame(dt)
}

func (s *RenderSystem) Shutdown() {}
