package system

import (
	"time"

	"github.com/thrive/thrive/internal/component"
	"github.com/thrive/thrive/internal/core/ecs"
	coresys "github.com/thrive/thrive/internal/core/system"
	"github.com/thrive/thrive/internal/scene"
)

// SkySystem applies the first SkyPlane component to the scene manager, or
// disables the sky when there is none. Stage 6 (Sky).
type SkySystem struct {
	world *ecs.World
	scene *scene.Manager
}

func NewSkySystem() *SkySystem { return &SkySystem{} }

func (s *SkySystem) Name() string         { return "sky" }
func (s *SkySystem) Stage() coresys.Stage { return coresys.StageSky }

func (s *SkySystem) Init(ctx *coresys.Context) error {
	s.world = ctx.World
	s.scene = ctx.Scene
	return nil
}

func (s *SkySystem) Update(_ time.Duration) error {
	sky := scene.SkyPlane{}
	store := ecs.Components[component.SkyPlane](s.world)
	if ids := store.IDs(); len(ids) > 0 {
		c, _ := store.Get(ids[0])
		sky = scene.SkyPlane{Enabled: c.Enabled, Top: c.Top, Bottom: c.Bottom}
	}
	s.scene.SetSkyPlane(sky)
	return nil
}

func (s *SkySystem) Shutdown() {
	if s.scene != nil {
		s.scene.SetSkyPlane(scene.SkyPlane{})
	}
}
