package system

import (
	"fmt"

	"github.com/thrive/thrive/internal/core/ecs"
	"github.com/thrive/thrive/internal/core/event"
	"github.com/thrive/thrive/internal/display"
	"github.com/thrive/thrive/internal/input"
	"github.com/thrive/thrive/internal/resource"
	"github.com/thrive/thrive/internal/scene"
	"go.uber.org/zap"
)

// Context is handed to every system at Init. The handles are owned by the
// engine; systems may use them for the engine's lifetime but must never
// release them.
type Context struct {
	World     *ecs.World
	Bus       *event.Bus
	Log       *zap.Logger
	Root      *scene.Root
	Scene     *scene.Manager
	Window    *display.Window
	Input     *input.Manager
	Resources *resource.Manager

	pipeline *Pipeline
}

// Lookup returns the first system registered at stage. Systems use it in Init
// to reach a system they depend on, e.g. the viewport system reading the
// camera system's cameras.
func (c *Context) Lookup(stage Stage) (System, error) {
	if c.pipeline != nil {
		for _, s := range c.pipeline.systems {
			if s.Stage() == stage {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("no system registered at stage %s", stage)
}
