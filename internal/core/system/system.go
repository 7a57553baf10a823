package system

import (
	"fmt"
	"time"
)

// Stage names a slot in the frame pipeline. The constants are listed in the
// order the engine declares its systems; a system reports its stage so the
// declared order can be inspected, but execution order is always the order of
// registration.
type Stage int

const (
	StageInput           Stage = iota // 0: drain input devices
	StageGameplay                     // 1: game logic added by the integrator
	StageSceneNodeAdd                 // 2: create scene nodes for new entities
	StageSceneNodeUpdate              // 3: push transforms into the scene graph
	StageCamera                       // 4: cameras
	StageLight                        // 5: lights
	StageSky                          // 6: sky plane
	StageEntity                       // 7: mesh instances
	StageViewport                     // 8: viewports, needs camera output
	StageSceneNodeRemove              // 9: drop nodes of removed entities
	StageRender                       // 10: submit the frame
	StageCleanup                      // 11: destroy queued entities
)

var stageNames = [...]string{
	"input", "gameplay", "scene-node-add", "scene-node-update", "camera",
	"light", "sky", "entity", "viewport", "scene-node-remove", "render", "cleanup",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// System is one per-frame unit of behaviour over the shared entity store.
//
// Init is called exactly once before the first Update and may fail; a failure
// is fatal to the engine. Update is called once per frame in declared order
// and must tolerate any dt >= 0, including zero. Missing per-entity data is
// handled inside Update by skipping the entity; a returned error means shared
// state is inconsistent and stops the engine. Shutdown releases what Init
// acquired and must cope with a partially initialised system.
type System interface {
	Name() string
	Stage() Stage
	Init(ctx *Context) error
	Update(dt time.Duration) error
	Shutdown()
}
