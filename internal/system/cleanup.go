package system

import (
	"time"

	"github.com/thrive/thrive/internal/core/ecs"
	coresys "github.com/thrive/thrive/internal/core/system"
	"go.uber.org/zap"
)

// CleanupSystem flushes the deferred entity destruction queue at frame end.
// Stage 11 (Cleanup).
type CleanupSystem struct {
	world *ecs.World
	log   *zap.Logger
}

func NewCleanupSystem() *CleanupSystem {
	return &CleanupSystem{}
}

func (s *CleanupSystem) Name() string         { return "cleanup" }
func (s *CleanupSystem) Stage() coresys.Stage { return coresys.StageCleanup }

func (s *CleanupSystem) Init(ctx *coresys.Context) error {
	s.world = ctx.World
	s.log = ctx.Log
	return nil
}

func (s *CleanupSystem) Update(_ time.Duration) error {
	if n := s.world.FlushDestroyQueue(); n > 0 {
		s.log.Debug("entities destroyed", zap.Int("count", n))
	}
	return nil
}

func (s *CleanupSystem) Shutdown() {}
