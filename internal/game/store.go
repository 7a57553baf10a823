package game

import (
	"context"
	"fmt"

	"github.com/thrive/thrive/internal/config"
	"github.com/thrive/thrive/internal/display"
	"github.com/thrive/thrive/internal/persist"
	"go.uber.org/zap"
)

// OpenDisplayStore returns the display settings store named by the config and
// a function releasing it.
func OpenDisplayStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (display.Store, func(), error) {
	switch cfg.Display.Store {
	case "", "file":
		return display.NewFileStore(cfg.Display.SettingsFile), func() {}, nil
	case "postgres":
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return persist.NewDisplaySettingsRepo(db, persist.DefaultProfile), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown display store %q", cfg.Display.Store)
	}
}
