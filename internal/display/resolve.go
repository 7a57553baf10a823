package display

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Resolve restores the saved display choice or, failing that, asks through
// dialog and saves the answer. ok=false means there is no configuration to run
// with and the caller should exit.
//
// Unreadable saved settings are logged and treated as absent; a failed save is
// logged and does not block startup.
func Resolve(ctx context.Context, store Store, dialog Dialog, log *zap.Logger) (Config, bool, error) {
	if store != nil {
		cfg, ok, err := store.Load(ctx)
		switch {
		case err != nil:
			log.Warn("saved display settings ignored", zap.Error(err))
		case ok:
			log.Info("display settings restored", zap.Stringer("config", cfg))
			return cfg, true, nil
		}
	}

	if dialog == nil {
		return Config{}, false, nil
	}
	cfg, ok, err := dialog.Show(ctx)
	if err != nil {
		return Config{}, false, fmt.Errorf("display dialog: %w", err)
	}
	if !ok {
		return Config{}, false, nil
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, false, fmt.Errorf("display dialog: %w", err)
	}
	if store != nil {
		if err := store.Save(ctx, cfg); err != nil {
			log.Warn("display settings not saved", zap.Error(err))
		}
	}
	log.Info("display settings chosen", zap.Stringer("config", cfg))
	return cfg, true, nil
}
