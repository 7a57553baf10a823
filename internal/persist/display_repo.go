package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/thrive/thrive/internal/display"
)

// DefaultProfile is the settings row used when none is named.
const DefaultProfile = "default"

// DisplaySettingsRepo stores the chosen display configuration in the
// display_settings table. It implements display.Store.
type DisplaySettingsRepo struct {
	db      *DB
	profile string
}

func NewDisplaySettingsRepo(db *DB, profile string) *DisplaySettingsRepo {
	if profile == "" {
		profile = DefaultProfile
	}
	return &DisplaySettingsRepo{db: db, profile: profile}
}

var _ display.Store = (*DisplaySettingsRepo)(nil)

func (r *DisplaySettingsRepo) Load(ctx context.Context) (display.Config, bool, error) {
	var (
		mode  string
		mouse bool
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT color_mode, mouse FROM display_settings WHERE profile = $1`, r.profile,
	).Scan(&mode, &mouse)
	if errors.Is(err, pgx.ErrNoRows) {
		return display.Config{}, false, nil
	}
	if err != nil {
		return display.Config{}, false, fmt.Errorf("load display settings: %w", err)
	}
	cfg := display.Config{ColorMode: display.ColorMode(mode), Mouse: mouse}
	if err := cfg.Validate(); err != nil {
		return display.Config{}, false, fmt.Errorf("load display settings: %w", err)
	}
	return cfg, true, nil
}

func (r *DisplaySettingsRepo) Save(ctx context.Context, cfg display.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO display_settings (profile, color_mode, mouse, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (profile) DO UPDATE
		 SET color_mode = EXCLUDED.color_mode, mouse = EXCLUDED.mouse, updated_at = now()`,
		r.profile, string(cfg.ColorMode), cfg.Mouse,
	)
	if err != nil {
		return fmt.Errorf("save display settings: %w", err)
	}
	return nil
}

func (r *DisplaySettingsRepo) Clear(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx,
		`DELETE FROM display_settings WHERE profile = $1`, r.profile); err != nil {
		return fmt.Errorf("clear display settings: %w", err)
	}
	return nil
}
