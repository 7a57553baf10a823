package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thrive/thrive/internal/config"
	"github.com/thrive/thrive/internal/display"
	"github.com/thrive/thrive/internal/engine"
	"github.com/thrive/thrive/internal/game"
	"github.com/thrive/thrive/internal/logging"
	"github.com/thrive/thrive/internal/resource"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/engine.toml"

func defaultConfig() string {
	if p := os.Getenv("THRIVE_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "thrive",
		Short:         "Run the Thrive engine in the terminal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGame(cmd.Context(), cfgPath)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultConfig(), "engine config file (env THRIVE_CONFIG)")

	root.AddCommand(
		newDisplayCmd(&cfgPath),
		newResourcesCmd(&cfgPath),
	)
	return root
}

func loadConfig(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func runGame(ctx context.Context, cfgPath string) error {
	cfg, log, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	// SIGINT is included for non-terminal stdin; in raw mode Ctrl-C arrives as
	// a key.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store, closeStore, err := game.OpenDisplayStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	g := game.New(cfg, log,
		engine.WithContext(ctx),
		engine.WithDisplayStore(store),
		engine.WithDialog(display.NewPromptDialog(os.Stdin, os.Stdout)),
	)
	return g.Run(ctx)
}

func newDisplayCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "display",
		Short: "Manage the saved display configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the saved display configuration so the dialog is shown next start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			store, closeStore, err := game.OpenDisplayStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "display settings cleared")
			return nil
		},
	})
	return cmd
}

func newResourcesCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Inspect resource groups",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Index every resource location and list what was found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			locations, err := resource.LoadManifest(cfg.Resources.Manifest)
			if err != nil {
				return err
			}
			mgr := resource.NewManager(log)
			for _, loc := range locations {
				if err := mgr.AddLocation(loc); err != nil {
					return err
				}
			}
			if err := mgr.InitialiseAll(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range mgr.Resources() {
				_, digest, err := mgr.ReadAll(r.Name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-12s %-10s %-24s %s\n", r.Group, r.Type, r.Name, digest)
			}
			fmt.Fprintf(out, "%d resources in %d groups\n", mgr.Count(), len(mgr.Groups()))
			return nil
		},
	})
	return cmd
}
