package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/bootstrap"
	"github.com/example/askdrk-backend/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var timeout time.Duration
	root := &cobra.Command{
		Use:          "askdrk-admin",
		Short:        "Operational commands for the AskDrk backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall command timeout")

	root.AddCommand(newSeedTipsCmd(&timeout), newRunTipsCmd(&timeout))
	return root
}

// withApp loads configuration, wires the application and runs fn with a bounded context.
func withApp(timeout time.Duration, fn func(ctx context.Context, app *bootstrap.App) error) error {
	appConfig, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := bootstrap.NewLogger(appConfig)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app, err := bootstrap.New(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func newSeedTipsCmd(timeout *time.Duration) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-tips",
		Short: "Validate a tips YAML file and write it to the tips collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*timeout, func(ctx context.Context, app *bootstrap.App) error {
				tips, err := config.LoadTipsFile(file, app.Config.TipsTotalDays)
				if err != nil {
					return err
				}
				if err := app.TipService.Seed(ctx, tips); err != nil {
					return err
				}
				app.Logger.Info("Tips seeded", zap.Int("count", len(tips)))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "tips YAML file (default $PATH_TIPS or configs/tips.yaml)")
	return cmd
}

func newRunTipsCmd(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "run-tips",
		Short: "Advance the tip rotation and broadcast today's tip once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*timeout, func(ctx context.Context, app *bootstrap.App) error {
				res, err := app.TipService.RunDaily(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			})
		},
	}
}
