// Package scheduler implements the scheduler command: periodic crawls on a
// cron schedule with a status HTTP server.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	cmdcommon "github.com/pressrun/pressrun/cmd/common"
	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

// Command returns the scheduler command for use in the root command.
func Command() *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run crawls continuously on a cron schedule",
		Long: `Start the scheduler: a crawl runs on the configured cron schedule until
interrupted with Ctrl+C. A status server exposes /healthz and /stats.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			cfg := deps.Config

			db, err := cmdcommon.ConnectDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			runner, err := cmdcommon.BuildRunner(cfg, db, deps.Logger)
			if err != nil {
				return fmt.Errorf("failed to build pipeline: %w", err)
			}

			svc := scheduler.NewService(scheduler.Config{
				Schedule:      cfg.Scheduler.Schedule,
				StatusAddress: cfg.Scheduler.StatusAddress,
				RunOnStart:    runOnStart || cfg.Scheduler.RunOnStart,
			}, func(ctx context.Context) (*domain.RunStats, error) {
				return runner.Run(ctx)
			}, deps.Logger)

			if startErr := svc.Start(cmd.Context()); startErr != nil {
				return fmt.Errorf("failed to start scheduler: %w", startErr)
			}

			<-cmd.Context().Done()
			deps.Logger.Info("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if stopErr := svc.Stop(shutdownCtx); stopErr != nil {
				return fmt.Errorf("failed to stop scheduler: %w", stopErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run a crawl immediately at startup")

	return cmd
}
