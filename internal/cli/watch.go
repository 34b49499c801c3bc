package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh all sources now and then on the configured schedule",
	RunE:  watchAction,
}

func watchAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runWatch(ctx, cfg.Refresh.Schedule, logger, func(ctx context.Context) error {
		return runRefresh(ctx, cfg, db, logger, 0, "terminal")
	})
}

// runWatch runs once immediately, then on every schedule tick until ctx is
// done. A tick that fires while the previous run is still going is skipped.
func runWatch(ctx context.Context, schedule string, logger *zap.Logger, runOnce func(context.Context) error) error {
	cl := cronLogger{s: logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	run := func() {
		if err := runOnce(ctx); err != nil {
			logger.Error("refresh failed", zap.Error(err))
		}
	}

	if _, err := c.AddFunc(schedule, run); err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}

	logger.Info("watch started", zap.String("schedule", schedule))
	run()

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("watch stopped")
	return nil
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
