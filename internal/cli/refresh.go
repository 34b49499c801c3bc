package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/sitewatch/internal/config"
	"github.com/ppiankov/sitewatch/internal/refresh"
	"github.com/ppiankov/sitewatch/internal/report"
	"github.com/ppiankov/sitewatch/internal/store"
)

var (
	refreshID     int64
	refreshFormat string
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Check watched sources for new posts",
	RunE:  refreshAction,
}

func init() {
	refreshCmd.Flags().Int64Var(&refreshID, "id", 0, "only check the source with this id")
	refreshCmd.Flags().StringVar(&refreshFormat, "format", "terminal", "output format: terminal, table, json")
}

func refreshAction(cmd *cobra.Command, _ []string) error {
	if _, ok := report.New(refreshFormat, !noColor); !ok {
		return fmt.Errorf("unknown format %q (want terminal, table or json)", refreshFormat)
	}

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

	return runRefresh(cmd.Context(), cfg, db, logger, refreshID, refreshFormat)
}

// runRefresh checks all sources, or one when id > 0, and prints the
// resulting state of the checked sources.
func runRefresh(ctx context.Context, cfg *config.Config, db *store.Store, logger *zap.Logger, id int64, format string) error {
	formatter, ok := report.New(format, !noColor)
	if !ok {
		return fmt.Errorf("unknown format %q", format)
	}

	policy, err := cfg.Privacy.Policy()
	if err != nil {
		return fmt.Errorf("privacy policy: %w", err)
	}

	runner := refresh.New(newChecker(cfg, false), db, refresh.Options{
		Workers:     cfg.Refresh.Workers,
		DomainDelay: cfg.Refresh.DomainDelay.Duration,
		Policy:      policy,
		Logger:      logger,
	})

	var results []refresh.Result
	if id > 0 {
		res, err := runner.RunOne(ctx, id)
		if err != nil {
			return fmt.Errorf("refresh source %d: %w", id, err)
		}
		results = []refresh.Result{res}
	} else {
		results, err = runner.RunAll(ctx)
		if err != nil {
			return err
		}
	}

	checked := make(map[int64]bool, len(results))
	for _, res := range results {
		checked[res.Source.ID] = true
	}
	all, err := db.ListSources(ctx, "")
	if err != nil {
		return fmt.Errorf("reload sources: %w", err)
	}
	var sources []store.Source
	for _, src := range all {
		if checked[src.ID] {
			sources = append(sources, src)
		}
	}

	counts := refresh.Tally(results)
	if err := formatter.Format(os.Stdout, report.Input{Sources: sources, Checked: counts.Checked}); err != nil {
		return err
	}

	if counts.Failed > 0 && ctx.Err() == nil {
		return fmt.Errorf("%d of %d sources could not be recorded", counts.Failed, len(results))
	}
	return nil
}
