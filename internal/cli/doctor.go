package cli

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ppiankov/sitewatch/internal/config"
	"github.com/ppiankov/sitewatch/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and database health",
	RunE:  doctorAction,
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s (run sitewatch init)", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		ok = false
	} else {
		printCheck(true, "config.yaml (workers %d, domain delay %s, log %s/%s)",
			cfg.Refresh.Workers, cfg.Refresh.DomainDelay, cfg.Log.Level, cfg.Log.Format)
	}

	// Schedule
	if cfg != nil {
		sched, err := cron.ParseStandard(cfg.Refresh.Schedule)
		if err != nil {
			printCheck(false, "schedule %q: %v", cfg.Refresh.Schedule, err)
			ok = false
		} else {
			printCheck(true, "schedule %q (next run %s)", cfg.Refresh.Schedule,
				sched.Next(time.Now()).Format("2006-01-02 15:04 MST"))
		}
	}

	// Database
	if cfg != nil {
		db, err := store.Open(cfg.Storage.Path)
		if err != nil {
			printCheck(false, "database: %v", err)
			ok = false
		} else {
			defer func() { _ = db.Close() }()
			printCheck(true, "database %s", cfg.Storage.Path)
			printSourceHealth(cmd, db)
		}
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

// printSourceHealth reports status counts and sources stuck in error.
func printSourceHealth(cmd *cobra.Command, db *store.Store) {
	counts, err := db.StatusCounts(cmd.Context())
	if err != nil || len(counts) == 0 {
		printInfo("no sources yet (add one with: sitewatch add <url>)")
		return
	}

	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	fmt.Println()
	for _, status := range statuses {
		printInfo("%s: %d", status, counts[status])
	}

	sources, err := db.ListSources(cmd.Context(), "")
	if err != nil {
		return
	}
	for _, src := range sources {
		if src.Status == store.StatusError {
			printInfo("failing: %s (%s) %s: %s", src.Name, src.URL, src.ErrorKind, src.ErrorMessage)
		}
	}
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("[INFO] %s\n", fmt.Sprintf(format, args...))
}
