package cli

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sitewatch/internal/report"
	"github.com/ppiankov/sitewatch/internal/store"
)

var (
	addName      string
	addCategory  string
	listFormat   string
	listCategory string
)

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a page or feed to watch",
	Args:  cobra.ExactArgs(1),
	RunE:  addAction,
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Stop watching a source",
	Args:  cobra.ExactArgs(1),
	RunE:  removeAction,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched sources and their last status",
	RunE:  listAction,
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "display name (defaults to the url)")
	addCmd.Flags().StringVar(&addCategory, "category", store.CategoryCompetitor, "competitor, partner or inspiration")
	listCmd.Flags().StringVar(&listFormat, "format", "table", "output format: table, json, terminal")
	listCmd.Flags().StringVar(&listCategory, "category", "", "only list this category")
}

func addAction(cmd *cobra.Command, args []string) error {
	rawURL, err := validateURL(args[0])
	if err != nil {
		return err
	}
	if !store.ValidCategory(addCategory) {
		return fmt.Errorf("unknown category %q (want competitor, partner or inspiration)", addCategory)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	src, err := db.AddSource(cmd.Context(), store.SourceInput{
		Name:     addName,
		Category: addCategory,
		URL:      rawURL,
	})
	if err != nil {
		return fmt.Errorf("add source: %w", err)
	}

	fmt.Printf("Added source %d: %s (%s)\n", src.ID, src.Name, src.URL)
	return nil
}

func removeAction(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.RemoveSource(cmd.Context(), id); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}

	fmt.Printf("Removed source %d\n", id)
	return nil
}

func listAction(cmd *cobra.Command, _ []string) error {
	formatter, ok := report.New(listFormat, !noColor)
	if !ok {
		return fmt.Errorf("unknown format %q (want table, json or terminal)", listFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	sources, err := db.ListSources(cmd.Context(), listCategory)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	return formatter.Format(os.Stdout, report.Input{Sources: sources})
}

// validateURL requires an absolute http(s) URL.
func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: want an absolute http(s) url", raw)
	}
	return raw, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid source id %q", raw)
	}
	return id, nil
}
