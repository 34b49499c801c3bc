package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sitewatch/internal/refresh"
)

var (
	checkPrevious  string
	checkSummarize bool
	checkJSON      bool
)

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Check one URL once without saving anything",
	Args:  cobra.ExactArgs(1),
	RunE:  checkAction,
}

func init() {
	checkCmd.Flags().StringVar(&checkPrevious, "previous", "", "identity (URL) of the last seen post")
	checkCmd.Flags().BoolVar(&checkSummarize, "summarize", false, "summarize even when nothing new was found")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the outcome as JSON")
}

func checkAction(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Malformed URLs are reported by the checker as network errors.
	out := newChecker(cfg, checkSummarize).Check(cmd.Context(), args[0], checkPrevious)

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Status:   %s\n", refresh.StatusFor(out))
	fmt.Printf("New:      %t\n", out.HasNewContent)
	if out.ContentIdentity != "" {
		fmt.Printf("Latest:   %s\n", out.ContentIdentity)
	}
	if out.Summary != "" {
		fmt.Printf("Summary:  %s\n", out.Summary)
	}
	if out.ErrorKind != "" {
		fmt.Printf("Error:    %s: %s\n", out.ErrorKind, out.Message)
	}
	return nil
}
