package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sitewatch/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with example files",
	RunE:  initAction,
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	created := 0

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig))
	if err != nil {
		return err
	}
	if wrote {
		created++
	}

	envPath := filepath.Join(configDir, config.DefaultEnvFile)
	wrote, err = writeIfNotExists(envPath, []byte(exampleEnv))
	if err != nil {
		return err
	}
	if wrote {
		created++
	}

	if created == 0 {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s with %d config files.\n", configDir, created)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# sitewatch configuration

storage:
  path: .sitewatch/sitewatch.db

http:
  # user_agent: "Mozilla/5.0 (compatible; sitewatch/1.0; +https://github.com/ppiankov/sitewatch)"
  page_timeout: 15s
  feed_timeout: 10s
  max_body_bytes: 5242880

refresh:
  workers: 4
  domain_delay: 3s
  schedule: "@every 6h"

log:
  level: info
  format: console

privacy:
  store_full_text: true
  redact:
    enabled: false
    patterns: []
    # - "(?i)api[_-]?key=\\w+"
`

const exampleEnv = `# Environment overrides for sitewatch. Real environment variables win.
# SITEWATCH_STORAGE_PATH=.sitewatch/sitewatch.db
# SITEWATCH_LOG_LEVEL=debug
# SITEWATCH_USER_AGENT=
`
