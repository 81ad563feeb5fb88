package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devfolio-dev/folio/internal/config"
	"github.com/devfolio-dev/folio/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "folio",
		Short: "Optimistic likes and editor attachment tracking",
		Long: `Folio drives the portfolio site's optimistic like toggle and
rich-editor attachment tracking, and runs a local API to exercise both.

  • serve        dev API: likes, image uploads, editor sessions
  • like         click a like toggle against a running API
  • attachments  diff the tracked images between two documents`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file or directory (default: folio.json / folio.yaml in the working directory)")

	load := func() (*config.Config, error) {
		return loadConfig(configPath)
	}

	rootCmd.AddCommand(
		serveCmd(load),
		likeCmd(load),
		attachmentsCmd(load),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads path, which may be a file or a directory. An empty path
// loads the working directory and falls back to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrDefault(".")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New("E141").WithDetail("No configuration found at " + path)
	}
	if info.IsDir() {
		return config.Load(path)
	}
	return config.LoadFile(path)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
