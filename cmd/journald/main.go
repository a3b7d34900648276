// Package main implements journald, the learning journal server and its
// command-line tools for working with the backing document directly.
package main

import (
	"os"

	"github.com/fyrsmithlabs/journald/internal/config"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	dataDir    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "journald",
		Short: "Learning journal server",
		Long: `journald serves a personal learning journal: a small web app and JSON API
for writing, listing and deleting reflections, stored in one JSON document.

Configuration is read from ~/.config/journald/config.yaml (or --config),
then overridden by JOURNAL_* environment variables.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/journald/config.yaml)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "directory holding the backing document (overrides storage.data_dir)")

	root.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newDeleteCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadConfig loads configuration and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dataDir != "" {
		cfg.Storage.DataDir = o.dataDir
	}
	return cfg, nil
}
