// Package cli wires configuration, logging and the store into the cobra
// command tree.
package cli

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/config"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/logging"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

// Build information, set with -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	dbPath     string
	logLevel   string
}

// env is what a command needs once configuration is loaded.
type env struct {
	cfg   *config.Config
	log   hclog.Logger
	store *store.Store
	svc   *tracker.Service
}

func (e *env) Close() error {
	return e.store.Close()
}

func (o *options) open(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	log := logging.New(cfg.Log.Level, cfg.Log.JSON, cmd.ErrOrStderr())

	if cfg.Database.Path == "" {
		if cfg.Database.Path, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	}
	st, err := store.New(cfg.Database.Path, store.WithLogger(log.Named("store")))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Debug("database opened", "path", cfg.Database.Path, "config", config.ConfigFileUsed(o.configPath))

	svc := tracker.New(st, tracker.WithLogger(log.Named("tracker")))
	return &env{cfg: cfg, log: log, store: st, svc: svc}, nil
}

// New returns the root command. Without a subcommand it starts the terminal UI.
func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "mytimemanager",
		Short:         "Track time, tasks, habits and challenges across daily to yearly periods.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, o)
		},
	}
	cmd.PersistentFlags().StringVar(&o.configPath, "config", "", "Config file (default ~/.config/mytimemanager/config.yaml).")
	cmd.PersistentFlags().StringVar(&o.dbPath, "db", "", "SQLite database path, overrides database.path.")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error.")

	addServe(cmd, o)
	addReport(cmd, o)
	addExport(cmd, o)
	addMigrate(cmd, o)
	addVersion(cmd)
	return cmd
}
