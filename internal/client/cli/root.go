// Package cli implements the moodlog command-line client.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moodlog-app/moodlog/internal/client/config"
	"github.com/moodlog-app/moodlog/internal/client/remote"
	"github.com/moodlog-app/moodlog/internal/client/services"
	"github.com/moodlog-app/moodlog/internal/client/store"
	"github.com/moodlog-app/moodlog/internal/client/sync"
	"github.com/moodlog-app/moodlog/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagServer string
	flagDB     string
	flagOwner  string
	flagToken  string
)

// Execute runs the root command.
func Execute() error {
	rootCmd := &cobra.Command{
		Use:           "moodlog",
		Short:         "Offline-first mood journal",
		Long:          "moodlog records mood entries locally and syncs them to a server whenever connectivity allows.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to JSON config file")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "server base URL")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "local database path")
	rootCmd.PersistentFlags().StringVar(&flagOwner, "owner", "", "owner id to record entries under")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "bearer token for the server")

	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(retryCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(runCmd())

	return rootCmd.Execute()
}

// loadConfig resolves settings: defaults, then the config file, then flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.ServerEndpointAddr = flagServer
	}
	if flagDB != "" {
		cfg.DatabaseDSN = flagDB
	}
	if flagOwner != "" {
		cfg.OwnerID = flagOwner
	}
	if flagToken != "" {
		cfg.AuthToken = flagToken
	}
	return cfg, nil
}

// app bundles the wired client components a command needs.
type app struct {
	cfg     *config.Config
	store   *store.Store
	remote  remote.Client
	entries *services.EntryService
	engine  *sync.Engine
	logger  logging.Logger
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.DatabaseDSN); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}

	st, err := store.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	rc := remote.NewHTTPClient(cfg.ServerEndpointAddr, cfg.AuthToken, cfg.RequestTimeout.Duration)
	logger := logging.NewDefault()

	eng := sync.NewEngine(sync.Config{
		Entries:     st.Entries,
		Attachments: st.Attachments,
		Remote:      rc,
		Logger:      logger,
		Backoff:     sync.CappedExponential(cfg.BackoffBase.Duration, cfg.BackoffCap.Duration),
		MaxAttempts: cfg.MaxSyncAttempts,
		StaleGrace:  cfg.SyncingGrace.Duration,
	})

	return &app{
		cfg:     cfg,
		store:   st,
		remote:  rc,
		entries: services.NewEntryService(st.Entries, st.Attachments, cfg.StagingDir).WithTxRunner(st.WithTx),
		engine:  eng,
		logger:  logger,
	}, nil
}

func (a *app) Close() {
	_ = a.remote.Close()
	_ = a.store.Close()
}
