package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/qepting91/recordsync/internal/collector"
	"github.com/qepting91/recordsync/internal/config"
	"github.com/qepting91/recordsync/internal/domain"
	"github.com/qepting91/recordsync/internal/screen"
	"github.com/qepting91/recordsync/internal/storage"
)

// app holds what every command needs once config is loaded.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	store  domain.Store
	screen *screen.Screen
}

func newRootCmd(a *app) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "recordsync",
		Short:        "Fetch JSONPlaceholder records and keep a merged local copy",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(envFile, cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")

	root.AddCommand(
		newListCmd(a),
		newFetchCmd(a),
		newDeleteCmd(a),
		newAnnotateCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(envFile string, logOut io.Writer) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(a.logger)

	source, err := collector.NewCollector(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize collector: %w", err)
	}

	store, err := storage.NewStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.store = store
	a.logger.Debug("Initialized", "mode", cfg.CollectorMode, "store", cfg.StoreBackend)

	a.screen = screen.New(source, store, screen.Options{
		CacheKey:  cfg.CacheKey,
		Serialize: cfg.SerializeScreen,
		Logger:    a.logger,
	})
	return nil
}

// close releases the store. It runs after every command, including ones
// whose RunE failed.
func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// printList writes one row per record, or the empty-state message.
func printList(w io.Writer, items domain.Collection) {
	if len(items) == 0 {
		fmt.Fprintln(w, screen.EmptyMessage)
		return
	}
	for _, r := range items {
		fmt.Fprintf(w, "%v\t%s\n\t%s\n", r["id"], r.Label(), r.Detail())
	}
}
