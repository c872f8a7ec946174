package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qepting91/recordsync/internal/dashboard"
	"github.com/qepting91/recordsync/internal/domain"
	"github.com/qepting91/recordsync/internal/ingest"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the cached records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printList(cmd.OutOrStdout(), a.screen.Load(cmd.Context()))
			return nil
		},
	}
}

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "fetch <posts|comments|users>",
		Short:     "Fetch a collection, merge it into the cache and show it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.KindPosts), string(domain.KindComments), string(domain.KindUsers)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a.screen.Load(ctx)
			printList(cmd.OutOrStdout(), a.screen.Fetch(ctx, kind))
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the local data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.screen.Delete(cmd.Context())
			printList(cmd.OutOrStdout(), a.screen.Items())
			return nil
		},
	}
}

func newAnnotateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate <file.csv>",
		Short: "Import id,field,value annotations into the cached records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			annotations, err := ingest.LoadAnnotations(args[0])
			if err != nil {
				return err
			}
			items := a.screen.Update(cmd.Context(), func(c domain.Collection) domain.Collection {
				n := ingest.Apply(c, annotations)
				a.logger.Info("Applied annotations", "applied", n, "rows", len(annotations))
				return c
			})
			printList(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the record list over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.screen.Load(ctx)

			addr := net.JoinHostPort("", a.cfg.Port)
			a.logger.Info("Starting Dashboard", "port", a.cfg.Port)
			if err := dashboard.StartServer(ctx, addr, dashboard.NewHandler(a.screen)); err != nil {
				return err
			}
			a.logger.Info("Shutting down")
			return nil
		},
	}
}
