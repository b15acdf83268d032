package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"phistack/internal/httpapi"
	"phistack/internal/metrics"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog, cache and advisor over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := metrics.New()
			cache, err := a.cacheManager(m)
			if err != nil {
				return err
			}

			srv, err := httpapi.NewServer(httpapi.Options{
				Catalog:     a.catalog,
				Cache:       cache,
				Advisor:     a.advisor(m),
				Metrics:     m,
				Logger:      a.logger,
				CORSOrigins: a.cfg.Server.CORSOrigins,
			})
			if err != nil {
				return err
			}

			addr := a.cfg.Server.Listen
			if listen != "" {
				addr = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	return cmd
}
