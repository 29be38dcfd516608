package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"renewals/internal/cli"
	apphttp "renewals/internal/http"
	"renewals/internal/log"
)

const shutdownTimeout = 30 * time.Second

func serveCommand(o *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local JSON API",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(_ context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			if port == "" {
				port = app.Config.Port
			}
			logger := app.Logger
			srv := apphttp.NewServer(":"+port, apphttp.Deps{
				Renewals: app.Renewals,
				Billing:  app.Billing,
				Sync:     app.Sync,
				Location: app.Config.Location(),
				Logger:   logger,
			})
			srv.ReadTimeout = 15 * time.Second
			srv.WriteTimeout = 60 * time.Second
			srv.IdleTimeout = 60 * time.Second

			ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("HTTP server starting", "addr", srv.Addr, log.FieldOperation, log.OpStartup)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			err := g.Wait()
			if ctx.Err() != nil {
				<-done
			}
			return err
		}),
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default PORT)")
	return cmd
}
