package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"renewals/internal/amqp"
	"renewals/internal/cli"
	"renewals/internal/log"
	"renewals/internal/worker"
)

func workerCommand(o *rootOptions) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Push to Google Sheets on queued requests and on SYNC_INTERVAL",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, app *cli.App, _ []string) error {
			cfg := app.Config
			logger := app.Logger.WithComponent(log.ComponentWorker)
			w := worker.NewSyncWorker(app.Records, app.Sync, worker.WithLogger(logger))

			if once {
				n, err := w.PushNow(ctx)
				if err != nil {
					return err
				}
				logger.Info("Push complete", log.FieldCount, n)
				return nil
			}
			if !cfg.AMQPEnabled() && cfg.SyncInterval == 0 {
				return errors.New("nothing to do: set AMQP_URL or SYNC_INTERVAL, or use --once")
			}

			sigCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)
			g, gctx := errgroup.WithContext(sigCtx)

			if cfg.AMQPEnabled() {
				client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
				if err != nil {
					return err
				}
				defer client.Close()
				g.Go(func() error {
					err := client.ConsumeSheetsSync(gctx, w.HandleSyncMessage)
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				})
			}
			if cfg.SyncInterval > 0 {
				g.Go(func() error { return w.RunPeriodic(gctx, cfg.SyncInterval) })
			}

			logger.Info("Worker started",
				"amqp", cfg.AMQPEnabled(),
				"interval", cfg.SyncInterval.String(),
				log.FieldOperation, log.OpStartup)
			err := g.Wait()
			if sigCtx.Err() != nil {
				<-done
			}
			return err
		}, cli.WithoutPublisher()),
	}
	cmd.Flags().BoolVar(&once, "once", false, "push once and exit")
	return cmd
}
