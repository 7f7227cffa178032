package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/channel-relay/internal/di"
	relayService "github.com/reshetovitsme/channel-relay/internal/modules/relay/service"
	"github.com/reshetovitsme/channel-relay/internal/shared/config"
	httpServer "github.com/reshetovitsme/channel-relay/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/channel-relay/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the relay",
		Long:  "Polls Telegram for channel posts and operator commands, relays posts to paired destinations and serves health, metrics, alerts and event ingest over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			injector, err := bootstrap()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, injector)
		},
	}
}

func serve(ctx context.Context, injector do.Injector) error {
	cfg := do.MustInvoke[*config.Config](injector)

	b, err := do.Invoke[*bot.Bot](injector)
	if err != nil {
		return err
	}
	dispatcher, err := do.Invoke[*relayService.Dispatcher](injector)
	if err != nil {
		return err
	}
	// Resolving the handler registers it with the bot.
	if _, err := do.Invoke[*telegramHandler.Handler](injector); err != nil {
		return err
	}
	server, err := do.Invoke[*httpServer.Server](injector)
	if err != nil {
		return err
	}

	// Workers outlive the signal so queued events drain during shutdown.
	dispatcher.Start(context.WithoutCancel(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil {
			return oops.With("port", cfg.HTTPPort).Wrapf(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		b.Start(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return di.Shutdown(shutdownCtx, injector)
	})

	slog.Info("Application started", "port", cfg.HTTPPort, "workers", cfg.Workers)
	return g.Wait()
}
