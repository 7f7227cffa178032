package di

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-telegram/bot"
	alertService "github.com/reshetovitsme/channel-relay/internal/modules/alert/service"
	filterService "github.com/reshetovitsme/channel-relay/internal/modules/filter/service"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	messageRepo "github.com/reshetovitsme/channel-relay/internal/modules/message/repository"
	messageService "github.com/reshetovitsme/channel-relay/internal/modules/message/service"
	operatorRepo "github.com/reshetovitsme/channel-relay/internal/modules/operator/repository"
	operatorService "github.com/reshetovitsme/channel-relay/internal/modules/operator/service"
	pairDomain "github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	pairRepo "github.com/reshetovitsme/channel-relay/internal/modules/pair/repository"
	pairService "github.com/reshetovitsme/channel-relay/internal/modules/pair/service"
	"github.com/reshetovitsme/channel-relay/internal/modules/relay/retry"
	relayService "github.com/reshetovitsme/channel-relay/internal/modules/relay/service"
	"github.com/reshetovitsme/channel-relay/internal/shared/config"
	"github.com/reshetovitsme/channel-relay/internal/shared/logger"
	"github.com/reshetovitsme/channel-relay/internal/shared/metrics"
	"github.com/reshetovitsme/channel-relay/internal/shared/storage"
	httpServer "github.com/reshetovitsme/channel-relay/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/channel-relay/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

// Setup initializes the dependency injection container. Services are built on
// first use, so offline commands never open the bot connection.
func Setup(cfg *config.Config) (do.Injector, error) {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, &Lifecycle{})

	// Register Logger
	do.Provide(injector, func(i do.Injector) (*slog.Logger, error) {
		l := logger.New(do.MustInvoke[*config.Config](i), os.Stdout, os.Stderr)
		slog.SetDefault(l)
		return l, nil
	})

	// Register Metrics
	do.Provide(injector, func(i do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})

	// Register Database
	do.Provide(injector, func(i do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		db, err := storage.OpenSQLite(cfg.DatabasePath, cfg.LogLevel == "debug")
		if err != nil {
			return nil, oops.With("database_path", cfg.DatabasePath, "context", "failed to open database").Wrap(err)
		}
		do.MustInvoke[*Lifecycle](i).Append(Hook{Name: "database", OnStop: func(context.Context) error {
			return storage.Close(db)
		}})
		return db, nil
	})

	// Register Pair Repository
	do.Provide(injector, func(i do.Injector) (pairRepo.Repository, error) {
		repo, err := pairRepo.NewSQLiteStorage(do.MustInvoke[*gorm.DB](i))
		if err != nil {
			return nil, oops.With("context", "failed to initialize pair repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Message Repository
	do.Provide(injector, func(i do.Injector) (messageRepo.Repository, error) {
		repo, err := messageRepo.NewSQLiteStorage(do.MustInvoke[*gorm.DB](i))
		if err != nil {
			return nil, oops.With("context", "failed to initialize message repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Operator Repository
	do.Provide(injector, func(i do.Injector) (operatorRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := operatorRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize operator repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Pair Registry
	do.Provide(injector, func(i do.Injector) (*pairService.Service, error) {
		svc := pairService.New(do.MustInvoke[pairRepo.Repository](i))
		if err := svc.Load(); err != nil {
			return nil, oops.With("context", "failed to load pairs").Wrap(err)
		}
		return svc, nil
	})

	// Register Message Mapper
	do.Provide(injector, func(i do.Injector) (*messageService.Service, error) {
		mapper := messageService.New(do.MustInvoke[messageRepo.Repository](i))

		// Mappings of a removed pair are never read again.
		do.MustInvoke[*pairService.Service](i).Watch(func(pair pairDomain.ChannelPair, removed bool) {
			if !removed {
				return
			}
			if err := mapper.ForgetPair(pair.ID); err != nil {
				slog.Error("Failed to drop mappings of removed pair", "pair_id", pair.ID, "error", err)
			}
		})
		return mapper, nil
	})

	// Register Operator Service
	do.Provide(injector, func(i do.Injector) (*operatorService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return operatorService.New(do.MustInvoke[operatorRepo.Repository](i), cfg.AllowedUsers), nil
	})

	// Register Alert Service
	do.Provide(injector, func(i do.Injector) (*alertService.Service, error) {
		return alertService.New(do.MustInvoke[*config.Config](i).AlertHistory), nil
	})

	// Register Filter Engine
	do.Provide(injector, func(i do.Injector) (*filterService.Engine, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return filterService.New(cfg.Location(), cfg.WindowEndInclusive), nil
	})

	// Register Retry Scheduler
	do.Provide(injector, func(i do.Injector) (*retry.Scheduler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return retry.New(retry.Policy{
			BaseDelay:     cfg.RetryBaseDelay,
			MaxDelay:      cfg.RetryMaxDelay,
			MaxAttempts:   cfg.RetryMaxAttempts,
			RatePerSecond: cfg.SendRatePerSecond,
			Burst:         cfg.SendBurst,
		}, do.MustInvoke[*metrics.Metrics](i)), nil
	})

	// Register Bot
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if err := cfg.RequireBotToken(); err != nil {
			return nil, err
		}

		opts := []bot.Option{
			bot.WithServerURL(cfg.TelegramAPIURL),
			bot.WithAllowedUpdates(bot.AllowedUpdates{
				"message",
				"channel_post",
				"edited_channel_post",
			}),
			// Handlers run on the polling goroutine so channel posts reach the
			// dispatcher in the order Telegram delivered them.
			bot.WithNotAsyncHandlers(),
			bot.WithErrorsHandler(func(err error) {
				slog.Error("Telegram polling error", "error", err)
			}),
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}
		return b, nil
	})

	// Register Transport
	do.Provide(injector, func(i do.Injector) (messageDomain.Transport, error) {
		return telegramHandler.NewSender(do.MustInvoke[*bot.Bot](i)), nil
	})

	// Register Coordinator
	do.Provide(injector, func(i do.Injector) (*relayService.Coordinator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		pairs := do.MustInvoke[*pairService.Service](i)

		coordinator := relayService.New(relayService.Deps{
			Pairs:     pairs,
			Mapper:    do.MustInvoke[*messageService.Service](i),
			Filter:    do.MustInvoke[*filterService.Engine](i),
			Scheduler: do.MustInvoke[*retry.Scheduler](i),
			Transport: do.MustInvoke[messageDomain.Transport](i),
			Alerter:   do.MustInvoke[*alertService.Service](i),
			Metrics:   do.MustInvoke[*metrics.Metrics](i),
		}, relayService.Options{
			FailureThreshold:  cfg.FailureThreshold,
			FanoutConcurrency: cfg.FanoutConcurrency,
		})
		pairs.Watch(coordinator.PairChanged)
		return coordinator, nil
	})

	// Register Dispatcher
	do.Provide(injector, func(i do.Injector) (*relayService.Dispatcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		dispatcher := relayService.NewDispatcher(
			do.MustInvoke[*relayService.Coordinator](i),
			cfg.Workers,
			cfg.QueueSize,
			do.MustInvoke[*metrics.Metrics](i),
		)
		do.MustInvoke[*Lifecycle](i).Append(Hook{Name: "dispatcher", OnStop: func(ctx context.Context) error {
			dispatcher.Stop(ctx)
			return nil
		}})
		return dispatcher, nil
	})

	// Register Status Reporter
	do.Provide(injector, func(i do.Injector) (*relayService.StatusReporter, error) {
		return relayService.NewStatusReporter(
			do.MustInvoke[*pairService.Service](i),
			do.MustInvoke[*messageService.Service](i),
			do.MustInvoke[*alertService.Service](i),
			do.MustInvoke[*relayService.Dispatcher](i),
			do.MustInvoke[*relayService.Coordinator](i),
		), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		b := do.MustInvoke[*bot.Bot](i)
		operators := do.MustInvoke[*operatorService.Service](i)

		handler := telegramHandler.New(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*pairService.Service](i),
			operators,
			do.MustInvoke[*relayService.Dispatcher](i),
			do.MustInvoke[*relayService.StatusReporter](i),
		)
		handler.Register(b)

		// Pair-disabled alerts go to every operator over the same bot.
		do.MustInvoke[*alertService.Service](i).SetNotifier(telegramHandler.NewNotifier(b, operators))
		return handler, nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		server := httpServer.New(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*alertService.Service](i),
			do.MustInvoke[*relayService.StatusReporter](i),
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*relayService.Dispatcher](i),
		)
		server.SetLogger(do.MustInvoke[*slog.Logger](i))
		do.MustInvoke[*Lifecycle](i).Append(Hook{Name: "http-server", OnStop: server.Shutdown})
		return server, nil
	})

	return injector, nil
}

// Shutdown stops every component that was built, newest first: the HTTP
// server, then the dispatcher drain, then the database.
func Shutdown(ctx context.Context, injector do.Injector) error {
	lc, err := do.Invoke[*Lifecycle](injector)
	if err != nil {
		return err
	}
	return lc.Stop(ctx)
}
