package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rottengram/rottenshield/internal/bot"
	"github.com/rottengram/rottenshield/internal/config"
	"github.com/rottengram/rottenshield/internal/cooldown"
	"github.com/rottengram/rottenshield/internal/db/sqlstore"
	"github.com/rottengram/rottenshield/internal/handlers/chat"
	"github.com/rottengram/rottenshield/internal/handlers/moderation"
	"github.com/rottengram/rottenshield/internal/infra"
	"github.com/rottengram/rottenshield/internal/infrastructure/telegram"
	"github.com/rottengram/rottenshield/internal/lifecycle"
	"github.com/rottengram/rottenshield/internal/observability"
	"github.com/rottengram/rottenshield/internal/resolver"
)

const (
	updatesBuffer   = 100
	pollTimeout     = 60
	shutdownTimeout = 10 * time.Second
	exeCheckEvery   = 5 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot with the configuration taken from the environment.",
	RunE:  runBot,
}

func databaseDSN(cfg config.Config) (string, error) {
	if cfg.Database.Driver != sqlstore.DriverSQLite {
		return cfg.Database.DSN, nil
	}
	return infra.DataPath(cfg.DotPath, cfg.Database.DSN)
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.WithMessage(err, "load config")
	}
	closer := config.SetupLogging(cfg)
	defer closer.Close()
	logger := log.WithField("object", "Main")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn, err := databaseDSN(cfg)
	if err != nil {
		return err
	}
	store, err := sqlstore.New(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return errors.WithMessage(err, "open database")
	}
	defer store.Close()

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return errors.WithMessage(err, "init bot api")
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		botAPI.Debug = true
	}
	logger.WithField("username", botAPI.Self.UserName).Info("authorized")

	platform := telegram.NewOperations(botAPI, telegram.Options{
		MaxRetries:   cfg.Platform.MaxRetries,
		Rate:         cfg.Platform.Rate,
		Burst:        cfg.Platform.Burst,
		ReapInterval: time.Second,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	shutdownTracing := observability.Init(registry)

	runtime := lifecycle.NewRuntime()
	runtime.Register("tracing", lifecycle.Hooks{OnStop: shutdownTracing})
	runtime.Register("reaper", platform.Reaper())
	if cfg.Metrics.Addr != "" {
		runtime.Register("metrics", observability.NewServer(cfg.Metrics.Addr, registry))
	}

	var usernames bot.Resolver
	if cfg.Resolver.Enabled {
		sessionPath, err := infra.DataPath(cfg.DotPath, cfg.Resolver.SessionFile)
		if err != nil {
			return err
		}
		client := resolver.NewClient(resolver.ClientOptions{
			APIID:       cfg.Resolver.APIID,
			APIHash:     cfg.Resolver.APIHash,
			BotToken:    cfg.TelegramAPIToken,
			SessionPath: sessionPath,
			CacheSize:   cfg.Resolver.CacheSize,
		})
		runtime.Register("resolver", client)
		usernames = client
	} else {
		usernames = resolver.NewSeenUsers(cfg.Resolver.CacheSize)
	}

	scope, err := cooldown.ParseScope(cfg.Cooldown.Scope)
	if err != nil {
		return err
	}
	cooldowns := cooldown.NewRegistry(scope, cooldown.Options{
		NewMemberWindow: cfg.Cooldown.NewMemberWindow,
		MediaInterval:   cfg.Cooldown.MediaInterval,
	})

	service := bot.NewService(platform, store, cooldowns, usernames, cfg)
	bot.RegisterUpdateHandler("system", chat.NewSystemMessages(service))
	bot.RegisterUpdateHandler("welcome", chat.NewWelcome(service))
	bot.RegisterUpdateHandler("boost", chat.NewBoostCallback(service))
	bot.RegisterUpdateHandler("moderation", moderation.NewModeration(service))
	bot.RegisterUpdateHandler("premium", chat.NewPremiumGate(service))
	bot.RegisterUpdateHandler("antiflood", chat.NewAntiflood(service))
	processor := bot.NewUpdateProcessor(service, cfg.EnabledHandlers)

	if err := runtime.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := runtime.Stop(stopCtx); err != nil {
			logger.WithError(err).Warn("unclean shutdown")
		}
	}()

	updateConfig := api.NewUpdate(0)
	updateConfig.Timeout = pollTimeout
	updateConfig.AllowedUpdates = []string{"message", "callback_query"}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		updates, errs := bot.GetUpdatesChans(gctx, botAPI, updatesBuffer, cfg.Platform.MaxRetries, updateConfig)
		for update := range updates {
			err := infra.Recover("process_update", func() error {
				return processor.Process(gctx, &update)
			})
			if err != nil {
				logger.WithError(err).WithField("update_id", update.UpdateID).Errorln("cant process update")
			}
		}
		if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
			return errors.WithMessage(err, "get updates")
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case _, changed := <-infra.WatchExecutable(gctx, exeCheckEvery):
			if changed {
				logger.Warn("executable file was modified, shutting down")
				return errors.New("executable replaced")
			}
			return nil
		}
	})

	logger.WithFields(log.Fields{
		"handlers": cfg.EnabledHandlers,
		"scope":    scope,
	}).Info("processing updates")
	err = g.Wait()
	if ctx.Err() != nil {
		logger.Info("interrupted")
		return nil
	}
	return err
}
