package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tg-gift-roulette/internal/auth"
	"tg-gift-roulette/internal/bot"
	"tg-gift-roulette/internal/config"
	"tg-gift-roulette/internal/game"
	"tg-gift-roulette/internal/logger"
	"tg-gift-roulette/internal/storage"
	"tg-gift-roulette/internal/web"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func run() error {
	// Инициализация конфигурации
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.InitLogger(level)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	prizes, err := config.LoadPrizeConfig(cfg.PrizesFile)
	if err != nil {
		return err
	}
	table, err := prizes.Table()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	store := storage.NewStore(backend, cfg.MaxAttempts)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warning("закрытие хранилища:", err)
		}
	}()

	roulette := game.NewRoulette(store, table)
	admin := game.NewAdmin(cfg.AdminID, store)
	logger.Infof("Рулетка готова: хранилище %s, попыток %d, админ %s, шанс пустой прокрутки %d%%",
		cfg.StoreBackend, cfg.MaxAttempts, cfg.AdminIDString(), table.EmptyChance())

	server := web.NewServer(cfg.HTTPAddr, roulette, admin, auth.NewWebAppVerifier(cfg.BotToken, cfg.InitDataTTL))

	var handler *bot.Bot
	var api *tgbotapi.BotAPI
	if !cfg.BotDisabled {
		// Создание бота
		api, err = tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			return fmt.Errorf("create bot: %w", err)
		}
		logger.Infof("Bot authorized on account %s", api.Self.UserName)
		handler = bot.NewBot(api, roulette, admin, cfg.AdminID, cfg.WebAppURL)
		server.SetSpinNotifier(handler)
	}

	var scheduler *cron.Cron
	if cfg.RefillCron != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddJob(cfg.RefillCron, game.NewRefillJob(store)); err != nil {
			return fmt.Errorf("REFILL_CRON: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	if handler != nil {
		g.Go(func() error {
			return handler.Run(ctx, api)
		})
	}

	if scheduler != nil {
		scheduler.Start()
		logger.Infof("Пополнение попыток по расписанию %q", cfg.RefillCron)
		g.Go(func() error {
			<-ctx.Done()
			<-scheduler.Stop().Done()
			return nil
		})
	}

	err = g.Wait()
	logger.Info("Остановка")
	return err
}

func openBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		return storage.NewRedisBackend(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case config.BackendSQLite:
		return storage.OpenSQLiteBackend(cfg.SQLitePath)
	default:
		return storage.OpenFileBackend(cfg.DataFile)
	}
}
