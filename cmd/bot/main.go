package main

import (
	"github.com/ivanoskov/billbot/internal/bot"
	"github.com/ivanoskov/billbot/internal/charts"
	"github.com/ivanoskov/billbot/internal/config"
	"github.com/ivanoskov/billbot/internal/dates"
	"github.com/ivanoskov/billbot/internal/export"
	"github.com/ivanoskov/billbot/internal/mailer"
	"github.com/ivanoskov/billbot/internal/ocr"
	"github.com/ivanoskov/billbot/internal/repository"
	"github.com/ivanoskov/billbot/internal/service"
	"github.com/ivanoskov/billbot/internal/storage"
	"github.com/ivanoskov/billbot/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		logger.Fatal("failed to init logger", zap.Error(err))
	}
	defer logger.Sync()

	b, err := buildBot(cfg)
	if err != nil {
		logger.Fatal("failed to build bot", zap.Error(err))
	}

	logger.Info("starting bot in long-polling mode")
	if err := b.Start(); err != nil {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}

func buildBot(cfg *config.Config) (*bot.Bot, error) {
	repo, err := repository.NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		return nil, err
	}

	images, err := storage.NewImageStore(cfg.BillsDir)
	if err != nil {
		return nil, err
	}
	renderer, err := export.NewService(cfg.ExportsDir)
	if err != nil {
		return nil, err
	}

	smtp := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	tracker := service.NewBillTracker(repo, renderer, charts.NewChartGenerator(), smtp, images)

	return bot.NewBot(cfg.TelegramToken, bot.Options{
		Tracker:   tracker,
		Extractor: ocr.NewOpenAIExtractor(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel),
		Resolver:  dates.NewModelResolver(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel),
		Images:    images,
		Sessions:  bot.NewMemoryStore(cfg.SessionTTL),
		Timeout:   cfg.RequestTimeout,
	})
}
