package main

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

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

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())

	app.Post("/webhook/telegram", func(c *fiber.Ctx) error {
		if err := b.HandleWebhook(c.Body()); err != nil {
			logger.Error("webhook processing failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"detail": "Error processing update",
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"services": []string{"telegram", "ocr", "export", "email"},
		})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"service": "BillBot API",
			"endpoints": fiber.Map{
				"webhook": "/webhook/telegram",
				"health":  "/health",
			},
		})
	})

	addr := fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort)
	logger.Info("starting webhook server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
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
