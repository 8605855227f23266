// Package main provides the Lumo API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/static"

	"github.com/lumoworks/lumo/pkg/actions/apicall"
	"github.com/lumoworks/lumo/pkg/actions/dataprocess"
	"github.com/lumoworks/lumo/pkg/actions/delay"
	"github.com/lumoworks/lumo/pkg/actions/email"
	"github.com/lumoworks/lumo/pkg/actions/fileop"
	"github.com/lumoworks/lumo/pkg/automation"
	"github.com/lumoworks/lumo/pkg/channels/gochannel"
	"github.com/lumoworks/lumo/pkg/channels/kafka"
	"github.com/lumoworks/lumo/pkg/media"
	"github.com/lumoworks/lumo/pkg/otelhelper"
	"github.com/lumoworks/lumo/pkg/persistence"
	"github.com/lumoworks/lumo/pkg/persistence/memory"
	"github.com/lumoworks/lumo/pkg/persistence/redis"
	"github.com/lumoworks/lumo/pkg/pipeline"
	"github.com/lumoworks/lumo/pkg/progress"
	"github.com/lumoworks/lumo/pkg/providers"
	"github.com/lumoworks/lumo/pkg/registry"
	"github.com/lumoworks/lumo/pkg/services"
	"github.com/lumoworks/lumo/pkg/store"
	"github.com/lumoworks/lumo/pkg/web"
)

const defaultShutdownTimeout = 10 * time.Second

const uploadsPath = "/uploads"

// Config carries everything the server needs to assemble itself.
type Config struct {
	Port            int
	DataDir         string
	OpenAIBaseURL   string
	OpenAIAPIKey    string
	SpeechBaseURL   string
	SpeechAPIKey    string
	EventBus        string
	KafkaBrokers    string
	RedisURL        string
	FFmpegPath      string
	ShutdownTimeout time.Duration
}

// API owns the assembled server and its closeable collaborators.
type API struct {
	cfg      Config
	logger   *slog.Logger
	app      *fiber.App
	engine   *automation.Engine
	registry persistence.Store
	progress *progress.Channel
}

func NewAPI(ctx context.Context, cfg Config, logger *slog.Logger) (*API, error) {
	registryStore, err := newRegistryStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry store: %w", err)
	}

	pub, sub, err := newEventChannel(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event channel: %w", err)
	}

	progressChannel := progress.NewChannel(pub, sub, logger)

	artifacts, err := store.NewArtifactStore(filepath.Join(cfg.DataDir, "uploads"), uploadsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}

	providerCfg := providers.Config{
		CompletionBaseURL: cfg.OpenAIBaseURL,
		CompletionAPIKey:  cfg.OpenAIAPIKey,
		SpeechBaseURL:     cfg.SpeechBaseURL,
		SpeechAPIKey:      cfg.SpeechAPIKey,
	}

	completion := providers.NewCompletionClient(providerCfg)
	image := providers.NewImageClient(providerCfg)
	speech := providers.NewSpeechClient(providerCfg)

	actionRegistry := registry.NewRegistry(logger)
	actionRegistry.RegisterAction(apicall.NewActionFactory())
	actionRegistry.RegisterAction(email.NewActionFactory())
	actionRegistry.RegisterAction(fileop.NewActionFactory(filepath.Join(cfg.DataDir, "files")))
	actionRegistry.RegisterAction(dataprocess.NewActionFactory())
	actionRegistry.RegisterAction(delay.NewActionFactory())

	engine := automation.NewEngine(registryStore, actionRegistry, logger)

	pipe := pipeline.New(pipeline.Config{
		Completion: completion,
		Image:      image,
		Speech:     speech,
		Artifacts:  artifacts,
		Muxer:      media.NewMuxer(cfg.FFmpegPath),
		Progress:   progressChannel,
		Engine:     engine,
		Logger:     logger,
		WorkDir:    filepath.Join(cfg.DataDir, "tmp"),
	})

	chat := services.NewChat(completion, registryStore, logger)

	handlers := web.NewAPIHandlers(
		pipe,
		engine,
		chat,
		completion,
		speech,
		artifacts,
		registryStore,
		actionRegistry,
		progressChannel,
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
	)

	api := &API{
		cfg:      cfg,
		logger:   logger,
		engine:   engine,
		registry: registryStore,
		progress: progressChannel,
	}
	api.app = api.buildApp(handlers)

	return api, nil
}

func newRegistryStore(cfg Config) (persistence.Store, error) {
	if cfg.RedisURL != "" {
		return redis.NewStore(cfg.RedisURL)
	}

	return memory.NewStore(), nil
}

func newEventChannel(cfg Config, logger *slog.Logger) (message.Publisher, message.Subscriber, error) {
	watermillLogger := watermill.NewSlogLogger(logger)

	if cfg.EventBus == "kafka" {
		pub, sub, err := kafka.CreateChannel(watermillLogger, "lumo-api", strings.Split(cfg.KafkaBrokers, ","))

		return pub, sub, err
	}

	pub, sub, err := gochannel.CreateChannel(watermillLogger)

	return pub, sub, err
}

func (a *API) buildApp(handlers *web.APIHandlers) *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())
	app.Get("/health", handlers.HealthCheck)

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Lumo API")
	})

	app.Get(uploadsPath+"*", static.New(filepath.Join(a.cfg.DataDir, "uploads")))

	images := app.Group("/api/images")
	images.Post("/generate", handlers.GenerateImage)
	images.Post("/generate-batch", handlers.GenerateImageBatch)
	images.Get("/", handlers.ListImages)
	images.Get("/:id", handlers.GetImage)
	images.Delete("/:id", handlers.DeleteImage)

	videos := app.Group("/api/videos")
	videos.Post("/generate-auto", handlers.GenerateVideoAuto)
	videos.Post("/generate-script", handlers.GenerateScript)
	videos.Get("/voices", handlers.ListVoices)
	videos.Get("/", handlers.ListVideos)
	videos.Get("/:id", handlers.GetVideo)
	videos.Delete("/:id", handlers.DeleteVideo)

	code := app.Group("/api/code")
	code.Post("/generate", handlers.GenerateCode)
	code.Post("/review", handlers.ReviewCode)
	code.Get("/", handlers.ListCode)
	code.Get("/:id", handlers.GetCode)
	code.Delete("/:id", handlers.DeleteCode)

	auto := app.Group("/api/automation")
	auto.Post("/create", handlers.CreateAutomation)
	auto.Get("/", handlers.ListAutomations)
	auto.Get("/actions", handlers.ListActionTypes)
	auto.Get("/:id", handlers.GetAutomation)
	auto.Put("/:id", handlers.UpdateAutomation)
	auto.Delete("/:id", handlers.DeleteAutomation)
	auto.Post("/:id/execute", handlers.ExecuteAutomation)
	auto.Post("/webhook/:id", handlers.TriggerWebhook)
	auto.Get("/:id/history", handlers.AutomationHistory)

	chat := app.Group("/api/chat")
	chat.Post("/message", handlers.SendChatMessage)
	chat.Get("/conversations", handlers.ListConversations)
	chat.Get("/conversations/:id", handlers.GetConversation)
	chat.Delete("/conversations/:id", handlers.DeleteConversation)

	tasks := app.Group("/api/tasks")
	tasks.Get("/:id", handlers.GetTask)
	tasks.Get("/:id/events", handlers.StreamTaskEvents)

	return app
}

// Run starts the scheduler and HTTP listener and blocks until the
// process receives an interrupt, then shuts everything down in order.
func (a *API) Run(ctx context.Context) error {
	if _, err := otelhelper.NewTracer(ctx, "lumo-api"); err != nil {
		a.logger.WarnContext(ctx, "Tracing disabled", "error", err)
	}

	if err := a.engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start automation engine: %w", err)
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- a.app.Listen(":" + strconv.Itoa(a.cfg.Port))
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-signals:
		a.logger.InfoContext(ctx, "Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.app.ShutdownWithContext(shutdownCtx); err != nil {
		a.logger.ErrorContext(ctx, "Failed to shut down HTTP server", "error", err)
	}

	if err := a.engine.Stop(shutdownCtx); err != nil {
		a.logger.ErrorContext(ctx, "Failed to stop automation engine", "error", err)
	}

	if err := a.progress.Close(); err != nil {
		a.logger.ErrorContext(ctx, "Failed to close progress channel", "error", err)
	}

	if err := a.registry.Close(shutdownCtx); err != nil {
		a.logger.ErrorContext(ctx, "Failed to close registry store", "error", err)
	}

	return nil
}
