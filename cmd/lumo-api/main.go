package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/lumoworks/lumo/pkg/log"
)

const defaultPort = 8080

func main() {
	cmd := &cli.Command{
		Name:                  "lumo-api",
		Usage:                 "Content generation API: images, videos, code, chat and automations",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory for generated artifacts and scratch space",
				Value:   "./data",
				Sources: cli.EnvVars("DATA_DIR"),
			},
			&cli.StringFlag{
				Name:    "openai-api-url",
				Usage:   "Base URL of the OpenAI-compatible completion and image API",
				Value:   "https://api.openai.com/v1",
				Sources: cli.EnvVars("OPENAI_API_URL"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "API key for the completion and image provider",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "elevenlabs-api-url",
				Usage:   "Base URL of the ElevenLabs-compatible speech API",
				Value:   "https://api.elevenlabs.io/v1",
				Sources: cli.EnvVars("ELEVENLABS_API_URL"),
			},
			&cli.StringFlag{
				Name:    "elevenlabs-api-key",
				Usage:   "API key for the speech provider",
				Sources: cli.EnvVars("ELEVENLABS_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Progress event transport (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker list for the kafka event bus",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL; when empty an in-memory store is used",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "ffmpeg-path",
				Usage:   "Path to the ffmpeg binary used for video assembly",
				Value:   "ffmpeg",
				Sources: cli.EnvVars("FFMPEG_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Lumo API")

			api, err := NewAPI(ctx, Config{
				Port:            command.Int("port"),
				DataDir:         command.String("data-dir"),
				OpenAIBaseURL:   command.String("openai-api-url"),
				OpenAIAPIKey:    command.String("openai-api-key"),
				SpeechBaseURL:   command.String("elevenlabs-api-url"),
				SpeechAPIKey:    command.String("elevenlabs-api-key"),
				EventBus:        command.String("event-bus"),
				KafkaBrokers:    command.String("kafka-brokers"),
				RedisURL:        command.String("redis-url"),
				FFmpegPath:      command.String("ffmpeg-path"),
				ShutdownTimeout: defaultShutdownTimeout,
			}, logger)
			if err != nil {
				return err
			}

			return api.Run(ctx)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
