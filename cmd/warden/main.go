package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "warden",
		Usage:   "group chat moderation daemon",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "database connection string (sqlite path)",
			Value:   "data/warden/warden.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:     "bot-token",
			Usage:    "chat platform bot token",
			Required: true,
			EnvVars:  []string{"TELEGRAM_BOT_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection for trust and warning state; in-memory stores when empty",
			EnvVars: []string{"WARDEN_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the admin API",
			Value:   ":3850",
			EnvVars: []string{"WARDEN_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics",
			Value:   ":3851",
			EnvVars: []string{"WARDEN_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "platform-file-api",
			Usage:   "base URL of the chat platform's file API, for background content fetches",
			EnvVars: []string{"WARDEN_PLATFORM_FILE_API"},
		},
		&cli.IntFlag{
			Name:    "cross-chat-concurrency",
			Usage:   "max concurrent per-chat platform calls during a fan-out",
			Value:   3,
			EnvVars: []string{"WARDEN_CROSS_CHAT_CONCURRENCY"},
		},
		&cli.IntFlag{
			Name:    "platform-rate-limit",
			Usage:   "max platform calls per second across all fan-outs",
			Value:   25,
			EnvVars: []string{"WARDEN_PLATFORM_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "refetch-workers",
			Usage:   "number of background fetch workers",
			Value:   4,
			EnvVars: []string{"WARDEN_REFETCH_WORKERS"},
		},
		&cli.IntFlag{
			Name:    "refetch-capacity",
			Usage:   "refetch queue capacity; oldest requests are dropped on overflow",
			Value:   1000,
			EnvVars: []string{"WARDEN_REFETCH_CAPACITY"},
		},
		&cli.Float64Flag{
			Name:    "auto-ban-threshold",
			Usage:   "aggregate confidence at or above which messages are auto-actioned",
			Value:   85,
			EnvVars: []string{"WARDEN_AUTO_BAN_THRESHOLD"},
		},
		&cli.Float64Flag{
			Name:    "review-threshold",
			Usage:   "aggregate confidence at or above which messages go to manual review",
			Value:   70,
			EnvVars: []string{"WARDEN_REVIEW_THRESHOLD"},
		},
		&cli.BoolFlag{
			Name:    "training-mode",
			Usage:   "never auto-action; route everything above the review threshold to review",
			EnvVars: []string{"WARDEN_TRAINING_MODE"},
		},
		&cli.DurationFlag{
			Name:    "detector-timeout",
			Usage:   "per-detector scoring budget",
			Value:   time.Second,
			EnvVars: []string{"WARDEN_DETECTOR_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "detector-config-json",
			Usage:   "path to JSON file with detector weights, thresholds, and stop words",
			EnvVars: []string{"WARDEN_DETECTOR_CONFIG_JSON"},
		},
		&cli.IntFlag{
			Name:    "warn-ban-threshold",
			Usage:   "warning count at which a ban follow-up is requested",
			Value:   3,
			EnvVars: []string{"WARDEN_WARN_BAN_THRESHOLD"},
		},
		&cli.Int64Flag{
			Name:    "admin-chat",
			Usage:   "chat id for moderation notifications; disabled when zero",
			EnvVars: []string{"WARDEN_ADMIN_CHAT"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		// Enable OTLP HTTP exporter
		// For relevant environment variables:
		// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace#readme-environment-variables
		if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
			slog.Info("setting up trace exporter", "endpoint", ep)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exp, err := otlptracehttp.New(ctx)
			if err != nil {
				return fmt.Errorf("failed to create trace exporter: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := exp.Shutdown(ctx); err != nil {
					slog.Error("failed to shutdown trace exporter", "error", err)
				}
			}()

			tp := tracesdk.NewTracerProvider(
				tracesdk.WithBatcher(exp),
				tracesdk.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String("warden"),
					attribute.String("env", os.Getenv("ENVIRONMENT")),
					attribute.String("environment", os.Getenv("ENVIRONMENT")),
					attribute.Int64("ID", 1),
				)),
			)
			otel.SetTracerProvider(tp)
		}

		srv, err := NewServer(Config{
			Logger:               logger,
			DatabaseURL:          cctx.String("database-url"),
			RedisURL:             cctx.String("redis-url"),
			BotToken:             cctx.String("bot-token"),
			PlatformFileAPI:      cctx.String("platform-file-api"),
			CrossChatConcurrency: cctx.Int("cross-chat-concurrency"),
			PlatformRateLimit:    cctx.Int("platform-rate-limit"),
			RefetchWorkers:       cctx.Int("refetch-workers"),
			RefetchCapacity:      cctx.Int("refetch-capacity"),
			AutoBanThreshold:     cctx.Float64("auto-ban-threshold"),
			ReviewThreshold:      cctx.Float64("review-threshold"),
			TrainingMode:         cctx.Bool("training-mode"),
			DetectorTimeout:      cctx.Duration("detector-timeout"),
			DetectorConfigJSON:   cctx.String("detector-config-json"),
			WarnBanThreshold:     cctx.Int("warn-ban-threshold"),
			AdminChatID:          cctx.Int64("admin-chat"),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
			}
		}()
		go srv.RunFetchers(ctx)

		go func() {
			if err := srv.RunAPI(cctx.String("bind")); err != nil {
				slog.Error("admin API stopped", "error", err)
				stop()
			}
		}()

		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
