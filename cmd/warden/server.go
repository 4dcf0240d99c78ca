package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
	sloggorm "github.com/orandin/slog-gorm"
	"golang.org/x/time/rate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/groupwarden/warden/moderation"
	"github.com/groupwarden/warden/moderation/auditstore"
	"github.com/groupwarden/warden/moderation/chatstore"
	"github.com/groupwarden/warden/moderation/detect"
	"github.com/groupwarden/warden/moderation/refetch"
	"github.com/groupwarden/warden/moderation/truststore"
	"github.com/groupwarden/warden/moderation/warnstore"
	"github.com/groupwarden/warden/platform/telegram"
)

type Config struct {
	Logger *slog.Logger

	DatabaseURL     string
	RedisURL        string
	BotToken        string
	PlatformFileAPI string

	CrossChatConcurrency int
	PlatformRateLimit    int
	RefetchWorkers       int
	RefetchCapacity      int

	AutoBanThreshold   float64
	ReviewThreshold    float64
	TrainingMode       bool
	DetectorTimeout    time.Duration
	DetectorConfigJSON string

	WarnBanThreshold int
	AdminChatID      int64
}

type Server struct {
	logger    *slog.Logger
	processor *moderation.Processor
	fetcher   *refetch.Fetcher
	echo      *echo.Echo
	db        *gorm.DB
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if err := os.MkdirAll(filepath.Dir(config.DatabaseURL), 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(config.DatabaseURL), &gorm.Config{
		Logger: sloggorm.New(sloggorm.WithHandler(logger.Handler())),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	registry, err := chatstore.NewGormRegistry(db)
	if err != nil {
		return nil, fmt.Errorf("initializing chat registry: %w", err)
	}
	audit, err := auditstore.NewGormAuditStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing audit store: %w", err)
	}

	var trust truststore.TrustStore
	var warnings warnstore.WarnStore
	if config.RedisURL != "" {
		ts, err := truststore.NewRedisTrustStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis truststore: %w", err)
		}
		trust = ts
		ws, err := warnstore.NewRedisWarnStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis warnstore: %w", err)
		}
		warnings = ws
		logger.Info("using redis stores", "url", config.RedisURL)
	} else {
		trust = truststore.NewMemTrustStore()
		warnings = warnstore.NewMemWarnStore()
		logger.Info("using in-memory stores")
	}

	platform := telegram.NewClient(logger, config.BotToken)

	var limiter *rate.Limiter
	if config.PlatformRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.PlatformRateLimit), 1)
	}
	engine := &moderation.Engine{
		Logger:               logger,
		Platform:             platform,
		Targets:              registry,
		Health:               moderation.NewPlatformHealthGate(logger, platform, 4096, 2*time.Minute),
		Trust:                trust,
		Warnings:             warnings,
		CrossChatConcurrency: config.CrossChatConcurrency,
		PlatformLimiter:      limiter,
	}

	fetcher := refetch.NewFetcher(logger, &refetch.FetcherOptions{
		Capacity: config.RefetchCapacity,
		Workers:  config.RefetchWorkers,
	})
	fetchClient := refetch.NewClient(logger, config.PlatformFileAPI, diskBlobStore{
		dir:    filepath.Join(filepath.Dir(config.DatabaseURL), "blobs"),
		logger: logger,
	})
	fetcher.HandleContentFetch = fetchClient.FetchContent
	fetcher.HandleProfileImageFetch = fetchClient.FetchProfileImage

	scorer := &detect.Aggregator{
		Logger:           logger,
		Timeout:          config.DetectorTimeout,
		AutoBanThreshold: config.AutoBanThreshold,
		ReviewThreshold:  config.ReviewThreshold,
		TrainingMode:     config.TrainingMode,
	}
	var stopWords []string
	if config.DetectorConfigJSON != "" {
		dcfg, err := detect.LoadConfigJSON(config.DetectorConfigJSON)
		if err != nil {
			return nil, fmt.Errorf("loading detector config: %w", err)
		}
		scorer.Weights = dcfg.Weights
		stopWords = dcfg.StopWords
		if dcfg.AutoBanThreshold != 0 {
			scorer.AutoBanThreshold = dcfg.AutoBanThreshold
		}
		if dcfg.ReviewThreshold != 0 {
			scorer.ReviewThreshold = dcfg.ReviewThreshold
		}
		if dcfg.TrainingMode {
			scorer.TrainingMode = true
		}
		logger.Info("loaded detector config from JSON", "path", config.DetectorConfigJSON)
	}
	scorer.Detectors = []detect.Detector{
		detect.GtubeDetector{},
		detect.NewKeywordDetector(stopWords),
		detect.LinkFloodDetector{},
		detect.MentionFloodDetector{},
	}

	dispatcher := moderation.NewDispatcher(logger,
		moderation.AuditHandler(audit),
		moderation.EscalationHandler(warnings, config.WarnBanThreshold),
		moderation.NotifierHandler(platform, config.AdminChatID),
		moderation.RefetchHandler(fetcher),
	)

	processor := &moderation.Processor{
		Logger:     logger,
		Engine:     engine,
		Scorer:     scorer,
		Dispatcher: dispatcher,
		Fetcher:    fetcher,
	}

	return &Server{
		logger:    logger,
		processor: processor,
		fetcher:   fetcher,
		db:        db,
	}, nil
}

// Stores fetched payloads under the data directory.
type diskBlobStore struct {
	dir    string
	logger *slog.Logger
}

func (s diskBlobStore) Put(ctx context.Context, req refetch.Request, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	name := fmt.Sprintf("%s_%d_%s", req.Kind, req.TargetID, req.SubKind)
	return os.WriteFile(filepath.Join(s.dir, name), data, 0644)
}

// RunFetchers starts the background fetch worker pool and blocks until ctx
// is cancelled.
func (s *Server) RunFetchers(ctx context.Context) {
	s.fetcher.Run(ctx)
}

type scoreRequest struct {
	ChatID    int64  `json:"chat_id"`
	UserID    int64  `json:"user_id"`
	MessageID int64  `json:"message_id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
}

type scoreResponse struct {
	Decision string             `json:"decision"`
	Score    float64            `json:"score"`
	Scores   map[string]float64 `json:"scores"`
	Action   *moderation.Result `json:"action,omitempty"`
}

type actionRequest struct {
	Kind         string `json:"kind"`
	UserID       int64  `json:"user_id"`
	ActorID      int64  `json:"actor_id"`
	ActorName    string `json:"actor_name"`
	Reason       string `json:"reason"`
	ChatID       int64  `json:"chat_id"`
	MessageID    int64  `json:"message_id"`
	DurationSec  int64  `json:"duration_sec"`
	RestoreTrust bool   `json:"restore_trust"`
}

// RunAPI starts the admin HTTP API and blocks.
func (s *Server) RunAPI(listen string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(s.logger))
	e.Use(middleware.Recover())

	e.GET("/_health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.POST("/admin/score", func(c echo.Context) error {
		var req scoreRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		verdict, action, err := s.processor.ProcessMessage(c.Request().Context(), &detect.Message{
			ChatID:    req.ChatID,
			UserID:    req.UserID,
			MessageID: req.MessageID,
			Username:  req.Username,
			Text:      req.Text,
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, scoreResponse{
			Decision: string(verdict.Decision),
			Score:    verdict.Score,
			Scores:   verdict.Scores,
			Action:   action,
		})
	})

	e.POST("/admin/action", func(c echo.Context) error {
		var req actionRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		actor := moderation.WebActor(req.ActorID, req.ActorName)
		if req.ActorID == 0 && req.ActorName == "" {
			actor = moderation.SystemActor()
		}
		intent := moderation.Intent{
			Kind:         moderation.ActionKind(req.Kind),
			UserID:       req.UserID,
			Actor:        actor,
			Reason:       req.Reason,
			ChatID:       req.ChatID,
			MessageID:    req.MessageID,
			Duration:     time.Duration(req.DurationSec) * time.Second,
			RestoreTrust: req.RestoreTrust,
		}
		res := s.processor.ExecuteIntent(c.Request().Context(), intent)
		status := http.StatusOK
		if !res.Success {
			status = http.StatusUnprocessableEntity
		}
		return c.JSON(status, res)
	})

	s.echo = e
	s.logger.Info("starting admin API", "listen", listen)
	return e.Start(listen)
}

// RunMetrics starts the prometheus endpoint and blocks.
func (s *Server) RunMetrics(listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	s.logger.Info("starting metrics endpoint", "listen", listen)
	return http.ListenAndServe(listen, mux)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.echo != nil {
		return s.echo.Shutdown(ctx)
	}
	return nil
}
