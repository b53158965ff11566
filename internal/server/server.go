package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/forensight/forensight/config"
	"github.com/forensight/forensight/internal/extract"
	"github.com/forensight/forensight/internal/forensics"
	"github.com/forensight/forensight/internal/index"
	"github.com/forensight/forensight/internal/media"
	"github.com/forensight/forensight/internal/progress"
	"github.com/forensight/forensight/internal/runtime"
	"github.com/forensight/forensight/internal/storage"
	"github.com/forensight/forensight/internal/store"
	"github.com/forensight/forensight/internal/telemetry"
	"github.com/forensight/forensight/provider/assemblyai"
	"github.com/forensight/forensight/provider/gemini"
	"github.com/forensight/forensight/provider/ledger"
	"github.com/forensight/forensight/provider/realitydefender"
)

// Run wires the full verification service and serves it until the listener
// stops.
func Run(cfg *config.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))
	if cfg.Server.MaxUploadMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxUploadMB)))
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })

	ctx := context.Background()

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := Migrate(cfg.Server.MigrationsDir, dsn, "up", 0); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	// A nil Telemetry is a no-op throughout the pipeline.
	var tele *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		tele = telemetry.New()
		e.GET("/metrics", echo.WrapHandler(tele.Handler()))
	}

	uploads, err := storage.NewUploads(cfg.Storage.Uploads.Dir, cfg.Storage.Uploads.Retention,
		log.New(log.Writer(), "[UPLOADS] ", log.LstdFlags))
	if err != nil {
		return err
	}
	go func() {
		if err := uploads.RunSweeper(ctx, cfg.Storage.Uploads.SweepSpec); err != nil && ctx.Err() == nil {
			baseLogger.Printf("upload sweeper stopped: %v", err)
		}
	}()
	e.Static("/uploads", cfg.Storage.Uploads.Dir)

	idx, err := index.Open(cfg.Storage.Index.Path)
	if err != nil {
		return err
	}

	// Progress tracking is optional; the service runs without Redis.
	var tracker *progress.Tracker
	if cfg.Storage.Redis.Host != "" {
		rdb, err := progress.Conn(ctx, cfg.Storage.Redis)
		if err != nil {
			return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
		}
		tracker = progress.NewTracker(rdb, 0)
	}

	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	deps := forensics.Deps{
		Detector:    realitydefender.New(cfg.Providers.Deepfake),
		Transcriber: assemblyai.New(cfg.Providers.Transcription),
		LLM:         gemini.New(cfg.Providers.LLM),
		Ledger:      ledger.New(cfg.Providers.Ledger),
		Sampler:     media.NewFFmpegSampler(),
		Extract:     extract.Text,
		Store:       st,
		Index:       idx,
		Telemetry:   tele,
	}
	if tracker != nil {
		deps.Progress = tracker
	}
	orch, err := forensics.NewOrchestrator(cfg, orchLogger, deps)
	if err != nil {
		return err
	}

	api := e.Group("/api")

	secret, err := runtime.LoadJWTSecret(cfg)
	if cfg.Server.AuthEnabled {
		if err != nil {
			return err
		}
		auth := &AuthHandler{Store: st, Secret: secret}
		auth.Register(api.Group("/auth"))

		me := api.Group("/me")
		me.Use(runtime.EchoAuthMiddleware(secret))
		me.GET("", func(c echo.Context) error {
			return c.JSON(200, MeResponse{UserID: c.Get("user_id").(string)})
		})
	}

	vh := &VerifyHandler{
		Orch:    orch,
		Uploads: uploads,
		Tracker: tracker,
		Store:   st,
		Index:   idx,
		Logger:  baseLogger,
	}
	verifyGroup := api.Group("")
	if cfg.Server.AuthEnabled {
		verifyGroup.Use(runtime.EchoAuthMiddleware(secret))
	}
	vh.Register(verifyGroup)

	if addr == "" {
		addr = cfg.Server.Address
		if addr == "" {
			addr = ":8000"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
