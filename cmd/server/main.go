package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pollmarket/internal/auth"
	"pollmarket/internal/config"
	cronrunner "pollmarket/internal/cron"
	"pollmarket/internal/db"
	"pollmarket/internal/event"
	"pollmarket/internal/handler"
	"pollmarket/internal/ledger"
	"pollmarket/internal/logger"
	"pollmarket/internal/market"
	gormrepository "pollmarket/internal/repository/gorm"
	"pollmarket/internal/service"
	"pollmarket/internal/stream"
)

func main() {
	cfgPath := os.Getenv("POLL_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if raw := os.Getenv("POLL_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	if cfg.Market.Admin == "" {
		logger.Warn("market.admin not configured; only poll creators can resolve or cancel")
	}

	store := gormrepository.New(dbConn.Gorm)
	ledgerSvc := &ledger.Service{Logger: logger}
	engine := &market.Engine{Admin: cfg.Market.Admin}
	hub := stream.NewHub(logger)
	sink := event.MultiSink{
		&event.ZapSink{Logger: logger},
		&event.OutboxSink{DB: dbConn.Gorm, Logger: logger},
		hub,
	}

	marketSvc := &service.MarketService{
		Repo:   store,
		Ledger: ledgerSvc,
		Engine: engine,
		Events: sink,
		Logger: logger,
	}
	querySvc := &service.MarketQueryService{Repo: store}
	maintenanceSvc := &service.MaintenanceService{
		Repo:           store,
		Logger:         logger,
		EventRetention: cfg.Cron.EventRetention,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	verifier := &auth.Verifier{
		Secret:   []byte(cfg.Auth.Secret),
		Disabled: cfg.Auth.Disabled,
	}
	if !verifier.Disabled && len(verifier.Secret) == 0 {
		logger.Fatal("auth.secret required unless auth.disabled is set")
	}
	r.Use(verifier.Middleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(r)
	pollHandler := &handler.PollHandler{Market: marketSvc, Query: querySvc, Logger: logger}
	pollHandler.Register(r)
	voteHandler := &handler.VoteHandler{Market: marketSvc, Query: querySvc, Logger: logger}
	voteHandler.Register(r)
	vaultHandler := &handler.VaultHandler{Market: marketSvc, Query: querySvc}
	vaultHandler.Register(r)
	r.GET("/api/v1/stream", hub.Handle)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		runner := cronrunner.New(logger, ctx)
		if _, err := runner.Add(cfg.Cron.Snapshot, maintenanceSvc.SnapshotStats); err != nil {
			logger.Fatal("cron add snapshot failed", zap.Error(err))
		}
		if _, err := runner.Add(cfg.Cron.PruneEvents, maintenanceSvc.PruneEvents); err != nil {
			logger.Fatal("cron add prune failed", zap.Error(err))
		}
		runner.Start()
		defer runner.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
