package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freshMarket/app/echo-server/router"
	"freshMarket/business/diversity"
	"freshMarket/business/exploration"
	"freshMarket/business/freqcap"
	"freshMarket/business/intervention"
	"freshMarket/business/ranker"
	"freshMarket/business/recall"
	"freshMarket/business/session"
	"freshMarket/internal/middleware"
	psqlRepo "freshMarket/internal/repository/postgres"
	redisRepo "freshMarket/internal/repository/redis"
	"freshMarket/internal/rest"
	"freshMarket/pkg/config"
	"freshMarket/pkg/database"
	redisdb "freshMarket/pkg/database/redis"
	"freshMarket/pkg/logger"
	"freshMarket/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting FreshMarket Reco", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}
	defer func() {
		if err := redisdb.CloseRedisClient(redisClient); err != nil {
			logger.Error("Failed to close Redis client", "error", err)
		}
	}()

	metrics.Init()

	// Init repo
	candidateRepo := psqlRepo.NewCandidateRepository(db)
	profileRepo := psqlRepo.NewUserProfileRepository(db)
	banditRepo := redisRepo.NewBanditStateRepository(redisClient)
	frequencyRepo := redisRepo.NewFrequencyRepository(redisClient)
	sessionRepo := redisRepo.NewSessionRepository(redisClient)

	// Init pipeline stages
	weights := recall.NewWeightTable(recall.DefaultWeights())
	fanout := recall.NewFanout(recall.DefaultStrategies(candidateRepo), cfg.Reco.RecallTimeout)
	scorer := intervention.NewScorer(candidateRepo)

	mmrCfg := diversity.DefaultConfig()
	mmrCfg.Lambda = cfg.Reco.MMRLambda
	mmrCfg.MaxMerchantRatio = cfg.Reco.MaxMerchantRatio
	reranker := diversity.NewReranker(mmrCfg)

	caps := freqcap.NewFilter(frequencyRepo, cfg.Reco.FreqCapDaily, cfg.Reco.FreqCapWeekly)

	rateCfg := exploration.DefaultRateConfig()
	rateCfg.UCBAlpha = cfg.Reco.ExplorationAlpha
	explorer := exploration.NewEngine(banditRepo, profileRepo, rateCfg)

	sessions := session.NewService(sessionRepo, cfg.Reco.SessionDecayPerMinute)

	// Init service
	recoService := ranker.NewRecoService(
		fanout,
		weights,
		candidateRepo,
		scorer,
		reranker,
		caps,
		explorer,
		sessions,
		profileRepo,
		ranker.Config{
			SessionWeight: cfg.Reco.SessionWeight,
			ExploreBlend:  cfg.Reco.ExploreBlend,
			DefaultLimit:  cfg.Reco.DefaultLimit,
		},
	)

	// Init handler
	recoHandler := rest.NewRecoHandler(recoService)
	adminHandler := rest.NewRecoAdminHandler(weights, scorer, explorer)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceMiddleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-User-ID", "X-Trace-ID"},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetRecoRoutes(api, recoHandler)
	router.SetRecoAdminRoutes(api, adminHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
