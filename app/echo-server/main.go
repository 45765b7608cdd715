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

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	storemetrics "myGreenMarketPersonalization/app/echo-server/metrics"
	"myGreenMarketPersonalization/app/echo-server/router"
	"myGreenMarketPersonalization/business/personalization"
	"myGreenMarketPersonalization/internal/middleware"
	badgerRepo "myGreenMarketPersonalization/internal/repository/badger"
	psqlRepo "myGreenMarketPersonalization/internal/repository/postgres"
	redisRepo "myGreenMarketPersonalization/internal/repository/redis"
	"myGreenMarketPersonalization/internal/rest"
	"myGreenMarketPersonalization/pkg/config"
	"myGreenMarketPersonalization/pkg/database"
	redisClient "myGreenMarketPersonalization/pkg/database/redis"
	"myGreenMarketPersonalization/pkg/logger"
	"myGreenMarketPersonalization/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting MyGreenMarket Personalization", "version", cfg.App.Version, "store_driver", cfg.Store.Driver)

	metrics.Init()
	storemetrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer func() {
		if err := database.ClosePostgres(db); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	logger.Info("Database connected successfully")

	blobs, closeStore, err := openBlobStore(cfg, db)
	if err != nil {
		logger.Fatal("Failed to open personalization store", "driver", cfg.Store.Driver, "error", err)
	}
	defer closeStore()

	// Init repo
	productsRepo := psqlRepo.NewProductRepository(db)
	purchasesRepo := psqlRepo.NewPurchaseHistoryRepository(db)

	// Init service
	personalizationService := personalization.NewPersonalizationService(
		storemetrics.InstrumentBlobStore(blobs, cfg.Store.Driver),
		productsRepo,
		purchasesRepo,
		personalizationConfig(cfg.Personalization),
	)

	// Init handler
	personalizationHandler := rest.NewPersonalizationHandler(personalizationService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.TraceID())
	e.Use(metrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	// Auth middleware
	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey)

	// Setup routes
	api := e.Group("/api/v1")
	router.SetPersonalizationRoutes(api, personalizationHandler, authRequired)

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

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}

// openBlobStore picks the personalization store; the returned func releases it.
func openBlobStore(cfg *config.Config, db *gorm.DB) (personalization.BlobStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		client, err := redisClient.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := redisClient.CloseRedisClient(client); err != nil {
				logger.Error("Failed to close redis", "error", err)
			}
		}
		return redisRepo.NewBlobStore(client, cfg.Redis.BlobTTL), closeFn, nil

	case config.StoreDriverPostgres:
		store := psqlRepo.NewBlobStore(db)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	default:
		bdb, err := database.OpenBadger(cfg.Badger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := database.CloseBadger(bdb); err != nil {
				logger.Error("Failed to close badger", "error", err)
			}
		}
		return badgerRepo.NewBlobStore(bdb), closeFn, nil
	}
}

func personalizationConfig(p config.PersonalizationConfig) personalization.Config {
	cfg := personalization.DefaultConfig()
	cfg.EventCapacity = p.EventCapacity
	cfg.RecentViewWindow = p.RecentViewWindow
	cfg.CategoryRankDepth = p.CategoryRankDepth
	cfg.Weights = personalization.Weights{
		Category: p.WeightCategory,
		View:     p.WeightView,
		Feedback: p.WeightFeedback,
	}
	cfg.FeedbackPropagation = p.FeedbackPropagation
	cfg.ConfidenceThreshold = p.ConfidenceThreshold
	cfg.DefaultSettings.MaxSections = p.MaxSections
	cfg.DefaultSettings.MaxItemsPerSection = p.MaxItemsPerSection
	return cfg
}
