package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/internal/catalog"
	"storefront-service/internal/handler"
	mid "storefront-service/internal/middleware"
	"storefront-service/internal/model"
	"storefront-service/internal/repository"
	"storefront-service/internal/stock"
	"storefront-service/pkg/config"
	"storefront-service/pkg/database"
	"storefront-service/pkg/jwtutil"
	"storefront-service/pkg/logger"
	"storefront-service/pkg/notify"
	metrics "storefront-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const serviceName = "storefront-service"

// stores bundles the backends the handlers run against
type stores struct {
	products  repository.ProductRepository
	orders    repository.OrderRepository
	reviews   repository.ReviewRepository
	documents repository.DocumentRepository
	checks    map[string]repository.Pinger
}

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("Starting storefront service...", cfg.LogFields()...)

	ctx := context.Background()

	var st stores
	var mongoClient *mongo.Client
	switch cfg.Store.Driver {
	case "memory":
		mem := repository.NewMemoryStore()
		st = stores{products: mem, orders: mem, reviews: mem, documents: mem,
			checks: map[string]repository.Pinger{"store": mem}}
		log.Warn("Using in-memory store; data is lost on restart")
	default:
		mongoClient, err = database.NewMongoConnection(ctx, &cfg.Mongo, log)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		db := mongoClient.Database(cfg.Mongo.DBName)
		st = stores{
			products:  repository.NewMongoProductStore(db),
			orders:    repository.NewMongoOrderStore(db),
			reviews:   repository.NewMongoReviewStore(db),
			documents: repository.NewMongoDocumentStore(db),
			checks:    map[string]repository.Pinger{"mongo": repository.NewMongoHealth(mongoClient)},
		}
		log.Info("MongoDB connection established", zap.String("db_name", cfg.Mongo.DBName))
	}

	// the ledger stays a nil interface when disabled
	var ledger repository.Ledger
	switch {
	case cfg.Ledger.Enabled:
		gdb, err := database.InitPostgres(&cfg.DB, &model.StockMovement{})
		if err != nil {
			log.Fatal("Failed to initialize stock ledger", zap.Error(err))
		}
		gl := repository.NewGormLedger(gdb)
		ledger = gl
		st.checks["ledger"] = gl
		log.Info("Stock ledger connected", zap.String("db_host", cfg.DB.Host), zap.String("db_name", cfg.DB.DBName))
	case cfg.Store.Driver == "memory":
		ledger = repository.NewMemoryLedger()
	}

	m := metrics.NewMetrics(cfg.Metrics.Prefix, promclient.DefaultRegisterer)
	log.Info("Prometheus metrics initialized", zap.String("metrics_prefix", cfg.Metrics.Prefix))

	notifier := notify.Multi{
		notify.NewEmailNotifier(&cfg.Mail),
		notify.NewWhatsAppNotifier(&cfg.WhatsApp),
	}

	opts := []stock.Option{
		stock.WithRecorder(m),
		stock.WithLowStockAlerts(notifier, cfg.Stock.LowStockThreshold),
	}
	if ledger != nil {
		opts = append(opts, stock.WithLedger(ledger))
	}
	stockService := stock.NewService(st.products, opts...)
	catalogService := catalog.NewService(st.products, st.reviews, ledger, m)

	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})

	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.Server.CORSAllowOrigins}))
	e.Use(mid.RequestIDMiddleware())
	e.Use(logger.Middleware(log))
	e.Use(m.Middleware())

	handler.RegisterRoutes(e, &handler.Handlers{
		Health:   handler.NewHealthHandler(cfg.ServiceName, st.checks),
		Products: handler.NewProductHandler(st.products, stockService),
		Orders:   handler.NewOrderHandler(st.orders, stockService, notifier),
		Data:     handler.NewDataHandler(st.documents),
		Admin:    handler.NewAdminHandler(catalogService, ledger),
	}, m.Handler(), mid.JWTAuthMiddleware(jwtUtil), mid.RequireRole("admin"))

	go func() {
		port := cfg.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			log.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}
}
