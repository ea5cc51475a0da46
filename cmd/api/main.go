package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "storecore/api/swagger" // swagger docs
	"storecore/internal/config"
	"storecore/internal/database"
	"storecore/internal/events"
	"storecore/internal/handler"
	"storecore/internal/logging"
	"storecore/internal/middleware"
	"storecore/internal/repository"
	"storecore/internal/service"
	"storecore/internal/tracing"
	"storecore/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// @title           Storecore API
// @version         1.0
// @description     Order finalization: numbering, tax, shipping and stock deduction.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		log.Fatalf("Config failed: %v", err)
	}

	logger, err := logging.NewLogger(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Logger failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracerProvider(cfg.ServiceName, cfg.JaegerEndpoint, logger)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}

	db, err := database.NewConnection(cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("connected to postgres", zap.String("host", cfg.Postgres.Host))

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run(ctx)

	sinks := []events.Sink{{Name: "websocket", Stock: wsHub, Order: wsHub}}
	var publisher *events.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.StockTopic, cfg.Kafka.OrderTopic, cfg.ServiceName, logger)
		sinks = append(sinks, events.Sink{Name: "kafka", Stock: publisher, Order: publisher})
		logger.Info("kafka publishing enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}
	notifier := events.NewFanout(sinks...)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	ledgerRepo := repository.NewInventoryTxRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	shopRepo := repository.NewShopRepository(db)
	zoneRepo := repository.NewTaxZoneRepository(db)
	methodRepo := repository.NewShippingMethodRepository(db)

	sequenceService := service.NewSequenceService(sequenceRepo, txManager, logger, service.SequenceOptions{
		MaxAttempts: cfg.Sequence.MaxAttempts,
		Backoff:     cfg.Sequence.Backoff,
	})
	// Persisted order totals always use live rates; only checkout previews go through the cache.
	taxService := service.NewTaxService(shopRepo, zoneRepo)
	checkoutTax := taxService
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		checkoutTax = service.NewCachedTaxService(taxService, service.NewRedisPreviewStore(rdb), cfg.Redis.TaxPreview, logger)
		logger.Info("tax preview cache enabled", zap.String("addr", cfg.Redis.Addr))
	}
	shippingService := service.NewShippingService(methodRepo)
	auditService := service.NewAuditService(auditRepo)
	inventoryService := service.NewInventoryService(orderRepo, productRepo, ledgerRepo, auditRepo, txManager, notifier, logger)
	orderService := service.NewOrderService(
		orderRepo, auditRepo, txManager, sequenceService, inventoryService,
		taxService, shippingService, notifier, logger,
		service.OrderOptions{
			NumberSequence: cfg.Sequence.OrderName,
			NumberPrefix:   cfg.Sequence.OrderPrefix,
			NumberInitial:  cfg.Sequence.OrderInitial,
			NumberPadding:  cfg.Sequence.OrderPadding,
			MaxAttempts:    cfg.Sequence.MaxAttempts,
			Backoff:        cfg.Sequence.Backoff,
		},
	)
	invoiceService := service.NewInvoiceService(invoiceRepo, orderRepo, auditRepo, txManager, sequenceService, logger, service.InvoiceOptions{
		Padding:     cfg.Sequence.InvoicePadding,
		MaxAttempts: cfg.Sequence.MaxAttempts,
		Backoff:     cfg.Sequence.Backoff,
	})

	// Initialize Handlers
	auth := middleware.NewAuth(cfg.JWTSecret)
	checkoutHandler := handler.NewCheckoutHandler(checkoutTax, shippingService)
	orderHandler := handler.NewOrderHandler(orderService, inventoryService, invoiceService, auth)
	sequenceHandler := handler.NewSequenceHandler(sequenceService, auditService, auth)
	auditHandler := handler.NewAuditHandler(auditService, auth)

	if err := middleware.RegisterValidators(); err != nil {
		logger.Fatal("validator registration failed", zap.Error(err))
	}

	// Set up Gin Router
	gin.SetMode(cfg.HTTP.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, auth.Secret(), middleware.RoleAdmin, middleware.RoleStaff)
	})

	// API Routing
	checkoutHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	sequenceHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           otelhttp.NewHandler(router, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Warn("kafka writer close failed", zap.Error(err))
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	shutdownTracing(shutdownCtx)
}
