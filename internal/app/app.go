package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "dealdesk/docs"
	"dealdesk/internal/config"
	"dealdesk/internal/handlers"
	"dealdesk/internal/metrics"
	"dealdesk/internal/middleware"
	"dealdesk/internal/pdf"
	"dealdesk/internal/repositories"
	"dealdesk/internal/repositories/memory"
	"dealdesk/internal/routes"
	"dealdesk/internal/services"
)

// Storage bundles the repositories of one backend plus its health check.
type Storage struct {
	Pipelines repositories.PipelineRepository
	Deals     repositories.DealRepository
	Ping      func(ctx context.Context) error
	Close     func() error
}

func Run() {
	cfg := config.LoadConfig()
	logger := NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := OpenStorage(ctx, cfg)
	if err != nil {
		logger.Fatalf("[app] open storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Printf("[app] close storage: %v", err)
		}
	}()

	router := NewRouter(cfg, logger, store, prometheus.NewRegistry())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Printf("[app] listening on %s (driver=%s)", srv.Addr, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("[app] server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("[app] shutdown: %v", err)
	}
}

// NewLogger configures the standard logrus logger from cfg and returns it.
func NewLogger(cfg *config.Config) *log.Logger {
	logger := log.StandardLogger()
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warnf("[app] unknown log level %q, using info", cfg.Log.Level)
		logger.SetLevel(log.InfoLevel)
	}
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		return &Storage{
			Pipelines: store.Pipelines(),
			Deals:     store.Deals(),
			Ping:      func(context.Context) error { return nil },
			Close:     func() error { return nil },
		}, nil
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if cfg.Database.Migrate {
			if err := repositories.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
			log.Printf("[app] schema applied")
		}
		return &Storage{
			Pipelines: repositories.NewPipelineRepository(db),
			Deals:     repositories.NewDealRepository(db),
			Ping:      db.PingContext,
			Close:     db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// NewRouter wires services, handlers and the public endpoints onto a gin engine.
func NewRouter(cfg *config.Config, logger *log.Logger, store *Storage, reg *prometheus.Registry) *gin.Engine {
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	pipelineService := services.NewPipelineService(store.Pipelines)
	dealService := services.NewDealService(store.Deals, store.Pipelines, services.WithMetrics(m))
	analyticsService := services.NewAnalyticsService(store.Deals, store.Pipelines, services.WithMetrics(m))

	pipelineHandler := handlers.NewPipelineHandler(pipelineService, analyticsService, pdf.NewReportGenerator(cfg.Reports.FontPath))
	dealHandler := handlers.NewDealHandler(dealService)

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(m.GinMiddleware())
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logger.Warnf("[app][health] storage ping failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, []byte(cfg.Auth.JWTSecret), pipelineHandler, dealHandler)
	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
