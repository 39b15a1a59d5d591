package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"taskboard/backend/internal/config"
	"taskboard/backend/internal/database"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/monitoring"
	"taskboard/backend/internal/routes"
	"taskboard/backend/internal/services"
	"taskboard/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"
)

// app holds everything that has to be torn down on shutdown.
type app struct {
	cfg     *config.Config
	pool    *database.DatabasePool
	redis   *redis.Client
	worker  *worker.Worker
	limiter *middleware.RateLimiter
	router  *gin.Engine
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.serve(ctx); err != nil {
		log.Printf("Server error: %v", err)
	}
}

func newApp(cfg *config.Config) (*app, error) {
	poolConfig := &database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        logger.Info,
	}
	if cfg.IsProduction() {
		poolConfig.LogLevel = logger.Warn
	}

	pool, err := database.NewDatabasePool(poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Printf("Connected to %s database", cfg.Database.Driver)

	a := &app{cfg: cfg, pool: pool}

	var notifier services.Notifier = services.NopNotifier{}
	stats := map[string]monitoring.StatsFunc{}

	if cfg.Redis.Enabled {
		a.redis = newRedisClient(cfg)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
		err := a.redis.Ping(ctx).Err()
		cancel()
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		publisher := worker.NewNotificationPublisher(worker.NewJobQueue(a.redis), nil, cfg.Worker.Queue)
		notifier = publisher
		stats["notifications"] = publisher.Stats

		a.worker = worker.NewWorker(worker.WorkerConfig{
			RedisClient: a.redis,
			Queue:       cfg.Worker.Queue,
			PollTimeout: cfg.Worker.PollInterval,
		})
		a.worker.RegisterHandler(worker.JobTypeNotificationDelivery, worker.DeliverNotifications(pool.DB))
		a.worker.Start(cfg.Worker.Concurrency)
	}

	if cfg.RateLimit.Enabled {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval)
		a.limiter.StartCleanup(cfg.RateLimit.CleanupInterval)
	}

	a.router = routes.SetupRouter(routes.Dependencies{
		Config:   cfg,
		Pool:     pool,
		Notifier: notifier,
		Limiter:  a.limiter,
		Stats:    stats,
	})

	return a, nil
}

func newRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:                  cfg.GetRedisAddr(),
		Password:              cfg.Redis.Password,
		DB:                    cfg.Redis.DB,
		PoolSize:              cfg.Redis.PoolSize,
		MinIdleConns:          cfg.Redis.MinIdleConns,
		MaxRetries:            cfg.Redis.MaxRetries,
		DialTimeout:           cfg.Redis.DialTimeout,
		ReadTimeout:           cfg.Redis.ReadTimeout,
		WriteTimeout:          cfg.Redis.WriteTimeout,
		ContextTimeoutEnabled: true,
	})
}

// serve runs the HTTP server until ctx is cancelled, then drains it.
func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.cfg.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("Server exited")
	return nil
}

func (a *app) close() {
	if a.worker != nil {
		a.worker.Stop()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Printf("Failed to close redis client: %v", err)
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			log.Printf("Failed to close database pool: %v", err)
		}
	}
}
