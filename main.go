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
	"time"

	"smart-task-list/internal/cache"
	"smart-task-list/internal/config"
	"smart-task-list/internal/database"
	"smart-task-list/internal/gateway"
	"smart-task-list/internal/middleware"
	"smart-task-list/internal/monitoring"
	"smart-task-list/internal/notify"
	"smart-task-list/internal/reminder"
	"smart-task-list/internal/repositories"
	"smart-task-list/internal/services"
	"smart-task-list/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"
)

type app struct {
	cfg           *config.Config
	router        *gin.Engine
	kv            repositories.KeyValueStore
	pool          *database.DatabasePool
	redis         *redis.Client
	worker        *worker.Worker
	limiter       *middleware.RateLimiter
	center        *notify.Center
	prefs         *notify.Preferences
	store         *services.TaskStore
	notifications *services.NotificationService
	reminders     *reminder.Scheduler
	gateway       *gateway.Gateway
	stop          chan struct{}
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, stop: make(chan struct{})}

	if err := a.openStorage(); err != nil {
		return nil, err
	}
	a.connectRedis()

	a.center = notify.NewCenter(notify.NewClients())
	var notifier notify.Notifier = a.center
	var responses cache.CacheStorage = cache.NewMemoryStorage()

	if a.redis != nil {
		a.worker = worker.NewWorker(worker.WorkerConfig{
			RedisClient:  a.redis,
			PollInterval: cfg.Worker.PollInterval,
			Queues:       cfg.Worker.Queues,
		})
		a.worker.RegisterHandler(worker.JobTypeShowNotification, notify.DisplayHandler(a.center))
		notifier = notify.NewQueueNotifier(worker.NewJobQueue(a.redis))

		redisStorage := cache.NewRedisStorage(a.redis)
		responses = cache.NewTieredStorage(redisStorage)
		monitoring.RegisterHealthCheck("redis", redisStorage.Health)
	}

	a.prefs = notify.NewPreferences(a.kv, true)
	a.store = services.NewTaskStore(a.kv, services.WithNotifier(notifier, a.prefs))
	a.reminders = reminder.NewScheduler(a.store, a.prefs, notifier)
	a.notifications = services.NewNotificationService(a.prefs, a.reminders, notify.NewSubscriptions(), notifier)

	gw, err := gateway.New(gateway.Config{
		Version:        cfg.Gateway.CacheVersion,
		UpstreamOrigin: cfg.Gateway.UpstreamOrigin,
		StaticAssets:   cfg.Gateway.StaticAssets,
		Breaker: &cache.CircuitBreakerConfig{
			MaxFailures:      cfg.Gateway.BreakerFailures,
			Timeout:          cfg.Gateway.BreakerTimeout,
			HalfOpenMaxCalls: cfg.Gateway.BreakerHalfOpen,
		},
	}, responses, a.center,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.Gateway.UpstreamTimeout}),
		gateway.WithNotifier(notifier),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.gateway = gw

	if cfg.RateLimit.Enabled {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimit)
	}

	a.router = a.setupRouter()
	return a, nil
}

func (a *app) openStorage() error {
	if a.cfg.Database.Driver == "memory" {
		a.kv = repositories.NewMemoryKeyValueStore()
		return nil
	}

	level := logger.Warn
	if a.cfg.IsProduction() {
		level = logger.Error
	}

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:          a.cfg.Database.Driver,
		DSN:             a.cfg.GetDatabaseDSN(),
		MaxOpenConns:    a.cfg.Database.MaxOpenConns,
		MaxIdleConns:    a.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: a.cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: a.cfg.Database.ConnMaxIdleTime,
		LogLevel:        level,
	})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	kv, err := repositories.NewGormKeyValueStore(pool.DB)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to prepare storage: %w", err)
	}

	a.pool = pool
	a.kv = kv
	monitoring.RegisterHealthCheck("storage", func(context.Context) error { return pool.Health() })
	return nil
}

// connectRedis leaves a.redis nil when redis is disabled or unreachable; the
// app then keeps its caches and notification queue in process.
func (a *app) connectRedis() {
	if !a.cfg.Redis.Enabled {
		return
	}

	client := cache.NewRedisClient(&cache.CacheConfig{
		Addr:         a.cfg.GetRedisAddr(),
		Password:     a.cfg.Redis.Password,
		DB:           a.cfg.Redis.DB,
		PoolSize:     a.cfg.Redis.PoolSize,
		MinIdleConns: a.cfg.Redis.MinIdleConns,
		MaxRetries:   a.cfg.Redis.MaxRetries,
		DialTimeout:  a.cfg.Redis.DialTimeout,
		ReadTimeout:  a.cfg.Redis.ReadTimeout,
		WriteTimeout: a.cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Redis.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unavailable at %s, using in-process cache: %v", a.cfg.GetRedisAddr(), err)
		client.Close()
		return
	}

	log.Printf("Connected to redis at %s", a.cfg.GetRedisAddr())
	a.redis = client
}

// start loads state, seeds and activates the offline cache and arms the
// reminder if the user opted in. Only a failed install is fatal.
func (a *app) start(ctx context.Context) error {
	a.store.Load(ctx)
	log.Printf("Loaded %d tasks (%s)", len(a.store.Snapshot()), a.store.CountLabel())

	if a.cfg.Gateway.InstallOnStartup {
		if err := a.gateway.Install(ctx); err != nil {
			return err
		}
		if err := a.gateway.Activate(ctx); err != nil {
			return err
		}
	}

	a.reminders.Arm(ctx)

	if a.worker != nil {
		a.worker.Start(a.cfg.Worker.Concurrency)
	}
	if a.limiter != nil {
		go a.limiter.Run(a.stop)
	}
	return nil
}

func (a *app) Close() {
	select {
	case <-a.stop:
		return
	default:
		close(a.stop)
	}

	if a.reminders != nil {
		a.reminders.Disarm()
	}
	if a.worker != nil {
		a.worker.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Printf("Failed to close redis: %v", err)
		}
	}
	if a.kv != nil {
		a.kv.Close()
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	if err := a.start(ctx); err != nil {
		a.Close()
		log.Fatalf("Failed to start: %v", err)
	}

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Smart task list listening on %s (upstream %s)", cfg.GetServerAddr(), cfg.Gateway.UpstreamOrigin)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
