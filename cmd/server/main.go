package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fest-ticketing/config"
	"fest-ticketing/internal/auth"
	"fest-ticketing/internal/cache"
	"fest-ticketing/internal/database"
	"fest-ticketing/internal/handler"
	"fest-ticketing/internal/mailer"
	"fest-ticketing/internal/queue"
	"fest-ticketing/internal/repository"
	"fest-ticketing/internal/service"
	"fest-ticketing/internal/worker"
	"fest-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	defer logger.Sync()
	log := logger.WithComponent("main")

	cfg := config.LoadConfig()
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("Failed to apply schema", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	// 快取與限流
	var eventCache cache.EventCache = cache.NoopEventCache{}
	if cfg.Cache.Enabled {
		eventCache = cache.NewRedisEventCache(rdb, cfg.Cache.Prefix, cfg.Cache.TTL)
	}
	var limiter cache.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = cache.NewRedisTokenBucket(rdb, cfg.RateLimit.Prefix, cfg.RateLimit.Capacity, cfg.RateLimit.RefillInterval)
	}

	// 出票通知：queue → worker → mailer
	ticketQueue, err := queue.New(ctx, cfg.Queue, rdb)
	if err != nil {
		log.Fatal("Failed to initialize ticket queue", zap.Error(err), zap.String("driver", cfg.Queue.Driver))
	}
	defer ticketQueue.Close()

	notifier := mailer.NewTicketNotifier(mailer.New(cfg.Mailer))
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	workerDone, err := worker.NewTicketWorker(notifier, ticketQueue).Start(workerCtx)
	if err != nil {
		log.Fatal("Failed to start ticket worker", zap.Error(err))
	}

	tx := database.NewTransactor(pool)
	users := repository.NewUserRepository(pool)
	events := repository.NewEventRepository(pool)
	registrations := repository.NewRegistrationRepository(pool)

	services := handler.Services{
		Auth: service.NewAuthService(users,
			auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
			auth.NewBcryptHasher(cfg.Auth.BcryptCost),
			cfg.Auth.AdminEmails),
		Events:       service.NewEventService(tx, events, registrations, eventCache),
		Registration: service.NewRegistrationService(tx, events, registrations, users, ticketQueue, nil),
		Stats:        service.NewStatsService(repository.NewStatsRepository(pool)),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler.NewRouter(services, limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	// HTTP 停止後再停 worker；memory queue 會先把 buffer 內的通知交給 worker 送完才關閉
	cancelWorker()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("Ticket worker did not stop in time")
	}
}
