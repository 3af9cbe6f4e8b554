// Saga Orchestrator — координирует распределённую транзакцию между
// складом, платёжным сервисом и сервисом заказов.
// Предоставляет HTTP ingress (start/cancel) и фоновый consumer очереди
// ответов участников.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"example.com/saga-orchestrator/internal/authclient"
	"example.com/saga-orchestrator/internal/bus"
	"example.com/saga-orchestrator/internal/coordinator"
	"example.com/saga-orchestrator/internal/ingress"
	"example.com/saga-orchestrator/internal/sagastore"
	"example.com/saga-orchestrator/internal/vocabulary"
	"example.com/saga-orchestrator/pkg/config"
	dbpkg "example.com/saga-orchestrator/pkg/db"
	"example.com/saga-orchestrator/pkg/healthcheck"
	"example.com/saga-orchestrator/pkg/logger"
	"example.com/saga-orchestrator/pkg/metrics"
	"example.com/saga-orchestrator/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Pretty: cfg.App.LogPretty,
	})
	log := logger.With().Str("service", "saga-orchestrator").Logger()
	log.Info().Str("env", cfg.App.Env).Msg("запуск оркестратора саги")

	shutdownTracing, err := tracing.InitTracer(tracing.Config{
		ServiceName:    "saga-orchestrator",
		JaegerEndpoint: cfg.Trace.OTLPEndpoint(),
		Enabled:        cfg.Trace.Enabled,
	})
	if err != nil {
		log.Warn().Err(err).Msg("не удалось инициализировать tracing")
	}

	// === Подключение к зависимостям ===

	redisClient := dbpkg.ConnectRedis(cfg.Store)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := healthcheck.CheckRedis(pingCtx, redisClient); err != nil {
		pingCancel()
		log.Fatal().Err(err).Msg("redis недоступен при старте")
	}
	pingCancel()
	store := sagastore.NewRedisStore(redisClient)
	log.Info().Msg("подключение к саговому хранилищу установлено")

	amqpBus, err := bus.Dial(cfg.Bus.URL())
	if err != nil {
		log.Fatal().Err(err).Msg("не удалось подключиться к шине сообщений")
	}
	log.Info().Msg("подключение к шине сообщений установлено")

	coord := coordinator.New(store, amqpBus, cfg.Store.SagaTTL)

	// === Auth side-car клиент (опционален) ===

	var validator ingress.TokenValidator
	if cfg.Auth.Enabled {
		ac := authclient.New(cfg.Auth)
		validator = ac
		log.Info().Str("base_url", cfg.Auth.BaseURL).Msg("валидация токенов включена")
	} else {
		log.Warn().Msg("валидация токенов отключена (AUTH_ENABLED=false)")
	}

	// === Observability: Metrics ===

	readinessCheck := func(ctx context.Context) error {
		return healthcheck.CheckRedis(ctx, redisClient)
	}
	metricsServer := metrics.NewServer(":9090", "saga-orchestrator", metrics.WithReadinessCheck(readinessCheck))
	var metricsWg sync.WaitGroup
	metricsWg.Add(1)
	go func() {
		defer metricsWg.Done()
		if err := metricsServer.Start(); err != nil {
			log.Error().Err(err).Msg("ошибка metrics server")
		}
	}()

	// === HTTP ingress ===

	handler := ingress.NewHandler(coord)
	router := ingress.NewRouter(handler, validator)
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var workersWg sync.WaitGroup
	workersWg.Add(1)
	go func() {
		defer workersWg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("паника в consumer'е ответов")
			}
		}()
		log.Info().Str("queue", vocabulary.QueueOrchestration).Msg("запуск consumer'а ответов")
		if err := amqpBus.Consume(ctx, vocabulary.QueueOrchestration, coord.HandleReply); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("ошибка consumer'а ответов")
		}
	}()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("паника в HTTP сервере")
			}
		}()
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP сервер запущен")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("ошибка HTTP сервера")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("получен сигнал завершения, останавливаем оркестратор")

	cancel()

	// Bound the consumer drain so shutdown can't hang on a slow broker.
	busShutdownCtx, busShutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := amqpBus.Shutdown(busShutdownCtx); err != nil {
		log.Warn().Err(err).Msg("ошибка остановки шины сообщений")
	}
	busShutdownCancel()
	drained := make(chan struct{})
	go func() {
		workersWg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("consumer ответов не завершился за 5с, продолжаем остановку")
	}

	// HTTP server bounded at 10s.
	httpShutdownCtx, httpShutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		log.Warn().Err(err).Msg("таймаут остановки HTTP сервера")
	}
	httpShutdownCancel()

	metricsShutdownCtx, metricsShutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := metricsServer.Shutdown(metricsShutdownCtx); err != nil {
		log.Error().Err(err).Msg("ошибка остановки metrics server")
	}
	metricsShutdownCancel()
	metricsWg.Wait()

	if shutdownTracing != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ошибка остановки tracing")
		}
		shutdownCancel()
	}

	log.Info().Msg("оркестратор саги остановлен")
}
