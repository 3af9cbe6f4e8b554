// Stock participant simulator — consumes products_queue and publishes
// canned replies onto orchestration_queue, exercising the orchestrator's
// reduce_stock path without implementing real warehouse persistence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"example.com/saga-orchestrator/internal/bus"
	"example.com/saga-orchestrator/internal/vocabulary"
	"example.com/saga-orchestrator/pkg/config"
	"example.com/saga-orchestrator/pkg/logger"
)

// failingProductID триггерит детерминированный сбой резервирования склада —
// удобно для интеграционных тестов и ручной проверки компенсации (S2).
const failingProductID = "OUT_OF_STOCK"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.App.LogLevel, Pretty: cfg.App.LogPretty})
	log := logger.With().Str("service", "stock-participant").Logger()

	b, err := bus.Dial(cfg.Bus.URL())
	if err != nil {
		log.Fatal().Err(err).Msg("не удалось подключиться к шине сообщений")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = context.WithValue(ctx, busKey{}, bus.Bus(b))

	go func() {
		if err := b.Consume(ctx, vocabulary.QueueProducts, handle(log)); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("ошибка consumer'а")
		}
	}()

	log.Info().Msg("stock participant запущен")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = b.Shutdown(shutdownCtx)
	log.Info().Msg("stock participant остановлен")
}

// handle обрабатывает команды products_queue: reduce_stock получает ответ,
// rollback_stock — одностороння команда компенсации, ответа не требует.
func handle(log zerolog.Logger) bus.Handler {
	return func(ctx context.Context, env vocabulary.Envelope) bus.Ack {
		b, ok := ctx.Value(busKey{}).(bus.Bus)
		if !ok {
			log.Error().Msg("шина недоступна в контексте обработчика")
			return bus.AckRequeue
		}

		switch env.Event {
		case vocabulary.EventReduceStock:
			var data vocabulary.ReduceStockData
			if err := env.DecodeData(&data); err != nil {
				log.Warn().Err(err).Msg("невалидные данные reduce_stock, отброшено")
				return bus.AckOK
			}

			tid := env.TID()
			failed := false
			for _, p := range data.Products {
				if p.ProductID == failingProductID {
					failed = true
					break
				}
			}

			var reply vocabulary.Envelope
			var err error
			if failed {
				reply, err = vocabulary.NewReply(vocabulary.EventReduceStock, tid, "error: out of stock", "склад не может зарезервировать позицию", struct{}{})
			} else {
				reply, err = vocabulary.NewReply(vocabulary.EventReduceStock, tid, "ok", "", struct{}{})
			}
			if err != nil {
				log.Error().Err(err).Msg("не удалось собрать ответ reduce_stock")
				return bus.AckRequeue
			}
			if err := b.Publish(ctx, vocabulary.QueueOrchestration, reply); err != nil {
				log.Error().Err(err).Msg("не удалось опубликовать ответ reduce_stock")
				return bus.AckRequeue
			}
			log.Info().Str("tid", tid).Bool("failed", failed).Msg("reduce_stock обработан")
			return bus.AckOK

		case vocabulary.EventRollbackStock:
			log.Info().Str("tid", env.TID()).Msg("rollback_stock применён")
			return bus.AckOK

		default:
			log.Warn().Str("event", env.Event).Msg("неизвестное событие, отброшено")
			return bus.AckOK
		}
	}
}

type busKey struct{}
