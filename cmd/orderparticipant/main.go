// Order participant simulator — consumes orders_queue and publishes canned
// replies onto orchestration_queue, exercising the orchestrator's
// create_order/rollback_order/update_order_payment_id path without
// implementing real order persistence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"example.com/saga-orchestrator/internal/bus"
	"example.com/saga-orchestrator/internal/vocabulary"
	"example.com/saga-orchestrator/pkg/config"
	"example.com/saga-orchestrator/pkg/logger"
)

// failingVendorEmail triggers a deterministic create_order failure — useful
// for exercising S4 (order fails) in integration tests and manual checks.
const failingVendorEmail = "blacklisted-vendor@example.com"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.App.LogLevel, Pretty: cfg.App.LogPretty})
	log := logger.With().Str("service", "order-participant").Logger()

	b, err := bus.Dial(cfg.Bus.URL())
	if err != nil {
		log.Fatal().Err(err).Msg("не удалось подключиться к шине сообщений")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = context.WithValue(ctx, busKey{}, bus.Bus(b))

	go func() {
		if err := b.Consume(ctx, vocabulary.QueueOrders, handle(log)); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("ошибка consumer'а")
		}
	}()

	log.Info().Msg("order participant запущен")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = b.Shutdown(shutdownCtx)
	log.Info().Msg("order participant остановлен")
}

// handle обрабатывает команды orders_queue: create_order получает ответ с
// order_id; rollback_order и update_order_payment_id — односторонние
// команды, ответа не требуют.
func handle(log zerolog.Logger) bus.Handler {
	return func(ctx context.Context, env vocabulary.Envelope) bus.Ack {
		b, ok := ctx.Value(busKey{}).(bus.Bus)
		if !ok {
			log.Error().Msg("шина недоступна в контексте обработчика")
			return bus.AckRequeue
		}

		switch env.Event {
		case vocabulary.EventCreateOrder:
			var data vocabulary.CreateOrderData
			if err := env.DecodeData(&data); err != nil {
				log.Warn().Err(err).Msg("невалидные данные create_order, отброшено")
				return bus.AckOK
			}

			tid := env.TID()
			failed := data.VendorEmail == failingVendorEmail

			var reply vocabulary.Envelope
			var err error
			if failed {
				reply, err = vocabulary.NewReply(vocabulary.EventCreateOrder, tid, "error: vendor rejected order", "вендор отклонил заказ", struct{}{})
			} else {
				orderID := uuid.New().String()
				reply, err = vocabulary.NewReply(vocabulary.EventCreateOrder, tid, "ok", "", vocabulary.CreateOrderReplyData{OrderID: orderID})
			}
			if err != nil {
				log.Error().Err(err).Msg("не удалось собрать ответ create_order")
				return bus.AckRequeue
			}
			if err := b.Publish(ctx, vocabulary.QueueOrchestration, reply); err != nil {
				log.Error().Err(err).Msg("не удалось опубликовать ответ create_order")
				return bus.AckRequeue
			}
			log.Info().Str("tid", tid).Bool("failed", failed).Msg("create_order обработан")
			return bus.AckOK

		case vocabulary.EventRollbackOrder:
			log.Info().Str("tid", env.TID()).Msg("rollback_order применён")
			return bus.AckOK

		case vocabulary.EventUpdateOrderPaymentID:
			log.Info().Str("tid", env.TID()).Msg("update_order_payment_id применён")
			return bus.AckOK

		default:
			log.Warn().Str("event", env.Event).Msg("неизвестное событие, отброшено")
			return bus.AckOK
		}
	}
}

type busKey struct{}
