// Payment participant simulator — consumes payment_queue and publishes
// canned replies onto orchestration_queue, exercising the orchestrator's
// take_payment/rollback_payment path without implementing a real payment
// gateway.
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

// failingAmountDivisor триггерит детерминированный отказ платежа — любая
// сумма, кратная этому делителю, отклоняется (удобно для S3 в ручных
// проверках и интеграционных тестах, не завязано на PAN/CVV).
const failingAmountDivisor = 666

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.App.LogLevel, Pretty: cfg.App.LogPretty})
	log := logger.With().Str("service", "payment-participant").Logger()

	b, err := bus.Dial(cfg.Bus.URL())
	if err != nil {
		log.Fatal().Err(err).Msg("не удалось подключиться к шине сообщений")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = context.WithValue(ctx, busKey{}, bus.Bus(b))

	go func() {
		if err := b.Consume(ctx, vocabulary.QueuePayment, handle(log)); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("ошибка consumer'а")
		}
	}()

	log.Info().Msg("payment participant запущен")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = b.Shutdown(shutdownCtx)
	log.Info().Msg("payment participant остановлен")
}

// handle обрабатывает команды payment_queue: take_payment получает ответ с
// payment_id; rollback_payment и update_payment_order_id — односторонние
// команды, ответа не требуют.
func handle(log zerolog.Logger) bus.Handler {
	return func(ctx context.Context, env vocabulary.Envelope) bus.Ack {
		b, ok := ctx.Value(busKey{}).(bus.Bus)
		if !ok {
			log.Error().Msg("шина недоступна в контексте обработчика")
			return bus.AckRequeue
		}

		switch env.Event {
		case vocabulary.EventTakePayment:
			var data vocabulary.TakePaymentData
			if err := env.DecodeData(&data); err != nil {
				log.Warn().Err(err).Msg("невалидные данные take_payment, отброшено")
				return bus.AckOK
			}

			tid := env.TID()
			failed := data.Amount > 0 && data.Amount%failingAmountDivisor == 0

			var reply vocabulary.Envelope
			var err error
			if failed {
				reply, err = vocabulary.NewReply(vocabulary.EventTakePayment, tid, "error: card declined", "платёж отклонён эмитентом", struct{}{})
			} else {
				paymentID := uuid.New().String()
				reply, err = vocabulary.NewReply(vocabulary.EventTakePayment, tid, "ok", "", vocabulary.TakePaymentReplyData{PaymentID: paymentID})
			}
			if err != nil {
				log.Error().Err(err).Msg("не удалось собрать ответ take_payment")
				return bus.AckRequeue
			}
			if err := b.Publish(ctx, vocabulary.QueueOrchestration, reply); err != nil {
				log.Error().Err(err).Msg("не удалось опубликовать ответ take_payment")
				return bus.AckRequeue
			}
			log.Info().Str("tid", tid).Bool("failed", failed).Msg("take_payment обработан")
			return bus.AckOK

		case vocabulary.EventRollbackPayment:
			log.Info().Str("tid", env.TID()).Msg("rollback_payment применён")
			return bus.AckOK

		case vocabulary.EventUpdatePaymentOrderID:
			log.Info().Str("tid", env.TID()).Msg("update_payment_order_id применён")
			return bus.AckOK

		default:
			log.Warn().Str("event", env.Event).Msg("неизвестное событие, отброшено")
			return bus.AckOK
		}
	}
}

type busKey struct{}
