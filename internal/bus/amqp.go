package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"example.com/saga-orchestrator/internal/vocabulary"
	"example.com/saga-orchestrator/pkg/logger"
)

// AMQPBus — реализация Bus поверх github.com/rabbitmq/amqp091-go. Очереди
// фиксированы и точка-в-точку (products_queue, payment_queue, orders_queue,
// orchestration_queue); обмен (exchange) не используется, публикация идёт
// напрямую в очередь через default exchange по имени routing key.
type AMQPBus struct {
	conn *amqp.Connection

	pubMu sync.Mutex
	pubCh *amqp.Channel

	declaredMu sync.Mutex
	declared   map[string]bool
}

// Dial подключается к брокеру и открывает канал публикации. Вызывается один
// раз на старте процесса; ошибка здесь фатальна для запуска — продолжать
// без шины сообщений бессмысленно.
func Dial(url string) (*AMQPBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("bus: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("bus: open publish channel: %w", err)
	}
	return &AMQPBus{conn: conn, pubCh: ch, declared: make(map[string]bool)}, nil
}

func (b *AMQPBus) ensureQueueDeclared(ch *amqp.Channel, queue string) error {
	b.declaredMu.Lock()
	defer b.declaredMu.Unlock()
	if b.declared[queue] {
		return nil
	}
	_, err := ch.QueueDeclare(queue, true /* durable */, false, false, false, nil)
	if err != nil {
		return err
	}
	b.declared[queue] = true
	return nil
}

// Publish сериализует envelope в JSON и публикует persistent-сообщение
// напрямую в именованную очередь. Публикация сериализуется мьютексом,
// поскольку amqp091-go запрещает конкурентное использование одного канала.
func (b *AMQPBus) Publish(ctx context.Context, queue string, env vocabulary.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("bus: marshal envelope: %w", err)
	}

	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	if err := b.ensureQueueDeclared(b.pubCh, queue); err != nil {
		return fmt.Errorf("bus: declare queue %s: %w", queue, err)
	}

	err = b.pubCh.PublishWithContext(ctx, "" /* default exchange */, queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("bus: publish to %s: %w", queue, err)
	}
	return nil
}

// Consume opens its own channel, sets Qos(prefetch=1), and processes
// deliveries strictly sequentially until ctx is cancelled or the channel is
// closed by Shutdown.
func (b *AMQPBus) Consume(ctx context.Context, queue string, handler Handler) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("bus: open consume channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := b.ensureQueueDeclared(ch, queue); err != nil {
		return fmt.Errorf("bus: declare queue %s: %w", queue, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("bus: set qos: %w", err)
	}

	deliveries, err := ch.Consume(queue, "", false /* autoAck */, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("bus: consume %s: %w", queue, err)
	}

	log := logger.With().Str("queue", queue).Logger()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				// Канал закрыт — либо Shutdown, либо соединение потеряно.
				return nil
			}
			var env vocabulary.Envelope
			if err := json.Unmarshal(d.Body, &env); err != nil {
				log.Warn().Err(err).Msg("получено сообщение с невалидным envelope — отброшено без повторной доставки")
				if nackErr := d.Nack(false, false); nackErr != nil {
					log.Error().Err(nackErr).Msg("nack невалидного сообщения не удался")
				}
				continue
			}
			switch handler(ctx, env) {
			case AckOK:
				if err := d.Ack(false); err != nil {
					log.Error().Err(err).Str("event", env.Event).Msg("ack доставки не удался")
				}
			case AckRequeue:
				if err := d.Nack(false, true); err != nil {
					log.Error().Err(err).Str("event", env.Event).Msg("nack доставки не удался")
				}
			}
		}
	}
}

// Shutdown закрывает соединение, что закрывает все его каналы и тем самым
// разблокирует цикл Consume в пределах времени, отведённого ctx вызывающей
// стороной (cmd/orchestrator передаёт сюда контекст с таймаутом 5с).
func (b *AMQPBus) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- b.conn.Close()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
