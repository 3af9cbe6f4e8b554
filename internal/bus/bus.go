// Package bus предоставляет адаптер шины сообщений поверх RabbitMQ,
// построенный вокруг прямых именованных очередей, которых требует словарь
// команд оркестратора (internal/vocabulary).
package bus

import (
	"context"

	"example.com/saga-orchestrator/internal/vocabulary"
)

// Ack — решение обработчика о судьбе доставки.
type Ack int

const (
	// AckOK подтверждает доставку: состояние сохранено и команды опубликованы.
	AckOK Ack = iota
	// AckRequeue отрицательно подтверждает доставку с повторной постановкой в очередь —
	// используется при сбое записи в хранилище или публикации.
	AckRequeue
)

// Handler обрабатывает один envelope, пришедший из очереди.
type Handler func(ctx context.Context, env vocabulary.Envelope) Ack

// Bus — контракт адаптера шины сообщений.
type Bus interface {
	// Publish публикует envelope в именованную очередь. Очередь объявляется
	// durable при первом использовании; сообщение публикуется persistent.
	Publish(ctx context.Context, queue string, env vocabulary.Envelope) error

	// Consume блокируется, читая из queue с prefetch=1, и вызывает handler
	// для каждой доставки, подтверждая или отклоняя её по возвращённому Ack.
	// Возвращается, когда ctx отменён или вызван Shutdown.
	Consume(ctx context.Context, queue string, handler Handler) error

	// Shutdown запрашивает остановку активных Consume в пределах заданного
	// контекстом таймаута; ограничение на длительность задаёт вызывающая сторона.
	Shutdown(ctx context.Context) error
}
