// Package sagastore предоставляет TTL-ограниченное key/value хранилище
// саговых записей поверх Redis. Единственный писатель — оркестратор;
// каждая запись сбрасывает TTL, так что активная сага не истекает
// преждевременно, а брошенная — не живёт вечно.
package sagastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/saga-orchestrator/internal/saga"
)

// DefaultTTL — время жизни саговой записи по умолчанию (переопределяется
// SAGA_TTL_SECONDS в pkg/config).
const DefaultTTL = 600 * time.Second

// Store — контракт хранилища саг. Отсутствующий ключ возвращается как
// (nil, nil), а не как ошибка: redis.Nil значит "не найдено", а не сбой.
type Store interface {
	PutOrderSaga(ctx context.Context, s *saga.OrderSaga, ttl time.Duration) error
	GetOrderSaga(ctx context.Context, tid string) (*saga.OrderSaga, error)
	DeleteOrderSaga(ctx context.Context, tid string) error

	PutProductSaga(ctx context.Context, s *saga.ProductSaga, ttl time.Duration) error
	GetProductSaga(ctx context.Context, tid string) (*saga.ProductSaga, error)
	DeleteProductSaga(ctx context.Context, tid string) error

	PutPaymentSaga(ctx context.Context, s *saga.PaymentSaga, ttl time.Duration) error
	GetPaymentSaga(ctx context.Context, tid string) (*saga.PaymentSaga, error)
	DeletePaymentSaga(ctx context.Context, tid string) error

	PutOrderIndex(ctx context.Context, orderID, tid string, ttl time.Duration) error
	GetTIDByOrderID(ctx context.Context, orderID string) (string, error)
}

const (
	keyPrefixOrder   = "order_saga:"
	keyPrefixProduct = "product_saga:"
	keyPrefixPayment = "payment_saga:"
	keyPrefixIndex   = "order_id:"
)

// RedisStore — реализация Store поверх github.com/redis/go-redis/v9: Set с
// TTL на запись, Get с обработкой redis.Nil как отсутствия значения.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore оборачивает уже подключенный клиент Redis.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) PutOrderSaga(ctx context.Context, rec *saga.OrderSaga, ttl time.Duration) error {
	return putJSON(ctx, s.client, keyPrefixOrder+rec.TID, rec, ttl)
}

func (s *RedisStore) GetOrderSaga(ctx context.Context, tid string) (*saga.OrderSaga, error) {
	var rec saga.OrderSaga
	ok, err := getJSON(ctx, s.client, keyPrefixOrder+tid, &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) DeleteOrderSaga(ctx context.Context, tid string) error {
	return del(ctx, s.client, keyPrefixOrder+tid)
}

func (s *RedisStore) PutProductSaga(ctx context.Context, rec *saga.ProductSaga, ttl time.Duration) error {
	return putJSON(ctx, s.client, keyPrefixProduct+rec.TID, rec, ttl)
}

func (s *RedisStore) GetProductSaga(ctx context.Context, tid string) (*saga.ProductSaga, error) {
	var rec saga.ProductSaga
	ok, err := getJSON(ctx, s.client, keyPrefixProduct+tid, &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) DeleteProductSaga(ctx context.Context, tid string) error {
	return del(ctx, s.client, keyPrefixProduct+tid)
}

func (s *RedisStore) PutPaymentSaga(ctx context.Context, rec *saga.PaymentSaga, ttl time.Duration) error {
	return putJSON(ctx, s.client, keyPrefixPayment+rec.TID, rec, ttl)
}

func (s *RedisStore) GetPaymentSaga(ctx context.Context, tid string) (*saga.PaymentSaga, error) {
	var rec saga.PaymentSaga
	ok, err := getJSON(ctx, s.client, keyPrefixPayment+tid, &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) DeletePaymentSaga(ctx context.Context, tid string) error {
	return del(ctx, s.client, keyPrefixPayment+tid)
}

func (s *RedisStore) PutOrderIndex(ctx context.Context, orderID, tid string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefixIndex+orderID, tid, ttl).Err(); err != nil {
		return fmt.Errorf("sagastore: put order index: %w", err)
	}
	return nil
}

func (s *RedisStore) GetTIDByOrderID(ctx context.Context, orderID string) (string, error) {
	tid, err := s.client.Get(ctx, keyPrefixIndex+orderID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sagastore: get order index: %w", err)
	}
	return tid, nil
}

func putJSON(ctx context.Context, client *redis.Client, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sagastore: marshal %s: %w", key, err)
	}
	if err := client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("sagastore: set %s: %w", key, err)
	}
	return nil
}

func getJSON(ctx context.Context, client *redis.Client, key string, dst any) (bool, error) {
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sagastore: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("sagastore: unmarshal %s: %w", key, err)
	}
	return true, nil
}

func del(ctx context.Context, client *redis.Client, key string) error {
	if err := client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("sagastore: del %s: %w", key, err)
	}
	return nil
}
