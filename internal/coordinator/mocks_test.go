package coordinator_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"example.com/saga-orchestrator/internal/bus"
	"example.com/saga-orchestrator/internal/saga"
	"example.com/saga-orchestrator/internal/vocabulary"
)

// MockStore — мок sagastore.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) PutOrderSaga(ctx context.Context, s *saga.OrderSaga, ttl time.Duration) error {
	args := m.Called(ctx, s, ttl)
	return args.Error(0)
}

func (m *MockStore) GetOrderSaga(ctx context.Context, tid string) (*saga.OrderSaga, error) {
	args := m.Called(ctx, tid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*saga.OrderSaga), args.Error(1)
}

func (m *MockStore) DeleteOrderSaga(ctx context.Context, tid string) error {
	args := m.Called(ctx, tid)
	return args.Error(0)
}

func (m *MockStore) PutProductSaga(ctx context.Context, s *saga.ProductSaga, ttl time.Duration) error {
	args := m.Called(ctx, s, ttl)
	return args.Error(0)
}

func (m *MockStore) GetProductSaga(ctx context.Context, tid string) (*saga.ProductSaga, error) {
	args := m.Called(ctx, tid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*saga.ProductSaga), args.Error(1)
}

func (m *MockStore) DeleteProductSaga(ctx context.Context, tid string) error {
	args := m.Called(ctx, tid)
	return args.Error(0)
}

func (m *MockStore) PutPaymentSaga(ctx context.Context, s *saga.PaymentSaga, ttl time.Duration) error {
	args := m.Called(ctx, s, ttl)
	return args.Error(0)
}

func (m *MockStore) GetPaymentSaga(ctx context.Context, tid string) (*saga.PaymentSaga, error) {
	args := m.Called(ctx, tid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*saga.PaymentSaga), args.Error(1)
}

func (m *MockStore) DeletePaymentSaga(ctx context.Context, tid string) error {
	args := m.Called(ctx, tid)
	return args.Error(0)
}

func (m *MockStore) PutOrderIndex(ctx context.Context, orderID, tid string, ttl time.Duration) error {
	args := m.Called(ctx, orderID, tid, ttl)
	return args.Error(0)
}

func (m *MockStore) GetTIDByOrderID(ctx context.Context, orderID string) (string, error) {
	args := m.Called(ctx, orderID)
	return args.String(0), args.Error(1)
}

// MockBus — мок bus.Bus.
type MockBus struct {
	mock.Mock
}

func (m *MockBus) Publish(ctx context.Context, queue string, env vocabulary.Envelope) error {
	args := m.Called(ctx, queue, env)
	return args.Error(0)
}

func (m *MockBus) Consume(ctx context.Context, queue string, handler bus.Handler) error {
	args := m.Called(ctx, queue, handler)
	return args.Error(0)
}

func (m *MockBus) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
