// Package coordinator wires the saga store, the message bus and the pure
// state machine together. It is the orchestrator's only stateful component:
// it loads the current saga records, feeds them and an incoming event to the
// pure state machine, persists whatever the transition produced, and only
// then publishes the resulting outbound commands.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/saga-orchestrator/internal/bus"
	"example.com/saga-orchestrator/internal/saga"
	"example.com/saga-orchestrator/internal/sagastore"
	"example.com/saga-orchestrator/internal/vocabulary"
	"example.com/saga-orchestrator/pkg/logger"
)

// Errors surfaced to callers. Ingress maps these to HTTP status codes.
var (
	ErrInvalidPaymentMethod = errors.New("coordinator: invalid payment method")
	ErrEmptyItems           = errors.New("coordinator: order must contain at least one item")
	ErrInvalidItem          = errors.New("coordinator: item quantity must be >= 1 and unit price >= 0")
	ErrOrderNotIndexed      = errors.New("coordinator: order_id is not indexed by any saga")
)

// Item is the ingress-facing representation of one order line.
type Item struct {
	ProductID string
	Quantity  int
	UnitPrice int64
}

// StartOrderRequest carries the validated fields of a start_order call.
type StartOrderRequest struct {
	UserEmail       string
	VendorEmail     string
	DeliveryAddress string
	Description     string
	PaymentMethod   string
	Items           []Item
}

// Coordinator glues the store, the bus and the pure state machine.
type Coordinator struct {
	store sagastore.Store
	bus   bus.Bus
	ttl   time.Duration
}

// New builds a Coordinator. ttl is applied to every store write (sagastore
// resets TTL on every Put, per invariant 4).
func New(store sagastore.Store, b bus.Bus, ttl time.Duration) *Coordinator {
	if ttl <= 0 {
		ttl = sagastore.DefaultTTL
	}
	return &Coordinator{store: store, bus: b, ttl: ttl}
}

// StartOrder validates the request, mints a tid, persists the initial
// Pending order-saga and product-saga records, and publishes reduce_stock.
// Returns synchronously; completion of the saga is asynchronous.
func (c *Coordinator) StartOrder(ctx context.Context, req StartOrderRequest) (string, error) {
	if !saga.ValidPaymentMethod(req.PaymentMethod) {
		return "", ErrInvalidPaymentMethod
	}
	if len(req.Items) == 0 {
		return "", ErrEmptyItems
	}
	items := make([]saga.LineItem, len(req.Items))
	productItems := make([]saga.ProductSagaItem, len(req.Items))
	wireProducts := make([]vocabulary.ProductQuantity, len(req.Items))
	for i, it := range req.Items {
		if it.Quantity < 1 || it.UnitPrice < 0 {
			return "", ErrInvalidItem
		}
		items[i] = saga.LineItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		productItems[i] = saga.ProductSagaItem{ProductID: it.ProductID, Quantity: it.Quantity}
		wireProducts[i] = vocabulary.ProductQuantity{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	tid := uuid.New().String()

	orderRec := &saga.OrderSaga{
		TID:             tid,
		UserEmail:       req.UserEmail,
		VendorEmail:     req.VendorEmail,
		DeliveryAddress: req.DeliveryAddress,
		Description:     req.Description,
		Status:          saga.StatusPending,
		Items:           items,
		PaymentMethod:   saga.PaymentMethod(req.PaymentMethod),
	}
	productRec := &saga.ProductSaga{TID: tid, Items: productItems}

	// The initial records must be durable before reduce_stock goes out — otherwise a
	// reply could arrive for a saga the store doesn't know about yet.
	if err := c.store.PutOrderSaga(ctx, orderRec, c.ttl); err != nil {
		return "", fmt.Errorf("coordinator: persist order saga: %w", err)
	}
	if err := c.store.PutProductSaga(ctx, productRec, c.ttl); err != nil {
		return "", fmt.Errorf("coordinator: persist product saga: %w", err)
	}

	env, err := vocabulary.NewCommand(vocabulary.EventReduceStock, tid, vocabulary.ReduceStockData{Products: wireProducts})
	if err != nil {
		return "", fmt.Errorf("coordinator: build reduce_stock command: %w", err)
	}
	if err := c.bus.Publish(ctx, vocabulary.QueueProducts, env); err != nil {
		return "", fmt.Errorf("coordinator: publish reduce_stock: %w", err)
	}

	logger.With().Str("tid", tid).Logger().Info().Msg("saga started, reduce_stock published")
	return tid, nil
}

// CancelOrder resolves tid via the order-id index, asks the state machine
// which rollbacks the current state still calls for, and publishes them.
func (c *Coordinator) CancelOrder(ctx context.Context, orderID string) error {
	tid, err := c.store.GetTIDByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("coordinator: resolve order index: %w", err)
	}
	if tid == "" {
		return ErrOrderNotIndexed
	}

	order, err := c.store.GetOrderSaga(ctx, tid)
	if err != nil {
		return fmt.Errorf("coordinator: load order saga: %w", err)
	}
	if order == nil {
		return ErrOrderNotIndexed
	}
	payment, err := c.store.GetPaymentSaga(ctx, tid)
	if err != nil {
		return fmt.Errorf("coordinator: load payment saga: %w", err)
	}
	product, err := c.store.GetProductSaga(ctx, tid)
	if err != nil {
		return fmt.Errorf("coordinator: load product saga: %w", err)
	}

	tr := saga.ApplyCancel(order, product, payment)
	return c.persistAndPublish(ctx, tid, tr)
}

// HandleReply is the bus.Handler passed to bus.Consume(orchestration_queue, ...).
// It loads the three records by tid, applies the state machine, persists the
// resulting record(s) before publishing outbound commands, in that order.
func (c *Coordinator) HandleReply(ctx context.Context, env vocabulary.Envelope) bus.Ack {
	log := logger.With().Str("event", env.Event).Str("tid", env.TID()).Logger()

	tid := env.TID()
	if tid == "" {
		log.Warn().Msg("reply missing transaction_id, acked and dropped")
		return bus.AckOK
	}

	order, err := c.store.GetOrderSaga(ctx, tid)
	if err != nil {
		log.Error().Err(err).Msg("failed to load order saga, requeueing")
		return bus.AckRequeue
	}
	if order == nil {
		log.Warn().Msg("reply for unknown or expired tid, acked and dropped")
		return bus.AckOK
	}
	product, err := c.store.GetProductSaga(ctx, tid)
	if err != nil {
		log.Error().Err(err).Msg("failed to load product saga, requeueing")
		return bus.AckRequeue
	}
	payment, err := c.store.GetPaymentSaga(ctx, tid)
	if err != nil {
		log.Error().Err(err).Msg("failed to load payment saga, requeueing")
		return bus.AckRequeue
	}

	tr, err := saga.Apply(order, product, payment, env)
	if err != nil {
		if errors.Is(err, saga.ErrUnknownEvent) {
			log.Warn().Msg("unknown event type, acked and dropped")
			return bus.AckOK
		}
		log.Error().Err(err).Msg("state machine error, requeueing")
		return bus.AckRequeue
	}

	if err := c.persistAndPublish(ctx, tid, tr); err != nil {
		log.Error().Err(err).Msg("failed to persist or publish transition, requeueing")
		return bus.AckRequeue
	}
	return bus.AckOK
}

// persistAndPublish writes every non-nil record in tr, then publishes
// tr.Commands in order. The caller acks only after both succeed and nacks on
// any error here, which leaves state consistent for redelivery.
func (c *Coordinator) persistAndPublish(ctx context.Context, tid string, tr saga.Transition) error {
	if tr.PriorOrder != nil {
		if err := c.store.PutOrderSaga(ctx, tr.PriorOrder, c.ttl); err != nil {
			return fmt.Errorf("persist intermediate order saga: %w", err)
		}
	}
	if tr.Order != nil {
		if err := c.store.PutOrderSaga(ctx, tr.Order, c.ttl); err != nil {
			return fmt.Errorf("persist order saga: %w", err)
		}
	}
	if tr.Product != nil {
		if err := c.store.PutProductSaga(ctx, tr.Product, c.ttl); err != nil {
			return fmt.Errorf("persist product saga: %w", err)
		}
	}
	if tr.Payment != nil {
		if err := c.store.PutPaymentSaga(ctx, tr.Payment, c.ttl); err != nil {
			return fmt.Errorf("persist payment saga: %w", err)
		}
	}
	if tr.IndexOrderID != "" {
		if err := c.store.PutOrderIndex(ctx, tr.IndexOrderID, tid, c.ttl); err != nil {
			return fmt.Errorf("persist order index: %w", err)
		}
	}
	for _, cmd := range tr.Commands {
		if err := c.bus.Publish(ctx, cmd.Queue, cmd.Envelope); err != nil {
			return fmt.Errorf("publish %s to %s: %w", cmd.Envelope.Event, cmd.Queue, err)
		}
	}
	return nil
}
