package saga

import (
	"errors"

	"example.com/saga-orchestrator/internal/vocabulary"
)

// ErrUnknownEvent помечает envelope с неизвестным Event — коордитор
// подтверждает (ack) и логирует предупреждение, но не меняет состояние.
var ErrUnknownEvent = errors.New("saga: unknown event type")

// OutboundCommand — одна исходящая команда с целевой очередью.
type OutboundCommand struct {
	Queue    string
	Envelope vocabulary.Envelope
}

// Transition — результат применения события к текущим записям саги.
// Нулевое значение означает "ack & drop, без изменений" — дубликат,
// несоответствующее состояние или отсутствующая запись.
type Transition struct {
	// PriorOrder, если не nil, должен быть записан в хранилище раньше Order —
	// это промежуточный шаг перехода, который сам по себе не публикует команд
	// (например OrderCreated на пути к Completed), нужный только для того,
	// чтобы сага не перескакивала состояние в видимой извне записи.
	PriorOrder   *OrderSaga
	Order        *OrderSaga
	Product      *ProductSaga
	Payment      *PaymentSaga
	IndexOrderID string // непусто, если нужно записать order_id -> tid
	Commands     []OutboundCommand
}

func command(queue, event, tid string, data any) OutboundCommand {
	env, err := vocabulary.NewCommand(event, tid, data)
	if err != nil {
		// data здесь всегда статически типизированный литерал этого пакета — маршалинг не может упасть.
		panic("saga: failed to marshal outbound command data: " + err.Error())
	}
	return OutboundCommand{Queue: queue, Envelope: env}
}

func rollbackStockCmd(tid string) OutboundCommand {
	return command(vocabulary.QueueProducts, vocabulary.EventRollbackStock, tid, struct{}{})
}

func rollbackPaymentCmd(tid, paymentID string) OutboundCommand {
	return command(vocabulary.QueuePayment, vocabulary.EventRollbackPayment, tid,
		vocabulary.RollbackPaymentData{PaymentID: paymentID})
}

func rollbackOrderCmd(tid string) OutboundCommand {
	return command(vocabulary.QueueOrders, vocabulary.EventRollbackOrder, tid, struct{}{})
}

// Apply maps (current saga record, incoming reply) to (next saga record,
// outbound commands). It performs no I/O; the coordinator is responsible for
// loading current/product/payment and persisting the result.
func Apply(current *OrderSaga, product *ProductSaga, payment *PaymentSaga, env vocabulary.Envelope) (Transition, error) {
	if current == nil {
		// Сага истекла или никогда не существовала — подтверждаем и отбрасываем.
		return Transition{}, nil
	}
	if current.Status.IsTerminal() {
		return Transition{}, nil
	}

	tid := current.TID

	switch env.Event {
	case vocabulary.EventReduceStock:
		if current.Status != StatusPending {
			return Transition{}, nil // дубликат или не та стадия
		}
		if vocabulary.IsFailure(env.Status) {
			next := *current
			next.Status = StatusFailed
			return Transition{Order: &next}, nil
		}
		next := *current
		next.Status = StatusStockReduced
		amount := Amount(current.Items)
		newPayment := &PaymentSaga{
			TID:           tid,
			UserEmail:     current.UserEmail,
			Amount:        amount,
			PaymentMethod: current.PaymentMethod,
			PaymentStatus: PaymentStatusPending,
		}
		cmd := command(vocabulary.QueuePayment, vocabulary.EventTakePayment, tid, vocabulary.TakePaymentData{
			UserEmail:     current.UserEmail,
			Amount:        amount,
			PaymentMethod: string(current.PaymentMethod),
			PaymentStatus: string(PaymentStatusPending),
		})
		return Transition{Order: &next, Payment: newPayment, Commands: []OutboundCommand{cmd}}, nil

	case vocabulary.EventTakePayment:
		if current.Status != StatusStockReduced {
			return Transition{}, nil
		}
		if vocabulary.IsFailure(env.Status) {
			next := *current
			next.Status = StatusFailed
			return Transition{Order: &next, Commands: []OutboundCommand{rollbackStockCmd(tid)}}, nil
		}
		var reply vocabulary.TakePaymentReplyData
		if err := env.DecodeData(&reply); err != nil {
			return Transition{}, err
		}
		next := *current
		next.Status = StatusPaymentTaken
		paymentID := reply.PaymentID
		next.PaymentID = &paymentID
		var nextPayment *PaymentSaga
		if payment != nil {
			np := *payment
			np.PaymentStatus = PaymentStatusSuccess
			nextPayment = &np
		}
		cmd := command(vocabulary.QueueOrders, vocabulary.EventCreateOrder, tid, vocabulary.CreateOrderData{
			UserEmail:       current.UserEmail,
			VendorEmail:     current.VendorEmail,
			DeliveryAddress: current.DeliveryAddress,
			Description:     current.Description,
			Status:          string(StatusPaymentTaken),
			Items:           toWireItems(current.Items),
		})
		return Transition{Order: &next, Payment: nextPayment, Commands: []OutboundCommand{cmd}}, nil

	case vocabulary.EventCreateOrder:
		if current.Status != StatusPaymentTaken {
			return Transition{}, nil
		}
		paymentID := ""
		if current.PaymentID != nil {
			paymentID = *current.PaymentID
		}
		if vocabulary.IsFailure(env.Status) {
			next := *current
			next.Status = StatusFailed
			cmds := []OutboundCommand{rollbackStockCmd(tid), rollbackPaymentCmd(tid, paymentID)}
			return Transition{Order: &next, Commands: cmds}, nil
		}
		var reply vocabulary.CreateOrderReplyData
		if err := env.DecodeData(&reply); err != nil {
			return Transition{}, err
		}
		orderID := reply.OrderID
		created := *current
		created.Status = StatusOrderCreated
		created.OrderID = &orderID
		completed := created
		completed.Status = StatusCompleted
		var nextPayment *PaymentSaga
		if payment != nil {
			np := *payment
			np.OrderID = &orderID
			nextPayment = &np
		}
		cmds := []OutboundCommand{
			command(vocabulary.QueueOrders, vocabulary.EventUpdateOrderPaymentID, tid,
				vocabulary.UpdateOrderPaymentIDData{OrderID: orderID, PaymentID: paymentID}),
			command(vocabulary.QueuePayment, vocabulary.EventUpdatePaymentOrderID, tid,
				vocabulary.UpdatePaymentOrderIDData{PaymentID: paymentID, OrderID: orderID}),
		}
		return Transition{PriorOrder: &created, Order: &completed, Payment: nextPayment, IndexOrderID: orderID, Commands: cmds}, nil

	default:
		return Transition{}, ErrUnknownEvent
	}
}

// ApplyCancel consults the current state and emits only the rollback subset
// for steps already advanced — a saga that never reduced stock has nothing
// to roll back there.
func ApplyCancel(current *OrderSaga, product *ProductSaga, payment *PaymentSaga) Transition {
	if current == nil {
		return Transition{}
	}

	tid := current.TID
	paymentID := ""
	if current.PaymentID != nil {
		paymentID = *current.PaymentID
	}

	switch current.Status {
	case StatusPending:
		next := *current
		next.Status = StatusCanceled
		return Transition{Order: &next}

	case StatusStockReduced:
		next := *current
		next.Status = StatusCanceled
		return Transition{Order: &next, Commands: []OutboundCommand{rollbackStockCmd(tid)}}

	case StatusPaymentTaken:
		next := *current
		next.Status = StatusCanceled
		cmds := []OutboundCommand{
			rollbackStockCmd(tid),
			rollbackPaymentCmd(tid, paymentID),
			rollbackOrderCmd(tid),
		}
		return Transition{Order: &next, Commands: cmds}

	case StatusCompleted:
		next := *current
		next.Status = StatusCanceled
		cmds := []OutboundCommand{
			rollbackStockCmd(tid),
			rollbackPaymentCmd(tid, paymentID),
			rollbackOrderCmd(tid),
		}
		return Transition{Order: &next, Commands: cmds}

	default: // Canceled, Failed — уже терминально, повторная отмена это no-op
		return Transition{}
	}
}

func toWireItems(items []LineItem) []vocabulary.LineItemData {
	out := make([]vocabulary.LineItemData, len(items))
	for i, it := range items {
		out[i] = vocabulary.LineItemData{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return out
}
