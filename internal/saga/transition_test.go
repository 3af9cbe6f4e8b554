package saga_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/saga-orchestrator/internal/saga"
	"example.com/saga-orchestrator/internal/vocabulary"
)

func baseOrder(tid string) *saga.OrderSaga {
	return &saga.OrderSaga{
		TID:             tid,
		UserEmail:       "buyer@example.com",
		VendorEmail:     "vendor@example.com",
		DeliveryAddress: "1 Main St",
		Status:          saga.StatusPending,
		Items: []saga.LineItem{
			{ProductID: "p1", Quantity: 2, UnitPrice: 1000},
			{ProductID: "p2", Quantity: 1, UnitPrice: 550},
		},
		PaymentMethod: saga.PaymentMethodCreditCard,
	}
}

func okReply(event, tid string, data any) vocabulary.Envelope {
	env, err := vocabulary.NewReply(event, tid, "success", "", data)
	if err != nil {
		panic(err)
	}
	return env
}

func errReply(event, tid, message string) vocabulary.Envelope {
	env, err := vocabulary.NewReply(event, tid, "error: "+message, message, struct{}{})
	if err != nil {
		panic(err)
	}
	return env
}

func TestApply_ReduceStockSuccess_AdvancesToStockReducedAndEmitsTakePayment(t *testing.T) {
	order := baseOrder("T1")
	tr, err := saga.Apply(order, nil, nil, okReply(vocabulary.EventReduceStock, "T1", struct{}{}))
	require.NoError(t, err)
	require.NotNil(t, tr.Order)
	assert.Equal(t, saga.StatusStockReduced, tr.Order.Status)
	require.Len(t, tr.Commands, 1)
	assert.Equal(t, vocabulary.QueuePayment, tr.Commands[0].Queue)
	assert.Equal(t, vocabulary.EventTakePayment, tr.Commands[0].Envelope.Event)
	require.NotNil(t, tr.Payment)
	assert.Equal(t, int64(2550), tr.Payment.Amount)
}

func TestApply_ReduceStockFailure_TransitionsToFailedWithNoCommands(t *testing.T) {
	order := baseOrder("T2")
	tr, err := saga.Apply(order, nil, nil, errReply(vocabulary.EventReduceStock, "T2", "out of stock"))
	require.NoError(t, err)
	require.NotNil(t, tr.Order)
	assert.Equal(t, saga.StatusFailed, tr.Order.Status)
	assert.Empty(t, tr.Commands)
}

func TestApply_TakePaymentFailure_EmitsOnlyRollbackStock(t *testing.T) {
	order := baseOrder("T3")
	order.Status = saga.StatusStockReduced
	tr, err := saga.Apply(order, nil, nil, errReply(vocabulary.EventTakePayment, "T3", "card declined"))
	require.NoError(t, err)
	assert.Equal(t, saga.StatusFailed, tr.Order.Status)
	require.Len(t, tr.Commands, 1)
	assert.Equal(t, vocabulary.EventRollbackStock, tr.Commands[0].Envelope.Event)
}

func TestApply_CreateOrderFailure_EmitsRollbackStockAndPayment_NotOrder(t *testing.T) {
	order := baseOrder("T4")
	order.Status = saga.StatusPaymentTaken
	paymentID := "PAY-1"
	order.PaymentID = &paymentID
	tr, err := saga.Apply(order, nil, nil, errReply(vocabulary.EventCreateOrder, "T4", "inventory mismatch"))
	require.NoError(t, err)
	assert.Equal(t, saga.StatusFailed, tr.Order.Status)
	require.Len(t, tr.Commands, 2)
	assert.Equal(t, vocabulary.EventRollbackStock, tr.Commands[0].Envelope.Event)
	assert.Equal(t, vocabulary.EventRollbackPayment, tr.Commands[1].Envelope.Event)
	var data vocabulary.RollbackPaymentData
	require.NoError(t, tr.Commands[1].Envelope.DecodeData(&data))
	assert.Equal(t, paymentID, data.PaymentID)
}

func TestApply_DuplicateReply_IsAckedAndDropped(t *testing.T) {
	order := baseOrder("T5")
	order.Status = saga.StatusStockReduced // already past reduce_stock
	tr, err := saga.Apply(order, nil, nil, okReply(vocabulary.EventReduceStock, "T5", struct{}{}))
	require.NoError(t, err)
	assert.Nil(t, tr.Order)
	assert.Empty(t, tr.Commands)
}

func TestApply_TerminalSaga_IsAckedAndDropped(t *testing.T) {
	order := baseOrder("T6")
	order.Status = saga.StatusCompleted
	tr, err := saga.Apply(order, nil, nil, okReply(vocabulary.EventReduceStock, "T6", struct{}{}))
	require.NoError(t, err)
	assert.Nil(t, tr.Order)
	assert.Empty(t, tr.Commands)
}

func TestApply_MissingSaga_IsAckedAndDropped(t *testing.T) {
	tr, err := saga.Apply(nil, nil, nil, okReply(vocabulary.EventReduceStock, "ghost", struct{}{}))
	require.NoError(t, err)
	assert.Nil(t, tr.Order)
}

func TestApply_UnknownEvent_ReturnsErrUnknownEvent(t *testing.T) {
	order := baseOrder("T7")
	env := vocabulary.Envelope{Event: "teleport_package"}
	_, err := saga.Apply(order, nil, nil, env)
	assert.ErrorIs(t, err, saga.ErrUnknownEvent)
}

func TestApplyCancel_Pending_NoCommands(t *testing.T) {
	order := baseOrder("T8")
	tr := saga.ApplyCancel(order, nil, nil)
	assert.Equal(t, saga.StatusCanceled, tr.Order.Status)
	assert.Empty(t, tr.Commands)
}

func TestApplyCancel_PaymentTaken_EmitsAllThreeRollbacks(t *testing.T) {
	order := baseOrder("T9")
	order.Status = saga.StatusPaymentTaken
	paymentID := "PAY-9"
	order.PaymentID = &paymentID
	tr := saga.ApplyCancel(order, nil, nil)
	assert.Equal(t, saga.StatusCanceled, tr.Order.Status)
	require.Len(t, tr.Commands, 3)
	assert.Equal(t, vocabulary.EventRollbackStock, tr.Commands[0].Envelope.Event)
	assert.Equal(t, vocabulary.EventRollbackPayment, tr.Commands[1].Envelope.Event)
	assert.Equal(t, vocabulary.EventRollbackOrder, tr.Commands[2].Envelope.Event)
}

func TestApplyCancel_AlreadyCanceled_IsNoOp(t *testing.T) {
	order := baseOrder("T10")
	order.Status = saga.StatusCanceled
	tr := saga.ApplyCancel(order, nil, nil)
	assert.Nil(t, tr.Order)
	assert.Empty(t, tr.Commands)
}

// TestApply_FullHappyPathThroughCompleted drives all three forward steps in
// sequence — reduce_stock, take_payment, create_order, each replying ok —
// and checks the saga record carried forward from one step feeds correctly
// into the next, ending Completed with both ids populated.
func TestApply_FullHappyPathThroughCompleted(t *testing.T) {
	tid := "T11"
	order := baseOrder(tid)

	tr1, err := saga.Apply(order, nil, nil, okReply(vocabulary.EventReduceStock, tid, struct{}{}))
	require.NoError(t, err)
	order = tr1.Order
	payment := tr1.Payment
	assert.Equal(t, int64(2550), payment.Amount)

	tr2, err := saga.Apply(order, nil, payment, okReply(vocabulary.EventTakePayment, tid,
		vocabulary.TakePaymentReplyData{PaymentID: "P"}))
	require.NoError(t, err)
	order = tr2.Order
	payment = tr2.Payment
	assert.Equal(t, saga.StatusPaymentTaken, order.Status)
	assert.Equal(t, "P", *order.PaymentID)

	tr3, err := saga.Apply(order, nil, payment, okReply(vocabulary.EventCreateOrder, tid,
		vocabulary.CreateOrderReplyData{OrderID: "O"}))
	require.NoError(t, err)
	require.NotNil(t, tr3.PriorOrder)
	assert.Equal(t, saga.StatusOrderCreated, tr3.PriorOrder.Status)
	assert.Equal(t, "O", *tr3.PriorOrder.OrderID)
	order = tr3.Order
	assert.Equal(t, saga.StatusCompleted, order.Status)
	assert.Equal(t, "O", *order.OrderID)
	assert.Equal(t, "O", tr3.IndexOrderID)
	require.Len(t, tr3.Commands, 2)
	assert.Equal(t, vocabulary.EventUpdateOrderPaymentID, tr3.Commands[0].Envelope.Event)
	assert.Equal(t, vocabulary.EventUpdatePaymentOrderID, tr3.Commands[1].Envelope.Event)
}

// TestApplyCancel_AfterCompletion_EmitsFullRollback covers an external
// cancel request arriving for a saga that already completed: every step ran,
// so every rollback is owed.
func TestApplyCancel_AfterCompletion_EmitsFullRollback(t *testing.T) {
	tid := "T12"
	order := baseOrder(tid)
	order.Status = saga.StatusCompleted
	paymentID := "P"
	order.PaymentID = &paymentID

	tr := saga.ApplyCancel(order, nil, nil)
	assert.Equal(t, saga.StatusCanceled, tr.Order.Status)
	require.Len(t, tr.Commands, 3)
}

// TestApply_DuplicateCreateOrderReplyAfterCompletion_IsNoOp covers a
// redelivered create_order:ok arriving after the saga already completed —
// the broker may redeliver an already-acked message, and it must not
// re-apply the transition.
func TestApply_DuplicateCreateOrderReplyAfterCompletion_IsNoOp(t *testing.T) {
	tid := "T13"
	order := baseOrder(tid)
	order.Status = saga.StatusCompleted
	orderID := "O"
	order.OrderID = &orderID

	tr, err := saga.Apply(order, nil, nil, okReply(vocabulary.EventCreateOrder, tid,
		vocabulary.CreateOrderReplyData{OrderID: orderID}))
	require.NoError(t, err)
	assert.Nil(t, tr.Order)
	assert.Empty(t, tr.Commands)
}
