// Package vocabulary описывает канонический формат сообщений (envelope),
// которым обмениваются оркестратор и участники саги через шину сообщений.
package vocabulary

import (
	"encoding/json"
	"strings"
)

// Имена очередей — фиксированные, используются и оркестратором, и симуляторами участников.
const (
	QueueProducts      = "products_queue"
	QueuePayment       = "payment_queue"
	QueueOrders        = "orders_queue"
	QueueOrchestration = "orchestration_queue"
)

// Имена событий — закрытый список, по которому строится switch в internal/saga
// вместо карты "имя события -> обработчик".
const (
	EventReduceStock           = "reduce_stock"
	EventTakePayment           = "take_payment"
	EventCreateOrder           = "create_order"
	EventRollbackStock         = "rollback_stock"
	EventRollbackPayment       = "rollback_payment"
	EventRollbackOrder         = "rollback_order"
	EventUpdateOrderPaymentID  = "update_order_payment_id"
	EventUpdatePaymentOrderID  = "update_payment_order_id"
)

// Envelope — самоописывающееся сообщение шины. Используется как для
// исходящих команд, так и для входящих ответов участников.
type Envelope struct {
	Event         string          `json:"event"`
	TransactionID *string         `json:"transaction_id"`
	Status        *string         `json:"status"`
	Message       *string         `json:"message"`
	Data          json.RawMessage `json:"data"`
}

// NewCommand строит исходящую команду с заданным полезным содержимым.
func NewCommand(event, tid string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	id := tid
	return Envelope{
		Event:         event,
		TransactionID: &id,
		Data:          raw,
	}, nil
}

// NewReply строит ответный envelope — используется симуляторами участников в тестах и в cmd/*participant.
func NewReply(event, tid, status, message string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	id := tid
	st := status
	var msgPtr *string
	if message != "" {
		msgPtr = &message
	}
	return Envelope{
		Event:         event,
		TransactionID: &id,
		Status:        &st,
		Message:       msgPtr,
		Data:          raw,
	}, nil
}

// DecodeData декодирует Data в dst. Вызывается только если вызывающий уже
// знает конкретный тип полезной нагрузки по Event — строгая типизация на границе.
func (e Envelope) DecodeData(dst any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, dst)
}

// TID возвращает transaction_id или пустую строку, если он не задан.
func (e Envelope) TID() string {
	if e.TransactionID == nil {
		return ""
	}
	return *e.TransactionID
}

// IsFailure считает ответ неуспешным, если статус не nil и содержит
// (с учётом регистра) подстроку "error".
func IsFailure(status *string) bool {
	return status != nil && strings.Contains(*status, "error")
}

// --- Типизированные полезные нагрузки исходящих команд ---

// LineItemData — одна позиция заказа на проводе.
type LineItemData struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// ReduceStockData — данные команды reduce_stock.
type ReduceStockData struct {
	Products []ProductQuantity `json:"products"`
}

// ProductQuantity — пара продукт/количество для резервирования на складе.
type ProductQuantity struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// TakePaymentData — данные команды take_payment.
type TakePaymentData struct {
	UserEmail     string `json:"user_email"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
}

// CreateOrderData — данные команды create_order.
type CreateOrderData struct {
	UserEmail       string         `json:"user_email"`
	VendorEmail     string         `json:"vendor_email"`
	DeliveryAddress string         `json:"delivery_address"`
	Description     string         `json:"description,omitempty"`
	Status          string         `json:"status"`
	Items           []LineItemData `json:"items"`
}

// RollbackPaymentData — данные команды rollback_payment.
type RollbackPaymentData struct {
	PaymentID string `json:"payment_id"`
}

// UpdateOrderPaymentIDData — данные команды update_order_payment_id.
type UpdateOrderPaymentIDData struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
}

// UpdatePaymentOrderIDData — данные команды update_payment_order_id.
type UpdatePaymentOrderIDData struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
}

// --- Типизированные полезные нагрузки входящих ответов ---

// TakePaymentReplyData — payment_id, приходящий в ответе take_payment:ok.
type TakePaymentReplyData struct {
	PaymentID string `json:"payment_id"`
}

// CreateOrderReplyData — order_id, приходящий в ответе create_order:ok.
type CreateOrderReplyData struct {
	OrderID string `json:"order_id"`
}
