// Package saga содержит саговые записи и чистую функцию перехода состояний,
// реализующую таблицу переходов оркестратора. Пакет не делает I/O — это
// единственное правило, которое его тесты проверяют напрямую.
package saga

// Status — состояние саги заказа. Граф переходов закрыт: Pending -> StockReduced
// -> PaymentTaken -> OrderCreated -> Completed на happy path; при ошибке шага
// или внешней отмене сага переходит сразу в Failed/Canceled. StatusCompensating
// объявлен, но ни один переход его не выставляет и не записывает.
type Status string

const (
	StatusPending       Status = "Pending"
	StatusStockReduced  Status = "StockReduced"
	StatusPaymentTaken  Status = "PaymentTaken"
	StatusOrderCreated  Status = "OrderCreated"
	StatusCompleted     Status = "Completed"
	StatusCompensating  Status = "Compensating"
	StatusCanceled      Status = "Canceled"
	StatusFailed        Status = "Failed"
)

// IsTerminal сообщает, допускает ли состояние дальнейшие переходы.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusFailed:
		return true
	default:
		return false
	}
}

// PaymentMethod — допустимые способы оплаты.
type PaymentMethod string

const (
	PaymentMethodCreditCard       PaymentMethod = "Credit Card"
	PaymentMethodDebitCard        PaymentMethod = "Debit Card"
	PaymentMethodCashOnDelivery   PaymentMethod = "Cash on Delivery"
)

// ValidPaymentMethod проверяет принадлежность допустимому множеству.
func ValidPaymentMethod(m string) bool {
	switch PaymentMethod(m) {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodCashOnDelivery:
		return true
	default:
		return false
	}
}

// PaymentStatus — статус платёжной саги.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusSuccess   PaymentStatus = "Success"
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusCancelled PaymentStatus = "Cancelled"
)

// LineItem — позиция заказа. UnitPrice хранится в минимальных денежных
// единицах (центах), а не как дробное число — исключает дрейф при округлении.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Amount — сумма quantity*unit_price по всем позициям заказа.
func Amount(items []LineItem) int64 {
	var total int64
	for _, it := range items {
		total += int64(it.Quantity) * it.UnitPrice
	}
	return total
}

// OrderSaga — запись заказа саги. Единственный держатель payment_id/order_id
// на стороне заказа.
type OrderSaga struct {
	TID             string        `json:"tid"`
	UserEmail       string        `json:"user_email"`
	VendorEmail     string        `json:"vendor_email"`
	DeliveryAddress string        `json:"delivery_address"`
	Description     string        `json:"description,omitempty"`
	Status          Status        `json:"status"`
	Items           []LineItem    `json:"items"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	PaymentID       *string       `json:"payment_id,omitempty"`
	OrderID         *string       `json:"order_id,omitempty"`
}

// ProductSaga — ровно то, что было запрошено у склада; хранит все позиции,
// а не только первую, чтобы компенсация по каждой из них была однозначной.
type ProductSaga struct {
	TID   string                       `json:"tid"`
	Items []ProductSagaItem            `json:"items"`
}

// ProductSagaItem — пара продукт/количество в саге склада.
type ProductSagaItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PaymentSaga — запись платёжной саги.
type PaymentSaga struct {
	TID           string        `json:"tid"`
	UserEmail     string        `json:"user_email"`
	OrderID       *string       `json:"order_id,omitempty"`
	Amount        int64         `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}
