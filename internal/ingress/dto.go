package ingress

// Request/response DTOs for the ingress HTTP API. The wire shapes here are
// fixed by the external contract the caller integrates against and are not
// free to change independently of the handlers that use them.

// CreateOrderItemRequest — одна позиция в теле create_order.
type CreateOrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	UnitPrice int64  `json:"unit_price" binding:"min=0"`
}

// CreateOrderRequest — тело POST /orders/create_order.
type CreateOrderRequest struct {
	UserEmail       string                   `json:"user_email" binding:"required,email"`
	VendorEmail     string                   `json:"vendor_email" binding:"required,email"`
	DeliveryAddress string                   `json:"delivery_address" binding:"required"`
	Description     string                   `json:"description"`
	Status          string                   `json:"status"`
	PaymentMethod   string                   `json:"payment_method" binding:"required"`
	Items           []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateOrderResponse — тело ответа на успешный запуск саги.
type CreateOrderResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// CancelOrderResponse — тело ответа на запрос отмены.
type CancelOrderResponse struct {
	Message string `json:"message"`
}

// ErrorResponse — единая форма ошибки для всех ingress-обработчиков.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
