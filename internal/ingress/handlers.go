// Package ingress — тонкий HTTP-вход оркестратора: два endpoint'а, валидация,
// передача координатору и синхронный ответ без ожидания завершения саги.
// Никакого CRUD или листинга — только приём команд на запуск/отмену.
package ingress

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/saga-orchestrator/internal/coordinator"
	"example.com/saga-orchestrator/pkg/logger"
)

// Coordinator — узкий контракт, которого достаточно обработчикам; позволяет
// мокировать в тестах вместо реального *coordinator.Coordinator.
type Coordinator interface {
	StartOrder(ctx context.Context, req coordinator.StartOrderRequest) (string, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// Handler — обработчики ingress API.
type Handler struct {
	coord Coordinator
}

// NewHandler создаёт обработчик поверх координатора саги.
func NewHandler(coord Coordinator) *Handler {
	return &Handler{coord: coord}
}

// CreateOrder — POST /orders/create_order.
func (h *Handler) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &ValidationError{Message: "невалидное тело запроса: " + err.Error()})
		return
	}

	items := make([]coordinator.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = coordinator.Item{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}

	tid, err := h.coord.StartOrder(ctx, coordinator.StartOrderRequest{
		UserEmail:       req.UserEmail,
		VendorEmail:     req.VendorEmail,
		DeliveryAddress: req.DeliveryAddress,
		Description:     req.Description,
		PaymentMethod:   req.PaymentMethod,
		Items:           items,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	log.Info().Str("tid", tid).Msg("saga запущена")
	c.JSON(http.StatusOK, CreateOrderResponse{Status: "success", Message: "order saga started", Data: nil})
}

// CancelOrder — POST /orders/cancel_order?order_id=<id>.
func (h *Handler) CancelOrder(c *gin.Context) {
	ctx := c.Request.Context()

	orderID := c.Query("order_id")
	if orderID == "" {
		writeError(c, &ValidationError{Message: "order_id является обязательным параметром запроса"})
		return
	}

	if err := h.coord.CancelOrder(ctx, orderID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, CancelOrderResponse{Message: "Order cancellation started"})
}
