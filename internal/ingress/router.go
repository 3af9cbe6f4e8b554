package ingress

import (
	"github.com/gin-gonic/gin"

	"example.com/saga-orchestrator/pkg/metrics"
	"example.com/saga-orchestrator/pkg/middleware"
)

// NewRouter собирает gin-роутер ingress API: Recovery + Tracing + Logging +
// Prometheus метрики на каждый запрос, опционально RequireAuth, и два
// эндпоинта для запуска и отмены саги.
func NewRouter(h *Handler, authValidator TokenValidator) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Tracing(), middleware.Logging(), metrics.GinMetricsMiddleware("saga-orchestrator"))

	group := r.Group("/orders")
	if authValidator != nil {
		group.Use(RequireAuth(authValidator))
	}
	group.POST("/create_order", h.CreateOrder)
	group.POST("/cancel_order", h.CancelOrder)

	return r
}
