// Package middleware предоставляет gin HTTP middleware для ingress API.
// Файл tracing.go содержит middleware для извлечения/генерации trace_id и
// correlation_id из HTTP заголовков.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/saga-orchestrator/pkg/logger"
)

// Заголовки HTTP для propagation трейса.
const (
	// TraceIDHeader - заголовок с идентификатором трейса.
	TraceIDHeader = "X-Trace-Id"
	// CorrelationIDHeader - заголовок с correlation ID.
	CorrelationIDHeader = "X-Correlation-Id"
)

// Tracing извлекает trace_id и correlation_id из входящих заголовков,
// генерирует новые UUID если они отсутствуют, кладёт их в context запроса
// и отражает их в заголовках ответа.
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		correlationID := c.GetHeader(CorrelationIDHeader)

		if traceID == "" {
			traceID = uuid.New().String()
		}
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		ctx := logger.NewContextWithIDs(c.Request.Context(), traceID, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(TraceIDHeader, traceID)
		c.Header(CorrelationIDHeader, correlationID)

		c.Next()
	}
}

// TraceIDFromContext извлекает trace_id из context.
// Делегирует в pkg/logger для единообразия.
func TraceIDFromContext(ctx context.Context) string {
	return logger.TraceIDFromContext(ctx)
}

// CorrelationIDFromContext извлекает correlation_id из context.
// Делегирует в pkg/logger для единообразия.
func CorrelationIDFromContext(ctx context.Context) string {
	return logger.CorrelationIDFromContext(ctx)
}
