// Package middleware предоставляет gin HTTP middleware для ingress API.
// Файл logging.go содержит middleware для логирования запросов.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"example.com/saga-orchestrator/pkg/logger"
)

// Logging логирует метод, путь, длительность и статус каждого HTTP запроса,
// вместе с trace_id/correlation_id из контекста (см. tracing.go).
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		traceID := TraceIDFromContext(ctx)
		correlationID := CorrelationIDFromContext(ctx)

		logger.Debug().
			Str("trace_id", traceID).
			Str("correlation_id", correlationID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("получен HTTP запрос")

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		event := logger.Info().
			Str("trace_id", traceID).
			Str("correlation_id", correlationID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("duration", duration)

		if status >= 500 {
			event.Msg("HTTP запрос завершился с ошибкой сервера")
		} else {
			event.Msg("HTTP запрос обработан")
		}
	}
}
