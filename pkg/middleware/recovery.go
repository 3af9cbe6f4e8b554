// Package middleware предоставляет gin HTTP middleware для ingress API.
// Файл recovery.go содержит middleware для обработки паник в HTTP обработчиках.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"example.com/saga-orchestrator/pkg/logger"
)

// Recovery перехватывает панику в обработчике, логирует stack trace и
// отвечает 500 без раскрытия деталей клиенту.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				ctx := c.Request.Context()
				stack := string(debug.Stack())

				logger.Error().
					Str("trace_id", TraceIDFromContext(ctx)).
					Str("correlation_id", CorrelationIDFromContext(ctx)).
					Str("path", c.FullPath()).
					Interface("panic", r).
					Str("stack", stack).
					Msg("перехвачена паника в HTTP обработчике")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "internal_error",
					"message": "внутренняя ошибка сервера",
				})
			}
		}()

		c.Next()
	}
}
