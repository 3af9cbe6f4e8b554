package ingress

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"example.com/saga-orchestrator/internal/authclient"
	"example.com/saga-orchestrator/pkg/logger"
)

// TokenValidator — узкий контракт, позволяющий подменить authclient.Client
// фейком в тестах.
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (*authclient.TokenInfo, error)
}

// extractBearerToken извлекает токен из Authorization header.
func extractBearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth возвращает middleware, консультирующийся с внешним сервисом
// валидации токенов перед тем, как пропустить запрос к обработчикам ingress.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)

		token := extractBearerToken(c)
		if token == "" {
			log.Debug().Msg("отсутствует токен авторизации")
			writeError(c, &AuthError{Message: "требуется авторизация"})
			c.Abort()
			return
		}

		info, err := validator.ValidateToken(ctx, token)
		if err != nil {
			log.Warn().Err(err).Msg("ошибка валидации токена")
			writeError(c, &AuthError{Message: "сервис валидации токена недоступен"})
			c.Abort()
			return
		}

		if info == nil || !info.Valid {
			log.Debug().Msg("токен невалиден или отозван")
			writeError(c, &AuthError{Message: "токен недействителен"})
			c.Abort()
			return
		}

		c.Set("user_email", info.Email)
		c.Set("jti", info.JTI)
		c.Next()
	}
}
