package ingress

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/saga-orchestrator/internal/coordinator"
	"example.com/saga-orchestrator/pkg/logger"
)

// ValidationError и AuthError оборачивают sentinel-ошибки домена и
// собираются в один переводчик вместо разбросанных c.JSON по каждому
// обработчику.
var (
	ErrValidation = errors.New("ingress: validation failed")
	ErrAuth       = errors.New("ingress: authentication failed")
)

// ValidationError оборачивает конкретную причину невалидности запроса.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// AuthError оборачивает конкретную причину отказа аутентификации.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return ErrAuth }

// writeError переводит ошибку в HTTP ответ — единая точка вместо
// повторяющихся c.JSON(...) в каждом обработчике.
func writeError(c *gin.Context, err error) {
	log := logger.With().Str("path", c.FullPath()).Logger()

	var valErr *ValidationError
	var authErr *AuthError

	switch {
	case errors.As(err, &valErr):
		log.Debug().Err(err).Msg("невалидный запрос")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: valErr.Message})
	case errors.As(err, &authErr):
		log.Debug().Err(err).Msg("отказ в аутентификации")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: authErr.Message})
	case errors.Is(err, coordinator.ErrOrderNotIndexed):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "заказ с данным order_id не найден"})
	case errors.Is(err, coordinator.ErrInvalidPaymentMethod),
		errors.Is(err, coordinator.ErrEmptyItems),
		errors.Is(err, coordinator.ErrInvalidItem):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
	default:
		log.Error().Err(err).Msg("внутренняя ошибка оркестратора")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "внутренняя ошибка сервера"})
	}
}
