// Package authclient предоставляет клиент внешнего сервиса проверки
// bearer-токенов. Оркестратор не реализует проверку подписи/blacklist сам —
// он консультируется с отдельным REST-сервисом, обёрнутым в Circuit Breaker
// на случай его недоступности.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"example.com/saga-orchestrator/pkg/circuitbreaker"
	"example.com/saga-orchestrator/pkg/config"
	"example.com/saga-orchestrator/pkg/logger"
)

// TokenInfo — результат валидации токена.
type TokenInfo struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	JTI    string `json:"jti"`
}

// Validator — узкий контракт, используемый ingress-middleware; позволяет
// подменять клиент фейком в тестах.
type Validator interface {
	ValidateToken(ctx context.Context, accessToken string) (*TokenInfo, error)
}

// Client — REST клиент сервиса проверки токенов.
type Client struct {
	httpClient *http.Client
	baseURL    string
	path       string
	breaker    *circuitbreaker.Breaker
}

// New создаёт клиент по конфигурации AuthConfig. Если cfg.Enabled == false,
// вызывающий код не должен создавать клиент вовсе — см. internal/ingress
// router-сборку.
func New(cfg config.AuthConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		path:       cfg.Path,
		breaker:    circuitbreaker.New("auth-service"),
	}
}

// validateRequest — тело запроса к side-car.
type validateRequest struct {
	AccessToken string `json:"access_token"`
}

// ValidateToken обращается к внешнему сервису проверки токенов, оборачивая
// вызов в Circuit Breaker — инфраструктурные сбои (таймаут, недоступность)
// открывают breaker, но ответ 401 от side-car (невалидный токен) остаётся
// бизнес-результатом и не считается сбоем.
func (c *Client) ValidateToken(ctx context.Context, accessToken string) (*TokenInfo, error) {
	var info *TokenInfo

	err := c.breaker.Execute(func() error {
		body, err := json.Marshal(validateRequest{AccessToken: accessToken})
		if err != nil {
			return fmt.Errorf("кодирование запроса валидации токена: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("сборка запроса валидации токена: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("вызов сервиса валидации токена: %w", err)
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			var ti TokenInfo
			if err := json.NewDecoder(resp.Body).Decode(&ti); err != nil {
				return fmt.Errorf("декодирование ответа валидации токена: %w", err)
			}
			info = &ti
			return nil
		case http.StatusUnauthorized, http.StatusForbidden:
			info = &TokenInfo{Valid: false}
			return nil
		default:
			return fmt.Errorf("сервис валидации токена вернул статус %d", resp.StatusCode)
		}
	})
	if err != nil {
		logger.Warn().Err(err).Msg("ошибка обращения к сервису валидации токена")
		return nil, err
	}

	return info, nil
}

// BreakerState возвращает текущее состояние circuit breaker для диагностики
// состояния зависимости.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}
