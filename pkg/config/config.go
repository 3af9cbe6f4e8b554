// Package config предоставляет загрузку конфигурации из переменных окружения.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config содержит полную конфигурацию оркестратора саги.
type Config struct {
	App   AppConfig
	Bus   BusConfig
	Store StoreConfig
	Auth  AuthConfig
	HTTP  HTTPConfig
	Trace TraceConfig
}

// AppConfig содержит общие настройки приложения.
type AppConfig struct {
	Name      string `env:"APP_NAME" envDefault:"saga-orchestrator"`
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// BusConfig содержит настройки подключения к брокеру сообщений.
type BusConfig struct {
	Host     string `env:"RABBITMQ_HOST" envDefault:"localhost"`
	Port     int    `env:"RABBITMQ_PORT" envDefault:"5672"`
	User     string `env:"RABBITMQ_USER" envDefault:"guest"`
	Password string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
}

// URL возвращает AMQP connection string.
func (c BusConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

// StoreConfig содержит настройки подключения к саговому хранилищу (Redis).
type StoreConfig struct {
	Host       string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port       int           `env:"REDIS_PORT" envDefault:"6379"`
	Password   string        `env:"REDIS_PASSWORD" envDefault:""`
	DB         int           `env:"REDIS_DB" envDefault:"0"`
	SagaTTL    time.Duration `env:"SAGA_TTL_SECONDS" envDefault:"600s"`
}

// Addr возвращает адрес Redis сервера.
func (c StoreConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig описывает доступ к внешнему сервису проверки bearer-токенов.
// Сам side-car оркестратор не реализует — только обращается к нему как клиент.
type AuthConfig struct {
	Enabled  bool          `env:"AUTH_ENABLED" envDefault:"false"`
	BaseURL  string        `env:"AUTH_BASE_URL" envDefault:"http://localhost:8081"`
	Path     string        `env:"AUTH_VALIDATE_PATH" envDefault:"/api/v1/auth/validate"`
	Timeout  time.Duration `env:"AUTH_TIMEOUT" envDefault:"5s"`
}

// HTTPConfig содержит настройки ingress HTTP сервера.
type HTTPConfig struct {
	Port int `env:"HTTP_PORT" envDefault:"8080"`
}

// Addr возвращает адрес HTTP сервера.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// TraceConfig содержит настройки distributed tracing (OTel/Jaeger OTLP).
type TraceConfig struct {
	Enabled  bool   `env:"JAEGER_ENABLED" envDefault:"false"`
	Host     string `env:"JAEGER_HOST" envDefault:"localhost"`
	OTLPPort int    `env:"JAEGER_OTLP_PORT" envDefault:"4317"`
}

// OTLPEndpoint возвращает OTLP gRPC endpoint для Jaeger.
func (c TraceConfig) OTLPEndpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.OTLPPort)
}

// Метрики и healthcheck используют собственный порт, заданный в коде запуска
// сервера метрик, а не HTTP.Port — оркестратор слушает HTTP и метрики на
// разных портах одного процесса.

// Load загружает конфигурацию из переменных окружения.
// Опционально загружает .env файл, если он существует.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}
	return cfg, nil
}

// IsDevelopment возвращает true, если приложение запущено в development режиме.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction возвращает true, если приложение запущено в production режиме.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
