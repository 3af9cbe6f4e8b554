// Package db предоставляет общие функции подключения к внешним хранилищам.
package db

import (
	"github.com/redis/go-redis/v9"

	"example.com/saga-orchestrator/pkg/config"
)

// ConnectRedis создаёт клиент Redis, используемый internal/sagastore как
// бэкенд TTL-ограниченного саг-хранилища.
func ConnectRedis(cfg config.StoreConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
