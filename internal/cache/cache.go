// Package cache provee un cache chico multi-backend para datos calientes
// (configs SMTP descifradas, lookups de API keys). Memory sirve para
// desarrollo y single-node; Redis para correr más de una instancia.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indica que la key no existe o ya expiró.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound reporta si err es un miss de cache.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Client es lo mínimo que los consumidores necesitan de un backend.
type Client interface {
	// Get devuelve el valor o ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set guarda con TTL; ttl 0 usa el default del backend.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
