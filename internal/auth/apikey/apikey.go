// Package apikey genera y verifica las credenciales públicas de envío
// (API key + secret). En la DB sólo viven hashes; la key y el secret en
// claro se muestran una única vez, al crearlos.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/cache"
	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/security/token"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

var (
	ErrInvalidCredentials = errors.New("apikey: invalid key or secret")
)

const (
	PrefixLive = "sk_live_"
	PrefixTest = "sk_test_"

	cacheTTL = time.Minute
)

// Pair es el material en claro recién generado. No se persiste.
type Pair struct {
	Key    string
	Secret string
}

// NewPair genera una key sk_live_/sk_test_ con 32 bytes random en hex,
// y un secret opaco independiente.
func NewPair(live bool) (Pair, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return Pair{}, err
	}
	prefix := PrefixTest
	if live {
		prefix = PrefixLive
	}
	secret, err := token.GenerateOpaqueToken(32)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		Key:    prefix + hex.EncodeToString(raw),
		Secret: secret,
	}, nil
}

// Mask deja visible sólo el arranque y el final de la key: sk_live_a1b2...f9e8.
func Mask(key string) string {
	if len(key) <= 16 {
		return key
	}
	return key[:12] + "..." + key[len(key)-4:]
}

// HashKey y HashSecret son lo que se persiste.
func HashKey(key string) string       { return token.SHA256Base64URL(key) }
func HashSecret(secret string) string { return token.SHA256Base64URL(secret) }

// Store es el subconjunto del repositorio que necesita el verificador.
type Store interface {
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*core.APIKey, error)
	TouchAPIKey(ctx context.Context, id string, at time.Time) error
}

// Verifier resuelve credenciales key+secret contra la DB, con un cache
// corto de hashes para aguantar ráfagas del endpoint público de envío.
type Verifier struct {
	store Store
	cache cache.Client // puede ser nil
}

func NewVerifier(store Store, c cache.Client) *Verifier {
	return &Verifier{store: store, cache: c}
}

// Verify valida el par key/secret y devuelve la API key si es válida y
// está ACTIVE. La comparación del secret es en tiempo constante sobre
// los hashes. Cualquier fallo colapsa en ErrInvalidCredentials: el
// caller no distingue key inexistente de secret incorrecto.
func (v *Verifier) Verify(ctx context.Context, key, secret string) (*core.APIKey, error) {
	key = strings.TrimSpace(key)
	secret = strings.TrimSpace(secret)
	if key == "" || secret == "" {
		return nil, ErrInvalidCredentials
	}
	if !strings.HasPrefix(key, PrefixLive) && !strings.HasPrefix(key, PrefixTest) {
		return nil, ErrInvalidCredentials
	}

	keyHash := HashKey(key)

	k, err := v.lookup(ctx, keyHash)
	if err != nil {
		if err == core.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if k.Status != core.APIKeyStatusActive {
		return nil, ErrInvalidCredentials
	}

	if subtle.ConstantTimeCompare([]byte(HashSecret(secret)), []byte(k.SecretHash)) != 1 {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := v.store.TouchAPIKey(ctx, k.ID, now); err != nil {
		logger.From(ctx).Warn("failed to touch api key", logger.APIKeyID(k.ID), logger.Err(err))
	}
	k.LastUsedAt = &now
	return k, nil
}

// Invalidate borra el lookup cacheado de una key. Se llama al revocar:
// sin esto una key revocada seguiría autenticando hasta que venza el TTL.
func (v *Verifier) Invalidate(ctx context.Context, keyHash string) {
	if v.cache == nil {
		return
	}
	if err := v.cache.Delete(ctx, "apikey:"+keyHash); err != nil {
		logger.From(ctx).Warn("apikey cache invalidate failed", logger.Err(err))
	}
}

// lookup intenta el cache primero. Se cachean sólo hashes, nunca material
// en claro.
func (v *Verifier) lookup(ctx context.Context, keyHash string) (*core.APIKey, error) {
	const sep = "|"
	cacheKey := "apikey:" + keyHash

	if v.cache != nil {
		if raw, err := v.cache.Get(ctx, cacheKey); err == nil {
			parts := strings.Split(raw, sep)
			if len(parts) == 4 {
				return &core.APIKey{
					ID:         parts[0],
					AccountID:  parts[1],
					SecretHash: parts[2],
					Status:     parts[3],
					KeyHash:    keyHash,
				}, nil
			}
		}
	}

	k, err := v.store.GetAPIKeyByHash(ctx, keyHash)
	if err != nil {
		return nil, err
	}
	if v.cache != nil {
		val := strings.Join([]string{k.ID, k.AccountID, k.SecretHash, k.Status}, sep)
		if err := v.cache.Set(ctx, cacheKey, val, cacheTTL); err != nil {
			logger.From(ctx).Debug("apikey cache set failed", logger.Err(err))
		}
	}
	return k, nil
}
