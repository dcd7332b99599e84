package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/wicket/internal"
	"github.com/dukerupert/wicket/internal/crypto"
)

// Well-known keys. The cart and the authenticated user are persisted
// separately so logging out never touches the cart.
const (
	KeyCart = "cart"
	KeyUser = "user"
)

// Storage is the persisted mirror behind the in-memory client state.
// Implementations can use the local filesystem, Redis, or memory.
type Storage interface {
	// Get returns the raw value stored under key.
	// Returns an error satisfying IsNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key.
	// Returns nil if the key doesn't exist (idempotent).
	Delete(ctx context.Context, key string) error
}

// NewStorage creates a Storage implementation based on configuration.
// A non-empty EncryptionKey wraps the backend so values are sealed at rest.
func NewStorage(cfg internal.StorageConfig) (Storage, error) {
	var (
		st  Storage
		err error
	)
	switch cfg.Provider {
	case "local", "":
		st, err = NewLocalStorage(cfg.LocalPath)
	case "redis":
		opts, perr := redis.ParseURL(cfg.RedisURL)
		if perr != nil {
			return nil, ErrInvalidRedisURL(cfg.RedisURL, perr)
		}
		st = NewRedisStorage(redis.NewClient(opts), cfg.KeyPrefix)
	case "memory":
		st = NewMemoryStorage()
	default:
		return nil, ErrUnknownProvider(cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.EncryptionKey == "" {
		return st, nil
	}
	key, err := crypto.DecodeKeyBase64(cfg.EncryptionKey)
	if err != nil {
		return nil, ErrInvalidEncryptionKey(err)
	}
	enc, err := crypto.NewAESEncryptor(key)
	if err != nil {
		return nil, ErrInvalidEncryptionKey(err)
	}
	return NewEncryptedStorage(st, enc), nil
}

// LoadJSON decodes the value under key into v.
// found is false when nothing is stored; v is left untouched in that case.
func LoadJSON(ctx context.Context, s Storage, key string, v any) (found bool, err error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return IsCorrupt(err), err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, ErrCorrupt(key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

// IsCorrupt reports whether err means a value exists but cannot be read.
func IsCorrupt(err error) bool {
	return errors.Is(err, errUndecodable)
}

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Code == codeNotFound
}
