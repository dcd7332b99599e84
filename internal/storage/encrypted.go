package storage

import (
	"context"

	"github.com/dukerupert/wicket/internal/crypto"
)

// EncryptedStorage seals every value before handing it to the wrapped
// backend. A value that does not open (wrong key, or written before
// encryption was enabled) reads as corrupt.
type EncryptedStorage struct {
	next Storage
	enc  crypto.Encryptor
}

// NewEncryptedStorage wraps next with enc.
func NewEncryptedStorage(next Storage, enc crypto.Encryptor) *EncryptedStorage {
	return &EncryptedStorage{next: next, enc: enc}
}

func (s *EncryptedStorage) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	value, err := s.enc.Decrypt(sealed)
	if err != nil {
		return nil, ErrCorrupt(key, err)
	}
	return value, nil
}

func (s *EncryptedStorage) Put(ctx context.Context, key string, value []byte) error {
	sealed, err := s.enc.Encrypt(value)
	if err != nil {
		return err
	}
	return s.next.Put(ctx, key, sealed)
}

func (s *EncryptedStorage) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, key)
}

// Unwrap returns the underlying backend.
func (s *EncryptedStorage) Unwrap() Storage {
	return s.next
}
