package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const noncePrefix = "ton-proof:nonce:"

var ErrNonceInvalid = errors.New("invalid or expired proof payload")

// NonceStore issues single-use TON Proof payloads.
type NonceStore interface {
	Issue(ctx context.Context, ttl time.Duration) (string, error)
	Consume(ctx context.Context, nonce string) error
}

type RedisNonceStore struct {
	rdb *redis.Client
}

func NewRedisNonceStore(rdb *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{rdb: rdb}
}

func (s *RedisNonceStore) Issue(ctx context.Context, ttl time.Duration) (string, error) {
	nonce := generateNonce(32)
	ok, err := s.rdb.SetNX(ctx, noncePrefix+nonce, "1", ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("nonce collision")
	}
	return nonce, nil
}

// Consume deletes the nonce atomically, so a proof can be used only once.
func (s *RedisNonceStore) Consume(ctx context.Context, nonce string) error {
	if nonce == "" {
		return ErrNonceInvalid
	}
	_, err := s.rdb.GetDel(ctx, noncePrefix+nonce).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNonceInvalid
	}
	return err
}

func generateNonce(bytes int) string {
	b := make([]byte, bytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
