package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore mantém sessões serializadas em JSON com TTL igual à validade.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore cria store sobre um cliente já conectado.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Key monta a chave usada no Redis.
func Key(id string) string {
	return keyPrefix + id
}

func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	if strings.TrimSpace(sess.ID) == "" {
		return errors.New("session: id obrigatório")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session: validade no passado")
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, Key(sess.ID), payload, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	raw, err := s.client.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("session: payload inválido: %w", err)
	}
	if sess.Expired(s.now()) {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, Key(id)).Err()
}
