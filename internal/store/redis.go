package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/papermint/papermint/internal/clock"
)

const (
	statusKeyPrefix   = "papermint:status:"
	documentKeyPrefix = "papermint:document:"
)

// NewRedisClient builds the shared client for the redis store backend.
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// RedisStatusStore keeps statuses as JSON values under a native TTL, so no
// sweep is needed. Terminality is enforced with a read-before-write, which
// is safe under the single-writer-per-session ownership model.
type RedisStatusStore struct {
	client *redis.Client
	clock  clock.Clock
	ttl    time.Duration
}

func NewRedisStatusStore(client *redis.Client, clk clock.Clock, ttl time.Duration) *RedisStatusStore {
	return &RedisStatusStore{client: client, clock: clk, ttl: ttl}
}

func (s *RedisStatusStore) Put(ctx context.Context, status Status) error {
	key := statusKeyPrefix + status.SessionID

	existing, err := s.client.Get(ctx, key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("status get: %w", err)
	}
	if err == nil {
		var current Status
		if uerr := json.Unmarshal(existing, &current); uerr == nil && current.State.Terminal() {
			return ErrTerminal
		}
	}

	status.UpdatedAt = s.clock.Now().UTC()
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("status marshal: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("status set: %w", err)
	}
	return nil
}

func (s *RedisStatusStore) Get(ctx context.Context, sessionID string) (Status, error) {
	payload, err := s.client.Get(ctx, statusKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Status{}, ErrNotFound
	}
	if err != nil {
		return Status{}, fmt.Errorf("status get: %w", err)
	}

	var status Status
	if err := json.Unmarshal(payload, &status); err != nil {
		return Status{}, fmt.Errorf("status unmarshal: %w", err)
	}
	return status, nil
}

// RedisDocumentStore stores each document as one JSON record with the PDF
// bytes base64 encoded, expiring via native TTL.
type RedisDocumentStore struct {
	client *redis.Client
	clock  clock.Clock
}

func NewRedisDocumentStore(client *redis.Client, clk clock.Clock) *RedisDocumentStore {
	return &RedisDocumentStore{client: client, clock: clk}
}

func (s *RedisDocumentStore) Put(ctx context.Context, doc Document) error {
	ttl := doc.Metadata.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("document marshal: %w", err)
	}
	key := documentKeyPrefix + doc.Metadata.DocumentID
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("document set: %w", err)
	}
	return nil
}

func (s *RedisDocumentStore) Get(ctx context.Context, documentID string) (Document, error) {
	payload, err := s.client.Get(ctx, documentKeyPrefix+documentID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("document get: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Document{}, fmt.Errorf("document unmarshal: %w", err)
	}
	return doc, nil
}

func (s *RedisDocumentStore) Exists(ctx context.Context, documentID string) (bool, error) {
	n, err := s.client.Exists(ctx, documentKeyPrefix+documentID).Result()
	if err != nil {
		return false, fmt.Errorf("document exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisDocumentStore) GetMetadata(ctx context.Context, documentID string) (DocumentMetadata, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return DocumentMetadata{}, err
	}
	return doc.Metadata, nil
}

func (s *RedisDocumentStore) Delete(ctx context.Context, documentID string) error {
	n, err := s.client.Del(ctx, documentKeyPrefix+documentID).Result()
	if err != nil {
		return fmt.Errorf("document delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisDocumentStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	now := s.clock.Now()

	iter := s.client.Scan(ctx, 0, documentKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return Stats{}, fmt.Errorf("document stats: %w", err)
		}
		var doc Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			continue
		}
		stats.Count++
		stats.TotalBytes += doc.Metadata.SizeBytes
		if age := now.Sub(doc.Metadata.CreatedAt); age > stats.OldestAge {
			stats.OldestAge = age
		}
	}
	if err := iter.Err(); err != nil {
		return Stats{}, fmt.Errorf("document stats scan: %w", err)
	}
	return stats, nil
}

func (s *RedisDocumentStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, documentKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("document clear: %w", err)
		}
	}
	return iter.Err()
}
