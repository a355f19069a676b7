package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papermint/papermint/internal/clock"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStatusLifecycle(t *testing.T) {
	_, client := newTestRedis(t)
	fake := clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	s := NewRedisStatusStore(client, fake, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Status{SessionID: "sess-1", State: StateProcessing}))

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, StateProcessing, got.State)
	assert.Equal(t, fake.Now().UTC(), got.UpdatedAt)

	require.NoError(t, s.Put(ctx, Status{SessionID: "sess-1", State: StateReady, DocumentID: "doc-1"}))

	err = s.Put(ctx, Status{SessionID: "sess-1", State: StateError, Message: "late"})
	assert.ErrorIs(t, err, ErrTerminal)

	got, err = s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, StateReady, got.State)
}

func TestRedisStatusExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	fake := clock.NewFakeClock(time.Now())
	s := NewRedisStatusStore(client, fake, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Status{SessionID: "sess-1", State: StateProcessing}))

	mr.FastForward(time.Hour + time.Second)

	_, err := s.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisDocumentLifecycle(t *testing.T) {
	_, client := newTestRedis(t)
	fake := clock.NewFakeClock(time.Now())
	s := NewRedisDocumentStore(client, fake)
	ctx := context.Background()

	doc := testDocument("doc-1", fake.Now(), time.Hour, 256)
	require.NoError(t, s.Put(ctx, doc))

	exists, err := s.Exists(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := s.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, got.Bytes, 256)
	assert.Equal(t, "payslip", got.Metadata.ServiceSlug)

	meta, err := s.GetMetadata(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(256), meta.SizeBytes)

	require.NoError(t, s.Delete(ctx, "doc-1"))
	assert.ErrorIs(t, s.Delete(ctx, "doc-1"), ErrNotFound)
}

func TestRedisDocumentExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	fake := clock.NewFakeClock(time.Now())
	s := NewRedisDocumentStore(client, fake)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testDocument("doc-1", fake.Now(), time.Minute, 32)))

	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisDocumentStatsAndClear(t *testing.T) {
	_, client := newTestRedis(t)
	fake := clock.NewFakeClock(time.Now())
	s := NewRedisDocumentStore(client, fake)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testDocument("doc-1", fake.Now(), time.Hour, 100)))
	require.NoError(t, s.Put(ctx, testDocument("doc-2", fake.Now(), time.Hour, 60)))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, int64(160), stats.TotalBytes)

	require.NoError(t, s.Clear(ctx))
	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
}
