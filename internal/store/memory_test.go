package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papermint/papermint/internal/clock"
)

func TestMemoryStatusLifecycle(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	s := NewMemoryStatusStore(fake, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Status{SessionID: "sess-1", State: StateProcessing}))

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, StateProcessing, got.State)

	require.NoError(t, s.Put(ctx, Status{
		SessionID:   "sess-1",
		State:       StateReady,
		DocumentID:  "doc-1",
		ServiceName: "Payslip",
	}))

	got, err = s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, StateReady, got.State)
	assert.Equal(t, "doc-1", got.DocumentID)
}

func TestMemoryStatusTerminalRejectsFurtherWrites(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	s := NewMemoryStatusStore(fake, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Status{SessionID: "sess-1", State: StateError, Message: "boom"}))

	err := s.Put(ctx, Status{SessionID: "sess-1", State: StateReady, DocumentID: "doc-1"})
	assert.ErrorIs(t, err, ErrTerminal)

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, StateError, got.State)
	assert.Equal(t, "boom", got.Message)
}

func TestMemoryStatusExpiry(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	s := NewMemoryStatusStore(fake, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Status{SessionID: "sess-1", State: StateProcessing}))

	fake.Advance(2*time.Hour - time.Millisecond)
	_, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)

	fake.Advance(2 * time.Millisecond)
	_, err = s.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// An expired terminal entry no longer blocks a fresh write.
	require.NoError(t, s.Put(ctx, Status{SessionID: "sess-1", State: StateProcessing}))
}

func TestMemoryStatusSweep(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	s := NewMemoryStatusStore(fake, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Status{SessionID: "old", State: StateReady}))
	fake.Advance(30 * time.Minute)
	require.NoError(t, s.Put(ctx, Status{SessionID: "fresh", State: StateProcessing}))
	fake.Advance(31 * time.Minute)

	assert.Equal(t, 1, s.Sweep(ctx))
	_, err := s.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func testDocument(id string, created time.Time, ttl time.Duration, size int) Document {
	return Document{
		Metadata: DocumentMetadata{
			DocumentID:  id,
			SessionID:   "sess-" + id,
			ServiceSlug: "payslip",
			MimeType:    "application/pdf",
			SizeBytes:   int64(size),
			CreatedAt:   created,
			ExpiresAt:   created.Add(ttl),
		},
		Bytes: make([]byte, size),
	}
}

func TestMemoryDocumentLifecycle(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	s := NewMemoryDocumentStore(fake)
	ctx := context.Background()

	doc := testDocument("doc-1", fake.Now(), time.Hour, 128)
	require.NoError(t, s.Put(ctx, doc))

	exists, err := s.Exists(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, exists)

	meta, err := s.GetMetadata(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(128), meta.SizeBytes)

	got, err := s.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, got.Bytes, 128)

	require.NoError(t, s.Delete(ctx, "doc-1"))
	assert.ErrorIs(t, s.Delete(ctx, "doc-1"), ErrNotFound)
}

func TestMemoryDocumentExpiryBoundary(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	s := NewMemoryDocumentStore(fake)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testDocument("doc-1", fake.Now(), time.Hour, 64)))

	fake.Advance(time.Hour - time.Millisecond)
	_, err := s.Get(ctx, "doc-1")
	require.NoError(t, err)

	// The discovering read reports expiry and deletes the entry.
	fake.Advance(2 * time.Millisecond)
	_, err = s.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrExpired)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrExpired)

	exists, err := s.Exists(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryDocumentStats(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	s := NewMemoryDocumentStore(fake)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testDocument("doc-1", fake.Now(), time.Hour, 100)))
	fake.Advance(10 * time.Minute)
	require.NoError(t, s.Put(ctx, testDocument("doc-2", fake.Now(), time.Hour, 50)))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, int64(150), stats.TotalBytes)
	assert.Equal(t, 10*time.Minute, stats.OldestAge)
}

func TestMemoryDocumentSweepAndClear(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	s := NewMemoryDocumentStore(fake)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testDocument("doc-1", fake.Now(), time.Minute, 10)))
	require.NoError(t, s.Put(ctx, testDocument("doc-2", fake.Now(), time.Hour, 10)))

	fake.Advance(2 * time.Minute)
	assert.Equal(t, 1, s.Sweep(ctx))

	require.NoError(t, s.Clear(ctx))
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
}
