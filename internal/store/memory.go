package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/papermint/papermint/internal/clock"
)

type statusEntry struct {
	status    Status
	expiresAt time.Time
}

// MemoryStatusStore is the map-backed default. Expiry is lazy on read plus
// the periodic sweep.
type MemoryStatusStore struct {
	mu    sync.RWMutex
	items map[string]statusEntry
	clock clock.Clock
	ttl   time.Duration
}

func NewMemoryStatusStore(clk clock.Clock, ttl time.Duration) *MemoryStatusStore {
	return &MemoryStatusStore{
		items: make(map[string]statusEntry),
		clock: clk,
		ttl:   ttl,
	}
}

func (s *MemoryStatusStore) Put(_ context.Context, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if existing, ok := s.items[status.SessionID]; ok && now.Before(existing.expiresAt) {
		if existing.status.State.Terminal() {
			return ErrTerminal
		}
	}

	status.UpdatedAt = now
	s.items[status.SessionID] = statusEntry{
		status:    status,
		expiresAt: now.Add(s.ttl),
	}
	return nil
}

func (s *MemoryStatusStore) Get(_ context.Context, sessionID string) (Status, error) {
	s.mu.RLock()
	entry, ok := s.items[sessionID]
	s.mu.RUnlock()

	if !ok {
		return Status{}, ErrNotFound
	}
	if !s.clock.Now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.items, sessionID)
		s.mu.Unlock()
		return Status{}, ErrNotFound
	}
	return entry.status, nil
}

func (s *MemoryStatusStore) Sweep(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	evicted := 0
	for id, entry := range s.items {
		if !now.Before(entry.expiresAt) {
			delete(s.items, id)
			evicted++
		}
	}
	return evicted
}

// MemoryDocumentStore keeps rendered documents in process memory.
type MemoryDocumentStore struct {
	mu    sync.RWMutex
	items map[string]Document
	clock clock.Clock
}

func NewMemoryDocumentStore(clk clock.Clock) *MemoryDocumentStore {
	return &MemoryDocumentStore{
		items: make(map[string]Document),
		clock: clk,
	}
}

func (s *MemoryDocumentStore) Put(_ context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[doc.Metadata.DocumentID] = doc
	return nil
}

func (s *MemoryDocumentStore) Get(_ context.Context, documentID string) (Document, error) {
	return s.live(documentID)
}

func (s *MemoryDocumentStore) Exists(_ context.Context, documentID string) (bool, error) {
	_, err := s.live(documentID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *MemoryDocumentStore) GetMetadata(_ context.Context, documentID string) (DocumentMetadata, error) {
	doc, err := s.live(documentID)
	if err != nil {
		return DocumentMetadata{}, err
	}
	return doc.Metadata, nil
}

func (s *MemoryDocumentStore) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[documentID]; !ok {
		return ErrNotFound
	}
	delete(s.items, documentID)
	return nil
}

func (s *MemoryDocumentStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	var stats Stats
	var oldest time.Time
	for _, doc := range s.items {
		if !now.Before(doc.Metadata.ExpiresAt) {
			continue
		}
		stats.Count++
		stats.TotalBytes += doc.Metadata.SizeBytes
		if oldest.IsZero() || doc.Metadata.CreatedAt.Before(oldest) {
			oldest = doc.Metadata.CreatedAt
		}
	}
	if !oldest.IsZero() {
		stats.OldestAge = now.Sub(oldest)
	}
	return stats, nil
}

func (s *MemoryDocumentStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]Document)
	return nil
}

func (s *MemoryDocumentStore) Sweep(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	evicted := 0
	for id, doc := range s.items {
		if !now.Before(doc.Metadata.ExpiresAt) {
			delete(s.items, id)
			evicted++
		}
	}
	return evicted
}

// live returns the entry when present and unexpired. The read that finds
// an expired entry deletes it and reports ErrExpired; later reads see
// plain ErrNotFound.
func (s *MemoryDocumentStore) live(documentID string) (Document, error) {
	s.mu.RLock()
	doc, ok := s.items[documentID]
	s.mu.RUnlock()

	if !ok {
		return Document{}, ErrNotFound
	}
	if !s.clock.Now().Before(doc.Metadata.ExpiresAt) {
		s.mu.Lock()
		delete(s.items, documentID)
		s.mu.Unlock()
		return Document{}, ErrExpired
	}
	return doc, nil
}
