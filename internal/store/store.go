package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// State is the lifecycle position of one generation session.
type State string

const (
	StateProcessing State = "processing"
	StateReady      State = "ready"
	StateError      State = "error"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateReady || s == StateError
}

var (
	// ErrNotFound covers both missing and expired entries.
	ErrNotFound = errors.New("store: not found")
	// ErrExpired is returned on the read that discovers an entry past its
	// expiry. It satisfies errors.Is against ErrNotFound; backends with
	// native TTLs never observe the expired entry and return ErrNotFound.
	ErrExpired = fmt.Errorf("%w: expired", ErrNotFound)
	// ErrTerminal rejects a write to a session already in ready or error.
	ErrTerminal = errors.New("store: status is terminal")
)

// Status is the pollable record for one session. ServiceName and
// DocumentID are set on ready; Message is set on error.
type Status struct {
	SessionID   string    `json:"sessionId"`
	State       State     `json:"state"`
	ServiceName string    `json:"serviceName,omitempty"`
	DocumentID  string    `json:"documentId,omitempty"`
	Message     string    `json:"message,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DocumentMetadata describes a stored document without its payload.
type DocumentMetadata struct {
	DocumentID  string    `json:"documentId"`
	SessionID   string    `json:"sessionId"`
	ServiceSlug string    `json:"serviceSlug"`
	TraceID     string    `json:"traceId,omitempty"`
	MimeType    string    `json:"mimeType"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Document is a rendered PDF with its metadata. Bytes round-trip through
// JSON as base64 for backends that store serialized records.
type Document struct {
	Metadata DocumentMetadata `json:"metadata"`
	Bytes    []byte           `json:"bytes"`
}

// Stats summarizes document store occupancy for the admin surface.
type Stats struct {
	Count      int           `json:"count"`
	TotalBytes int64         `json:"totalBytes"`
	OldestAge  time.Duration `json:"oldestAge"`
}

// StatusStore holds pollable generation statuses. Writes past a terminal
// state return ErrTerminal and leave the record untouched. Entries expire
// after a configured TTL and then read as ErrNotFound.
type StatusStore interface {
	Put(ctx context.Context, status Status) error
	Get(ctx context.Context, sessionID string) (Status, error)
}

// DocumentStore holds rendered documents until their expiry.
type DocumentStore interface {
	Put(ctx context.Context, doc Document) error
	Get(ctx context.Context, documentID string) (Document, error)
	Exists(ctx context.Context, documentID string) (bool, error)
	GetMetadata(ctx context.Context, documentID string) (DocumentMetadata, error)
	Delete(ctx context.Context, documentID string) error
	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) error
}

// Sweeper is implemented by backends that need a periodic expiry pass.
// Backends with native TTLs return zero without work.
type Sweeper interface {
	Sweep(ctx context.Context) int
}
