package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollLimiterAllowsOncePerWindow(t *testing.T) {
	current := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	l := newPollLimiter(time.Second, func() time.Time { return current })

	require.True(t, l.Allow("1.2.3.4", "sess-a"))
	require.False(t, l.Allow("1.2.3.4", "sess-a"))

	current = current.Add(time.Second)
	require.True(t, l.Allow("1.2.3.4", "sess-a"))
}

func TestPollLimiterPrunesStaleEntries(t *testing.T) {
	current := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	l := newPollLimiter(time.Second, func() time.Time { return current })

	require.True(t, l.Allow("1.2.3.4", "sess-a"))
	require.True(t, l.Allow("1.2.3.4", "sess-b"))
	assert.Len(t, l.lastHit, 2)

	current = current.Add(2 * time.Second)
	require.True(t, l.Allow("5.6.7.8", "sess-c"))

	// Entries from callers that stopped polling are gone.
	assert.Len(t, l.lastHit, 1)
}
