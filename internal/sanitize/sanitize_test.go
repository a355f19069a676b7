package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeBlockedOrganization(t *testing.T) {
	s := New(Blocklists{})

	result := s.Sanitize("Federal Bureau of Investigation")
	assert.True(t, result.WasSanitized)
	assert.Equal(t, OrganizationPlaceholder, result.Value)
	assert.Contains(t, result.Reason, "federal bureau of investigation")
}

func TestSanitizeBlockedPerson(t *testing.T) {
	s := New(Blocklists{})

	result := s.Sanitize("Dr. Elon Musk, MD")
	assert.True(t, result.WasSanitized)
	assert.Equal(t, PersonPlaceholder, result.Value)
	assert.Equal(t, "elon musk", result.Reason)
}

func TestSanitizePassesCleanValue(t *testing.T) {
	s := New(Blocklists{})

	result := s.Sanitize("Acme Holdings Ltd")
	assert.False(t, result.WasSanitized)
	assert.Equal(t, "Acme Holdings Ltd", result.Value)
	assert.Empty(t, result.Reason)
}

func TestSanitizeIdempotent(t *testing.T) {
	s := New(Blocklists{})

	for _, input := range []string{"MI6 Vauxhall", "Taylor Swift", "Ordinary Corp"} {
		first := s.Sanitize(input)
		second := s.Sanitize(first.Value)
		assert.Equal(t, first.Value, second.Value, "input %q", input)
		assert.False(t, second.WasSanitized, "placeholder for %q re-flagged", input)
	}
}

func TestBlocklistCoverageCaseInsensitive(t *testing.T) {
	s := New(Blocklists{})

	for _, term := range s.OrganizationTerms() {
		result := s.Sanitize("Acme " + strings.ToUpper(term))
		assert.True(t, result.WasSanitized, "term %q not caught", term)
		assert.Equal(t, term, result.Reason)
	}
}

func TestFirstMatchOnlyReported(t *testing.T) {
	s := New(Blocklists{
		Organizations: []string{"alpha agency", "beta bureau"},
	})

	result := s.Sanitize("Alpha Agency and Beta Bureau joint office")
	assert.True(t, result.WasSanitized)
	assert.Equal(t, "alpha agency", result.Reason)
}

func TestBlocksOrganization(t *testing.T) {
	s := New(Blocklists{})

	assert.True(t, s.BlocksOrganization("the INTERPOL liaison desk"))
	assert.False(t, s.BlocksOrganization("Acme Ltd"))
}

func TestBlocksCoversBothLists(t *testing.T) {
	s := New(Blocklists{})

	assert.True(t, s.Blocks("Federal Bureau of Investigation"))
	assert.True(t, s.Blocks("Taylor Swift Enterprises"))
	assert.False(t, s.Blocks("Acme Ltd"))
}
