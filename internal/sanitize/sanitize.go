package sanitize

import (
	"strings"

	"go.uber.org/fx"
)

// Placeholders substituted for blocked values. Distinct per list so the
// prompt still reads naturally for either kind of match.
const (
	OrganizationPlaceholder = "a private organization"
	PersonPlaceholder       = "a private individual"
)

// Result reports the outcome of one sanitization pass over a field value.
type Result struct {
	Value        string
	WasSanitized bool
	// Reason names the first matched blocklist term. Only the first match
	// is reported even when several terms occur in the same value.
	Reason string
}

// Blocklists holds the terms that must never reach the generation provider
// or rendered output.
type Blocklists struct {
	Organizations []string
	PublicFigures []string
}

// Sanitizer checks free-text field values against the blocklists.
type Sanitizer struct {
	organizations []string
	publicFigures []string
}

// New builds a Sanitizer over the given blocklists. Empty lists fall back
// to the built-in defaults.
func New(lists Blocklists) *Sanitizer {
	orgs := lists.Organizations
	if len(orgs) == 0 {
		orgs = defaultOrganizations
	}
	figures := lists.PublicFigures
	if len(figures) == 0 {
		figures = defaultPublicFigures
	}
	return &Sanitizer{
		organizations: lowerAll(orgs),
		publicFigures: lowerAll(figures),
	}
}

// Sanitize replaces the whole value with a neutral placeholder on the first
// blocklist match. Pure over its inputs; re-sanitizing a placeholder is a
// no-op.
func (s *Sanitizer) Sanitize(value string) Result {
	lowered := strings.ToLower(value)

	for _, term := range s.organizations {
		if strings.Contains(lowered, term) {
			return Result{Value: OrganizationPlaceholder, WasSanitized: true, Reason: term}
		}
	}
	for _, term := range s.publicFigures {
		if strings.Contains(lowered, term) {
			return Result{Value: PersonPlaceholder, WasSanitized: true, Reason: term}
		}
	}

	return Result{Value: value}
}

// BlocksOrganization reports whether the value matches the organization
// blocklist.
func (s *Sanitizer) BlocksOrganization(value string) bool {
	lowered := strings.ToLower(value)
	for _, term := range s.organizations {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

// Blocks reports whether the value matches either blocklist. The brand
// generator uses this as a second line of defense on top of field
// sanitization: a person-list term inside an organization name must not
// surface in branding either.
func (s *Sanitizer) Blocks(value string) bool {
	return s.Sanitize(value).WasSanitized
}

// OrganizationTerms exposes the active organization blocklist for tests.
func (s *Sanitizer) OrganizationTerms() []string {
	out := make([]string, len(s.organizations))
	copy(out, s.organizations)
	return out
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		out = append(out, term)
	}
	return out
}

func newDefault() *Sanitizer {
	return New(Blocklists{})
}

var Module = fx.Module("sanitize",
	fx.Provide(newDefault),
)
