package brand

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/papermint/papermint/internal/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator() *Generator {
	return NewGenerator(sanitize.New(sanitize.Blocklists{}))
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := newTestGenerator()

	first := g.Generate("payslip", "Acme Holdings Ltd")
	second := g.Generate("payslip", "Acme Holdings Ltd")

	assert.Equal(t, first.DisplayName, second.DisplayName)
	assert.Equal(t, first.Colors, second.Colors)
	assert.Equal(t, first.SVG, second.SVG)
	assert.Equal(t, first.PNG, second.PNG)
}

func TestDetectOrgType(t *testing.T) {
	cases := []struct {
		name string
		want OrgType
	}{
		{"Ministry of the Interior", OrgGovernment},
		{"Riverside City College", OrgEducational},
		{"First National Bank", OrgFinancial},
		{"St. Mary's Hospital", OrgMedical},
		{"Department of Defense", OrgMilitary},
		{"Ohio State University", OrgEducational},
		{"Acme Widgets Inc", OrgCompany},
		{"", OrgCompany},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, detectOrgType(tc.name), "name %q", tc.name)
	}
}

func TestBlockedOrganizationFallsBackToGeneric(t *testing.T) {
	g := newTestGenerator()

	b := g.Generate("payslip", "Federal Bureau of Investigation")

	assert.Equal(t, OrgGovernment, b.OrgType)
	assert.Equal(t, genericNames[OrgGovernment], b.DisplayName)
	assert.NotContains(t, string(b.SVG), "Investigation")
}

func TestBlockedPersonNameFallsBackToGeneric(t *testing.T) {
	g := newTestGenerator()

	b := g.Generate("payslip", "Taylor Swift Enterprises")

	assert.Equal(t, genericNames[b.OrgType], b.DisplayName)
	assert.NotContains(t, b.DisplayName, "Taylor")
	assert.NotContains(t, string(b.SVG), "Taylor")
	assert.NotContains(t, string(b.SVG), "Swift")
}

func TestEmptyNameUsesServiceDefault(t *testing.T) {
	g := newTestGenerator()

	diploma := g.Generate("diploma", "")
	assert.Equal(t, OrgEducational, diploma.OrgType)
	assert.Equal(t, genericNames[OrgEducational], diploma.DisplayName)

	record := g.Generate("criminal-record", "")
	assert.Equal(t, OrgGovernment, record.OrgType)
	assert.True(t, record.Sealed)
}

func TestSealShapeFollowsOrgType(t *testing.T) {
	g := newTestGenerator()

	seal := g.Generate("medical-certificate", "Lakeview Clinic")
	assert.True(t, seal.Sealed)
	assert.Contains(t, string(seal.SVG), "<circle")

	logo := g.Generate("payslip", "Acme Widgets Inc")
	assert.False(t, logo.Sealed)
	assert.Contains(t, string(logo.SVG), "<rect")
	assert.NotContains(t, string(logo.SVG), "<circle")
}

func TestInitials(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Acme Widgets Inc", "AW"},
		{"Ministry of the Interior", "MI"},
		{"Initech", "I"},
		{"", "PM"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, initials(tc.name), "name %q", tc.name)
	}
}

func TestPNGIsDecodable(t *testing.T) {
	g := newTestGenerator()

	b := g.Generate("payslip", "Acme Widgets Inc")
	require.NotEmpty(t, b.PNG)

	img, err := png.Decode(bytes.NewReader(b.PNG))
	require.NoError(t, err)
	assert.Equal(t, pngSize, img.Bounds().Dx())
	assert.Equal(t, pngSize, img.Bounds().Dy())
}

func TestSVGEscapesDisplayName(t *testing.T) {
	g := newTestGenerator()

	b := g.Generate("payslip", "Smith & Sons <Trading>")
	assert.Contains(t, string(b.SVG), "Smith &amp; Sons &lt;Trading&gt;")
}
