package brand

import (
	"fmt"
	"strings"
)

const svgSize = 240

// renderSVG draws the vector mark: a double-ring circular seal for
// government, medical and military issuers, a rounded rectangle otherwise.
// Both carry the two-letter initials and the display name.
func renderSVG(b Brand) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		svgSize, svgSize, svgSize, svgSize)

	center := svgSize / 2
	if b.Sealed {
		fmt.Fprintf(&sb,
			`<circle cx="%d" cy="%d" r="110" fill="%s"/>`,
			center, center, b.Colors.Primary)
		fmt.Fprintf(&sb,
			`<circle cx="%d" cy="%d" r="96" fill="none" stroke="%s" stroke-width="3"/>`,
			center, center, b.Colors.Secondary)
		fmt.Fprintf(&sb,
			`<circle cx="%d" cy="%d" r="70" fill="none" stroke="%s" stroke-width="1.5"/>`,
			center, center, b.Colors.Secondary)
	} else {
		fmt.Fprintf(&sb,
			`<rect x="20" y="60" width="200" height="120" rx="12" fill="%s"/>`,
			b.Colors.Primary)
		fmt.Fprintf(&sb,
			`<rect x="28" y="68" width="184" height="104" rx="8" fill="none" stroke="%s" stroke-width="2"/>`,
			b.Colors.Secondary)
	}

	fmt.Fprintf(&sb,
		`<text x="%d" y="%d" text-anchor="middle" dominant-baseline="central" `+
			`font-family="Georgia, serif" font-size="56" font-weight="bold" fill="%s">%s</text>`,
		center, center, b.Colors.Accent, escapeXML(b.Initials))

	nameY := svgSize - 14
	fmt.Fprintf(&sb,
		`<text x="%d" y="%d" text-anchor="middle" font-family="Georgia, serif" `+
			`font-size="13" fill="%s">%s</text>`,
		center, nameY, b.Colors.Primary, escapeXML(truncateName(b.DisplayName)))

	sb.WriteString(`</svg>`)
	return []byte(sb.String())
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}

func truncateName(name string) string {
	const maxNameChars = 36
	if len(name) <= maxNameChars {
		return name
	}
	return name[:maxNameChars-1] + "…"
}
