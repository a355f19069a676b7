package render

import (
	"regexp"
	"strings"
)

var (
	headingRe    = regexp.MustCompile(`^#{1,6}\s+`)
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	underlineRe  = regexp.MustCompile(`__([^_]+)__`)
	emphasisRe   = regexp.MustCompile(`\b_([^_]+)_\b`)
	ruleRe       = regexp.MustCompile(`^[\s\-_*=]{3,}$`)
	bracketRe    = regexp.MustCompile(`\[[^\[\]]*\]`)
	bulletRe     = regexp.MustCompile(`^[\-*•·–]\s+`)
	numberedRe   = regexp.MustCompile(`^\d{1,2}[.)]\s+`)
)

// echoedPhrases are boilerplate the model sometimes repeats into the body.
// The renderer stamps its own disclaimer in the footer, so these lines are
// dropped rather than duplicated.
var echoedPhrases = []string{
	"for entertainment purposes",
	"for novelty purposes",
	"this is not a real document",
	"disclaimer:",
	"watermark",
}

// cleanText removes generation artifacts: markdown markers, bracketed
// placeholder leftovers, echoed disclaimers, excess blank lines. Bullet
// markers are normalized to a single style.
func cleanText(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		trimmed := strings.TrimSpace(line)

		if ruleRe.MatchString(trimmed) && trimmed != "" {
			continue
		}
		if isEchoedBoilerplate(trimmed) {
			continue
		}

		trimmed = headingRe.ReplaceAllString(trimmed, "")
		trimmed = boldRe.ReplaceAllString(trimmed, "$1")
		trimmed = italicRe.ReplaceAllString(trimmed, "$1")
		trimmed = underlineRe.ReplaceAllString(trimmed, "$1")
		trimmed = emphasisRe.ReplaceAllString(trimmed, "$1")
		trimmed = strings.TrimSpace(bracketRe.ReplaceAllString(trimmed, ""))

		if bulletRe.MatchString(trimmed) {
			trimmed = "• " + strings.TrimSpace(bulletRe.ReplaceAllString(trimmed, ""))
		}

		if trimmed == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, trimmed)
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func isEchoedBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range echoedPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
