package render

import (
	"regexp"
	"strings"
)

type lineClass int

const (
	classPlain lineClass = iota
	classDocumentHeader
	classSectionHeader
	classListItem
	classFieldLabel
)

var fieldLabelRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 ./()-]{0,40}:\s+\S`)

// classify assigns a layout class by fixed pattern rules. All-caps with a
// trailing colon is a section header; all-caps without one is a document
// header; a bullet marks a list item; a short "Label: value" shape is a
// field label; everything else flows as plain text.
func classify(line string) lineClass {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return classPlain
	case strings.HasPrefix(trimmed, "• "):
		return classListItem
	case numberedRe.MatchString(trimmed):
		return classListItem
	case isAllCaps(trimmed):
		if strings.HasSuffix(trimmed, ":") {
			return classSectionHeader
		}
		return classDocumentHeader
	case fieldLabelRe.MatchString(trimmed):
		return classFieldLabel
	default:
		return classPlain
	}
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

// isTableRow reports whether a line is a delimited table row: it must
// contain pipes splitting it into more than two non-empty segments.
func isTableRow(line string) bool {
	if !strings.Contains(line, "|") {
		return false
	}
	return len(tableSegments(line)) > 2
}

func tableSegments(line string) []string {
	parts := strings.Split(strings.Trim(strings.TrimSpace(line), "|"), "|")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		segments = append(segments, strings.TrimSpace(p))
	}
	return segments
}

// isTableSeparator matches markdown-style separator rows like |---|---|.
func isTableSeparator(line string) bool {
	if !strings.Contains(line, "|") {
		return false
	}
	for _, seg := range tableSegments(line) {
		if seg == "" {
			continue
		}
		if strings.Trim(seg, ":-") != "" {
			return false
		}
	}
	return true
}

type block struct {
	table bool
	lines []string
}

// groupBlocks splits cleaned body text into flowing-text blocks and
// contiguous table blocks. Separator rows are dropped from tables.
func groupBlocks(body string) []block {
	var blocks []block
	push := func(table bool, line string) {
		if n := len(blocks); n > 0 && blocks[n-1].table == table {
			blocks[n-1].lines = append(blocks[n-1].lines, line)
			return
		}
		blocks = append(blocks, block{table: table, lines: []string{line}})
	}

	for _, line := range strings.Split(body, "\n") {
		if isTableRow(line) {
			if isTableSeparator(line) {
				continue
			}
			push(true, line)
			continue
		}
		push(false, line)
	}
	return blocks
}
