package generate

import (
	"regexp"
	"strings"
)

// Repair is one syntactic correction pass over malformed provider output.
// Repairs are applied in a fixed order, re-validating after each, stopping
// at the first success.
type Repair struct {
	Name  string
	Apply func(string) string
}

var jsonRepairs = []Repair{
	{Name: "strip_fences", Apply: stripMarkdownFences},
	{Name: "extract_object", Apply: extractOutermostObject},
	{Name: "strip_trailing_commas", Apply: stripTrailingCommas},
	{Name: "close_brackets", Apply: closeUnbalancedBrackets},
	{Name: "quote_bare_scalars", Apply: quoteBareScalars},
}

var textRepairs = []Repair{
	{Name: "strip_fences", Apply: stripMarkdownFences},
}

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\n?(.*?)```")

// stripMarkdownFences unwraps fenced blocks and drops stray fence markers.
func stripMarkdownFences(raw string) string {
	if matches := fenceRe.FindStringSubmatch(raw); len(matches) == 2 {
		return strings.TrimSpace(matches[1])
	}
	return strings.TrimSpace(strings.ReplaceAll(raw, "```", ""))
}

// extractOutermostObject returns the first balanced top-level JSON object,
// or everything from the first brace when no balance point exists.
func extractOutermostObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return raw
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return raw[start:]
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

func stripTrailingCommas(raw string) string {
	return trailingCommaRe.ReplaceAllString(raw, "$1")
}

// closeUnbalancedBrackets appends missing closers in reverse opening order.
func closeUnbalancedBrackets(raw string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{' || c == '[':
			stack = append(stack, c)
		case c == '}' || c == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	out := strings.TrimRight(raw, " \t\n")
	out = strings.TrimRight(out, ",")
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			out += "}"
		} else {
			out += "]"
		}
	}
	return out
}

var bareScalarRe = regexp.MustCompile(`(:\s*)([A-Za-z][A-Za-z0-9 ._-]*?)(\s*[,}\]])`)

// quoteBareScalars wraps unquoted word values in quotes, leaving JSON
// literals alone.
func quoteBareScalars(raw string) string {
	return bareScalarRe.ReplaceAllStringFunc(raw, func(match string) string {
		parts := bareScalarRe.FindStringSubmatch(match)
		value := parts[2]
		switch strings.TrimSpace(value) {
		case "true", "false", "null":
			return match
		}
		return parts[1] + `"` + value + `"` + parts[3]
	})
}

// RunRepairs applies the battery in order, re-validating after each pass,
// and returns the first validated content. The boolean reports whether any
// repair was applied before success.
func RunRepairs(raw string, v Validator) (Content, string, bool, error) {
	current := raw
	var lastErr error
	for _, repair := range v.Repairs() {
		current = repair.Apply(current)
		content, err := v.Validate(current)
		if err == nil {
			return content, current, true, nil
		}
		lastErr = err
	}
	return Content{}, current, false, lastErr
}
