package prompt

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/papermint/papermint/internal/catalog"
	"github.com/papermint/papermint/internal/sanitize"
	"go.uber.org/fx"
)

const (
	// maxFieldLength caps free-text inputs before they reach the prompt.
	maxFieldLength = 500
	// maxNumericValue clamps submitted numbers to a sane range.
	maxNumericValue = 10_000_000
)

// SanitizedInputs carries the per-field values after sanitization together
// with the bookkeeping needed downstream. Immutable once built.
type SanitizedInputs struct {
	ServiceSlug     string
	Values          map[string]string
	OrgSanitized    bool
	SanitizedReason string
}

// Built is the output of one prompt construction.
type Built struct {
	Prompt      string
	Temperature float64
	Inputs      SanitizedInputs
}

// Builder turns validated form inputs into a provider prompt.
type Builder struct {
	catalog   *catalog.Holder
	sanitizer *sanitize.Sanitizer
}

// NewBuilder constructs a Builder.
func NewBuilder(holder *catalog.Holder, sanitizer *sanitize.Sanitizer) *Builder {
	return &Builder{catalog: holder, sanitizer: sanitizer}
}

// Build resolves the service, sanitizes name-role fields, substitutes
// {{field}} placeholders and returns the final prompt. Placeholders with no
// matching input are left as literal text rather than silently dropped.
func (b *Builder) Build(serviceSlug string, rawInputs map[string]string) (Built, error) {
	cat := b.catalog.Current()
	def, err := cat.Get(serviceSlug)
	if err != nil {
		return Built{}, err
	}

	template, err := cat.Template(def)
	if err != nil {
		return Built{}, err
	}

	sanitized := SanitizedInputs{
		ServiceSlug: def.Slug,
		Values:      make(map[string]string, len(rawInputs)),
	}

	for name, raw := range rawInputs {
		field, known := def.Field(name)
		value := normalize(raw)

		if known && (field.Role == catalog.RoleOrganization || field.Role == catalog.RolePerson) {
			result := b.sanitizer.Sanitize(value)
			value = result.Value
			if result.WasSanitized && !sanitized.OrgSanitized {
				sanitized.OrgSanitized = true
				sanitized.SanitizedReason = result.Reason
			}
		} else if known && field.InputType == catalog.InputNumber {
			value = clampNumber(value)
		}

		sanitized.Values[name] = value
	}

	built := template
	for name, value := range sanitized.Values {
		built = strings.ReplaceAll(built, "{{"+name+"}}", value)
	}

	return Built{
		Prompt:      built,
		Temperature: def.Temperature,
		Inputs:      sanitized,
	}, nil
}

func normalize(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > maxFieldLength {
		// Cut on a rune boundary so truncation never emits invalid UTF-8.
		cut := maxFieldLength
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return value
}

func clampNumber(value string) string {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	if parsed > maxNumericValue {
		parsed = maxNumericValue
	}
	if parsed < -maxNumericValue {
		parsed = -maxNumericValue
	}
	return strconv.FormatFloat(parsed, 'f', -1, 64)
}

var Module = fx.Module("prompt",
	fx.Provide(NewBuilder),
)
