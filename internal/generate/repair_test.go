package generate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyAll(raw string, repairs []Repair) string {
	for _, r := range repairs {
		raw = r.Apply(raw)
	}
	return raw
}

func TestRepairFencedJSONWithTrailingComma(t *testing.T) {
	v := &JSONValidator{RequiredKeys: []string{"a"}}
	raw := "```json\n{\"a\": 1,}\n```"

	_, err := v.Validate(raw)
	require.Error(t, err)

	content, repairedRaw, used, err := RunRepairs(raw, v)
	require.NoError(t, err)
	assert.True(t, used)
	assert.JSONEq(t, `{"a": 1}`, repairedRaw)
	assert.EqualValues(t, 1, content.Fields["a"])
}

func TestRepairClosesUnbalancedBraces(t *testing.T) {
	v := &JSONValidator{RequiredKeys: []string{"a"}}
	raw := `{"a": {"b": 1`

	content, _, used, err := RunRepairs(raw, v)
	require.NoError(t, err)
	assert.True(t, used)
	assert.Contains(t, content.Fields, "a")
}

func TestRepairQuotesBareScalars(t *testing.T) {
	v := &JSONValidator{RequiredKeys: []string{"name"}}
	raw := `{"name": John Doe}`

	content, _, used, err := RunRepairs(raw, v)
	require.NoError(t, err)
	assert.True(t, used)
	assert.Equal(t, "John Doe", content.Fields["name"])
}

func TestRepairLeavesJSONLiteralsAlone(t *testing.T) {
	out := quoteBareScalars(`{"active": true, "removed": null}`)
	assert.JSONEq(t, `{"active": true, "removed": null}`, out)
}

func TestRepairExtractsObjectFromCommentary(t *testing.T) {
	v := &JSONValidator{RequiredKeys: []string{"a"}}
	raw := "Here is your document:\n{\"a\": \"x\"}\nLet me know if you need changes."

	content, _, used, err := RunRepairs(raw, v)
	require.NoError(t, err)
	assert.True(t, used)
	assert.Equal(t, "x", content.Fields["a"])
}

func TestRepairBatteryIdempotentOnValidJSON(t *testing.T) {
	valid := `{"a":1,"b":"two","c":[1,2,3]}`
	require.True(t, json.Valid([]byte(valid)))

	once := applyAll(valid, jsonRepairs)
	twice := applyAll(once, jsonRepairs)
	assert.Equal(t, once, twice)
}

func TestRepairExhaustedReturnsLastError(t *testing.T) {
	v := &JSONValidator{RequiredKeys: []string{"a"}}

	_, _, used, err := RunRepairs("complete nonsense with no braces", v)
	assert.Error(t, err)
	assert.False(t, used)
}

func TestPlainTextValidator(t *testing.T) {
	v := &PlainTextValidator{MinLength: 20}

	_, err := v.Validate("too short")
	assert.Error(t, err)

	_, err = v.Validate(`{"looks": "like json but padded out to minimum length"}`)
	assert.Error(t, err)

	content, err := v.Validate("A perfectly reasonable certificate paragraph that is long enough.")
	require.NoError(t, err)
	assert.Contains(t, content.Text, "certificate")
}

func TestPlainTextRepairStripsFences(t *testing.T) {
	v := &PlainTextValidator{MinLength: 20}
	raw := "```\nA perfectly reasonable certificate paragraph that is long enough.\n```"

	content, _, used, err := RunRepairs(raw, v)
	require.NoError(t, err)
	assert.True(t, used)
	assert.NotContains(t, content.Text, "```")
}
