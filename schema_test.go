package toolserver

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func properties(t *testing.T, schemaMap map[string]any) map[string]any {
	t.Helper()
	props, ok := schemaMap["properties"].(map[string]any)
	require.True(t, ok, "expected properties map")
	return props
}

func TestSchemaFor_DescriptionTag(t *testing.T) {
	m, resolved, err := schemaFor[promptArgs](argFields(reflect.TypeFor[promptArgs]()))
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, "object", m["type"])

	prompt, ok := properties(t, m)["prompt"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", prompt["type"])
	assert.Equal(t, "Prompt for the model", prompt["description"])
	assert.Equal(t, []any{"prompt"}, m["required"])
}

func TestSchemaFor_JSONSchemaTagStillWorks(t *testing.T) {
	type args struct {
		City string `json:"city" jsonschema:"City name"`
	}
	m, _, err := schemaFor[args](argFields(reflect.TypeFor[args]()))
	require.NoError(t, err)
	city := properties(t, m)["city"].(map[string]any)
	assert.Equal(t, "City name", city["description"])
}

func TestSchemaFor_OmitemptyAndEnum(t *testing.T) {
	m, resolved, err := schemaFor[searchArgs](argFields(reflect.TypeFor[searchArgs]()))
	require.NoError(t, err)
	assert.Equal(t, []any{"query"}, m["required"])

	mode := properties(t, m)["mode"].(map[string]any)
	assert.Equal(t, []any{"fast", "deep"}, mode["enum"])

	require.NoError(t, resolved.Validate(map[string]any{"query": "go", "mode": "fast"}))
	require.Error(t, resolved.Validate(map[string]any{"query": "go", "mode": "slow"}), "enum is compiled in")
}

func TestArgFields(t *testing.T) {
	type args struct {
		Name    string         `json:"name" description:"Who"`
		Level   string         `json:"level,omitempty" enum:"low, high"`
		Note    *string        `json:"note"`
		Extra   map[string]any `json:"extra"`
		Skipped string         `json:"-"`
		Plain   int
		hidden  string
	}
	fields := argFields(reflect.TypeFor[*args]())
	require.Len(t, fields, 5)
	assert.Equal(t, argField{name: "name", description: "Who"}, fields[0])
	assert.Equal(t, argField{name: "level", enum: []any{"low", "high"}}, fields[1])
	assert.Equal(t, argField{name: "note", nullable: true}, fields[2])
	assert.Equal(t, argField{name: "extra", nullable: true}, fields[3])
	assert.Equal(t, argField{name: "Plain"}, fields[4])

	assert.Nil(t, argFields(reflect.TypeFor[string]()))
	assert.Nil(t, argFields(nil))
}

func TestApplyFieldTags_NoProperties(t *testing.T) {
	m := map[string]any{"type": "string"}
	applyFieldTags(m, []argField{{name: "x", description: "ignored"}})
	assert.Equal(t, map[string]any{"type": "string"}, m)
}

func TestDropIDs(t *testing.T) {
	m := map[string]any{
		"$id": "root",
		"properties": map[string]any{
			"id": map[string]any{"type": "string", "$id": "nested"},
			"a":  map[string]any{"id": "legacy", "type": "string"},
		},
		"anyOf": []any{map[string]any{"$id": "x"}},
	}
	dropIDs(m)
	assert.NotContains(t, m, "$id")
	props := m["properties"].(map[string]any)
	require.Contains(t, props, "id", "a property named id is not a keyword")
	assert.Equal(t, map[string]any{"type": "string"}, props["id"])
	assert.Equal(t, map[string]any{"type": "string"}, props["a"])
	assert.Equal(t, map[string]any{}, m["anyOf"].([]any)[0])
}

func TestCompileRawSchema_Invalid(t *testing.T) {
	_, err := compileRawSchema(map[string]any{"type": 5})
	require.Error(t, err)
}
