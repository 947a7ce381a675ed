package toolserver

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type promptArgs struct {
	Prompt string `json:"prompt" description:"Prompt for the model"`
}

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	Mode  string `json:"mode,omitempty" enum:"fast,deep"`
}

type guardedArgs struct {
	Name string `json:"name"`
}

func (g guardedArgs) Validate() error {
	if strings.HasPrefix(g.Name, "_") {
		return errors.New("name must not start with underscore")
	}
	return nil
}

type pointerGuardedArgs struct {
	N int `json:"n"`
}

func (p *pointerGuardedArgs) Validate() error {
	if p.N < 0 {
		return &ClientError{Reason: "n must be non-negative", Err: ErrValidation}
	}
	return nil
}

func TestExtractor_DecodeLenient(t *testing.T) {
	ext, err := NewExtractor[promptArgs](false)
	require.NoError(t, err)

	got, err := ext.Decode(Arguments{"prompt": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Prompt)

	got, err = ext.Decode(Arguments{})
	require.NoError(t, err)
	assert.Empty(t, got.Prompt)

	got, err = ext.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, got.Prompt)

	got, err = ext.Decode(Arguments{"prompt": "x", "extra": true})
	require.NoError(t, err)
	assert.Equal(t, "x", got.Prompt)
}

func TestExtractor_WrongTypeIsClientError(t *testing.T) {
	ext, err := NewExtractor[promptArgs](false)
	require.NoError(t, err)
	_, err = ext.Decode(Arguments{"prompt": 42})
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestExtractor_NullForNonNullableField(t *testing.T) {
	ext, err := NewExtractor[promptArgs](false)
	require.NoError(t, err)
	_, err = ext.Decode(Arguments{"prompt": nil})
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "invalid tool input: prompt must not be null", err.Error())
}

func TestExtractor_NullForNullableField(t *testing.T) {
	type optionalArgs struct {
		Note *string        `json:"note"`
		Tags []string       `json:"tags"`
		Meta map[string]any `json:"meta"`
	}
	ext, err := NewExtractor[optionalArgs](false)
	require.NoError(t, err)
	got, err := ext.Decode(Arguments{"note": nil, "tags": nil, "meta": nil})
	require.NoError(t, err)
	assert.Nil(t, got.Note)
	assert.Nil(t, got.Tags)
	assert.Nil(t, got.Meta)
}

func TestExtractor_NumbersFromJSON(t *testing.T) {
	ext, err := NewExtractor[searchArgs](false)
	require.NoError(t, err)
	got, err := ext.Decode(Arguments{"query": "go", "limit": float64(5)})
	require.NoError(t, err)
	assert.Equal(t, searchArgs{Query: "go", Limit: 5}, got)
}

func TestExtractor_Strict(t *testing.T) {
	ext, err := NewExtractor[searchArgs](true)
	require.NoError(t, err)

	_, err = ext.Decode(Arguments{"query": "go", "mode": "deep"})
	require.NoError(t, err)

	_, err = ext.Decode(Arguments{})
	require.Error(t, err, "missing required query")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ext.Decode(Arguments{"query": "go", "mode": "slow"})
	require.Error(t, err, "enum violation")
	assert.True(t, IsClientError(err))
}

func TestExtractor_CustomValidation(t *testing.T) {
	ext, err := NewExtractor[guardedArgs](false)
	require.NoError(t, err)
	_, err = ext.Decode(Arguments{"name": "ok"})
	require.NoError(t, err)

	_, err = ext.Decode(Arguments{"name": "_hidden"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "underscore")
}

func TestExtractor_PointerReceiverValidation(t *testing.T) {
	ext, err := NewExtractor[pointerGuardedArgs](false)
	require.NoError(t, err)
	_, err = ext.Decode(Arguments{"n": -1})
	require.Error(t, err)
	assert.Equal(t, "invalid tool input: n must be non-negative", err.Error())
}

func TestExtractor_SchemaIsCopy(t *testing.T) {
	ext, err := NewExtractor[promptArgs](false)
	require.NoError(t, err)
	s := ext.Schema()
	s["type"] = "mutated"
	assert.Equal(t, "object", ext.Schema()["type"])
}

func TestValidateAgainstSchema(t *testing.T) {
	resolved, err := compileRawSchema(map[string]any{
		"type":     "object",
		"required": []any{"a"},
	})
	require.NoError(t, err)
	require.NoError(t, validateAgainstSchema(resolved, map[string]any{"a": 1}))
	err = validateAgainstSchema(resolved, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}
