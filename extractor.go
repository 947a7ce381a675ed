package toolserver

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// Extractor provides JSON Schema generation and argument decoding for type T without binding to the
// Tool interface. Use it in custom tools that need schema export and typed arguments.
type Extractor[T any] struct {
	schemaMap map[string]any
	resolved  *jsonschema.Resolved
	fields    []argField
	strict    bool
}

// NewExtractor creates an Extractor for type T. When strict is true, Decode validates the argument
// bag against the schema first (required fields, enums, types).
func NewExtractor[T any](strict bool) (*Extractor[T], error) {
	fields := argFields(reflect.TypeFor[T]())
	schemaMap, resolved, err := schemaFor[T](fields)
	if err != nil {
		return nil, err
	}
	return &Extractor[T]{
		schemaMap: schemaMap,
		resolved:  resolved,
		fields:    fields,
		strict:    strict,
	}, nil
}

// Schema returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps are shared; callers must not mutate them.
func (e *Extractor[T]) Schema() map[string]any {
	return maps.Clone(e.schemaMap)
}

// Decode converts args into T. Missing keys decode to zero values; a value of the wrong type, or an
// explicit null for a field that cannot hold one (e.g. a string), is a ClientError wrapping
// ErrValidation. If T implements Validatable, Validate runs last.
func (e *Extractor[T]) Decode(args Arguments) (T, error) {
	var zero T
	if e.strict {
		v, err := normalizeArguments(args)
		if err != nil {
			return zero, wrapDecodeError(err)
		}
		if err := validateAgainstSchema(e.resolved, v); err != nil {
			return zero, err
		}
	}
	if err := e.rejectNulls(args); err != nil {
		return zero, err
	}
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return zero, &SystemError{Err: err}
	}
	if err := dec.Decode(map[string]any(args)); err != nil {
		return zero, wrapDecodeError(err)
	}
	if err := runCustomValidation(out); err != nil {
		if IsClientError(err) {
			return zero, err
		}
		return zero, &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return out, nil
}

// rejectNulls fails on a present key whose value is null when the target field is not nullable.
// mapstructure would otherwise leave such a field at its zero value, indistinguishable from a missing key.
func (e *Extractor[T]) rejectNulls(args Arguments) error {
	for _, f := range e.fields {
		if f.nullable {
			continue
		}
		if v, ok := args[f.name]; ok && v == nil {
			return &ClientError{Reason: fmt.Sprintf("%s must not be null", f.name), Err: ErrValidation}
		}
	}
	return nil
}

// normalizeArguments round-trips args through JSON so the validator only sees JSON value types.
func normalizeArguments(args Arguments) (any, error) {
	if args == nil {
		args = Arguments{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// runCustomValidation runs Validatable.Validate() on args; if args does not implement Validatable,
// it tries &args for value types (pointer receiver). Never calls Validate twice for the same receiver.
func runCustomValidation[T any](args T) error {
	if err := validateCustom(any(args)); err != nil {
		return err
	}
	if _, ok := any(args).(Validatable); ok {
		return nil
	}
	typ := reflect.TypeOf(args)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	return validateCustom(any(&args))
}
