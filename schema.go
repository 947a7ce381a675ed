package toolserver

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// argField is one top-level field of an argument struct, keyed by the JSON name the caller sends.
type argField struct {
	name        string
	description string
	enum        []any
	nullable    bool
}

// argFields lists the exported JSON-visible fields of typ. typ may be a pointer to a struct; any other
// kind has no fields.
//
// Tags read besides json:
//
//	description:"Prompt for the model"  -> property "description"
//	enum:"fast,deep"                    -> property "enum"
func argFields(typ reflect.Type) []argField {
	if typ == nil {
		return nil
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}
	fields := make([]argField, 0, typ.NumField())
	for i := range typ.NumField() {
		sf := typ.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		f := argField{
			name:        name,
			description: sf.Tag.Get("description"),
			nullable:    acceptsNull(sf.Type),
		}
		if raw := sf.Tag.Get("enum"); raw != "" {
			for _, v := range strings.Split(raw, ",") {
				f.enum = append(f.enum, strings.TrimSpace(v))
			}
		}
		fields = append(fields, f)
	}
	return fields
}

// acceptsNull reports whether JSON null has a meaning for a Go field of type t.
func acceptsNull(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	default:
		return false
	}
}

// schemaFor reflects T into a JSON Schema map, applies the description and enum tags of fields to its
// properties and compiles the result. It runs once per tool.
func schemaFor[T any](fields []argField) (map[string]any, *jsonschema.Resolved, error) {
	reflected, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, nil, err
	}
	schemaMap, err := asSchemaMap(reflected)
	if err != nil {
		return nil, nil, err
	}
	applyFieldTags(schemaMap, fields)
	dropIDs(schemaMap)
	resolved, err := compileRawSchema(schemaMap)
	if err != nil {
		return nil, nil, err
	}
	return schemaMap, resolved, nil
}

// asSchemaMap converts any JSON-marshalable schema value into a fresh map.
func asSchemaMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func applyFieldTags(schemaMap map[string]any, fields []argField) {
	props, _ := schemaMap["properties"].(map[string]any)
	for _, f := range fields {
		prop, ok := props[f.name].(map[string]any)
		if !ok {
			continue
		}
		if f.description != "" {
			prop["description"] = f.description
		}
		if len(f.enum) > 0 {
			prop["enum"] = f.enum
		}
	}
}

// compileRawSchema compiles a raw JSON Schema map into a validator. The map is not mutated.
func compileRawSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}

// schemaMapKeywords hold name -> subschema maps; their keys are property names, not keywords.
var schemaMapKeywords = map[string]bool{
	"properties":        true,
	"patternProperties": true,
	"$defs":             true,
	"definitions":       true,
	"dependentSchemas":  true,
}

// dropIDs removes the "id" and "$id" keywords from schema and every subschema, so resolution never
// tries to dereference them. A property that happens to be named "id" is kept.
func dropIDs(schema map[string]any) {
	delete(schema, "id")
	delete(schema, "$id")
	for key, val := range schema {
		switch v := val.(type) {
		case map[string]any:
			if schemaMapKeywords[key] {
				for _, sub := range v {
					if m, ok := sub.(map[string]any); ok {
						dropIDs(m)
					}
				}
				continue
			}
			dropIDs(v)
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					dropIDs(m)
				}
			}
		}
	}
}
