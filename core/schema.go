package core

import (
	"reflect"
	"strings"
)

// ParamSchema describes the parameters a route expects after defaults are
// merged. Types uses JSON schema type names: string, integer, number,
// boolean, array, object. Unknown names accept any value.
type ParamSchema struct {
	Required []string          `json:"required,omitempty"`
	Types    map[string]string `json:"types,omitempty"`
}

// SchemaFor derives a ParamSchema from a struct value using its json tags.
// Exported non-pointer fields without omitempty are required.
func SchemaFor(structType any) ParamSchema {
	schema := ParamSchema{Types: map[string]string{}}

	t := reflect.TypeOf(structType)
	if t == nil {
		return schema
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return schema
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		if jsonTag != "" {
			if parts := strings.Split(jsonTag, ","); parts[0] != "" {
				name = parts[0]
			}
		}

		schema.Types[name] = jsonType(field.Type)

		if !hasOmitEmpty(jsonTag) && field.Type.Kind() != reflect.Ptr {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// Validate checks params against the schema. Extra keys are allowed.
func (s ParamSchema) Validate(params Params) error {
	for _, name := range s.Required {
		if _, ok := params[name]; !ok {
			return NewMissingParameter(name)
		}
	}

	for name, value := range params {
		expected, ok := s.Types[name]
		if !ok {
			continue
		}
		if !isValidType(value, expected) {
			return NewValidationFailed("parameter %q: expected %s, got %T", name, expected, value)
		}
	}

	return nil
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}

func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

func isValidType(value any, expected string) bool {
	if value == nil {
		return true
	}

	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		rv := reflect.ValueOf(value)
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	case "object":
		rv := reflect.ValueOf(value)
		return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct
	default:
		return true
	}
}
