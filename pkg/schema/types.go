package schema

import (
	"fmt"
	"reflect"
)

// Type validates one argument value.
type Type interface {
	// Name returns the JSON Schema name of the type (e.g., "string", "integer").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type integerType struct{}

func (integerType) Name() string { return "integer" }

func (integerType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// JSON numbers decode as float64; accept whole numbers.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected integer, got fractional number")
	default:
		return fmt.Errorf("expected integer, got %T", value)
	}
}

type numberType struct{}

func (numberType) Name() string { return "number" }

func (numberType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

type booleanType struct{}

func (booleanType) Name() string { return "boolean" }

func (booleanType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected boolean, got %T", value)
	}
	return nil
}

type objectType struct{}

func (objectType) Name() string { return "object" }

func (objectType) Validate(value any) error {
	if rv := reflect.ValueOf(value); rv.Kind() != reflect.Map {
		return fmt.Errorf("expected object, got %T", value)
	}
	return nil
}

type arrayType struct {
	items Type
}

func (t arrayType) Name() string {
	if t.items == nil {
		return "array"
	}
	return fmt.Sprintf("array<%s>", t.items.Name())
}

func (t arrayType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected array, got %T", value)
	}
	if t.items == nil {
		return nil
	}
	for i := range rv.Len() {
		if err := t.items.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

type anyType struct{}

func (anyType) Name() string             { return "any" }
func (anyType) Validate(value any) error { return nil }

// String creates a string validator.
func String() Type { return stringType{} }

// Integer creates an integer validator.
func Integer() Type { return integerType{} }

// Number creates a number validator.
func Number() Type { return numberType{} }

// Boolean creates a boolean validator.
func Boolean() Type { return booleanType{} }

// Object creates a validator accepting any map.
func Object() Type { return objectType{} }

// Array creates an array validator. A nil items type accepts any element.
func Array(items Type) Type { return arrayType{items: items} }

// Any accepts every value.
func Any() Type { return anyType{} }

// ParseType converts a JSON Schema property definition to a Type.
// A property without a "type" accepts any value.
func ParseType(def map[string]any) (Type, error) {
	name, _ := def["type"].(string)
	switch name {
	case "":
		return Any(), nil
	case "string":
		return String(), nil
	case "integer":
		return Integer(), nil
	case "number":
		return Number(), nil
	case "boolean":
		return Boolean(), nil
	case "object":
		return Object(), nil
	case "array":
		itemsDef, ok := def["items"].(map[string]any)
		if !ok {
			return Array(nil), nil
		}
		items, err := ParseType(itemsDef)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		return Array(items), nil
	default:
		return nil, fmt.Errorf("unsupported type: %v", def["type"])
	}
}
