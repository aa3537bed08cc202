package schema

import (
	"fmt"
	"sort"
)

// Schema describes the arguments a tool accepts.
type Schema struct {
	Properties map[string]Type
	Required   []string
}

// FromParameters parses a tool's parameter definition.
// Empty parameters give an empty Schema that accepts any arguments.
func FromParameters(params map[string]any) (Schema, error) {
	s := Schema{Properties: map[string]Type{}}
	if len(params) == 0 {
		return s, nil
	}
	if t, ok := params["type"]; ok && t != "object" {
		return s, fmt.Errorf("parameters must describe an object, got %v", t)
	}

	if raw, ok := params["properties"]; ok {
		props, ok := raw.(map[string]any)
		if !ok {
			return s, fmt.Errorf("properties must be an object, got %T", raw)
		}
		for name, def := range props {
			defMap, ok := def.(map[string]any)
			if !ok {
				return s, fmt.Errorf("property %s: definition must be an object", name)
			}
			t, err := ParseType(defMap)
			if err != nil {
				return s, fmt.Errorf("property %s: %w", name, err)
			}
			s.Properties[name] = t
		}
	}

	switch req := params["required"].(type) {
	case nil:
	case []any:
		for _, r := range req {
			name, ok := r.(string)
			if !ok {
				return s, fmt.Errorf("required entries must be strings, got %T", r)
			}
			s.Required = append(s.Required, name)
		}
	case []string:
		s.Required = append(s.Required, req...)
	default:
		return s, fmt.Errorf("required must be a list, got %T", req)
	}
	return s, nil
}

// Validate checks args against the schema and reports every failure.
// Arguments the schema does not declare are accepted.
func (s Schema) Validate(args map[string]any) error {
	var errs []error

	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			errs = append(errs, &ValidationError{Key: name, Reason: "required"})
		}
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t, ok := s.Properties[name]
		if !ok {
			continue
		}
		if err := t.Validate(args[name]); err != nil {
			errs = append(errs, &ValidationError{Key: name, Reason: err.Error(), Value: args[name]})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
