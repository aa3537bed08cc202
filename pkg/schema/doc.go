// Package schema validates action arguments against the parameter schema a
// tool publishes in domain.Tool.Parameters.
//
// Only the JSON Schema subset tools commonly declare is understood: an object
// with typed "properties" and a "required" list. Property types are string,
// integer, number, boolean, object and array (with typed "items").
//
//	s, err := schema.FromParameters(map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	        "query": map[string]any{"type": "string"},
//	        "limit": map[string]any{"type": "integer"},
//	    },
//	    "required": []any{"query"},
//	})
//
//	if err := s.Validate(action.Args); err != nil {
//	    // report the bad arguments back to the reasoner
//	}
package schema
