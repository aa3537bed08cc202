package nodes

import (
	"context"
	"fmt"
	"slices"

	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/schema"
)

// Interceptor is a middleware that can block an action before it reaches the executor.
// It returns true if execution should proceed. If blocked, the returned result
// describes the denial and is appended to the conversation as a failed result.
type Interceptor func(ctx context.Context, action domain.Action) (bool, domain.ActionResult, error)

// MultiInterceptor chains multiple interceptors. The first denial wins.
func MultiInterceptor(interceptors ...Interceptor) Interceptor {
	return func(ctx context.Context, action domain.Action) (bool, domain.ActionResult, error) {
		for _, interceptor := range interceptors {
			allowed, result, err := interceptor(ctx, action)
			if err != nil {
				return false, domain.ActionResult{}, err // System Error
			}
			if !allowed {
				return false, result, nil // Blocked by policy
			}
		}
		return true, domain.ActionResult{}, nil
	}
}

// AllowList only lets through actions whose name is listed.
func AllowList(names ...string) Interceptor {
	return func(ctx context.Context, action domain.Action) (bool, domain.ActionResult, error) {
		if slices.Contains(names, action.Name) {
			return true, domain.ActionResult{}, nil
		}
		return false, domain.FailedResult(action, domain.CauseDenied,
			fmt.Sprintf("action %q is not allowed by policy", action.Name)), nil
	}
}

// AutoApprove allows everything.
func AutoApprove() Interceptor {
	return func(ctx context.Context, action domain.Action) (bool, domain.ActionResult, error) {
		return true, domain.ActionResult{}, nil
	}
}

// ValidateArgs rejects actions whose arguments do not match the parameter
// schema of the named tool. Tools without parameters accept any arguments.
// It fails fast when a tool declares an unparsable schema.
func ValidateArgs(tools ...domain.Tool) (Interceptor, error) {
	schemas := make(map[string]schema.Schema, len(tools))
	for _, tool := range tools {
		s, err := schema.FromParameters(tool.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", tool.Name, err)
		}
		schemas[tool.Name] = s
	}
	return func(ctx context.Context, action domain.Action) (bool, domain.ActionResult, error) {
		s, ok := schemas[action.Name]
		if !ok {
			return true, domain.ActionResult{}, nil
		}
		if err := s.Validate(action.Args); err != nil {
			return false, domain.FailedResult(action, domain.CauseDenied,
				fmt.Sprintf("invalid arguments for %q: %v", action.Name, err)), nil
		}
		return true, domain.ActionResult{}, nil
	}, nil
}
