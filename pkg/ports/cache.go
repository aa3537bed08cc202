package ports

import (
	"context"

	"github.com/isaid22/agentloop/pkg/domain"
)

// ResultCache stores successful ActionResults so identical actions can be
// answered without calling the tool again. Expiry is implementation specific.
type ResultCache interface {
	// Get returns the cached result for key. A miss is (zero, false, nil).
	Get(ctx context.Context, key string) (domain.ActionResult, bool, error)

	// Set stores result under key.
	Set(ctx context.Context, key string, result domain.ActionResult) error
}
