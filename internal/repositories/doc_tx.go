package repositories

import (
	"context"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

type opsKey struct{}

func injectOps(ctx context.Context, ops docstore.Operations) context.Context {
	return context.WithValue(ctx, opsKey{}, ops)
}

// extractOps returns the operations of the enclosing atomic unit, or the
// store itself outside of one.
func (r *Repository) extractOps(ctx context.Context) docstore.Operations {
	if ops, ok := ctx.Value(opsKey{}).(docstore.Operations); ok {
		return ops
	}
	return r.store
}
