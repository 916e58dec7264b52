package core

import "context"

// Memory is the opaque, caller-supplied store passed through to every worker
// unchanged. The orchestration core never inspects or mutates it; individual
// workers may read flags or examples from it through their own contract.
type Memory interface {
	Store(ctx context.Context, data any) error
	Retrieve(ctx context.Context, query any) (any, error)
}
