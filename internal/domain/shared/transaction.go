package shared

import "context"

// Transactor runs fn as one unit of work. Repositories called with the
// context handed to fn take part in it; fn returning an error rolls it back.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoTransaction runs fn directly, for stores without transactions
type NoTransaction struct{}

// InTx calls fn with ctx
func (NoTransaction) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
