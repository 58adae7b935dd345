package domain

import "context"

// TxRunner executes fn as a single unit of work. Repository calls made with
// the context passed to fn commit or roll back together; a nested InTx
// joins the enclosing unit rather than starting its own.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
