package shared

import "context"

// Transactor runs fn inside one storage transaction. The transaction travels
// in the context passed to fn, so repositories called with that context join
// it. Any error returned by fn, or a panic, rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
