package http

import (
	"context"

	"github.com/fyrsmithlabs/mepd/internal/modelstore"
)

// CountFromStore counts elements and hangers in the model store.
//
// Returns (-1, -1) if:
//   - store is nil
//   - the store does not expose counting
//   - counting fails
//
// The status endpoint reports unknown counts rather than erroring.
func CountFromStore(ctx context.Context, store modelstore.Store) (elements int, hangers int) {
	if store == nil {
		return -1, -1
	}

	counter, ok := store.(modelstore.Counter)
	if !ok {
		return -1, -1
	}

	elements, hangers, err := counter.Counts(ctx)
	if err != nil {
		return -1, -1
	}
	return elements, hangers
}
