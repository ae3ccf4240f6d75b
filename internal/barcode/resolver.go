package barcode

import "context"

// Resolver maps a scanned code to a SKU. Implementations may hit the catalog,
// an alias table, or accept bare SKUs typed by an operator.
type Resolver interface {
	Resolve(ctx context.Context, code string) (string, error)
}
