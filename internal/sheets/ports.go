package sheets

import "context"

// Ports for outbound adapters.
type (
	// RangeWriter overwrites cell ranges in A1 notation.
	RangeWriter interface {
		// Clear empties every cell in rng.
		Clear(ctx context.Context, rng string) error
		// Update writes values row by row starting at the top-left of rng.
		Update(ctx context.Context, rng string, values [][]any) error
	}
)
