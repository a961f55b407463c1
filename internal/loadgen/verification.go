package loadgen

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Verification failures.
var (
	ErrNotSettled     = errors.New("records did not settle")
	ErrMatrixUnsorted = errors.New("matrix not ordered by weighted score")
)

// awaitRecords polls the day's KPIs until want new records are visible or
// the settle time runs out. It returns how many new records it saw.
func awaitRecords(ctx context.Context, api *client, c Config, before, want int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Settle)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	seen := 0
	for {
		k, err := api.kpis(ctx, c.Date)
		if err == nil {
			seen = k.TotalRecords - before
			if seen >= want {
				return seen, nil
			}
		}
		select {
		case <-ctx.Done():
			return seen, fmt.Errorf("%w: %d of %d visible", ErrNotSettled, seen, want)
		case <-ticker.C:
		}
	}
}

// verifyMatrix checks the comparative matrix is ordered by score.
func verifyMatrix(ctx context.Context, api *client, date string) error {
	rows, err := api.matrix(ctx, date)
	if err != nil {
		return fmt.Errorf("read matrix: %w", err)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].WeightedScore > rows[i-1].WeightedScore {
			return fmt.Errorf("%w: row %d (%d) above row %d (%d)", ErrMatrixUnsorted,
				i, rows[i].WeightedScore, i-1, rows[i-1].WeightedScore)
		}
	}
	return nil
}
