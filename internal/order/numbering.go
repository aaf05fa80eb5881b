package order

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// FormatNumber renders a year-scoped sequence value as YYYY-NNNNN.
func FormatNumber(year int, seq int64) string {
	return fmt.Sprintf("%d-%05d", year, seq)
}

// allocateNumberTx issues the next order number for year inside the caller's
// transaction. The upsert is a single atomic increment against the
// order_sequences row, so two concurrent creations can never observe the same
// last_number. The first order of a new year implicitly starts at 00001
// because the counter is keyed by year.
func allocateNumberTx(ctx context.Context, tx pgx.Tx, year int) (string, error) {
	var last int64
	err := tx.QueryRow(ctx, `
		INSERT INTO order_sequences (year, last_number)
		VALUES ($1, 1)
		ON CONFLICT (year)
		DO UPDATE SET last_number = order_sequences.last_number + 1
		RETURNING last_number
	`, year).Scan(&last)
	if err != nil {
		return "", fmt.Errorf("allocate order number for %d: %w", year, err)
	}
	return FormatNumber(year, last), nil
}
