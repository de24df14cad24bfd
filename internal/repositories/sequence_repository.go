package repositories

import (
	"context"

	"backend-antrian-klinik/internal/models"
)

// HighWater returns the highest number ever retired from the partition, 0 if none
func (q *queries) HighWater(ctx context.Context, providerID int64, day models.Day) (int, error) {
	query := `
		SELECT COALESCE(MAX(high_water), 0)
		FROM token_sequences
		WHERE provider_id = ? AND day = ?` + q.forUpdate()

	var highWater int
	err := q.db.QueryRowContext(ctx, query, providerID, string(day)).Scan(&highWater)
	return highWater, mapError(err)
}

// RaiseHighWater stores number as the partition floor; a lower value never wins
func (q *queries) RaiseHighWater(ctx context.Context, providerID int64, day models.Day, number int) error {
	query := `
		INSERT INTO token_sequences (provider_id, day, high_water)
		VALUES (?, ?, ?)
		ON CONFLICT (provider_id, day) DO UPDATE SET high_water = MAX(high_water, excluded.high_water)
	`
	if q.dialect == MySQL {
		query = `
			INSERT INTO token_sequences (provider_id, day, high_water)
			VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE high_water = GREATEST(high_water, VALUES(high_water))
		`
	}

	_, err := q.db.ExecContext(ctx, query, providerID, string(day), number)
	return mapError(err)
}
