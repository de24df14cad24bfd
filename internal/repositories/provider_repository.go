package repositories

import (
	"context"
	"time"

	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/store"
)

// GetProvider retrieves a provider by id
func (q *queries) GetProvider(ctx context.Context, id int64) (models.Provider, error) {
	query := `
		SELECT id, name, consultation_minutes, daily_limit, opens_at, closes_at, created_at, updated_at
		FROM providers
		WHERE id = ?
	`

	var p models.Provider
	err := q.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.ConsultationMinutes,
		&p.DailyLimit,
		&p.OpensAt,
		&p.ClosesAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return models.Provider{}, mapError(err)
	}
	return p, nil
}

// CreateProvider inserts a new provider and fills its id
func (q *queries) CreateProvider(ctx context.Context, p *models.Provider) error {
	query := `
		INSERT INTO providers (name, consultation_minutes, daily_limit, opens_at, closes_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.CreatedAt

	result, err := q.db.ExecContext(ctx, query,
		p.Name,
		p.ConsultationMinutes,
		p.DailyLimit,
		p.OpensAt,
		p.ClosesAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}

	p.ID, err = result.LastInsertId()
	return err
}

// UpdateProviderDuration changes the nominal consultation duration
func (q *queries) UpdateProviderDuration(ctx context.Context, id int64, minutes int, now time.Time) error {
	query := `UPDATE providers SET consultation_minutes = ?, updated_at = ? WHERE id = ?`

	result, err := q.db.ExecContext(ctx, query, minutes, now.UTC(), id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func requireAffected(result interface{ RowsAffected() (int64, error) }) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
