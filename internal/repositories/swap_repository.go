package repositories

import (
	"context"
	"time"

	"backend-antrian-klinik/internal/models"
)

// GetSwap retrieves a swap request by id
func (q *queries) GetSwap(ctx context.Context, id int64) (models.SwapRequest, error) {
	query := `
		SELECT id, from_token_id, to_token_id, status, created_at, expires_at
		FROM swap_requests
		WHERE id = ?` + q.forUpdate()

	var (
		s      models.SwapRequest
		status string
	)
	err := q.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.FromTokenID,
		&s.ToTokenID,
		&status,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		return models.SwapRequest{}, mapError(err)
	}

	s.Status = models.SwapStatus(status)
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	return s, nil
}

// InsertSwap creates a swap request and fills its id
func (q *queries) InsertSwap(ctx context.Context, s *models.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (from_token_id, to_token_id, status, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`

	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	result, err := q.db.ExecContext(ctx, query, s.FromTokenID, s.ToTokenID, string(s.Status), s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return mapError(err)
	}

	s.ID, err = result.LastInsertId()
	return err
}

// CountPendingByPatient counts PENDING requests sent by a patient across every provider
func (q *queries) CountPendingByPatient(ctx context.Context, patientID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM swap_requests s
		JOIN tokens f ON f.id = s.from_token_id
		WHERE f.patient_id = ? AND s.status = ?
	`

	var count int
	err := q.db.QueryRowContext(ctx, query, patientID, string(models.SwapPending)).Scan(&count)
	return count, mapError(err)
}

// PendingSwapExists reports whether an identical PENDING request exists
func (q *queries) PendingSwapExists(ctx context.Context, fromTokenID, toTokenID int64) (bool, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM swap_requests WHERE from_token_id = ? AND to_token_id = ? AND status = ?`,
		fromTokenID, toTokenID, string(models.SwapPending),
	).Scan(&count)
	return count > 0, mapError(err)
}

// ResolveSwap is a conditional write: it only succeeds while the request is
// PENDING and expires_at >= now, so an expiry racing with it wins cleanly.
func (q *queries) ResolveSwap(ctx context.Context, id int64, status models.SwapStatus, now time.Time) (bool, error) {
	query := `
		UPDATE swap_requests
		SET status = ?
		WHERE id = ? AND status = ? AND expires_at >= ?
	`

	result, err := q.db.ExecContext(ctx, query, string(status), id, string(models.SwapPending), now.UTC())
	if err != nil {
		return false, mapError(err)
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

// ExpireSwap marks one PENDING request EXPIRED
func (q *queries) ExpireSwap(ctx context.Context, id int64) (bool, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE swap_requests SET status = ? WHERE id = ? AND status = ?`,
		string(models.SwapExpired), id, string(models.SwapPending),
	)
	if err != nil {
		return false, mapError(err)
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

// ExpireDue marks every PENDING request with expires_at < now EXPIRED. Idempotent.
func (q *queries) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE swap_requests SET status = ? WHERE status = ? AND expires_at < ?`,
		string(models.SwapExpired), string(models.SwapPending), now.UTC(),
	)
	if err != nil {
		return 0, mapError(err)
	}
	return result.RowsAffected()
}

// ListSwapsFor lists requests where the patient owns either token, newest first
func (q *queries) ListSwapsFor(ctx context.Context, patientID int64) ([]models.SwapView, error) {
	query := `
		SELECT s.id, s.from_token_id, s.to_token_id, s.status, s.created_at, s.expires_at,
		       f.provider_id, f.token_number, t.token_number, f.patient_id, t.patient_id
		FROM swap_requests s
		JOIN tokens f ON f.id = s.from_token_id
		JOIN tokens t ON t.id = s.to_token_id
		WHERE f.patient_id = ? OR t.patient_id = ?
		ORDER BY s.created_at DESC, s.id DESC
	`

	rows, err := q.db.QueryContext(ctx, query, patientID, patientID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	swaps := []models.SwapView{}
	for rows.Next() {
		var (
			v      models.SwapView
			status string
		)
		err := rows.Scan(
			&v.ID,
			&v.FromTokenID,
			&v.ToTokenID,
			&status,
			&v.CreatedAt,
			&v.ExpiresAt,
			&v.ProviderID,
			&v.FromTokenNumber,
			&v.ToTokenNumber,
			&v.FromPatientID,
			&v.ToPatientID,
		)
		if err != nil {
			return nil, err
		}
		v.Status = models.SwapStatus(status)
		v.CreatedAt = v.CreatedAt.UTC()
		v.ExpiresAt = v.ExpiresAt.UTC()
		swaps = append(swaps, v)
	}
	return swaps, rows.Err()
}
