package repositories

import (
	"context"
	"database/sql"
	"strings"

	"backend-antrian-klinik/internal/models"
)

const tokenColumns = `id, provider_id, patient_id, token_number, status, day, created_at, start_time, end_time, actual_duration`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (models.Token, error) {
	var (
		t        models.Token
		status   string
		day      string
		start    sql.NullTime
		end      sql.NullTime
		duration sql.NullFloat64
	)

	err := row.Scan(
		&t.ID,
		&t.ProviderID,
		&t.PatientID,
		&t.TokenNumber,
		&status,
		&day,
		&t.CreatedAt,
		&start,
		&end,
		&duration,
	)
	if err != nil {
		return models.Token{}, err
	}

	st, err := models.ParseTokenStatus(status)
	if err != nil {
		return models.Token{}, err
	}

	t.Status = st
	t.Day = models.Day(day)
	t.CreatedAt = t.CreatedAt.UTC()
	t.StartTime = timePtr(start)
	t.EndTime = timePtr(end)
	t.ActualDuration = floatPtr(duration)
	return t, nil
}

func (q *queries) queryToken(ctx context.Context, query string, args ...any) (models.Token, error) {
	t, err := scanToken(q.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.Token{}, mapError(err)
	}
	return t, nil
}

func (q *queries) queryTokens(ctx context.Context, query string, args ...any) ([]models.Token, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	tokens := []models.Token{}
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// GetToken retrieves a token by id
func (q *queries) GetToken(ctx context.Context, id int64) (models.Token, error) {
	return q.queryToken(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE id = ?`+q.forUpdate(), id)
}

// FindPatientToken returns the patient's token for the day in one of statuses
func (q *queries) FindPatientToken(ctx context.Context, providerID, patientID int64, day models.Day, statuses ...models.TokenStatus) (models.Token, error) {
	args := []any{providerID, patientID, string(day)}
	placeholders := make([]string, 0, len(statuses))
	for _, s := range statuses {
		placeholders = append(placeholders, "?")
		args = append(args, string(s))
	}

	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE provider_id = ? AND patient_id = ? AND day = ?
		AND status IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY token_number ASC
		LIMIT 1` + q.forUpdate()

	return q.queryToken(ctx, query, args...)
}

// TokenByNumber finds the token holding number in the partition with the given status
func (q *queries) TokenByNumber(ctx context.Context, providerID int64, day models.Day, number int, status models.TokenStatus) (models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE provider_id = ? AND day = ? AND token_number = ? AND status = ?` + q.forUpdate()

	return q.queryToken(ctx, query, providerID, string(day), number, string(status))
}

// ServingToken returns the token currently being served
func (q *queries) ServingToken(ctx context.Context, providerID int64, day models.Day) (models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE provider_id = ? AND day = ? AND status = ?
		ORDER BY token_number ASC
		LIMIT 1` + q.forUpdate()

	return q.queryToken(ctx, query, providerID, string(day), string(models.TokenServing))
}

// FirstWaiting returns the WAITING token with the smallest number
func (q *queries) FirstWaiting(ctx context.Context, providerID int64, day models.Day) (models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE provider_id = ? AND day = ? AND status = ?
		ORDER BY token_number ASC
		LIMIT 1` + q.forUpdate()

	return q.queryToken(ctx, query, providerID, string(day), string(models.TokenWaiting))
}

// MaxTokenNumber returns the highest number in the partition, 0 if empty.
// Inside a MySQL transaction the scanned index range is locked until commit.
func (q *queries) MaxTokenNumber(ctx context.Context, providerID int64, day models.Day) (int, error) {
	query := `
		SELECT COALESCE(MAX(token_number), 0)
		FROM tokens
		WHERE provider_id = ? AND day = ?` + q.forUpdate()

	var highest int
	err := q.db.QueryRowContext(ctx, query, providerID, string(day)).Scan(&highest)
	return highest, mapError(err)
}

// CountTokens counts every token of the partition regardless of status
func (q *queries) CountTokens(ctx context.Context, providerID int64, day models.Day) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tokens WHERE provider_id = ? AND day = ?`,
		providerID, string(day),
	).Scan(&count)
	return count, mapError(err)
}

// CountWaiting counts WAITING tokens; belowNumber > 0 restricts to numbers below it
func (q *queries) CountWaiting(ctx context.Context, providerID int64, day models.Day, belowNumber int) (int, error) {
	query := `SELECT COUNT(*) FROM tokens WHERE provider_id = ? AND day = ? AND status = ?`
	args := []any{providerID, string(day), string(models.TokenWaiting)}
	if belowNumber > 0 {
		query += ` AND token_number < ?`
		args = append(args, belowNumber)
	}

	var count int
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, mapError(err)
}

// AverageDuration returns the mean actual_duration of completed tokens with a recorded duration
func (q *queries) AverageDuration(ctx context.Context, providerID int64, day models.Day) (float64, int, error) {
	query := `
		SELECT COUNT(actual_duration), AVG(actual_duration)
		FROM tokens
		WHERE provider_id = ? AND day = ? AND status = ? AND actual_duration IS NOT NULL
	`

	var (
		samples int
		avg     sql.NullFloat64
	)
	err := q.db.QueryRowContext(ctx, query, providerID, string(day), string(models.TokenCompleted)).Scan(&samples, &avg)
	if err != nil {
		return 0, 0, mapError(err)
	}
	return avg.Float64, samples, nil
}

// ListTokens returns the whole partition ordered by number
func (q *queries) ListTokens(ctx context.Context, providerID int64, day models.Day) ([]models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE provider_id = ? AND day = ?
		ORDER BY token_number ASC
	`
	return q.queryTokens(ctx, query, providerID, string(day))
}

// ListWaitingExcept returns WAITING tokens of other patients ordered by number
func (q *queries) ListWaitingExcept(ctx context.Context, providerID int64, day models.Day, patientID int64) ([]models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE provider_id = ? AND day = ? AND status = ? AND patient_id <> ?
		ORDER BY token_number ASC
	`
	return q.queryTokens(ctx, query, providerID, string(day), string(models.TokenWaiting), patientID)
}

// InsertToken creates a token row and fills its id
func (q *queries) InsertToken(ctx context.Context, t *models.Token) error {
	query := `
		INSERT INTO tokens (provider_id, patient_id, token_number, status, day, created_at, start_time, end_time, actual_duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	t.CreatedAt = t.CreatedAt.UTC()
	result, err := q.db.ExecContext(ctx, query,
		t.ProviderID,
		t.PatientID,
		t.TokenNumber,
		string(t.Status),
		string(t.Day),
		t.CreatedAt,
		nullTime(t.StartTime),
		nullTime(t.EndTime),
		nullFloat(t.ActualDuration),
	)
	if err != nil {
		return mapError(err)
	}

	t.ID, err = result.LastInsertId()
	return err
}

// UpdateToken writes status and timestamps; token_number is only changed by SetTokenNumber
func (q *queries) UpdateToken(ctx context.Context, t models.Token) error {
	query := `
		UPDATE tokens
		SET status = ?, start_time = ?, end_time = ?, actual_duration = ?
		WHERE id = ?
	`

	result, err := q.db.ExecContext(ctx, query,
		string(t.Status),
		nullTime(t.StartTime),
		nullTime(t.EndTime),
		nullFloat(t.ActualDuration),
		t.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// SetTokenNumber changes the number of one token
func (q *queries) SetTokenNumber(ctx context.Context, id int64, number int) error {
	result, err := q.db.ExecContext(ctx, `UPDATE tokens SET token_number = ? WHERE id = ?`, number, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// DeleteToken removes a token; its swap requests go with it (ON DELETE CASCADE)
func (q *queries) DeleteToken(ctx context.Context, id int64) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}
