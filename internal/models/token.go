package models

import (
	"fmt"
	"time"
)

// TokenStatus - status nomor antrian dalam satu hari pelayanan
type TokenStatus string

const (
	TokenWaiting   TokenStatus = "WAITING"
	TokenServing   TokenStatus = "SERVING"
	TokenCompleted TokenStatus = "COMPLETED"
	TokenSkipped   TokenStatus = "SKIPPED"
)

// ParseTokenStatus menolak nilai di luar empat status yang dikenal.
func ParseTokenStatus(s string) (TokenStatus, error) {
	switch st := TokenStatus(s); st {
	case TokenWaiting, TokenServing, TokenCompleted, TokenSkipped:
		return st, nil
	default:
		return "", fmt.Errorf("status token tidak dikenal: %q", s)
	}
}

// IsTerminal - COMPLETED dan SKIPPED tidak bisa berpindah lagi
func (s TokenStatus) IsTerminal() bool {
	switch s {
	case TokenCompleted, TokenSkipped:
		return true
	default:
		return false
	}
}

// IsActive - token yang masih dihitung sebagai pendaftaran aktif
func (s TokenStatus) IsActive() bool {
	switch s {
	case TokenWaiting, TokenServing:
		return true
	default:
		return false
	}
}

// CanTransition - WAITING ke SERVING/COMPLETED, SERVING ke COMPLETED/SKIPPED
func (s TokenStatus) CanTransition(next TokenStatus) bool {
	switch s {
	case TokenWaiting:
		return next == TokenServing || next == TokenCompleted
	case TokenServing:
		return next == TokenCompleted || next == TokenSkipped
	default:
		return false
	}
}

type Token struct {
	ID             int64       `json:"id"`
	ProviderID     int64       `json:"provider_id"`
	PatientID      int64       `json:"patient_id"`
	TokenNumber    int         `json:"token_number"`
	Status         TokenStatus `json:"status"`
	Day            Day         `json:"day"`
	CreatedAt      time.Time   `json:"created_at"`
	StartTime      *time.Time  `json:"start_time"`
	EndTime        *time.Time  `json:"end_time"`
	ActualDuration *float64    `json:"actual_duration"` // menit
}

// Finish menutup token yang sedang dilayani dan menghitung durasi aktual.
// Durasi negatif (jam server mundur) dibulatkan ke 0 dan skew=true.
func (t *Token) Finish(to TokenStatus, now time.Time) (skew bool) {
	t.Status = to
	end := now
	t.EndTime = &end

	if t.StartTime == nil {
		return false
	}

	minutes := end.Sub(*t.StartTime).Minutes()
	if minutes < 0 {
		minutes = 0
		skew = true
	}
	t.ActualDuration = &minutes
	return skew
}

// JoinResult - hasil join; Created=false berarti token aktif yang sudah ada dikembalikan
type JoinResult struct {
	Token   Token `json:"token"`
	Created bool  `json:"created"`
}

type CallNextResult struct {
	Completed   *Token `json:"completed,omitempty"`
	Serving     *Token `json:"serving,omitempty"`
	NoneWaiting bool   `json:"none_waiting"`
	ClockSkew   bool   `json:"-"`
}

type SkipResult struct {
	Skipped   Token `json:"skipped"`
	ClockSkew bool  `json:"-"`
}
