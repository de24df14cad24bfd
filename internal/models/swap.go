package models

import "time"

type SwapStatus string

const (
	SwapPending  SwapStatus = "PENDING"
	SwapAccepted SwapStatus = "ACCEPTED"
	SwapRejected SwapStatus = "REJECTED"
	SwapExpired  SwapStatus = "EXPIRED"
)

func (s SwapStatus) IsTerminal() bool {
	switch s {
	case SwapAccepted, SwapRejected, SwapExpired:
		return true
	default:
		return false
	}
}

// SwapRequest - permintaan tukar nomor antrian antara dua token WAITING
type SwapRequest struct {
	ID          int64      `json:"id"`
	FromTokenID int64      `json:"from_token_id"`
	ToTokenID   int64      `json:"to_token_id"`
	Status      SwapStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// DueAt - request PENDING dianggap kedaluwarsa jika expires_at < now
func (s SwapRequest) DueAt(now time.Time) bool {
	return s.Status == SwapPending && s.ExpiresAt.Before(now)
}

type SwapDirection string

const (
	SwapOutgoing SwapDirection = "outgoing"
	SwapIncoming SwapDirection = "incoming"
)

// SwapView - baris untuk daftar "my swaps", lengkap dengan nomor token kedua sisi
type SwapView struct {
	SwapRequest
	ProviderID      int64         `json:"provider_id"`
	FromTokenNumber int           `json:"from_token_number"`
	ToTokenNumber   int           `json:"to_token_number"`
	FromPatientID   int64         `json:"from_patient_id"`
	ToPatientID     int64         `json:"to_patient_id"`
	Direction       SwapDirection `json:"direction"`
}

type RequestSwapRequest struct {
	ProviderID  int64 `json:"provider_id"`
	TargetToken int   `json:"target_token"`
}

// NearbyToken - token WAITING milik client lain, hanya untuk tampilan pilihan tukar
type NearbyToken struct {
	TokenNumber  int       `json:"token_number"`
	WaitingSince time.Time `json:"waiting_since"`
}
