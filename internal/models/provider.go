package models

import "time"

// Provider - titik layanan (poli/dokter) yang punya antrian harian sendiri
type Provider struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	ConsultationMinutes int       `json:"consultation_minutes"` // estimasi awal durasi layanan
	DailyLimit          int       `json:"daily_limit"`          // 0 = tanpa batas
	OpensAt             string    `json:"opens_at"`             // format: "HH:MM:SS", kosong = selalu buka
	ClosesAt            string    `json:"closes_at"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type CreateProviderRequest struct {
	Name                string `json:"name" validate:"required,max=255"`
	ConsultationMinutes int    `json:"consultation_minutes" validate:"min=1"`
	DailyLimit          int    `json:"daily_limit" validate:"min=0"`
	OpensAt             string `json:"opens_at"`
	ClosesAt            string `json:"closes_at"`
}

type UpdateDurationRequest struct {
	ConsultationMinutes int `json:"consultation_minutes" validate:"min=1"`
}
