// Package store declares the persistence boundary the queue core runs against.
// All "today" filtering is expressed through an explicit models.Day argument.
package store

import (
	"context"
	"errors"
	"time"

	"backend-antrian-klinik/internal/models"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// Queries is usable both on the pool and inside a transaction. Inside a
// transaction, single-row and aggregate reads over tokens and swaps take row locks
// where the dialect supports it.
type Queries interface {
	GetProvider(ctx context.Context, id int64) (models.Provider, error)
	CreateProvider(ctx context.Context, p *models.Provider) error
	UpdateProviderDuration(ctx context.Context, id int64, minutes int, now time.Time) error

	GetToken(ctx context.Context, id int64) (models.Token, error)
	FindPatientToken(ctx context.Context, providerID, patientID int64, day models.Day, statuses ...models.TokenStatus) (models.Token, error)
	TokenByNumber(ctx context.Context, providerID int64, day models.Day, number int, status models.TokenStatus) (models.Token, error)
	ServingToken(ctx context.Context, providerID int64, day models.Day) (models.Token, error)
	FirstWaiting(ctx context.Context, providerID int64, day models.Day) (models.Token, error)
	MaxTokenNumber(ctx context.Context, providerID int64, day models.Day) (int, error)
	CountTokens(ctx context.Context, providerID int64, day models.Day) (int, error)
	CountWaiting(ctx context.Context, providerID int64, day models.Day, belowNumber int) (int, error)
	AverageDuration(ctx context.Context, providerID int64, day models.Day) (avg float64, samples int, err error)
	ListTokens(ctx context.Context, providerID int64, day models.Day) ([]models.Token, error)
	ListWaitingExcept(ctx context.Context, providerID int64, day models.Day, patientID int64) ([]models.Token, error)
	// HighWater and RaiseHighWater remember numbers of deleted tokens so the
	// partition never hands them out again.
	HighWater(ctx context.Context, providerID int64, day models.Day) (int, error)
	RaiseHighWater(ctx context.Context, providerID int64, day models.Day, number int) error
	InsertToken(ctx context.Context, t *models.Token) error
	UpdateToken(ctx context.Context, t models.Token) error
	SetTokenNumber(ctx context.Context, id int64, number int) error
	DeleteToken(ctx context.Context, id int64) error

	GetSwap(ctx context.Context, id int64) (models.SwapRequest, error)
	InsertSwap(ctx context.Context, s *models.SwapRequest) error
	// CountPendingByPatient counts PENDING requests sent from any token of the patient.
	CountPendingByPatient(ctx context.Context, patientID int64) (int, error)
	PendingSwapExists(ctx context.Context, fromTokenID, toTokenID int64) (bool, error)
	// ResolveSwap moves a PENDING, not-yet-expired (expires_at >= now) request to status.
	ResolveSwap(ctx context.Context, id int64, status models.SwapStatus, now time.Time) (bool, error)
	ExpireSwap(ctx context.Context, id int64) (bool, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	ListSwapsFor(ctx context.Context, patientID int64) ([]models.SwapView, error)
}

type Store interface {
	Queries
	// InTx commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Queries) error) error
	Ping(ctx context.Context) error
	Close() error
}
