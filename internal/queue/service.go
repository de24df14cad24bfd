// Package queue implements the token queue core: number allocation, the token
// lifecycle per provider-day, wait estimation and the swap negotiation protocol.
//
// Every operation receives a clock.Snapshot from its caller; the day inside the
// snapshot scopes all "today" reads and writes. The package returns *apperr.Error
// values and never logs.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-antrian-klinik/internal/apperr"
	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/store"
)

// Locker serializes work on one partition key across concurrent callers.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type Options struct {
	// Location decides opening hours; the calendar day itself comes from the snapshot.
	Location *time.Location
	SwapTTL  time.Duration
	// MaxOutgoingSwaps bounds PENDING requests sent by one client across providers.
	MaxOutgoingSwaps int
	// CancelServing lets cancel also close a SERVING token. Off by default.
	CancelServing  bool
	JoinMaxRetries int
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.SwapTTL <= 0 {
		o.SwapTTL = 2 * time.Minute
	}
	if o.MaxOutgoingSwaps <= 0 {
		o.MaxOutgoingSwaps = 1
	}
	if o.JoinMaxRetries < 0 {
		o.JoinMaxRetries = 0
	} else if o.JoinMaxRetries == 0 {
		o.JoinMaxRetries = 3
	}
	return o
}

type Service struct {
	store store.Store
	locks Locker
	seq   Sequencer
	opts  Options
}

func NewService(st store.Store, locks Locker, opts Options) *Service {
	return &Service{
		store: st,
		locks: locks,
		opts:  opts.withDefaults(),
	}
}

func (s *Service) Options() Options {
	return s.opts
}

func partitionKey(providerID int64, day models.Day) string {
	return fmt.Sprintf("provider:%d:%s", providerID, day)
}

func clientKey(userID int64) string {
	return fmt.Sprintf("client:%d", userID)
}

// inPartition runs fn in one transaction while holding the partition lock.
// The lock is always taken before the transaction starts, never inside it.
func (s *Service) inPartition(ctx context.Context, providerID int64, day models.Day, fn func(tx store.Queries) error) error {
	unlock, err := s.locks.Lock(ctx, partitionKey(providerID, day))
	if err != nil {
		return apperr.Transient("partition lock unavailable", err)
	}
	defer unlock()

	return s.store.InTx(ctx, fn)
}

func (s *Service) provider(ctx context.Context, id int64) (models.Provider, error) {
	if id <= 0 {
		return models.Provider{}, apperr.ErrMissingProviderID
	}
	p, err := s.store.GetProvider(ctx, id)
	return p, storeErr(err, apperr.ErrProviderNotFound)
}

// storeErr converts persistence errors into the apperr taxonomy. Errors that
// already carry a Kind pass through untouched.
func storeErr(err error, notFound *apperr.Error) error {
	if err == nil {
		return nil
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) && notFound != nil {
		return notFound
	}
	if errors.Is(err, store.ErrDuplicate) {
		return &apperr.Error{Kind: apperr.KindConflict, Msg: apperr.ErrNumberCollision.Msg, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Transient("request cancelled", err)
	}
	return apperr.Transient("store unavailable", err)
}
