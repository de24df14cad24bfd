package queue

import (
	"context"

	"backend-antrian-klinik/internal/apperr"
	"backend-antrian-klinik/internal/clock"
	"backend-antrian-klinik/internal/metrics"
	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/store"
)

// ExpireDue moves every PENDING request past its expires_at to EXPIRED.
// Safe to run concurrently; already expired rows are not touched.
func (s *Service) ExpireDue(ctx context.Context, now clock.Snapshot) (int64, error) {
	n, err := s.store.ExpireDue(ctx, now.Now)
	if err != nil {
		return 0, storeErr(err, nil)
	}
	if n > 0 {
		metrics.SwapsExpired.Add(float64(n))
	}
	return n, nil
}

// RequestSwap proposes exchanging the client's WAITING token number with targetNumber.
func (s *Service) RequestSwap(ctx context.Context, at clock.Snapshot, providerID int64, client models.Principal, targetNumber int) (models.SwapRequest, error) {
	if providerID <= 0 {
		return models.SwapRequest{}, apperr.ErrMissingProviderID
	}
	if targetNumber <= 0 {
		return models.SwapRequest{}, apperr.ErrInvalidTarget
	}
	if _, err := s.ExpireDue(ctx, at); err != nil {
		return models.SwapRequest{}, err
	}

	// The outgoing limit spans providers, so the client key is locked before the
	// partition. No other operation takes a client lock.
	unlock, err := s.locks.Lock(ctx, clientKey(client.UserID))
	if err != nil {
		return models.SwapRequest{}, apperr.Transient("client lock unavailable", err)
	}
	defer unlock()

	var swap models.SwapRequest
	err = s.inPartition(ctx, providerID, at.Day, func(tx store.Queries) error {
		mine, err := tx.FindPatientToken(ctx, providerID, client.UserID, at.Day, models.TokenWaiting)
		if err != nil {
			return storeErr(err, apperr.ErrNoActiveToken)
		}

		target, err := tx.TokenByNumber(ctx, providerID, at.Day, targetNumber, models.TokenWaiting)
		if err != nil {
			return storeErr(err, apperr.ErrTargetNotWaiting)
		}

		if mine.ID == target.ID {
			return apperr.ErrSelfSwap
		}

		dup, err := tx.PendingSwapExists(ctx, mine.ID, target.ID)
		if err != nil {
			return err
		}
		if dup {
			return apperr.ErrDuplicateSwap
		}

		outgoing, err := tx.CountPendingByPatient(ctx, client.UserID)
		if err != nil {
			return err
		}
		if outgoing >= s.opts.MaxOutgoingSwaps {
			return apperr.ErrSwapLimit
		}

		swap = models.SwapRequest{
			FromTokenID: mine.ID,
			ToTokenID:   target.ID,
			Status:      models.SwapPending,
			CreatedAt:   at.Now,
			ExpiresAt:   at.Now.Add(s.opts.SwapTTL),
		}
		return tx.InsertSwap(ctx, &swap)
	})
	if err != nil {
		return models.SwapRequest{}, storeErr(err, nil)
	}

	metrics.SwapOutcomes.WithLabelValues(string(models.SwapPending)).Inc()
	return swap, nil
}

// AcceptSwap lets the owner of the target token accept. The request status and
// both token numbers change in one transaction. The returned view carries the
// numbers after the exchange.
func (s *Service) AcceptSwap(ctx context.Context, at clock.Snapshot, swapID int64, client models.Principal) (models.SwapView, error) {
	if _, err := s.ExpireDue(ctx, at); err != nil {
		return models.SwapView{}, err
	}

	swap, err := s.store.GetSwap(ctx, swapID)
	if err != nil {
		return models.SwapView{}, storeErr(err, apperr.ErrSwapNotFound)
	}
	from, err := s.store.GetToken(ctx, swap.FromTokenID)
	if err != nil {
		return models.SwapView{}, storeErr(err, apperr.ErrSwapNotFound)
	}

	var view models.SwapView
	expired := false
	err = s.inPartition(ctx, from.ProviderID, from.Day, func(tx store.Queries) error {
		expired = false

		sw, err := tx.GetSwap(ctx, swapID)
		if err != nil {
			return storeErr(err, apperr.ErrSwapNotFound)
		}

		switch sw.Status {
		case models.SwapPending:
		case models.SwapExpired:
			return apperr.ErrSwapExpired
		default:
			return apperr.ErrSwapProcessed
		}

		// expiry seen on read is persisted before the error is returned
		if sw.DueAt(at.Now) {
			if _, err := tx.ExpireSwap(ctx, swapID); err != nil {
				return err
			}
			expired = true
			return nil
		}

		to, err := tx.GetToken(ctx, sw.ToTokenID)
		if err != nil {
			return storeErr(err, apperr.ErrSwapNotFound)
		}
		if to.PatientID != client.UserID {
			return apperr.ErrNotSwapReceiver
		}

		fromTok, err := tx.GetToken(ctx, sw.FromTokenID)
		if err != nil {
			return storeErr(err, apperr.ErrSwapNotFound)
		}
		if !swappable(fromTok, to) {
			return apperr.ErrSwapNotEligible
		}

		ok, err := tx.ResolveSwap(ctx, swapID, models.SwapAccepted, at.Now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrSwapExpired
		}

		// the negative placeholder keeps the unique (provider, day, number) index
		// satisfied between the two writes
		if err := tx.SetTokenNumber(ctx, fromTok.ID, -fromTok.TokenNumber); err != nil {
			return err
		}
		if err := tx.SetTokenNumber(ctx, to.ID, fromTok.TokenNumber); err != nil {
			return err
		}
		if err := tx.SetTokenNumber(ctx, fromTok.ID, to.TokenNumber); err != nil {
			return err
		}

		sw.Status = models.SwapAccepted
		view = models.SwapView{
			SwapRequest:     sw,
			ProviderID:      fromTok.ProviderID,
			FromTokenNumber: to.TokenNumber,
			ToTokenNumber:   fromTok.TokenNumber,
			FromPatientID:   fromTok.PatientID,
			ToPatientID:     to.PatientID,
			Direction:       models.SwapIncoming,
		}
		return nil
	})
	if err != nil {
		return models.SwapView{}, storeErr(err, nil)
	}
	if expired {
		metrics.SwapsExpired.Inc()
		return models.SwapView{}, apperr.ErrSwapExpired
	}

	metrics.SwapOutcomes.WithLabelValues(string(models.SwapAccepted)).Inc()
	return view, nil
}

func swappable(a, b models.Token) bool {
	return a.Status == models.TokenWaiting &&
		b.Status == models.TokenWaiting &&
		a.ProviderID == b.ProviderID &&
		a.Day == b.Day
}

// RejectSwap lets the owner of the target token decline a PENDING request.
func (s *Service) RejectSwap(ctx context.Context, at clock.Snapshot, swapID int64, client models.Principal) (models.SwapRequest, error) {
	if _, err := s.ExpireDue(ctx, at); err != nil {
		return models.SwapRequest{}, err
	}

	swap, err := s.store.GetSwap(ctx, swapID)
	if err != nil {
		return models.SwapRequest{}, storeErr(err, apperr.ErrSwapNotFound)
	}
	if swap.Status != models.SwapPending {
		return models.SwapRequest{}, apperr.ErrNoPendingSwap
	}

	to, err := s.store.GetToken(ctx, swap.ToTokenID)
	if err != nil {
		return models.SwapRequest{}, storeErr(err, apperr.ErrSwapNotFound)
	}
	if to.PatientID != client.UserID {
		return models.SwapRequest{}, apperr.ErrNotSwapReceiver
	}

	ok, err := s.store.ResolveSwap(ctx, swapID, models.SwapRejected, at.Now)
	if err != nil {
		return models.SwapRequest{}, storeErr(err, nil)
	}
	if !ok {
		return models.SwapRequest{}, apperr.ErrNoPendingSwap
	}

	metrics.SwapOutcomes.WithLabelValues(string(models.SwapRejected)).Inc()
	swap.Status = models.SwapRejected
	return swap, nil
}

// MySwaps lists every request touching one of the client's tokens, newest first.
func (s *Service) MySwaps(ctx context.Context, at clock.Snapshot, client models.Principal) ([]models.SwapView, error) {
	if _, err := s.ExpireDue(ctx, at); err != nil {
		return nil, err
	}

	swaps, err := s.store.ListSwapsFor(ctx, client.UserID)
	if err != nil {
		return nil, storeErr(err, nil)
	}

	for i := range swaps {
		if swaps[i].FromPatientID == client.UserID {
			swaps[i].Direction = models.SwapOutgoing
		} else {
			swaps[i].Direction = models.SwapIncoming
		}
	}
	return swaps, nil
}

// NearbyTokens lists other clients' WAITING numbers for the swap picker. Read only.
func (s *Service) NearbyTokens(ctx context.Context, at clock.Snapshot, providerID int64, client models.Principal) ([]models.NearbyToken, error) {
	if _, err := s.provider(ctx, providerID); err != nil {
		return nil, err
	}

	tokens, err := s.store.ListWaitingExcept(ctx, providerID, at.Day, client.UserID)
	if err != nil {
		return nil, storeErr(err, nil)
	}

	nearby := make([]models.NearbyToken, 0, len(tokens))
	for _, t := range tokens {
		nearby = append(nearby, models.NearbyToken{TokenNumber: t.TokenNumber, WaitingSince: t.CreatedAt})
	}
	return nearby, nil
}
