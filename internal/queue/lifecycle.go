package queue

import (
	"context"
	"errors"
	"strconv"

	"backend-antrian-klinik/internal/apperr"
	"backend-antrian-klinik/internal/clock"
	"backend-antrian-klinik/internal/helper"
	"backend-antrian-klinik/internal/metrics"
	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/store"
)

// Join enrolls client in today's queue of providerID. A client that already holds
// a WAITING or SERVING token gets that token back with Created=false.
func (s *Service) Join(ctx context.Context, at clock.Snapshot, providerID int64, client models.Principal) (models.JoinResult, error) {
	p, err := s.provider(ctx, providerID)
	if err != nil {
		return models.JoinResult{}, err
	}

	var result models.JoinResult
	for attempt := 0; ; attempt++ {
		err = s.inPartition(ctx, providerID, at.Day, func(tx store.Queries) error {
			existing, err := tx.FindPatientToken(ctx, providerID, client.UserID, at.Day, models.TokenWaiting, models.TokenServing)
			if err == nil {
				result = models.JoinResult{Token: existing, Created: false}
				return nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			if !helper.IsQueueOpen(at.Now, p.OpensAt, p.ClosesAt, s.opts.Location) {
				return apperr.ErrProviderClosed
			}

			if p.DailyLimit > 0 {
				count, err := tx.CountTokens(ctx, providerID, at.Day)
				if err != nil {
					return err
				}
				if count >= p.DailyLimit {
					return apperr.ErrQuotaFull
				}
			}

			number, err := s.seq.Next(ctx, tx, providerID, at.Day)
			if err != nil {
				return err
			}

			token := models.Token{
				ProviderID:  providerID,
				PatientID:   client.UserID,
				TokenNumber: number,
				Status:      models.TokenWaiting,
				Day:         at.Day,
				CreatedAt:   at.Now,
			}
			if err := tx.InsertToken(ctx, &token); err != nil {
				return err
			}

			result = models.JoinResult{Token: token, Created: true}
			return nil
		})

		if errors.Is(err, store.ErrDuplicate) && attempt < s.opts.JoinMaxRetries {
			metrics.JoinRetries.Inc()
			continue
		}
		break
	}
	if err != nil {
		return models.JoinResult{}, storeErr(err, nil)
	}

	if result.Created {
		metrics.TokensJoined.WithLabelValues(strconv.FormatInt(providerID, 10)).Inc()
	}
	return result, nil
}

// CallNext completes the SERVING token (if any) and promotes the lowest WAITING
// number to SERVING. Both writes share one transaction, so the next token is
// selected only after the previous one is already COMPLETED.
func (s *Service) CallNext(ctx context.Context, at clock.Snapshot, providerID int64, actor models.Principal) (models.CallNextResult, error) {
	if _, err := s.provider(ctx, providerID); err != nil {
		return models.CallNextResult{}, err
	}
	if !actor.CanOperate(providerID) {
		return models.CallNextResult{}, apperr.ErrNotOperator
	}

	var result models.CallNextResult
	err := s.inPartition(ctx, providerID, at.Day, func(tx store.Queries) error {
		result = models.CallNextResult{}

		current, err := tx.ServingToken(ctx, providerID, at.Day)
		switch {
		case err == nil:
			result.ClockSkew = current.Finish(models.TokenCompleted, at.Now)
			if err := tx.UpdateToken(ctx, current); err != nil {
				return err
			}
			result.Completed = &current
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		next, err := tx.FirstWaiting(ctx, providerID, at.Day)
		if errors.Is(err, store.ErrNotFound) {
			result.NoneWaiting = true
			return nil
		}
		if err != nil {
			return err
		}

		start := at.Now
		next.Status = models.TokenServing
		next.StartTime = &start
		if err := tx.UpdateToken(ctx, next); err != nil {
			return err
		}
		result.Serving = &next
		return nil
	})
	if err != nil {
		return models.CallNextResult{}, storeErr(err, nil)
	}

	if result.Completed != nil {
		metrics.TokenTransitions.WithLabelValues("complete").Inc()
	}
	if result.Serving != nil {
		metrics.TokenTransitions.WithLabelValues("call").Inc()
	}
	if result.ClockSkew {
		metrics.ClockSkew.Inc()
	}
	return result, nil
}

// Cancel closes the client's WAITING token as COMPLETED. Other numbers are untouched.
func (s *Service) Cancel(ctx context.Context, at clock.Snapshot, providerID int64, client models.Principal) (models.Token, error) {
	statuses := []models.TokenStatus{models.TokenWaiting}
	if s.opts.CancelServing {
		statuses = append(statuses, models.TokenServing)
	}

	var token models.Token
	err := s.inPartition(ctx, providerID, at.Day, func(tx store.Queries) error {
		t, err := tx.FindPatientToken(ctx, providerID, client.UserID, at.Day, statuses...)
		if err != nil {
			return storeErr(err, apperr.ErrNoActiveToken)
		}
		if !t.Status.CanTransition(models.TokenCompleted) {
			return apperr.ErrTokenFinished
		}

		if t.Status == models.TokenServing {
			end := at.Now
			t.EndTime = &end
		}
		t.Status = models.TokenCompleted
		if err := tx.UpdateToken(ctx, t); err != nil {
			return err
		}
		token = t
		return nil
	})
	if err != nil {
		return models.Token{}, storeErr(err, nil)
	}

	metrics.TokenTransitions.WithLabelValues("cancel").Inc()
	return token, nil
}

// Skip marks the SERVING token SKIPPED. It does not call the next token.
func (s *Service) Skip(ctx context.Context, at clock.Snapshot, providerID int64, actor models.Principal) (models.SkipResult, error) {
	if _, err := s.provider(ctx, providerID); err != nil {
		return models.SkipResult{}, err
	}
	if !actor.CanOperate(providerID) {
		return models.SkipResult{}, apperr.ErrNotOperator
	}

	var result models.SkipResult
	err := s.inPartition(ctx, providerID, at.Day, func(tx store.Queries) error {
		current, err := tx.ServingToken(ctx, providerID, at.Day)
		if err != nil {
			return storeErr(err, apperr.ErrNoServingToken)
		}

		skew := current.Finish(models.TokenSkipped, at.Now)
		if err := tx.UpdateToken(ctx, current); err != nil {
			return err
		}
		result = models.SkipResult{Skipped: current, ClockSkew: skew}
		return nil
	})
	if err != nil {
		return models.SkipResult{}, storeErr(err, nil)
	}

	metrics.TokenTransitions.WithLabelValues("skip").Inc()
	if result.ClockSkew {
		metrics.ClockSkew.Inc()
	}
	return result, nil
}

// ForceComplete is an operator escape hatch for stuck tokens: any non-terminal
// token becomes COMPLETED with end_time=now, bypassing the normal preconditions.
// No duration is recorded, so the estimator ignores it.
func (s *Service) ForceComplete(ctx context.Context, at clock.Snapshot, tokenID int64, actor models.Principal) (models.Token, error) {
	t, err := s.store.GetToken(ctx, tokenID)
	if err != nil {
		return models.Token{}, storeErr(err, apperr.ErrTokenNotFound)
	}
	if !actor.CanOperate(t.ProviderID) {
		return models.Token{}, apperr.ErrNotOperator
	}

	err = s.inPartition(ctx, t.ProviderID, t.Day, func(tx store.Queries) error {
		current, err := tx.GetToken(ctx, tokenID)
		if err != nil {
			return storeErr(err, apperr.ErrTokenNotFound)
		}
		if current.Status.IsTerminal() {
			return apperr.ErrTokenFinished
		}

		end := at.Now
		current.Status = models.TokenCompleted
		current.EndTime = &end
		if err := tx.UpdateToken(ctx, current); err != nil {
			return err
		}
		t = current
		return nil
	})
	if err != nil {
		return models.Token{}, storeErr(err, nil)
	}

	metrics.TokenTransitions.WithLabelValues("force_complete").Inc()
	return t, nil
}

// Delete removes a token record and its swap requests. Operator escape hatch.
// Its number is retired, not freed: later joins continue above it.
// The removed token is returned so callers know which provider changed.
func (s *Service) Delete(ctx context.Context, tokenID int64, actor models.Principal) (models.Token, error) {
	t, err := s.store.GetToken(ctx, tokenID)
	if err != nil {
		return models.Token{}, storeErr(err, apperr.ErrTokenNotFound)
	}
	if !actor.CanOperate(t.ProviderID) {
		return models.Token{}, apperr.ErrNotOperator
	}

	err = s.inPartition(ctx, t.ProviderID, t.Day, func(tx store.Queries) error {
		current, err := tx.GetToken(ctx, tokenID)
		if err != nil {
			return storeErr(err, apperr.ErrTokenNotFound)
		}
		if err := tx.RaiseHighWater(ctx, current.ProviderID, current.Day, current.TokenNumber); err != nil {
			return err
		}
		if err := tx.DeleteToken(ctx, tokenID); err != nil {
			return storeErr(err, apperr.ErrTokenNotFound)
		}
		t = current
		return nil
	})
	if err != nil {
		return models.Token{}, storeErr(err, nil)
	}

	metrics.TokenTransitions.WithLabelValues("delete").Inc()
	return t, nil
}

// FullQueue is the operator view of every token of the day.
func (s *Service) FullQueue(ctx context.Context, at clock.Snapshot, providerID int64, actor models.Principal) ([]models.Token, error) {
	if _, err := s.provider(ctx, providerID); err != nil {
		return nil, err
	}
	if !actor.CanOperate(providerID) {
		return nil, apperr.ErrNotOperator
	}

	tokens, err := s.store.ListTokens(ctx, providerID, at.Day)
	return tokens, storeErr(err, nil)
}
