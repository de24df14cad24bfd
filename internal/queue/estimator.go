package queue

import (
	"context"
	"errors"
	"math"
	"time"

	"backend-antrian-klinik/internal/clock"
	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/store"
)

// Estimate keeps full precision; rounding happens only when building responses.
type Estimate struct {
	Average   float64
	Remaining float64
	Wait      float64
}

// AverageConsultation is the mean measured duration of the day, or the provider's
// nominal duration while no sample exists. The jump from prior to the first
// measured value is expected.
func AverageConsultation(mean float64, samples int, nominalMinutes int) float64 {
	if samples == 0 {
		return float64(nominalMinutes)
	}
	return mean
}

// EstimateWait projects the wait of a token with peopleAhead WAITING tokens in
// front of it. servingStart is nil when nobody is served or start_time is unset.
func EstimateWait(average float64, servingStart *time.Time, now time.Time, peopleAhead int) Estimate {
	remaining := 0.0
	if servingStart != nil {
		elapsed := now.Sub(*servingStart).Minutes()
		remaining = math.Max(average-elapsed, 0)
	}

	wait := remaining
	if peopleAhead > 0 {
		wait = remaining + float64(max(peopleAhead-1, 0))*average
	}

	return Estimate{Average: average, Remaining: remaining, Wait: wait}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func (s *Service) average(ctx context.Context, p models.Provider, day models.Day) (float64, error) {
	mean, samples, err := s.store.AverageDuration(ctx, p.ID, day)
	if err != nil {
		return 0, err
	}
	return AverageConsultation(mean, samples, p.ConsultationMinutes), nil
}

func (s *Service) serving(ctx context.Context, providerID int64, day models.Day) (*models.Token, error) {
	t, err := s.store.ServingToken(ctx, providerID, day)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Status reports the client's position and projected wait. A client without a
// WAITING or SERVING token today gets InQueue=false and no estimate.
func (s *Service) Status(ctx context.Context, at clock.Snapshot, providerID int64, client models.Principal) (models.QueueStatus, error) {
	p, err := s.provider(ctx, providerID)
	if err != nil {
		return models.QueueStatus{}, err
	}

	avg, err := s.average(ctx, p, at.Day)
	if err != nil {
		return models.QueueStatus{}, storeErr(err, nil)
	}

	current, err := s.serving(ctx, providerID, at.Day)
	if err != nil {
		return models.QueueStatus{}, storeErr(err, nil)
	}

	status := models.QueueStatus{AverageConsultationTime: round1(avg)}
	if current != nil {
		n := current.TokenNumber
		status.CurrentlyServing = &n
	}

	mine, err := s.store.FindPatientToken(ctx, providerID, client.UserID, at.Day, models.TokenWaiting, models.TokenServing)
	if errors.Is(err, store.ErrNotFound) {
		return status, nil
	}
	if err != nil {
		return models.QueueStatus{}, storeErr(err, nil)
	}

	status.InQueue = true
	status.YourToken = mine.TokenNumber
	status.YourStatus = mine.Status
	if mine.Status == models.TokenServing {
		return status, nil
	}

	ahead, err := s.store.CountWaiting(ctx, providerID, at.Day, mine.TokenNumber)
	if err != nil {
		return models.QueueStatus{}, storeErr(err, nil)
	}

	var start *time.Time
	if current != nil {
		start = current.StartTime
	}
	est := EstimateWait(avg, start, at.Now, ahead)

	status.PeopleAhead = ahead
	status.RemainingTime = round1(est.Remaining)
	status.EstimatedWaitMinutes = round1(est.Wait)
	return status, nil
}

// Board is the public display data of a provider for the day.
func (s *Service) Board(ctx context.Context, at clock.Snapshot, providerID int64) (models.Board, error) {
	p, err := s.provider(ctx, providerID)
	if err != nil {
		return models.Board{}, err
	}

	avg, err := s.average(ctx, p, at.Day)
	if err != nil {
		return models.Board{}, storeErr(err, nil)
	}

	current, err := s.serving(ctx, providerID, at.Day)
	if err != nil {
		return models.Board{}, storeErr(err, nil)
	}

	waiting, err := s.store.CountWaiting(ctx, providerID, at.Day, 0)
	if err != nil {
		return models.Board{}, storeErr(err, nil)
	}

	board := models.Board{
		ProviderID:              p.ID,
		ProviderName:            p.Name,
		Day:                     at.Day,
		TotalWaiting:            waiting,
		AverageConsultationTime: round1(avg),
	}
	if current != nil {
		n := current.TokenNumber
		board.CurrentlyServing = &n
	}
	return board, nil
}
