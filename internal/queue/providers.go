package queue

import (
	"context"
	"strings"

	"backend-antrian-klinik/internal/apperr"
	"backend-antrian-klinik/internal/clock"
	"backend-antrian-klinik/internal/helper"
	"backend-antrian-klinik/internal/models"
)

func (s *Service) GetProvider(ctx context.Context, id int64) (models.Provider, error) {
	return s.provider(ctx, id)
}

// CreateProvider registers a new provider. Admin only.
func (s *Service) CreateProvider(ctx context.Context, at clock.Snapshot, actor models.Principal, req models.CreateProviderRequest) (models.Provider, error) {
	if !actor.IsAdmin() {
		return models.Provider{}, apperr.Forbidden("only admins can create providers")
	}

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return models.Provider{}, apperr.InvalidInput("name is required")
	case req.ConsultationMinutes <= 0:
		return models.Provider{}, apperr.ErrInvalidDuration
	case req.DailyLimit < 0:
		return models.Provider{}, apperr.InvalidInput("daily_limit cannot be negative")
	case !helper.ValidClock(req.OpensAt) || !helper.ValidClock(req.ClosesAt):
		return models.Provider{}, apperr.InvalidInput("opens_at/closes_at must be HH:MM or HH:MM:SS")
	case (req.OpensAt == "") != (req.ClosesAt == ""):
		return models.Provider{}, apperr.InvalidInput("opens_at and closes_at must be set together")
	}

	p := models.Provider{
		Name:                name,
		ConsultationMinutes: req.ConsultationMinutes,
		DailyLimit:          req.DailyLimit,
		OpensAt:             req.OpensAt,
		ClosesAt:            req.ClosesAt,
		CreatedAt:           at.Now,
	}
	if err := s.store.CreateProvider(ctx, &p); err != nil {
		return models.Provider{}, storeErr(err, nil)
	}
	return p, nil
}

// UpdateDuration changes the nominal consultation duration used as the estimator prior.
func (s *Service) UpdateDuration(ctx context.Context, at clock.Snapshot, providerID int64, actor models.Principal, minutes int) (models.Provider, error) {
	if minutes <= 0 {
		return models.Provider{}, apperr.ErrInvalidDuration
	}
	if _, err := s.provider(ctx, providerID); err != nil {
		return models.Provider{}, err
	}
	if !actor.CanOperate(providerID) {
		return models.Provider{}, apperr.ErrNotOperator
	}

	if err := s.store.UpdateProviderDuration(ctx, providerID, minutes, at.Now); err != nil {
		return models.Provider{}, storeErr(err, apperr.ErrProviderNotFound)
	}
	return s.provider(ctx, providerID)
}
