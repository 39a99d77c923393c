// Package requests manages standalone ride requests: one-off trip asks
// that clients submit instead of publishing a recurring route.
package requests

import (
	"context"

	"go.uber.org/zap"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

type Store interface {
	CreateRideRequest(ctx context.Context, r models.RideRequest) (int64, error)
	RideRequestByID(ctx context.Context, id int64) (models.RideRequest, error)
	RideRequestsForClient(ctx context.Context, clientID int64) ([]models.RideRequest, error)
	TransitionRideRequest(ctx context.Context, id, clientID int64, from, to models.RequestStatus) (models.RideRequest, error)
}

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) Create(ctx context.Context, r models.RideRequest) (models.RideRequest, error) {
	if err := r.Pickup.Validate(); err != nil {
		return models.RideRequest{}, apperr.Invalid("invalid pickup: %v", err)
	}
	if err := r.Destination.Validate(); err != nil {
		return models.RideRequest{}, apperr.Invalid("invalid destination: %v", err)
	}
	if r.Schedule.Days.IsEmpty() {
		return models.RideRequest{}, apperr.Invalid("schedule needs at least one day")
	}

	r.Status = models.RequestPending
	id, err := s.store.CreateRideRequest(ctx, r)
	if err != nil {
		return models.RideRequest{}, err
	}
	r.ID = id
	return r, nil
}

func (s *Service) List(ctx context.Context, clientID int64) ([]models.RideRequest, error) {
	return s.store.RideRequestsForClient(ctx, clientID)
}

// Cancel works from pending or matched; completed requests stay as they
// are.
func (s *Service) Cancel(ctx context.Context, id, clientID int64) (models.RideRequest, error) {
	r, err := s.store.RideRequestByID(ctx, id)
	if err != nil {
		return models.RideRequest{}, err
	}
	if r.ClientID != clientID {
		return models.RideRequest{}, apperr.Forbidden("ride request %d does not belong to you", id)
	}
	if !r.Status.CanTransition(models.RequestCancelled) {
		return models.RideRequest{}, apperr.Conflict("ride request %d is %s", id, r.Status)
	}
	return s.store.TransitionRideRequest(ctx, id, clientID, r.Status, models.RequestCancelled)
}
