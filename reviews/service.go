// Package reviews is plain CRUD layered on top of trips; reviews never
// feed back into matching.
package reviews

import (
	"context"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

type Store interface {
	CreateReview(ctx context.Context, r models.Review) (int64, error)
	ReviewsForUser(ctx context.Context, userID int64) ([]models.Review, error)
	DeleteReview(ctx context.Context, id int64) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, r models.Review) (models.Review, error) {
	if r.Rating < 1 || r.Rating > 5 {
		return models.Review{}, apperr.Invalid("rating must be between 1 and 5")
	}
	if r.ReviewerID == r.RevieweeID {
		return models.Review{}, apperr.Invalid("cannot review yourself")
	}
	id, err := s.store.CreateReview(ctx, r)
	if err != nil {
		return models.Review{}, err
	}
	r.ID = id
	return r, nil
}

func (s *Service) ForUser(ctx context.Context, userID int64) ([]models.Review, error) {
	return s.store.ReviewsForUser(ctx, userID)
}

// Delete is admin-only; reviews are immutable for everyone else.
func (s *Service) Delete(ctx context.Context, role models.Role, id int64) error {
	if role != models.RoleAdmin {
		return apperr.Forbidden("only admins can delete reviews")
	}
	return s.store.DeleteReview(ctx, id)
}
