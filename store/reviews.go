package store

import (
	"context"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

func (s *Store) CreateReview(ctx context.Context, r models.Review) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO reviews (reviewer_id, reviewee_id, trip_id, rating, comment)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		r.ReviewerID, r.RevieweeID, r.TripID, r.Rating, r.Comment,
	).Scan(&id)
	if err != nil {
		return 0, apperr.Internal("create review", err)
	}
	return id, nil
}

func (s *Store) ReviewsForUser(ctx context.Context, userID int64) ([]models.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reviewer_id, reviewee_id, trip_id, rating, comment, created_at
		 FROM reviews WHERE reviewee_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, apperr.Internal("list reviews", err)
	}
	defer rows.Close()

	var out []models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.ReviewerID, &r.RevieweeID, &r.TripID,
			&r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, apperr.Internal("scan review", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("iterate reviews", err)
	}
	return out, nil
}

// DeleteReview is admin-only; reviews are otherwise immutable.
func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal("delete review", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("review %d not found", id)
	}
	return nil
}
