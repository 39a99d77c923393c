package store

import (
	"context"
	"database/sql"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

func (s *Store) CreateReclamation(ctx context.Context, r models.Reclamation) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO reclamations (author_id, subject, status)
		 VALUES ($1,$2,$3) RETURNING id`,
		r.AuthorID, r.Subject, r.Status,
	).Scan(&id)
	if err != nil {
		return 0, apperr.Internal("create reclamation", err)
	}
	return id, nil
}

func (s *Store) ReclamationByID(ctx context.Context, id int64) (models.Reclamation, error) {
	var r models.Reclamation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, author_id, subject, status, created_at
		 FROM reclamations WHERE id = $1`, id,
	).Scan(&r.ID, &r.AuthorID, &r.Subject, &r.Status, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Reclamation{}, apperr.NotFound("reclamation %d not found", id)
	}
	if err != nil {
		return models.Reclamation{}, apperr.Internal("load reclamation", err)
	}
	return r, nil
}

// ReclamationsForUser lists a user's own tickets; admins see every
// ticket (userID ignored).
func (s *Store) ReclamationsForUser(ctx context.Context, userID int64, role models.Role) ([]models.Reclamation, error) {
	query := `SELECT id, author_id, subject, status, created_at
		FROM reclamations WHERE author_id = $1 ORDER BY created_at DESC`
	args := []any{userID}
	if role == models.RoleAdmin {
		query = `SELECT id, author_id, subject, status, created_at
			FROM reclamations ORDER BY created_at DESC`
		args = nil
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Internal("list reclamations", err)
	}
	defer rows.Close()

	var out []models.Reclamation
	for rows.Next() {
		var r models.Reclamation
		if err := rows.Scan(&r.ID, &r.AuthorID, &r.Subject, &r.Status, &r.CreatedAt); err != nil {
			return nil, apperr.Internal("scan reclamation", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("iterate reclamations", err)
	}
	return out, nil
}

func (s *Store) AddReclamationMessage(ctx context.Context, m models.ReclamationMessage) (models.ReclamationMessage, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO reclamation_messages (reclamation_id, author_id, body)
		 VALUES ($1,$2,$3) RETURNING id, created_at`,
		m.ReclamationID, m.AuthorID, m.Body,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return models.ReclamationMessage{}, apperr.Internal("add reclamation message", err)
	}
	return m, nil
}

func (s *Store) UpdateReclamationStatus(ctx context.Context, id int64, status models.ReclamationStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reclamations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return apperr.Internal("update reclamation status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("reclamation %d not found", id)
	}
	return nil
}

func (s *Store) ReclamationMessages(ctx context.Context, reclamationID int64) ([]models.ReclamationMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reclamation_id, author_id, body, created_at
		 FROM reclamation_messages WHERE reclamation_id = $1 ORDER BY created_at`, reclamationID)
	if err != nil {
		return nil, apperr.Internal("list reclamation messages", err)
	}
	defer rows.Close()

	var out []models.ReclamationMessage
	for rows.Next() {
		var m models.ReclamationMessage
		if err := rows.Scan(&m.ID, &m.ReclamationID, &m.AuthorID, &m.Body, &m.CreatedAt); err != nil {
			return nil, apperr.Internal("scan reclamation message", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("iterate reclamation messages", err)
	}
	return out, nil
}
