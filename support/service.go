// Package support handles reclamations (user-filed support tickets),
// independent of trip matching. Status changes and new messages are
// pushed to live subscribers through the hub.
package support

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

type Store interface {
	CreateReclamation(ctx context.Context, r models.Reclamation) (int64, error)
	ReclamationByID(ctx context.Context, id int64) (models.Reclamation, error)
	ReclamationsForUser(ctx context.Context, userID int64, role models.Role) ([]models.Reclamation, error)
	AddReclamationMessage(ctx context.Context, m models.ReclamationMessage) (models.ReclamationMessage, error)
	UpdateReclamationStatus(ctx context.Context, id int64, status models.ReclamationStatus) error
	ReclamationMessages(ctx context.Context, reclamationID int64) ([]models.ReclamationMessage, error)
}

// Update is the envelope pushed over a ticket's live channel.
type Update struct {
	Type   string                     `json:"type"` // "message" or "status"
	Ticket int64                      `json:"ticket_id"`
	Status models.ReclamationStatus   `json:"status,omitempty"`
	Msg    *models.ReclamationMessage `json:"message,omitempty"`
}

type Service struct {
	store Store
	hub   *Hub
	log   *zap.Logger
}

func NewService(store Store, hub *Hub, log *zap.Logger) *Service {
	return &Service{store: store, hub: hub, log: log}
}

func (s *Service) Hub() *Hub { return s.hub }

func (s *Service) Create(ctx context.Context, authorID int64, subject, body string) (models.Reclamation, error) {
	if strings.TrimSpace(subject) == "" {
		return models.Reclamation{}, apperr.Invalid("subject is required")
	}
	r := models.Reclamation{
		AuthorID: authorID,
		Subject:  subject,
		Status:   models.ReclamationOpen,
	}
	id, err := s.store.CreateReclamation(ctx, r)
	if err != nil {
		return models.Reclamation{}, err
	}
	r.ID = id
	if strings.TrimSpace(body) != "" {
		if _, err := s.store.AddReclamationMessage(ctx, models.ReclamationMessage{
			ReclamationID: id, AuthorID: authorID, Body: body,
		}); err != nil {
			return models.Reclamation{}, err
		}
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, userID int64, role models.Role) ([]models.Reclamation, error) {
	return s.store.ReclamationsForUser(ctx, userID, role)
}

// AddMessage appends to the thread; only the ticket's author and admins
// may post.
func (s *Service) AddMessage(ctx context.Context, ticketID, authorID int64, role models.Role, body string) (models.ReclamationMessage, error) {
	if strings.TrimSpace(body) == "" {
		return models.ReclamationMessage{}, apperr.Invalid("message body is required")
	}
	r, err := s.store.ReclamationByID(ctx, ticketID)
	if err != nil {
		return models.ReclamationMessage{}, err
	}
	if r.AuthorID != authorID && role != models.RoleAdmin {
		return models.ReclamationMessage{}, apperr.Forbidden("reclamation %d does not belong to you", ticketID)
	}

	m, err := s.store.AddReclamationMessage(ctx, models.ReclamationMessage{
		ReclamationID: ticketID, AuthorID: authorID, Body: body,
	})
	if err != nil {
		return models.ReclamationMessage{}, err
	}
	s.hub.Publish(ticketID, Update{Type: "message", Ticket: ticketID, Msg: &m})
	return m, nil
}

// SetStatus is admin-only.
func (s *Service) SetStatus(ctx context.Context, ticketID int64, role models.Role, status models.ReclamationStatus) error {
	if role != models.RoleAdmin {
		return apperr.Forbidden("only admins can change ticket status")
	}
	if !status.Valid() {
		return apperr.Invalid("unknown status %q", status)
	}
	if err := s.store.UpdateReclamationStatus(ctx, ticketID, status); err != nil {
		return err
	}
	s.hub.Publish(ticketID, Update{Type: "status", Ticket: ticketID, Status: status})
	return nil
}

func (s *Service) Messages(ctx context.Context, ticketID, userID int64, role models.Role) ([]models.ReclamationMessage, error) {
	r, err := s.store.ReclamationByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if r.AuthorID != userID && role != models.RoleAdmin {
		return nil, apperr.Forbidden("reclamation %d does not belong to you", ticketID)
	}
	return s.store.ReclamationMessages(ctx, ticketID)
}

// CanSubscribe gates WebSocket subscriptions the same way as reads.
func (s *Service) CanSubscribe(ctx context.Context, ticketID, userID int64, role models.Role) error {
	r, err := s.store.ReclamationByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if r.AuthorID != userID && role != models.RoleAdmin {
		return apperr.Forbidden("reclamation %d does not belong to you", ticketID)
	}
	return nil
}
