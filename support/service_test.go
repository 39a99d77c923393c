package support

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

type memTicketStore struct {
	nextID   int64
	tickets  map[int64]models.Reclamation
	messages map[int64][]models.ReclamationMessage
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{
		tickets:  make(map[int64]models.Reclamation),
		messages: make(map[int64][]models.ReclamationMessage),
	}
}

func (m *memTicketStore) CreateReclamation(_ context.Context, r models.Reclamation) (int64, error) {
	m.nextID++
	r.ID = m.nextID
	m.tickets[r.ID] = r
	return r.ID, nil
}

func (m *memTicketStore) ReclamationByID(_ context.Context, id int64) (models.Reclamation, error) {
	r, ok := m.tickets[id]
	if !ok {
		return models.Reclamation{}, apperr.NotFound("reclamation %d not found", id)
	}
	return r, nil
}

func (m *memTicketStore) ReclamationsForUser(_ context.Context, userID int64, role models.Role) ([]models.Reclamation, error) {
	var out []models.Reclamation
	for _, r := range m.tickets {
		if role == models.RoleAdmin || r.AuthorID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memTicketStore) AddReclamationMessage(_ context.Context, msg models.ReclamationMessage) (models.ReclamationMessage, error) {
	m.nextID++
	msg.ID = m.nextID
	m.messages[msg.ReclamationID] = append(m.messages[msg.ReclamationID], msg)
	return msg, nil
}

func (m *memTicketStore) UpdateReclamationStatus(_ context.Context, id int64, status models.ReclamationStatus) error {
	r, ok := m.tickets[id]
	if !ok {
		return apperr.NotFound("reclamation %d not found", id)
	}
	r.Status = status
	m.tickets[id] = r
	return nil
}

func (m *memTicketStore) ReclamationMessages(_ context.Context, reclamationID int64) ([]models.ReclamationMessage, error) {
	return m.messages[reclamationID], nil
}

func newTicketService(store Store) *Service {
	return NewService(store, NewHub(), zap.NewNop())
}

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("opens with first message", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTicketService(store)

		r, err := svc.Create(ctx, 20, "driver never showed up", "waited 30 minutes at the pickup")
		require.NoError(t, err)
		assert.Equal(t, models.ReclamationOpen, r.Status)
		assert.Len(t, store.messages[r.ID], 1)
	})

	t.Run("subject is required", func(t *testing.T) {
		svc := newTicketService(newMemTicketStore())
		_, err := svc.Create(ctx, 20, "   ", "body")
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	})
}

func TestAddMessage(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, models.Reclamation) {
		t.Helper()
		svc := newTicketService(newMemTicketStore())
		r, err := svc.Create(ctx, 20, "lost item", "")
		require.NoError(t, err)
		return svc, r
	}

	t.Run("author can post and subscribers hear it", func(t *testing.T) {
		svc, r := setup(t)
		sub := svc.Hub().Subscribe(r.ID)
		defer svc.Hub().Unsubscribe(r.ID, sub)

		msg, err := svc.AddMessage(ctx, r.ID, 20, models.RoleClient, "it was a blue backpack")
		require.NoError(t, err)
		assert.Equal(t, "it was a blue backpack", msg.Body)
		assert.Len(t, sub.Send, 1)
	})

	t.Run("admin can post on any ticket", func(t *testing.T) {
		svc, r := setup(t)
		_, err := svc.AddMessage(ctx, r.ID, 1, models.RoleAdmin, "we contacted the driver")
		require.NoError(t, err)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		svc, r := setup(t)
		_, err := svc.AddMessage(ctx, r.ID, 99, models.RoleClient, "me too")
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("empty body is invalid", func(t *testing.T) {
		svc, r := setup(t)
		_, err := svc.AddMessage(ctx, r.ID, 20, models.RoleClient, "  ")
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTicketService(newMemTicketStore())
	r, err := svc.Create(ctx, 20, "billing issue", "")
	require.NoError(t, err)

	t.Run("admin only", func(t *testing.T) {
		err := svc.SetStatus(ctx, r.ID, models.RoleClient, models.ReclamationResolved)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("unknown status is invalid", func(t *testing.T) {
		err := svc.SetStatus(ctx, r.ID, models.RoleAdmin, "escalated")
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	})

	t.Run("status change reaches subscribers", func(t *testing.T) {
		sub := svc.Hub().Subscribe(r.ID)
		defer svc.Hub().Unsubscribe(r.ID, sub)

		require.NoError(t, svc.SetStatus(ctx, r.ID, models.RoleAdmin, models.ReclamationInProgress))
		assert.Len(t, sub.Send, 1)
	})
}

func TestCanSubscribe(t *testing.T) {
	ctx := context.Background()
	svc := newTicketService(newMemTicketStore())
	r, err := svc.Create(ctx, 20, "spam", "")
	require.NoError(t, err)

	assert.NoError(t, svc.CanSubscribe(ctx, r.ID, 20, models.RoleClient))
	assert.NoError(t, svc.CanSubscribe(ctx, r.ID, 1, models.RoleAdmin))
	err = svc.CanSubscribe(ctx, r.ID, 99, models.RoleClient)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	err = svc.CanSubscribe(ctx, 404, 20, models.RoleClient)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
