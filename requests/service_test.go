package requests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

type memRequestStore struct {
	nextID   int64
	requests map[int64]models.RideRequest
}

func newMemRequestStore() *memRequestStore {
	return &memRequestStore{requests: make(map[int64]models.RideRequest)}
}

func (m *memRequestStore) CreateRideRequest(_ context.Context, r models.RideRequest) (int64, error) {
	m.nextID++
	r.ID = m.nextID
	m.requests[r.ID] = r
	return r.ID, nil
}

func (m *memRequestStore) RideRequestByID(_ context.Context, id int64) (models.RideRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return models.RideRequest{}, apperr.NotFound("ride request %d not found", id)
	}
	return r, nil
}

func (m *memRequestStore) RideRequestsForClient(_ context.Context, clientID int64) ([]models.RideRequest, error) {
	var out []models.RideRequest
	for _, r := range m.requests {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRequestStore) TransitionRideRequest(_ context.Context, id, clientID int64, from, to models.RequestStatus) (models.RideRequest, error) {
	r, ok := m.requests[id]
	if !ok || r.ClientID != clientID || r.Status != from {
		return models.RideRequest{}, apperr.Conflict("ride request %d changed underneath you", id)
	}
	r.Status = to
	m.requests[id] = r
	return r, nil
}

func validRequest(clientID int64) models.RideRequest {
	return models.RideRequest{
		ClientID:    clientID,
		Pickup:      models.GeoPoint{Lat: 34.0, Lng: -6.8},
		Destination: models.GeoPoint{Lat: 33.57, Lng: -7.59},
		Schedule:    models.Schedule{Days: models.Friday, Departure: 1020},
	}
}

func TestCreateRideRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("new requests start pending", func(t *testing.T) {
		svc := NewService(newMemRequestStore(), zap.NewNop())

		r, err := svc.Create(ctx, validRequest(20))
		require.NoError(t, err)
		assert.Equal(t, models.RequestPending, r.Status)
		assert.NotZero(t, r.ID)
	})

	t.Run("caller cannot pick the status", func(t *testing.T) {
		svc := NewService(newMemRequestStore(), zap.NewNop())

		in := validRequest(20)
		in.Status = models.RequestMatched
		r, err := svc.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, models.RequestPending, r.Status)
	})

	t.Run("bad coordinates are invalid", func(t *testing.T) {
		svc := NewService(newMemRequestStore(), zap.NewNop())

		in := validRequest(20)
		in.Pickup.Lng = 200
		_, err := svc.Create(ctx, in)
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	})

	t.Run("empty schedule is invalid", func(t *testing.T) {
		svc := NewService(newMemRequestStore(), zap.NewNop())

		in := validRequest(20)
		in.Schedule.Days = 0
		_, err := svc.Create(ctx, in)
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	})
}

func TestCancelRideRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("pending request cancels", func(t *testing.T) {
		svc := NewService(newMemRequestStore(), zap.NewNop())
		r, err := svc.Create(ctx, validRequest(20))
		require.NoError(t, err)

		cancelled, err := svc.Cancel(ctx, r.ID, 20)
		require.NoError(t, err)
		assert.Equal(t, models.RequestCancelled, cancelled.Status)
	})

	t.Run("someone else's request is forbidden", func(t *testing.T) {
		svc := NewService(newMemRequestStore(), zap.NewNop())
		r, err := svc.Create(ctx, validRequest(20))
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, r.ID, 99)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("completed request conflicts", func(t *testing.T) {
		store := newMemRequestStore()
		svc := NewService(store, zap.NewNop())
		r, err := svc.Create(ctx, validRequest(20))
		require.NoError(t, err)

		done := store.requests[r.ID]
		done.Status = models.RequestCompleted
		store.requests[r.ID] = done

		_, err = svc.Cancel(ctx, r.ID, 20)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("unknown request is not found", func(t *testing.T) {
		svc := NewService(newMemRequestStore(), zap.NewNop())
		_, err := svc.Cancel(ctx, 404, 20)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}
