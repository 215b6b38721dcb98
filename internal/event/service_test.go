package event_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Rani-Boora/campus-event-hub/internal/event"
	eventdb "github.com/Rani-Boora/campus-event-hub/internal/event/db"
	"github.com/Rani-Boora/campus-event-hub/internal/models"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateEvent(ctx context.Context, ev models.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockDBLayer) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) GetEventsByCreator(ctx context.Context, creatorID string) ([]models.Event, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockDBLayer) GetPublishedEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockDBLayer) UpdateEvent(ctx context.Context, ev models.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteEvent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestCreate_PublishedIsNegationOfDraft(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := event.NewService(mockDB)
	mockDB.On("CreateEvent", mock.Anything, mock.AnythingOfType("models.Event")).Return(nil)

	created, err := svc.Create(context.Background(), models.Event{Title: "TechFest", Capacity: 10, Draft: false}, "organizer-1", "Asha Verma")
	assert.NoError(t, err)
	assert.True(t, created.Published)
	assert.Equal(t, "organizer-1", created.CreatedBy)
	assert.Equal(t, "Asha Verma", created.CreatorName)
	assert.Zero(t, created.RegisteredCount)
	assert.NotEmpty(t, created.ID)

	draft, err := svc.Create(context.Background(), models.Event{Title: "WIP", Capacity: 10, Draft: true}, "organizer-1", "Asha Verma")
	assert.NoError(t, err)
	assert.False(t, draft.Published)
}

func TestCreate_CapacityMustBePositive(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := event.NewService(mockDB)

	for _, capacity := range []int{0, -5} {
		_, err := svc.Create(context.Background(), models.Event{Title: "Bad", Capacity: capacity}, "organizer-1", "Asha")
		assert.ErrorIs(t, err, event.ErrInvalidCapacity, "capacity %d", capacity)
	}
	mockDB.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestUpdate_OwnerOnly(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := event.NewService(mockDB)
	existing := &models.Event{ID: "event-1", Title: "TechFest", Capacity: 10, CreatedBy: "organizer-1", Published: true}
	mockDB.On("GetEventByID", mock.Anything, "event-1").Return(existing, nil)

	_, err := svc.Update(context.Background(), "event-1", "someone-else", models.Event{Title: "Hijacked", Capacity: 10})

	assert.ErrorIs(t, err, event.ErrNotOwner)
	mockDB.AssertNotCalled(t, "UpdateEvent", mock.Anything, mock.Anything)
}

func TestDelete_OwnerOnly(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := event.NewService(mockDB)
	existing := &models.Event{ID: "event-1", CreatedBy: "organizer-1"}
	mockDB.On("GetEventByID", mock.Anything, "event-1").Return(existing, nil)
	mockDB.On("DeleteEvent", mock.Anything, "event-1").Return(nil)

	assert.ErrorIs(t, svc.Delete(context.Background(), "event-1", "someone-else"), event.ErrNotOwner)
	assert.NoError(t, svc.Delete(context.Background(), "event-1", "organizer-1"))
}

func TestGet_MapsNotFound(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := event.NewService(mockDB)
	mockDB.On("GetEventByID", mock.Anything, "missing").Return(nil, eventdb.ErrEventNotFound)

	_, err := svc.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, event.ErrEventNotFound)
}

func TestAvailableSlots_NeverNegative(t *testing.T) {
	ev := &models.Event{Capacity: 10, RegisteredCount: 4}
	assert.Equal(t, 6, ev.AvailableSlots())

	ev.RegisteredCount = 12
	assert.Equal(t, 0, ev.AvailableSlots())
}
