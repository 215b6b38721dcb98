package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	eventdb "github.com/Rani-Boora/campus-event-hub/internal/event/db"
	"github.com/Rani-Boora/campus-event-hub/internal/models"
)

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrNotOwner        = errors.New("not authorized to modify this event")
	ErrInvalidCapacity = errors.New("capacity must be a positive number")
)

type DBLayer interface {
	CreateEvent(ctx context.Context, event models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	GetEventsByCreator(ctx context.Context, creatorID string) ([]models.Event, error)
	GetPublishedEvents(ctx context.Context) ([]models.Event, error)
	UpdateEvent(ctx context.Context, event models.Event) error
	DeleteEvent(ctx context.Context, id string) error
}

type Service struct {
	DB DBLayer
}

func NewService(db DBLayer) *Service {
	return &Service{DB: db}
}

// Create stores a new event for the organizer. Published is always the
// negation of draft, the two flags never drift apart.
func (s *Service) Create(ctx context.Context, event models.Event, creatorID, creatorName string) (*models.Event, error) {
	if event.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	event.ID = uuid.NewString()
	event.CreatedBy = creatorID
	event.CreatorName = creatorName
	event.Published = !event.Draft
	event.RegisteredCount = 0
	event.CreatedAt = time.Now()

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return &event, nil
}

func (s *Service) Get(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, eventID)
	if errors.Is(err, eventdb.ErrEventNotFound) {
		return nil, ErrEventNotFound
	}
	return event, err
}

func (s *Service) ListPublished(ctx context.Context) ([]models.Event, error) {
	return s.DB.GetPublishedEvents(ctx)
}

func (s *Service) ListByCreator(ctx context.Context, creatorID string) ([]models.Event, error) {
	return s.DB.GetEventsByCreator(ctx, creatorID)
}

func (s *Service) Update(ctx context.Context, eventID, actorID string, update models.Event) (*models.Event, error) {
	existing, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if existing.CreatedBy != actorID {
		return nil, ErrNotOwner
	}
	if update.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	update.ID = eventID
	update.Published = !update.Draft

	if err := s.DB.UpdateEvent(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return s.Get(ctx, eventID)
}

// Delete removes the event and fans out to its registrations and reviews.
func (s *Service) Delete(ctx context.Context, eventID, actorID string) error {
	existing, err := s.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if existing.CreatedBy != actorID {
		return ErrNotOwner
	}

	if err := s.DB.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	return nil
}
