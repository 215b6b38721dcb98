package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	eventdb "github.com/Rani-Boora/campus-event-hub/internal/event/db"
	"github.com/Rani-Boora/campus-event-hub/internal/logger"
	"github.com/Rani-Boora/campus-event-hub/internal/models"
	regdb "github.com/Rani-Boora/campus-event-hub/internal/registration/db"
)

// Rejection and failure reasons. Handlers branch on these with errors.Is, so
// each reason stays machine-distinguishable all the way to the client.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventNotPublished    = errors.New("event is not published")
	ErrDeadlinePassed       = errors.New("registration deadline has passed")
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrEventFull            = errors.New("event is full")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrNotOwner             = errors.New("not authorized")
	ErrInvalidStatus        = errors.New("invalid registration status")
	ErrAdmissionBusy        = errors.New("another registration for this event is in progress, try again")
)

type DBLayer interface {
	CreateRegistration(ctx context.Context, reg models.Registration) error
	GetRegistrationByID(ctx context.Context, id string) (*models.Registration, error)
	GetRegistrationByEventAndUser(ctx context.Context, eventID, userID string) (*models.Registration, error)
	CountActiveRegistrations(ctx context.Context, eventID string) (int, error)
	UpdateRegistration(ctx context.Context, reg models.Registration) error
	DeleteRegistration(ctx context.Context, id string) error
	GetRegistrationsByEvent(ctx context.Context, eventID string) ([]models.Registration, error)
	GetRegistrationsByUser(ctx context.Context, userID string) ([]models.Registration, error)
	GetPendingRegistrations(ctx context.Context) ([]models.Registration, error)
	GetUserEmail(ctx context.Context, userID string) (string, error)
}

// EventStore is the slice of the event collaborator the core needs. The
// cached count is written through UpdateRegisteredCount and nowhere else.
type EventStore interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	UpdateRegisteredCount(ctx context.Context, eventID string, count int) error
}

// EventLock serializes admission per event id.
type EventLock interface {
	Lock(ctx context.Context, eventID, token string) (bool, error)
	Unlock(ctx context.Context, eventID, token string) error
}

// Mailer delivers participant email; failures are logged, never fatal.
type Mailer interface {
	Send(to, subject, body string) error
}

// Publisher streams registration lifecycle events; failures are logged,
// never fatal.
type Publisher interface {
	PublishRegistrationCreated(reg models.Registration) error
	PublishRegistrationStatusChanged(reg models.Registration, oldStatus string) error
	PublishRegistrationCancelled(reg models.Registration) error
}

type Service struct {
	DB     DBLayer
	Events EventStore
	Lock   EventLock
	Mailer Mailer
	Kafka  Publisher
	Logger *logger.Logger
}

func NewService(db DBLayer, events EventStore, lock EventLock, mailer Mailer, kafka Publisher, log *logger.Logger) *Service {
	return &Service{DB: db, Events: events, Lock: lock, Mailer: mailer, Kafka: kafka, Logger: log}
}

// Register runs the admission decision and, on success, creates the pending
// registration. The precondition order is fixed: existence, publication,
// deadline, duplicate, capacity. Everything from the duplicate check through
// the insert runs under the per-event lock so concurrent admissions for the
// last seat are ordered, not raced.
func (s *Service) Register(ctx context.Context, eventID, userID string, form models.RegistrationForm) (*models.Registration, error) {
	event, err := s.Events.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, eventdb.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}

	if !event.Published {
		return nil, ErrEventNotPublished
	}

	if !event.RegDeadline.IsZero() && time.Now().After(event.RegDeadline) {
		return nil, ErrDeadlinePassed
	}

	token := uuid.NewString()
	locked, err := s.Lock.Lock(ctx, eventID, token)
	if err != nil {
		return nil, fmt.Errorf("admission lock error: %w", err)
	}
	if !locked {
		return nil, ErrAdmissionBusy
	}
	defer func() {
		if err := s.Lock.Unlock(ctx, eventID, token); err != nil {
			s.Logger.Error("REGISTRATION", fmt.Sprintf("Failed to release admission lock for event %s: %v", eventID, err))
		}
	}()

	existing, err := s.DB.GetRegistrationByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	active, err := s.DB.CountActiveRegistrations(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	if active >= event.Capacity {
		return nil, ErrEventFull
	}

	reg := models.Registration{
		ID:          uuid.NewString(),
		EventID:     eventID,
		UserID:      userID,
		Status:      models.StatusPending,
		Notes:       form.Notes,
		PhoneNumber: form.PhoneNumber,
		CollegeID:   form.CollegeID,
		Department:  form.Department,
		Year:        form.Year,
		CreatedAt:   time.Now(),
	}

	if err := s.DB.CreateRegistration(ctx, reg); err != nil {
		if errors.Is(err, regdb.ErrDuplicateRegistration) {
			// Unique index backstop fired despite the pre-check.
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	s.recount(ctx, eventID)

	s.Logger.LogRegistration("CREATE", reg.ID, fmt.Sprintf("user %s registered for event %s", userID, eventID))
	s.notifyCreated(ctx, reg, event)

	return &reg, nil
}

// UpdateStatus performs an organizer transition between pending, approved and
// rejected. The actor must own the event. Recount and notification run only
// when the status actually changes.
func (s *Service) UpdateStatus(ctx context.Context, registrationID, actorID, status, adminNotes string) (*models.Registration, error) {
	if !models.ValidTransitionTarget(status) {
		return nil, ErrInvalidStatus
	}

	reg, err := s.DB.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, regdb.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to load registration %s: %w", registrationID, err)
	}

	event, err := s.Events.GetEventByID(ctx, reg.EventID)
	if err != nil {
		if errors.Is(err, eventdb.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %s: %w", reg.EventID, err)
	}
	if event.CreatedBy != actorID {
		return nil, ErrNotOwner
	}

	oldStatus := reg.Status
	reg.Status = status
	if adminNotes != "" {
		reg.AdminNotes = adminNotes
	}

	if err := s.DB.UpdateRegistration(ctx, *reg); err != nil {
		return nil, fmt.Errorf("failed to update registration %s: %w", registrationID, err)
	}

	if oldStatus != status {
		s.recount(ctx, reg.EventID)
		s.Logger.LogRegistration("STATUS", reg.ID, fmt.Sprintf("%s -> %s", oldStatus, status))
		s.notifyStatusChanged(ctx, *reg, event, oldStatus)
	}

	return reg, nil
}

// Cancel deletes the caller's own registration. There is no cancelled status
// row left behind: deletion ends the lifecycle.
func (s *Service) Cancel(ctx context.Context, registrationID, userID string) error {
	reg, err := s.DB.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, regdb.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to load registration %s: %w", registrationID, err)
	}

	if reg.UserID != userID {
		return ErrNotOwner
	}

	if err := s.DB.DeleteRegistration(ctx, registrationID); err != nil {
		return fmt.Errorf("failed to cancel registration %s: %w", registrationID, err)
	}

	s.recount(ctx, reg.EventID)
	s.Logger.LogRegistration("CANCEL", reg.ID, fmt.Sprintf("user %s cancelled registration for event %s", userID, reg.EventID))

	if err := s.Kafka.PublishRegistrationCancelled(*reg); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish cancellation for %s: %v", reg.ID, err))
	}

	return nil
}

// StatusFor returns the caller's registration for an event, or nil when the
// user has none.
func (s *Service) StatusFor(ctx context.Context, eventID, userID string) (*models.Registration, error) {
	return s.DB.GetRegistrationByEventAndUser(ctx, eventID, userID)
}

// StatusForID fetches a registration by id, restricted to its owner.
func (s *Service) StatusForID(ctx context.Context, registrationID, userID string) (*models.Registration, error) {
	reg, err := s.DB.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, regdb.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to load registration %s: %w", registrationID, err)
	}
	if reg.UserID != userID {
		return nil, ErrNotOwner
	}
	return reg, nil
}

// ListByEvent is the organizer view of an event's registrations.
func (s *Service) ListByEvent(ctx context.Context, eventID string) ([]models.Registration, error) {
	if _, err := s.Events.GetEventByID(ctx, eventID); err != nil {
		if errors.Is(err, eventdb.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}
	return s.DB.GetRegistrationsByEvent(ctx, eventID)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Registration, error) {
	return s.DB.GetRegistrationsByUser(ctx, userID)
}

func (s *Service) ListPending(ctx context.Context) ([]models.Registration, error) {
	return s.DB.GetPendingRegistrations(ctx)
}

// recount reconciles the event's cached count with the true number of active
// registrations. A vanished event makes this a no-op; any failure is logged
// and never surfaced, the next mutation recounts again.
func (s *Service) recount(ctx context.Context, eventID string) {
	count, err := s.DB.CountActiveRegistrations(ctx, eventID)
	if err != nil {
		s.Logger.Error("RECOUNT", fmt.Sprintf("Failed to count registrations for event %s: %v", eventID, err))
		return
	}

	if err := s.Events.UpdateRegisteredCount(ctx, eventID, count); err != nil {
		s.Logger.Warn("RECOUNT", fmt.Sprintf("Skipped count update for event %s: %v", eventID, err))
		return
	}

	s.Logger.Debug("RECOUNT", fmt.Sprintf("Event %s registered_count set to %d", eventID, count))
}

func (s *Service) notifyCreated(ctx context.Context, reg models.Registration, event *models.Event) {
	if err := s.Kafka.PublishRegistrationCreated(reg); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish registration created for %s: %v", reg.ID, err))
	}

	email, err := s.DB.GetUserEmail(ctx, reg.UserID)
	if err != nil {
		s.Logger.Warn("MAIL", fmt.Sprintf("No email for user %s: %v", reg.UserID, err))
		return
	}

	body := fmt.Sprintf(`<h2>Registration Confirmed!</h2>
<p>You have successfully registered for <strong>%s</strong>.</p>
<ul>
<li>Date: %s</li>
<li>Venue: %s</li>
<li>Status: Pending Approval</li>
</ul>
<p>You will receive another email once your registration is approved.</p>`,
		event.Title, event.StartDate.Format("Jan 2, 2006"), event.Venue)

	if err := s.Mailer.Send(email, "Registration Confirmation - "+event.Title, body); err != nil {
		s.Logger.Error("MAIL", fmt.Sprintf("Failed to send confirmation for %s: %v", reg.ID, err))
	}
}

func (s *Service) notifyStatusChanged(ctx context.Context, reg models.Registration, event *models.Event, oldStatus string) {
	if err := s.Kafka.PublishRegistrationStatusChanged(reg, oldStatus); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish status change for %s: %v", reg.ID, err))
	}

	email, err := s.DB.GetUserEmail(ctx, reg.UserID)
	if err != nil {
		s.Logger.Warn("MAIL", fmt.Sprintf("No email for user %s: %v", reg.UserID, err))
		return
	}

	var subject, body string
	switch reg.Status {
	case models.StatusApproved:
		subject = "Registration Approved - " + event.Title
		body = fmt.Sprintf(`<h2>Registration Approved!</h2>
<p>Your registration for <strong>%s</strong> has been approved.</p>
<ul>
<li>Date: %s</li>
<li>Venue: %s</li>
</ul>
<p>We look forward to seeing you at the event!</p>`,
			event.Title, event.StartDate.Format("Jan 2, 2006"), event.Venue)
	case models.StatusRejected:
		subject = "Registration Update - " + event.Title
		body = fmt.Sprintf(`<h2>Registration Status Update</h2>
<p>Your registration for <strong>%s</strong> has been rejected.</p>`, event.Title)
		if reg.AdminNotes != "" {
			body += fmt.Sprintf("<p><strong>Notes from organizer:</strong> %s</p>", reg.AdminNotes)
		}
	default:
		return
	}

	if err := s.Mailer.Send(email, subject, body); err != nil {
		s.Logger.Error("MAIL", fmt.Sprintf("Failed to send status email for %s: %v", reg.ID, err))
	}
}
