package registration_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"github.com/Rani-Boora/campus-event-hub/internal/event"
	eventdb "github.com/Rani-Boora/campus-event-hub/internal/event/db"
	"github.com/Rani-Boora/campus-event-hub/internal/logger"
	"github.com/Rani-Boora/campus-event-hub/internal/models"
	"github.com/Rani-Boora/campus-event-hub/internal/registration"
	regdb "github.com/Rani-Boora/campus-event-hub/internal/registration/db"
	redislock "github.com/Rani-Boora/campus-event-hub/internal/registration/redis"
	"github.com/Rani-Boora/campus-event-hub/internal/review"
	reviewdb "github.com/Rani-Boora/campus-event-hub/internal/review/db"
)

type noopMailer struct{}

func (noopMailer) Send(to, subject, body string) error { return nil }

type noopPublisher struct{}

func (noopPublisher) PublishRegistrationCreated(models.Registration) error { return nil }
func (noopPublisher) PublishRegistrationStatusChanged(models.Registration, string) error {
	return nil
}
func (noopPublisher) PublishRegistrationCancelled(models.Registration) error { return nil }

type world struct {
	bunDB   *bun.DB
	mr      *miniredis.Miniredis
	client  *goredis.Client
	events   *event.Service
	regs     *registration.Service
	reviews  *review.Service
	store    *eventdb.DB
	regStore *regdb.DB
}

// setupWorld wires the real stores over in-memory sqlite and miniredis, the
// same shape main wires in production.
func setupWorld(t *testing.T) *world {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()
	for _, m := range []interface{}{(*models.User)(nil), (*models.Event)(nil), (*models.Registration)(nil), (*models.Review)(nil)} {
		_, err := bunDB.NewCreateTable().Model(m).Exec(ctx)
		require.NoError(t, err)
	}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	log := &logger.Logger{}
	eventStore := &eventdb.DB{Bun: bunDB}
	regStore := &regdb.DB{Bun: bunDB}
	reviewStore := &reviewdb.DB{Bun: bunDB}

	w := &world{
		bunDB:    bunDB,
		mr:       mr,
		client:   client,
		store:    eventStore,
		regStore: regStore,
		events:   event.NewService(eventStore),
		regs:     registration.NewService(regStore, eventStore, redislock.NewAdmissionLock(client), noopMailer{}, noopPublisher{}, log),
		reviews:  review.NewService(reviewStore, regStore, log),
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
		bunDB.Close()
	})
	return w
}

func (w *world) seedUser(t *testing.T, id, email string) {
	user := models.User{ID: id, Email: email, Name: id, Role: "student", CreatedAt: time.Now()}
	_, err := w.bunDB.NewInsert().Model(&user).Exec(context.Background())
	require.NoError(t, err)
}

func (w *world) createEvent(t *testing.T, capacity int) *models.Event {
	ev, err := w.events.Create(context.Background(), models.Event{
		Title:       "TechFest 2026",
		Capacity:    capacity,
		StartDate:   time.Now().AddDate(0, 1, 0),
		EndDate:     time.Now().AddDate(0, 1, 1),
		RegDeadline: time.Now().Add(24 * time.Hour),
	}, "organizer-1", "Asha Verma")
	require.NoError(t, err)
	return ev
}

func TestLifecycle_RegisterApproveReviewCancel(t *testing.T) {
	w := setupWorld(t)
	ctx := context.Background()
	w.seedUser(t, "user-1", "u1@college.edu")
	ev := w.createEvent(t, 2)

	// Register: pending row, count 1.
	reg, err := w.regs.Register(ctx, ev.ID, "user-1", models.RegistrationForm{Department: "CSE"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, reg.Status)

	got, err := w.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RegisteredCount)

	// Pending holders are not review-eligible.
	elig, err := w.reviews.CanReview(ctx, ev.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, elig.CanReview)

	// Approve: still one active registration, eligibility opens.
	approved, err := w.regs.UpdateStatus(ctx, reg.ID, "organizer-1", models.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	got, err = w.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RegisteredCount)

	elig, err = w.reviews.CanReview(ctx, ev.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, elig.CanReview)
	assert.Equal(t, reg.ID, elig.RegistrationID)

	// Review: one per registration, flag flips.
	rev, err := w.reviews.Create(ctx, ev.ID, "user-1", models.ReviewInput{Rating: 5, Comment: "great"})
	require.NoError(t, err)

	_, err = w.reviews.Create(ctx, ev.ID, "user-1", models.ReviewInput{Rating: 1})
	assert.ErrorIs(t, err, review.ErrAlreadyReviewed)

	regRow, err := w.regs.StatusFor(ctx, ev.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, regRow.HasGivenReview)

	// Deleting the review reopens eligibility.
	require.NoError(t, w.reviews.Delete(ctx, rev.ID, "user-1"))
	elig, err = w.reviews.CanReview(ctx, ev.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, elig.CanReview)

	// Cancel: row gone, seat freed, user may register again.
	require.NoError(t, w.regs.Cancel(ctx, reg.ID, "user-1"))

	got, err = w.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.RegisteredCount)

	again, err := w.regs.Register(ctx, ev.ID, "user-1", models.RegistrationForm{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
}

func TestLifecycle_CapacityIncludesPendingAndApproved(t *testing.T) {
	w := setupWorld(t)
	ctx := context.Background()
	for _, u := range []string{"user-1", "user-2", "user-3"} {
		w.seedUser(t, u, u+"@college.edu")
	}
	ev := w.createEvent(t, 2)

	_, err := w.regs.Register(ctx, ev.ID, "user-1", models.RegistrationForm{})
	require.NoError(t, err)
	reg2, err := w.regs.Register(ctx, ev.ID, "user-2", models.RegistrationForm{})
	require.NoError(t, err)

	// Pending rows hold seats, so the third applicant bounces.
	_, err = w.regs.Register(ctx, ev.ID, "user-3", models.RegistrationForm{})
	assert.ErrorIs(t, err, registration.ErrEventFull)

	// Rejecting one frees a seat.
	_, err = w.regs.UpdateStatus(ctx, reg2.ID, "organizer-1", models.StatusRejected, "no-show history")
	require.NoError(t, err)

	got, err := w.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RegisteredCount)

	_, err = w.regs.Register(ctx, ev.ID, "user-3", models.RegistrationForm{})
	assert.NoError(t, err)
}

func TestLifecycle_RecountIsIdempotent(t *testing.T) {
	w := setupWorld(t)
	ctx := context.Background()
	w.seedUser(t, "user-1", "u1@college.edu")
	ev := w.createEvent(t, 5)

	_, err := w.regs.Register(ctx, ev.ID, "user-1", models.RegistrationForm{})
	require.NoError(t, err)

	// Reconcile twice with no mutation in between: count first, then write
	// it back, the same sequence every mutation triggers.
	reconcile := func() int {
		count, err := w.regStore.CountActiveRegistrations(ctx, ev.ID)
		require.NoError(t, err)
		require.NoError(t, w.store.UpdateRegisteredCount(ctx, ev.ID, count))
		got, err := w.events.Get(ctx, ev.ID)
		require.NoError(t, err)
		return got.RegisteredCount
	}

	first := reconcile()
	second := reconcile()

	assert.Equal(t, 1, first)
	assert.Equal(t, first, second)
}

func TestLifecycle_EventDeletionCascades(t *testing.T) {
	w := setupWorld(t)
	ctx := context.Background()
	w.seedUser(t, "user-1", "u1@college.edu")
	ev := w.createEvent(t, 5)

	reg, err := w.regs.Register(ctx, ev.ID, "user-1", models.RegistrationForm{})
	require.NoError(t, err)
	_, err = w.regs.UpdateStatus(ctx, reg.ID, "organizer-1", models.StatusApproved, "")
	require.NoError(t, err)
	_, err = w.reviews.Create(ctx, ev.ID, "user-1", models.ReviewInput{Rating: 4})
	require.NoError(t, err)

	require.NoError(t, w.events.Delete(ctx, ev.ID, "organizer-1"))

	regRow, err := w.regs.StatusFor(ctx, ev.ID, "user-1")
	require.NoError(t, err)
	assert.Nil(t, regRow)

	revRow, err := w.reviews.UserReviewForEvent(ctx, ev.ID, "user-1")
	require.NoError(t, err)
	assert.Nil(t, revRow)
}

func TestLifecycle_DraftEventRejectsRegistration(t *testing.T) {
	w := setupWorld(t)
	ctx := context.Background()
	w.seedUser(t, "user-1", "u1@college.edu")

	draft, err := w.events.Create(ctx, models.Event{
		Title:     "WIP Event",
		Capacity:  10,
		StartDate: time.Now().AddDate(0, 1, 0),
		EndDate:   time.Now().AddDate(0, 1, 1),
		Draft:     true,
	}, "organizer-1", "Asha Verma")
	require.NoError(t, err)

	_, err = w.regs.Register(ctx, draft.ID, "user-1", models.RegistrationForm{})
	assert.ErrorIs(t, err, registration.ErrEventNotPublished)
}
