package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/Rani-Boora/campus-event-hub/internal/models"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")

	// ErrDuplicateRegistration surfaces the (event, user) unique index. It
	// backstops the admission pre-check when two requests race.
	ErrDuplicateRegistration = errors.New("duplicate registration")
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateRegistration(ctx context.Context, reg models.Registration) error {
	_, err := d.Bun.NewInsert().Model(&reg).Exec(ctx)
	if isUniqueViolation(err) {
		return ErrDuplicateRegistration
	}
	return err
}

func (d *DB) GetRegistrationByID(ctx context.Context, id string) (*models.Registration, error) {
	var reg models.Registration
	err := d.Bun.NewSelect().
		Model(&reg).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetRegistrationByEventAndUser returns nil without error when the pair has
// no registration; absence is the expected case during admission.
func (d *DB) GetRegistrationByEventAndUser(ctx context.Context, eventID, userID string) (*models.Registration, error) {
	var reg models.Registration
	err := d.Bun.NewSelect().
		Model(&reg).
		Where("event_id = ?", eventID).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// CountActiveRegistrations counts the registrations that hold a seat:
// status pending or approved.
func (d *DB) CountActiveRegistrations(ctx context.Context, eventID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Registration)(nil)).
		Where("event_id = ?", eventID).
		Where("status IN (?)", bun.In(models.ActiveStatuses)).
		Count(ctx)
}

func (d *DB) UpdateRegistration(ctx context.Context, reg models.Registration) error {
	reg.UpdatedAt = time.Now()
	res, err := d.Bun.NewUpdate().
		Model(&reg).
		Column("status", "admin_notes", "updated_at").
		Where("id = ?", reg.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

func (d *DB) UpdateHasGivenReview(ctx context.Context, registrationID string, given bool) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Registration)(nil)).
		Set("has_given_review = ?", given).
		Where("id = ?", registrationID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteRegistration(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Registration)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

func (d *DB) GetRegistrationsByEvent(ctx context.Context, eventID string) ([]models.Registration, error) {
	var regs []models.Registration
	err := d.Bun.NewSelect().
		Model(&regs).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return regs, nil
}

func (d *DB) GetRegistrationsByUser(ctx context.Context, userID string) ([]models.Registration, error) {
	var regs []models.Registration
	err := d.Bun.NewSelect().
		Model(&regs).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return regs, nil
}

// GetPendingRegistrations returns the moderation queue, newest first.
func (d *DB) GetPendingRegistrations(ctx context.Context) ([]models.Registration, error) {
	var regs []models.Registration
	err := d.Bun.NewSelect().
		Model(&regs).
		Where("status = ?", models.StatusPending).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return regs, nil
}

// GetUserEmail resolves a registrant's address for notification delivery.
func (d *DB) GetUserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	err := d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Column("email").
		Where("id = ?", userID).
		Limit(1).
		Scan(ctx, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.New("user not found")
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

// isUniqueViolation matches both the postgres and the sqlite wording so the
// same mapping holds in production and in the test suite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
