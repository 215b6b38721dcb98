package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/Rani-Boora/campus-event-hub/internal/models"
)

// ErrEventNotFound is returned when a point lookup finds no row.
var ErrEventNotFound = errors.New("event not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) GetEventsByCreator(ctx context.Context, creatorID string) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("created_by = ?", creatorID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetPublishedEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("published = TRUE").
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent writes the organizer-editable fields. The cached
// registered_count column is deliberately not in the list: the recount path
// owns it.
func (d *DB) UpdateEvent(ctx context.Context, event models.Event) error {
	event.UpdatedAt = time.Now()
	res, err := d.Bun.NewUpdate().
		Model(&event).
		Column("title", "description", "category", "capacity", "start_date",
			"end_date", "start_time", "end_time", "venue", "price",
			"reg_deadline", "image", "requirements", "tags", "draft",
			"published", "updated_at").
		Where("id = ?", event.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// UpdateRegisteredCount is the single write path for the cached count.
func (d *DB) UpdateRegisteredCount(ctx context.Context, eventID string, count int) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("registered_count = ?", count).
		Where("id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEvent removes the event row together with its registrations and
// reviews so no dangling references survive the deletion.
func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Review)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.Registration)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return ErrEventNotFound
		}
		return nil
	})
}
