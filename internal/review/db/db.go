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
	ErrReviewNotFound = errors.New("review not found")

	// ErrDuplicateReview surfaces the unique index on registration_id. It
	// backstops the one-review-per-registration pre-check under races.
	ErrDuplicateReview = errors.New("duplicate review")
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateReview(ctx context.Context, review models.Review) error {
	_, err := d.Bun.NewInsert().Model(&review).Exec(ctx)
	if isUniqueViolation(err) {
		return ErrDuplicateReview
	}
	return err
}

func (d *DB) GetReviewByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	err := d.Bun.NewSelect().
		Model(&review).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetReviewByEventAndUser returns nil without error when the pair has no
// review yet.
func (d *DB) GetReviewByEventAndUser(ctx context.Context, eventID, userID string) (*models.Review, error) {
	var review models.Review
	err := d.Bun.NewSelect().
		Model(&review).
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
	return &review, nil
}

// GetVisibleReviewsByEvent serves the end-user listing: hidden reviews are
// filtered out here, not in the caller.
func (d *DB) GetVisibleReviewsByEvent(ctx context.Context, eventID string) ([]models.Review, error) {
	var reviews []models.Review
	err := d.Bun.NewSelect().
		Model(&reviews).
		Where("event_id = ?", eventID).
		Where("is_visible = TRUE").
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// GetReviewsByEvent is the moderation view: visibility is not filtered.
func (d *DB) GetReviewsByEvent(ctx context.Context, eventID string) ([]models.Review, error) {
	var reviews []models.Review
	err := d.Bun.NewSelect().
		Model(&reviews).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (d *DB) GetReviewsByUser(ctx context.Context, userID string) ([]models.Review, error) {
	var reviews []models.Review
	err := d.Bun.NewSelect().
		Model(&reviews).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// GetAllReviews is the moderation firehose, newest first.
func (d *DB) GetAllReviews(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	err := d.Bun.NewSelect().
		Model(&reviews).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (d *DB) UpdateReview(ctx context.Context, review models.Review) error {
	review.UpdatedAt = time.Now()
	res, err := d.Bun.NewUpdate().
		Model(&review).
		Column("rating", "comment", "would_recommend", "anonymous", "updated_at").
		Where("id = ?", review.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (d *DB) SetReviewVisibility(ctx context.Context, id string, visible bool) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Review)(nil)).
		Set("is_visible = ?", visible).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (d *DB) DeleteReview(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Review)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
