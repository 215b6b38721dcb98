package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Rani-Boora/campus-event-hub/internal/logger"
	"github.com/Rani-Boora/campus-event-hub/internal/models"
	reviewdb "github.com/Rani-Boora/campus-event-hub/internal/review/db"
)

var (
	ErrNotEligible     = errors.New("you can only review events you've attended with an approved registration")
	ErrAlreadyReviewed = errors.New("you have already reviewed this event")
	ErrReviewNotFound  = errors.New("review not found")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong  = errors.New("comment must be 500 characters or fewer")
)

const maxCommentLength = 500

type DBLayer interface {
	CreateReview(ctx context.Context, review models.Review) error
	GetReviewByID(ctx context.Context, id string) (*models.Review, error)
	GetReviewByEventAndUser(ctx context.Context, eventID, userID string) (*models.Review, error)
	GetVisibleReviewsByEvent(ctx context.Context, eventID string) ([]models.Review, error)
	GetReviewsByEvent(ctx context.Context, eventID string) ([]models.Review, error)
	GetReviewsByUser(ctx context.Context, userID string) ([]models.Review, error)
	GetAllReviews(ctx context.Context) ([]models.Review, error)
	UpdateReview(ctx context.Context, review models.Review) error
	SetReviewVisibility(ctx context.Context, id string, visible bool) error
	DeleteReview(ctx context.Context, id string) error
}

// RegistrationStore is the slice of the registration store the gate needs:
// the eligibility lookup and the hasGivenReview flag.
type RegistrationStore interface {
	GetRegistrationByEventAndUser(ctx context.Context, eventID, userID string) (*models.Registration, error)
	UpdateHasGivenReview(ctx context.Context, registrationID string, given bool) error
}

type Service struct {
	DB            DBLayer
	Registrations RegistrationStore
	Logger        *logger.Logger
}

func NewService(db DBLayer, registrations RegistrationStore, log *logger.Logger) *Service {
	return &Service{DB: db, Registrations: registrations, Logger: log}
}

// Eligibility is the result of the review-eligibility probe.
type Eligibility struct {
	CanReview         bool   `json:"can_review"`
	RegistrationID    string `json:"registration_id,omitempty"`
	HasExistingReview bool   `json:"has_existing_review"`
}

// CanReview reports whether the user may author a new review for the event:
// an approved registration exists and no review has been written yet.
func (s *Service) CanReview(ctx context.Context, eventID, userID string) (*Eligibility, error) {
	reg, err := s.Registrations.GetRegistrationByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check registration: %w", err)
	}

	existing, err := s.DB.GetReviewByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}

	elig := &Eligibility{
		HasExistingReview: existing != nil,
	}
	if reg != nil && reg.Status == models.StatusApproved {
		elig.RegistrationID = reg.ID
		elig.CanReview = existing == nil
	}
	return elig, nil
}

// Create writes a new review. Eligibility is re-checked here, not just in
// the probe, so a check-then-act race cannot slip an ineligible review in.
func (s *Service) Create(ctx context.Context, eventID, userID string, input models.ReviewInput) (*models.Review, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	reg, err := s.Registrations.GetRegistrationByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check registration: %w", err)
	}
	if reg == nil || reg.Status != models.StatusApproved {
		return nil, ErrNotEligible
	}

	existing, err := s.DB.GetReviewByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyReviewed
	}

	review := models.Review{
		ID:             uuid.NewString(),
		EventID:        eventID,
		UserID:         userID,
		RegistrationID: reg.ID,
		Rating:         input.Rating,
		Comment:        input.Comment,
		WouldRecommend: true,
		IsVisible:      true,
		CreatedAt:      time.Now(),
	}
	if input.WouldRecommend != nil {
		review.WouldRecommend = *input.WouldRecommend
	}
	if input.Anonymous != nil {
		review.Anonymous = *input.Anonymous
	}

	if err := s.DB.CreateReview(ctx, review); err != nil {
		if errors.Is(err, reviewdb.ErrDuplicateReview) {
			// Unique index backstop fired despite the pre-check.
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.Registrations.UpdateHasGivenReview(ctx, reg.ID, true); err != nil {
		s.Logger.Error("REVIEW", fmt.Sprintf("Failed to flag registration %s as reviewed: %v", reg.ID, err))
	}

	s.Logger.LogReview("CREATE", review.ID, fmt.Sprintf("user %s rated event %s %d/5", userID, eventID, review.Rating))
	return &review, nil
}

// Update edits the author's own review. Edit rights follow review ownership
// alone; the registration's current status is not re-checked.
func (s *Service) Update(ctx context.Context, reviewID, userID string, input models.ReviewInput) (*models.Review, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	review, err := s.DB.GetReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, reviewdb.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to load review %s: %w", reviewID, err)
	}
	if review.UserID != userID {
		return nil, ErrReviewNotFound
	}

	review.Rating = input.Rating
	review.Comment = input.Comment
	if input.WouldRecommend != nil {
		review.WouldRecommend = *input.WouldRecommend
	}
	if input.Anonymous != nil {
		review.Anonymous = *input.Anonymous
	}

	if err := s.DB.UpdateReview(ctx, *review); err != nil {
		return nil, fmt.Errorf("failed to update review %s: %w", reviewID, err)
	}
	return review, nil
}

// Delete removes the author's own review and reopens their eligibility.
func (s *Service) Delete(ctx context.Context, reviewID, userID string) error {
	review, err := s.DB.GetReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, reviewdb.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to load review %s: %w", reviewID, err)
	}
	if review.UserID != userID {
		return ErrReviewNotFound
	}
	return s.remove(ctx, review)
}

// DeleteByModerator removes any review, same eligibility reset.
func (s *Service) DeleteByModerator(ctx context.Context, reviewID string) error {
	review, err := s.DB.GetReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, reviewdb.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to load review %s: %w", reviewID, err)
	}
	return s.remove(ctx, review)
}

func (s *Service) remove(ctx context.Context, review *models.Review) error {
	if err := s.DB.DeleteReview(ctx, review.ID); err != nil {
		return fmt.Errorf("failed to delete review %s: %w", review.ID, err)
	}

	if err := s.Registrations.UpdateHasGivenReview(ctx, review.RegistrationID, false); err != nil {
		s.Logger.Error("REVIEW", fmt.Sprintf("Failed to reset review flag on registration %s: %v", review.RegistrationID, err))
	}

	s.Logger.LogReview("DELETE", review.ID, "review removed, eligibility reopened")
	return nil
}

// SetVisibility is the moderator hide/show toggle.
func (s *Service) SetVisibility(ctx context.Context, reviewID string, visible bool) (*models.Review, error) {
	if err := s.DB.SetReviewVisibility(ctx, reviewID, visible); err != nil {
		if errors.Is(err, reviewdb.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return s.DB.GetReviewByID(ctx, reviewID)
}

// EventReviews returns the visible reviews of an event with their stats.
func (s *Service) EventReviews(ctx context.Context, eventID string) ([]models.Review, *models.ReviewStats, error) {
	reviews, err := s.DB.GetVisibleReviewsByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch reviews for event %s: %w", eventID, err)
	}
	return reviews, Stats(reviews), nil
}

// EventReviewsForModeration returns every review of an event, hidden ones
// included, with stats over the full set.
func (s *Service) EventReviewsForModeration(ctx context.Context, eventID string) ([]models.Review, *models.ReviewStats, error) {
	reviews, err := s.DB.GetReviewsByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch reviews for event %s: %w", eventID, err)
	}
	return reviews, Stats(reviews), nil
}

// UserReviewForEvent returns the caller's review, or nil when none exists.
func (s *Service) UserReviewForEvent(ctx context.Context, eventID, userID string) (*models.Review, error) {
	return s.DB.GetReviewByEventAndUser(ctx, eventID, userID)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Review, error) {
	return s.DB.GetReviewsByUser(ctx, userID)
}

// AllReviews is the moderator listing: every review regardless of
// visibility, plus overall statistics.
func (s *Service) AllReviews(ctx context.Context) ([]models.Review, *models.ReviewStats, error) {
	reviews, err := s.DB.GetAllReviews(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}
	return reviews, Stats(reviews), nil
}

// Stats computes the average rating (one decimal, standard rounding) and the
// 1-5 star distribution of the given reviews.
func Stats(reviews []models.Review) *models.ReviewStats {
	stats := &models.ReviewStats{
		TotalReviews:       len(reviews),
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	if len(reviews) == 0 {
		return stats
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
		stats.RatingDistribution[r.Rating]++
	}
	avg := float64(sum) / float64(len(reviews))
	stats.AverageRating = math.Round(avg*10) / 10
	return stats
}

func validateInput(input models.ReviewInput) error {
	if input.Rating < 1 || input.Rating > 5 {
		return ErrInvalidRating
	}
	if len(input.Comment) > maxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}
