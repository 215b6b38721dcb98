package review_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Rani-Boora/campus-event-hub/internal/auth"
	"github.com/Rani-Boora/campus-event-hub/internal/logger"
	"github.com/Rani-Boora/campus-event-hub/internal/models"
	"github.com/Rani-Boora/campus-event-hub/internal/review"
	"github.com/Rani-Boora/campus-event-hub/internal/utils"
)

type Handler struct {
	Service *review.Service
	Logger  *logger.Logger
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	userID := auth.UserID(r.Context())

	var input models.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	rev, err := h.Service.Create(r.Context(), eventID, userID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Review submitted successfully", rev))
}

// EventReviews is the public listing: visible reviews with their stats.
func (h *Handler) EventReviews(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	reviews, stats, err := h.Service.EventReviews(r.Context(), eventID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event reviews", map[string]interface{}{
		"reviews":             reviews,
		"average_rating":      stats.AverageRating,
		"total_reviews":       stats.TotalReviews,
		"rating_distribution": stats.RatingDistribution,
	}))
}

func (h *Handler) MyReviewForEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	userID := auth.UserID(r.Context())

	rev, err := h.Service.UserReviewForEvent(r.Context(), eventID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Your review", rev))
}

func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	userID := auth.UserID(r.Context())

	elig, err := h.Service.CanReview(r.Context(), eventID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Review eligibility", elig))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	reviews, err := h.Service.ListByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Your reviews", reviews))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")
	userID := auth.UserID(r.Context())

	var input models.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	rev, err := h.Service.Update(r.Context(), reviewID, userID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Review updated successfully", rev))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")
	userID := auth.UserID(r.Context())

	if err := h.Service.Delete(r.Context(), reviewID, userID); err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Review deleted successfully", nil))
}

// ---- Moderation ----

func (h *Handler) AllReviews(w http.ResponseWriter, r *http.Request) {
	reviews, stats, err := h.Service.AllReviews(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("All reviews", map[string]interface{}{
		"reviews":    reviews,
		"statistics": stats,
	}))
}

// AllEventReviews lists an event's reviews without the visibility filter.
func (h *Handler) AllEventReviews(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	reviews, stats, err := h.Service.EventReviewsForModeration(r.Context(), eventID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event reviews", map[string]interface{}{
		"reviews":    reviews,
		"statistics": stats,
	}))
}

func (h *Handler) DeleteByModerator(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	if err := h.Service.DeleteByModerator(r.Context(), reviewID); err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Review deleted successfully", nil))
}

func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	var body struct {
		IsVisible bool `json:"is_visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	rev, err := h.Service.SetVisibility(r.Context(), reviewID, body.IsVisible)
	if err != nil {
		h.writeError(w, err)
		return
	}

	msg := "Review hidden successfully"
	if body.IsVisible {
		msg = "Review made visible successfully"
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(msg, rev))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrReviewNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(err.Error()))
	case errors.Is(err, review.ErrNotEligible):
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse(err.Error()))
	case errors.Is(err, review.ErrAlreadyReviewed):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse(err.Error()))
	case errors.Is(err, review.ErrInvalidRating), errors.Is(err, review.ErrCommentTooLong):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("Internal error: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error"))
	}
}
