package event_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Rani-Boora/campus-event-hub/internal/auth"
	"github.com/Rani-Boora/campus-event-hub/internal/event"
	"github.com/Rani-Boora/campus-event-hub/internal/logger"
	"github.com/Rani-Boora/campus-event-hub/internal/models"
	"github.com/Rani-Boora/campus-event-hub/internal/utils"
)

type Handler struct {
	Service *event.Service
	Logger  *logger.Logger
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.Event
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	created, err := h.Service.Create(r.Context(), input, auth.UserID(r.Context()), auth.Name(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Event created successfully", created))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	ev, err := h.Service.Get(r.Context(), eventID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event", ev))
}

func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.ListPublished(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Published events", events))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.ListByCreator(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Your events", events))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var input models.Event
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	updated, err := h.Service.Update(r.Context(), eventID, auth.UserID(r.Context()), input)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event updated successfully", updated))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if err := h.Service.Delete(r.Context(), eventID, auth.UserID(r.Context())); err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event deleted successfully", nil))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, event.ErrEventNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(err.Error()))
	case errors.Is(err, event.ErrInvalidCapacity):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	case errors.Is(err, event.ErrNotOwner):
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse(err.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("Internal error: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error"))
	}
}
