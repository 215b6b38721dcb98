package registration_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Rani-Boora/campus-event-hub/internal/auth"
	"github.com/Rani-Boora/campus-event-hub/internal/logger"
	"github.com/Rani-Boora/campus-event-hub/internal/models"
	"github.com/Rani-Boora/campus-event-hub/internal/registration"
	"github.com/Rani-Boora/campus-event-hub/internal/registration/pass"
	"github.com/Rani-Boora/campus-event-hub/internal/utils"
)

type Handler struct {
	Service *registration.Service
	Passes  *pass.Generator
	Logger  *logger.Logger
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	userID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("Register: event=%s user=%s", eventID, userID))

	var form models.RegistrationForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	reg, err := h.Service.Register(r.Context(), eventID, userID, form)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Registration submitted successfully", reg))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationID")
	actorID := auth.UserID(r.Context())

	var body struct {
		Status     string `json:"status"`
		AdminNotes string `json:"admin_notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	reg, err := h.Service.UpdateStatus(r.Context(), registrationID, actorID, body.Status, body.AdminNotes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(fmt.Sprintf("Registration %s successfully", reg.Status), reg))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationID")
	userID := auth.UserID(r.Context())

	if err := h.Service.Cancel(r.Context(), registrationID, userID); err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Registration cancelled successfully", nil))
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	userID := auth.UserID(r.Context())

	reg, err := h.Service.StatusFor(r.Context(), eventID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := map[string]interface{}{
		"is_registered": reg != nil,
	}
	if reg != nil {
		resp["registration"] = reg
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Registration status", resp))
}

func (h *Handler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	regs, err := h.Service.ListByEvent(r.Context(), eventID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event registrations", regs))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	regs, err := h.Service.ListByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Your registrations", regs))
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	regs, err := h.Service.ListPending(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Pending registrations", regs))
}

// Pass serves the encrypted QR check-in pass for the caller's own approved
// registration.
func (h *Handler) Pass(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationID")
	userID := auth.UserID(r.Context())

	reg, err := h.Service.StatusForID(r.Context(), registrationID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	png, err := h.Passes.Generate(*reg)
	if err != nil {
		if errors.Is(err, pass.ErrNotApproved) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Registration is not approved"))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("Pass: failed to generate QR for %s: %v", registrationID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to generate pass"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// writeError maps service errors onto the response taxonomy: not-found 404,
// business rejections 400, ownership 403, duplicates 409 with the same
// message whether the pre-check or the store constraint caught them.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registration.ErrEventNotFound),
		errors.Is(err, registration.ErrRegistrationNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(err.Error()))
	case errors.Is(err, registration.ErrEventNotPublished),
		errors.Is(err, registration.ErrDeadlinePassed),
		errors.Is(err, registration.ErrEventFull),
		errors.Is(err, registration.ErrInvalidStatus):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	case errors.Is(err, registration.ErrAlreadyRegistered):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse(err.Error()))
	case errors.Is(err, registration.ErrNotOwner):
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse(err.Error()))
	case errors.Is(err, registration.ErrAdmissionBusy):
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse(err.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("Internal error: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error"))
	}
}
