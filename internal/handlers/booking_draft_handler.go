package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cadenzaschool/backend/internal/auth"
	"github.com/cadenzaschool/backend/internal/models"
)

// BookingDraftService is the interface that wraps methods for the step-by-step booking builder
type BookingDraftService interface {
	// Start opens a new empty draft for the student.
	// Returns the created draft.
	Start(studentID int) *models.BookingDraft
	// Get retrieves the student's draft by ID.
	// Returns the draft and an error if any.
	Get(draftID string, studentID int) (*models.BookingDraft, error)
	// SetTeacher records the chosen teacher on the draft.
	// Returns the updated draft and an error if any.
	SetTeacher(ctx context.Context, draftID string, studentID int, req *models.SetTeacherRequest) (*models.BookingDraft, error)
	// SetSchedule records the chosen day and slot on the draft.
	// Returns the updated draft and an error if any.
	SetSchedule(ctx context.Context, draftID string, studentID int, req *models.SetScheduleRequest) (*models.BookingDraft, error)
	// SetDetails records lesson type, instrument and message on the draft.
	// Returns the updated draft and an error if any.
	SetDetails(draftID string, studentID int, req *models.SetDetailsRequest) (*models.BookingDraft, error)
	// Submit turns a completed draft into a lesson request.
	// Returns the created lesson and an error if any.
	Submit(ctx context.Context, draftID string, studentID int) (*models.Lesson, error)
	// Abandon discards the student's draft.
	// Returns an error if any.
	Abandon(draftID string, studentID int) error
}

// BookingDraftHandler handles HTTP requests for the booking builder flow
type BookingDraftHandler struct {
	BaseHandler
	service BookingDraftService
}

// NewBookingDraftHandler creates a new booking draft handler
func NewBookingDraftHandler(svc BookingDraftService, logger *zap.Logger) *BookingDraftHandler {
	return &BookingDraftHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all booking draft handler routes
func (h *BookingDraftHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/booking-drafts", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.StartDraft)
		r.Get("/{id}", h.GetDraft)
		r.Put("/{id}/teacher", h.SetTeacher)
		r.Put("/{id}/schedule", h.SetSchedule)
		r.Put("/{id}/details", h.SetDetails)
		r.Post("/{id}/submit", h.SubmitDraft)
		r.Delete("/{id}", h.AbandonDraft)
	})
}

func (h *BookingDraftHandler) studentFromContext(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return 0, false
	}
	return userID, true
}

// StartDraft handles POST /booking-drafts
// @Summary Start a booking draft
// @Description Open a new empty booking draft for the authenticated student
// @Tags booking
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} models.BookingDraft "Created draft"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /booking-drafts [post]
func (h *BookingDraftHandler) StartDraft(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.studentFromContext(w, r)
	if !ok {
		return
	}

	draft := h.service.Start(studentID)
	h.RespondJSON(w, http.StatusCreated, draft)
}

// GetDraft handles GET /booking-drafts/{id}
// @Summary Get a booking draft
// @Description Get the current state of a booking draft
// @Tags booking
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Draft ID"
// @Success 200 {object} models.BookingDraft "Draft"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Draft not found"
// @Router /booking-drafts/{id} [get]
func (h *BookingDraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.studentFromContext(w, r)
	if !ok {
		return
	}

	draft, err := h.service.Get(chi.URLParam(r, "id"), studentID)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, draft)
}

// SetTeacher handles PUT /booking-drafts/{id}/teacher
// @Summary Choose the teacher
// @Description Set the teacher on a booking draft
// @Tags booking
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Draft ID"
// @Param request body models.SetTeacherRequest true "Teacher choice"
// @Success 200 {object} models.BookingDraft "Updated draft"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Draft or teacher not found"
// @Router /booking-drafts/{id}/teacher [put]
func (h *BookingDraftHandler) SetTeacher(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.studentFromContext(w, r)
	if !ok {
		return
	}

	var req models.SetTeacherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft, err := h.service.SetTeacher(r.Context(), chi.URLParam(r, "id"), studentID, &req)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, draft)
}

// SetSchedule handles PUT /booking-drafts/{id}/schedule
// @Summary Choose the schedule
// @Description Set date, duration and slot on a booking draft
// @Tags booking
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Draft ID"
// @Param request body models.SetScheduleRequest true "Schedule choice"
// @Success 200 {object} models.BookingDraft "Updated draft"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Draft not found"
// @Failure 409 {object} map[string]string "Step not reached or slot taken"
// @Router /booking-drafts/{id}/schedule [put]
func (h *BookingDraftHandler) SetSchedule(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.studentFromContext(w, r)
	if !ok {
		return
	}

	var req models.SetScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft, err := h.service.SetSchedule(r.Context(), chi.URLParam(r, "id"), studentID, &req)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, draft)
}

// SetDetails handles PUT /booking-drafts/{id}/details
// @Summary Fill in lesson details
// @Description Set lesson type, instrument and message on a booking draft
// @Tags booking
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Draft ID"
// @Param request body models.SetDetailsRequest true "Lesson details"
// @Success 200 {object} models.BookingDraft "Updated draft"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Draft not found"
// @Failure 409 {object} map[string]string "Step not reached"
// @Router /booking-drafts/{id}/details [put]
func (h *BookingDraftHandler) SetDetails(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.studentFromContext(w, r)
	if !ok {
		return
	}

	var req models.SetDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft, err := h.service.SetDetails(chi.URLParam(r, "id"), studentID, &req)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, draft)
}

// SubmitDraft handles POST /booking-drafts/{id}/submit
// @Summary Submit a booking draft
// @Description Turn a completed draft into a lesson request; the draft is discarded
// @Tags booking
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Draft ID"
// @Success 201 {object} models.Lesson "Created lesson"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Draft not found"
// @Failure 409 {object} map[string]string "Draft incomplete or slot taken"
// @Router /booking-drafts/{id}/submit [post]
func (h *BookingDraftHandler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.studentFromContext(w, r)
	if !ok {
		return
	}

	lesson, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"), studentID)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, lesson)
}

// AbandonDraft handles DELETE /booking-drafts/{id}
// @Summary Abandon a booking draft
// @Description Discard a booking draft without creating anything
// @Tags booking
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Draft ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Draft not found"
// @Router /booking-drafts/{id} [delete]
func (h *BookingDraftHandler) AbandonDraft(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.studentFromContext(w, r)
	if !ok {
		return
	}

	if err := h.service.Abandon(chi.URLParam(r, "id"), studentID); err != nil {
		h.RespondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
