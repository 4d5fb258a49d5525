package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cadenzaschool/backend/internal/models"
)

// AvailabilityService is the interface that wraps methods for slot availability operations
type AvailabilityService interface {
	// ComputeSlots computes the slot grid for a teacher on a given day
	//
	// "ctx" is the context for the request.
	// "teacherID" is the ID of the teacher.
	// "date" is the requested calendar day.
	// "durationMinutes" is the lesson duration in minutes.
	//
	// Returns a list of slots and an error if any.
	ComputeSlots(ctx context.Context, teacherID int, date time.Time, durationMinutes int) ([]models.Slot, error)
}

// AvailabilityHandler handles HTTP requests for teacher availability
type AvailabilityHandler struct {
	BaseHandler
	service AvailabilityService
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(svc AvailabilityService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all availability handler routes
func (h *AvailabilityHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/teachers/{teacherID}/availability", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetAvailability)
	})
}

// GetAvailability handles GET /teachers/{teacherID}/availability
// @Summary Get teacher availability
// @Description Get the slot grid for a teacher on a given day and lesson duration
// @Tags availability
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param teacherID path int true "Teacher ID"
// @Param date query string true "Day in YYYY-MM-DD format"
// @Param duration query int true "Lesson duration in minutes (30, 45, 60 or 90)"
// @Success 200 {array} models.Slot "List of slots"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Teacher not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /teachers/{teacherID}/availability [get]
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	teacherID, err := strconv.Atoi(chi.URLParam(r, "teacherID"))
	if err != nil || teacherID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid teacher ID")
		return
	}

	dateStr := r.URL.Query().Get("date")
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return
	}

	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "duration must be a number of minutes")
		return
	}

	slots, err := h.service.ComputeSlots(r.Context(), teacherID, date, duration)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, slots)
}
