package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cadenzaschool/backend/internal/auth"
	"github.com/cadenzaschool/backend/internal/models"
)

// LessonService is the interface that wraps methods for lesson lifecycle operations
type LessonService interface {
	// Request creates a new lesson request on behalf of a student
	//
	// "ctx" is the context for the request.
	// "studentID" is the ID of the requesting student.
	// "req" carries the teacher, schedule and details of the request.
	//
	// Returns the created lesson and an error if any.
	Request(ctx context.Context, studentID int, req *models.CreateLessonRequest) (*models.Lesson, error)
	// Transition applies a lifecycle move to a lesson
	//
	// "ctx" is the context for the request.
	// "actor" is the authenticated participant performing the move.
	// "lessonID" is the ID of the lesson.
	// "move" is the lifecycle move to apply.
	// "params" carries the optional payload of the move.
	//
	// Returns the updated lesson and an error if any.
	Transition(ctx context.Context, actor models.Actor, lessonID string, move models.Move, params models.TransitionParams) (*models.Lesson, error)
	// Get retrieves a lesson visible to the actor
	//
	// "ctx" is the context for the request.
	// "actor" is the authenticated participant.
	// "lessonID" is the ID of the lesson.
	//
	// Returns the lesson and an error if any.
	Get(ctx context.Context, actor models.Actor, lessonID string) (*models.Lesson, error)
	// ListForActor retrieves the actor's lessons, optionally filtered by status
	//
	// "ctx" is the context for the request.
	// "actor" is the authenticated participant.
	// "status" is an optional status filter.
	//
	// Returns a list of lessons and an error if any.
	ListForActor(ctx context.Context, actor models.Actor, status *models.LessonStatus) ([]models.Lesson, error)
	// ListPending retrieves the lessons awaiting a decision from the actor
	//
	// "ctx" is the context for the request.
	// "actor" is the authenticated participant.
	//
	// Returns a list of lessons and an error if any.
	ListPending(ctx context.Context, actor models.Actor) ([]models.Lesson, error)
}

// LessonHandler handles HTTP requests for lesson lifecycle operations
type LessonHandler struct {
	BaseHandler
	service LessonService
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(svc LessonService, logger *zap.Logger) *LessonHandler {
	return &LessonHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all lesson handler routes
func (h *LessonHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/lessons", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.CreateLesson)
		r.Get("/", h.ListLessons)
		r.Get("/pending", h.ListPending)
		r.Get("/{id}", h.GetLesson)
		r.Post("/{id}/approve", h.transition(models.MoveApprove))
		r.Post("/{id}/reject", h.transition(models.MoveReject))
		r.Post("/{id}/propose", h.transition(models.MoveProposeAlternative))
		r.Post("/{id}/approve-reschedule", h.transition(models.MoveApproveReschedule))
		r.Post("/{id}/reject-reschedule", h.transition(models.MoveRejectReschedule))
		r.Post("/{id}/complete", h.transition(models.MoveComplete))
		r.Post("/{id}/no-show", h.transition(models.MoveNoShow))
		r.Post("/{id}/cancel", h.transition(models.MoveCancel))
	})
}

// actorFromContext builds the acting participant from the auth context
func (h *LessonHandler) actorFromContext(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return models.Actor{}, false
	}
	role, ok := auth.GetRole(r.Context())
	if !ok {
		h.Logger.Error("role not found in context")
		h.RespondError(w, http.StatusUnauthorized, "role not found in context")
		return models.Actor{}, false
	}
	return models.Actor{ID: userID, Role: models.Role(role)}, true
}

// CreateLesson handles POST /lessons
// @Summary Request a lesson
// @Description Submit a new lesson request to a teacher for a free slot
// @Tags lessons
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateLessonRequest true "Lesson request"
// @Success 201 {object} models.Lesson "Created lesson"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Teacher not found"
// @Failure 409 {object} map[string]string "Slot conflict"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /lessons [post]
func (h *LessonHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromContext(w, r)
	if !ok {
		return
	}
	if actor.Role != models.RoleStudent && actor.Role != models.RoleAdmin {
		h.RespondError(w, http.StatusForbidden, "only students can request lessons")
		return
	}

	var req models.CreateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lesson, err := h.service.Request(r.Context(), actor.ID, &req)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, lesson)
}

// ListLessons handles GET /lessons
// @Summary List lessons
// @Description List the authenticated user's lessons, optionally filtered by status
// @Tags lessons
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Status filter (requested, scheduled, pending_student_approval, completed, cancelled, rejected, no_show)"
// @Success 200 {array} models.Lesson "List of lessons"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /lessons [get]
func (h *LessonHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromContext(w, r)
	if !ok {
		return
	}

	var status *models.LessonStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		s := models.LessonStatus(statusStr)
		status = &s
	}

	lessons, err := h.service.ListForActor(r.Context(), actor, status)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, lessons)
}

// ListPending handles GET /lessons/pending
// @Summary List lessons awaiting a decision
// @Description List lessons where the next action is on the authenticated user
// @Tags lessons
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Lesson "List of lessons"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /lessons/pending [get]
func (h *LessonHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromContext(w, r)
	if !ok {
		return
	}

	lessons, err := h.service.ListPending(r.Context(), actor)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, lessons)
}

// GetLesson handles GET /lessons/{id}
// @Summary Get lesson details
// @Description Get a single lesson visible to the authenticated user
// @Tags lessons
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Lesson ID"
// @Success 200 {object} models.Lesson "Lesson details"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /lessons/{id} [get]
func (h *LessonHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromContext(w, r)
	if !ok {
		return
	}

	lessonID := chi.URLParam(r, "id")
	if lessonID == "" {
		h.RespondError(w, http.StatusBadRequest, "lesson ID is required")
		return
	}

	lesson, err := h.service.Get(r.Context(), actor, lessonID)
	if err != nil {
		h.RespondDomainError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, lesson)
}

// transition builds a handler applying the given lifecycle move.
// The request body is optional; moves that need a payload validate it
// in the service layer.
// @Summary Apply a lesson lifecycle move
// @Description Apply approve, reject, propose, approve-reschedule, reject-reschedule, complete, no-show or cancel to a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Lesson ID"
// @Param request body models.TransitionParams false "Move payload"
// @Success 200 {object} models.Lesson "Updated lesson"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 409 {object} map[string]string "Invalid state or slot conflict"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /lessons/{id}/approve [post]
func (h *LessonHandler) transition(move models.Move) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actorFromContext(w, r)
		if !ok {
			return
		}

		lessonID := chi.URLParam(r, "id")
		if lessonID == "" {
			h.RespondError(w, http.StatusBadRequest, "lesson ID is required")
			return
		}

		var params models.TransitionParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil && err != io.EOF {
			h.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lesson, err := h.service.Transition(r.Context(), actor, lessonID, move, params)
		if err != nil {
			h.Logger.Warn("lesson transition rejected",
				zap.String("lesson_id", lessonID),
				zap.String("move", string(move)),
				zap.Int("actor_id", actor.ID),
				zap.Error(err))
			h.RespondDomainError(w, err)
			return
		}

		h.RespondJSON(w, http.StatusOK, lesson)
	}
}
