package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cadenzaschool/backend/internal/auth"
	"github.com/cadenzaschool/backend/internal/notifications"
)

// NotificationInbox is the interface that wraps the per-user notification buffer
type NotificationInbox interface {
	// Drain returns and clears the recipient's pending notifications.
	Drain(recipientID int) []notifications.Event
}

// NotificationHandler handles HTTP requests for the notification inbox
type NotificationHandler struct {
	BaseHandler
	inbox NotificationInbox
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(inbox NotificationInbox, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		inbox:       inbox,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all notification handler routes
func (h *NotificationHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetNotifications)
	})
}

// GetNotifications handles GET /notifications
// @Summary Fetch pending notifications
// @Description Return and clear the authenticated user's pending notifications
// @Tags notifications
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} notifications.Event "Pending notifications"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /notifications [get]
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	events := h.inbox.Drain(userID)
	h.RespondJSON(w, http.StatusOK, events)
}
