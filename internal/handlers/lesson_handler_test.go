package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cadenzaschool/backend/internal/auth"
	"github.com/cadenzaschool/backend/internal/models"
)

// mockLessonService records calls so tests can assert what reached the service
type mockLessonService struct {
	requestCalls     int
	requestStudentID int
	requestReq       *models.CreateLessonRequest
	lesson           *models.Lesson
	err              error
}

func (m *mockLessonService) Request(ctx context.Context, studentID int, req *models.CreateLessonRequest) (*models.Lesson, error) {
	m.requestCalls++
	m.requestStudentID = studentID
	m.requestReq = req
	return m.lesson, m.err
}

func (m *mockLessonService) Transition(ctx context.Context, actor models.Actor, lessonID string, move models.Move, params models.TransitionParams) (*models.Lesson, error) {
	return m.lesson, m.err
}

func (m *mockLessonService) Get(ctx context.Context, actor models.Actor, lessonID string) (*models.Lesson, error) {
	return m.lesson, m.err
}

func (m *mockLessonService) ListForActor(ctx context.Context, actor models.Actor, status *models.LessonStatus) ([]models.Lesson, error) {
	return nil, m.err
}

func (m *mockLessonService) ListPending(ctx context.Context, actor models.Actor) ([]models.Lesson, error) {
	return nil, m.err
}

// setupLessonRouter wires the handler behind the real auth middleware, the
// same way main does it
func setupLessonRouter(t *testing.T, svc *mockLessonService) (chi.Router, *auth.TokenGenerator) {
	t.Helper()

	logger := zap.NewNop()
	tokenGenerator := auth.NewTokenGenerator("test-secret", 15*time.Minute, 24*time.Hour)

	r := chi.NewRouter()
	handler := NewLessonHandler(svc, logger)
	handler.RegisterRoutes(r, auth.Middleware(tokenGenerator))

	return r, tokenGenerator
}

func doCreateLesson(t *testing.T, r chi.Router, token string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(models.CreateLessonRequest{
		TeacherID:       7,
		Date:            "2026-09-02",
		SlotStart:       "10:00",
		DurationMinutes: 60,
		LessonType:      models.LessonTypeIndividual,
		Instrument:      "piano",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/lessons", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLessonHandler_CreateLesson_StudentAllowed(t *testing.T) {
	svc := &mockLessonService{lesson: &models.Lesson{ID: "lesson-1", TeacherID: 7, StudentID: 42}}
	r, tokenGenerator := setupLessonRouter(t, svc)

	token, err := tokenGenerator.GenerateAccessToken(42, int(models.RoleStudent))
	require.NoError(t, err)

	w := doCreateLesson(t, r, token)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, svc.requestCalls)
	assert.Equal(t, 42, svc.requestStudentID)
	require.NotNil(t, svc.requestReq)
	assert.Equal(t, 7, svc.requestReq.TeacherID)
}

func TestLessonHandler_CreateLesson_TeacherForbidden(t *testing.T) {
	svc := &mockLessonService{lesson: &models.Lesson{ID: "lesson-1"}}
	r, tokenGenerator := setupLessonRouter(t, svc)

	token, err := tokenGenerator.GenerateAccessToken(7, int(models.RoleTeacher))
	require.NoError(t, err)

	w := doCreateLesson(t, r, token)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, svc.requestCalls, "service must not be called for a teacher-role actor")
}

func TestLessonHandler_CreateLesson_Unauthenticated(t *testing.T) {
	svc := &mockLessonService{}
	r, _ := setupLessonRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/lessons", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, svc.requestCalls)
}
