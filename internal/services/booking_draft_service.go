package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cadenzaschool/backend/internal/models"
)

// SlotComputer defines the availability lookup used by the booking draft service
type SlotComputer interface {
	// ComputeSlots returns the slot grid for a teacher on a given day.
	// "ctx" is the context for the request.
	// "teacherID" is the ID of the teacher.
	// "date" is the requested calendar day.
	// "durationMinutes" is the lesson duration in minutes.
	// Returns the slots and an error if any.
	ComputeSlots(ctx context.Context, teacherID int, date time.Time, durationMinutes int) ([]models.Slot, error)
}

// LessonRequester defines the lesson creation operation used by the booking draft service
type LessonRequester interface {
	// Request creates a new lesson request on behalf of a student.
	// "ctx" is the context for the request.
	// "studentID" is the ID of the requesting student.
	// "req" carries the teacher, schedule and details of the request.
	// Returns the created lesson and an error if any.
	Request(ctx context.Context, studentID int, req *models.CreateLessonRequest) (*models.Lesson, error)
}

// draftStore is an in-memory store of booking drafts with TTL-based expiry
type draftStore struct {
	mu     sync.RWMutex
	drafts map[string]*models.BookingDraft
	ttl    time.Duration
	nowFn  func() time.Time
}

func newDraftStore(ttl time.Duration) *draftStore {
	return &draftStore{
		drafts: make(map[string]*models.BookingDraft),
		ttl:    ttl,
		nowFn:  time.Now,
	}
}

func (s *draftStore) put(draft *models.BookingDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.ID] = draft
}

// get returns the draft if it exists, belongs to the student and has not expired
func (s *draftStore) get(id string, studentID int) (*models.BookingDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.drafts[id]
	if !ok {
		return nil, false
	}
	if s.nowFn().Sub(draft.UpdatedAt) > s.ttl {
		delete(s.drafts, id)
		return nil, false
	}
	if draft.StudentID != studentID {
		return nil, false
	}
	return draft, true
}

func (s *draftStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
}

// cleanup removes expired drafts and returns how many were dropped
func (s *draftStore) cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	removed := 0
	for id, draft := range s.drafts {
		if now.Sub(draft.UpdatedAt) > s.ttl {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed
}

type bookingDraftService struct {
	store       *draftStore
	teacherRepo TeacherScheduleRepository
	slots       SlotComputer
	lessons     LessonRequester
	logger      *zap.Logger
	nowFn       func() time.Time
}

// NewBookingDraftService creates a new booking draft service.
// Drafts that see no activity for "ttl" are silently discarded.
func NewBookingDraftService(teacherRepo TeacherScheduleRepository, slots SlotComputer, lessons LessonRequester, ttl time.Duration, logger *zap.Logger) *bookingDraftService {
	return &bookingDraftService{
		store:       newDraftStore(ttl),
		teacherRepo: teacherRepo,
		slots:       slots,
		lessons:     lessons,
		logger:      logger,
		nowFn:       time.Now,
	}
}

// Start opens a new empty draft for the student
func (s *bookingDraftService) Start(studentID int) *models.BookingDraft {
	now := s.nowFn()
	draft := &models.BookingDraft{
		ID:        uuid.New().String(),
		StudentID: studentID,
		Step:      models.DraftStepTeacher,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.put(draft)
	return draft
}

// Get returns the student's draft by ID
func (s *bookingDraftService) Get(draftID string, studentID int) (*models.BookingDraft, error) {
	draft, ok := s.store.get(draftID, studentID)
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", draftID, models.ErrNotFound)
	}
	return draft, nil
}

// SetTeacher records the chosen teacher on the draft. Changing the teacher
// resets any schedule and details chosen for the previous one.
func (s *bookingDraftService) SetTeacher(ctx context.Context, draftID string, studentID int, req *models.SetTeacherRequest) (*models.BookingDraft, error) {
	draft, err := s.Get(draftID, studentID)
	if err != nil {
		return nil, err
	}
	if req.TeacherID <= 0 {
		return nil, fmt.Errorf("%w: teacher id is required", models.ErrInvalidSchedule)
	}

	exists, err := s.teacherRepo.Exists(ctx, req.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to check teacher: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("teacher %d: %w", req.TeacherID, models.ErrNotFound)
	}

	if draft.TeacherID != req.TeacherID {
		draft.Date = ""
		draft.SlotStart = ""
		draft.DurationMinutes = 0
		draft.LessonType = ""
		draft.Instrument = ""
		draft.Message = ""
	}
	draft.TeacherID = req.TeacherID
	draft.Step = models.DraftStepSchedule
	draft.UpdatedAt = s.nowFn()
	s.store.put(draft)
	return draft, nil
}

// SetSchedule records the chosen day and slot on the draft. The slot must be
// on the teacher's availability grid and still free at the time of the call.
func (s *bookingDraftService) SetSchedule(ctx context.Context, draftID string, studentID int, req *models.SetScheduleRequest) (*models.BookingDraft, error) {
	draft, err := s.Get(draftID, studentID)
	if err != nil {
		return nil, err
	}
	if !draft.Step.Reached(models.DraftStepSchedule) {
		return nil, fmt.Errorf("%w: choose a teacher first", models.ErrInvalidState)
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date format", models.ErrInvalidSchedule)
	}
	if _, err := time.Parse("15:04", req.SlotStart); err != nil {
		return nil, fmt.Errorf("%w: invalid slot start format", models.ErrInvalidSchedule)
	}

	slots, err := s.slots.ComputeSlots(ctx, draft.TeacherID, date, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	wanted, err := clockOnDay(date, req.SlotStart)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid slot start format", models.ErrInvalidSchedule)
	}
	found := false
	for _, slot := range slots {
		if !slot.StartTime.Equal(wanted) {
			continue
		}
		if !slot.Available {
			return nil, fmt.Errorf("%w: this slot is no longer available", models.ErrSlotConflict)
		}
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("%w: slot is outside the teacher's schedule", models.ErrInvalidSchedule)
	}

	draft.Date = req.Date
	draft.SlotStart = req.SlotStart
	draft.DurationMinutes = req.DurationMinutes
	if !draft.Step.Reached(models.DraftStepDetails) {
		draft.Step = models.DraftStepDetails
	}
	draft.UpdatedAt = s.nowFn()
	s.store.put(draft)
	return draft, nil
}

// SetDetails records the lesson type, instrument and optional message
func (s *bookingDraftService) SetDetails(draftID string, studentID int, req *models.SetDetailsRequest) (*models.BookingDraft, error) {
	draft, err := s.Get(draftID, studentID)
	if err != nil {
		return nil, err
	}
	if !draft.Step.Reached(models.DraftStepDetails) {
		return nil, fmt.Errorf("%w: choose a schedule first", models.ErrInvalidState)
	}
	if !req.LessonType.Valid() {
		return nil, fmt.Errorf("%w: invalid lesson type", models.ErrInvalidSchedule)
	}
	if req.Instrument == "" {
		return nil, fmt.Errorf("%w: instrument is required", models.ErrInvalidSchedule)
	}

	draft.LessonType = req.LessonType
	draft.Instrument = req.Instrument
	draft.Message = req.Message
	draft.Step = models.DraftStepConfirm
	draft.UpdatedAt = s.nowFn()
	s.store.put(draft)
	return draft, nil
}

// Submit turns a completed draft into a lesson request and discards the draft.
// The slot is re-validated by the lesson service at this point, so a draft can
// still fail with a conflict if someone booked the slot in the meantime.
func (s *bookingDraftService) Submit(ctx context.Context, draftID string, studentID int) (*models.Lesson, error) {
	draft, err := s.Get(draftID, studentID)
	if err != nil {
		return nil, err
	}
	if !draft.Step.Reached(models.DraftStepConfirm) {
		return nil, fmt.Errorf("%w: draft is not complete", models.ErrInvalidState)
	}

	lesson, err := s.lessons.Request(ctx, studentID, &models.CreateLessonRequest{
		TeacherID:       draft.TeacherID,
		Date:            draft.Date,
		SlotStart:       draft.SlotStart,
		DurationMinutes: draft.DurationMinutes,
		LessonType:      draft.LessonType,
		Instrument:      draft.Instrument,
		Message:         draft.Message,
	})
	if err != nil {
		return nil, err
	}

	s.store.delete(draft.ID)
	s.logger.Info("booking draft submitted",
		zap.String("draft_id", draft.ID),
		zap.String("lesson_id", lesson.ID),
		zap.Int("student_id", studentID))
	return lesson, nil
}

// Abandon discards the student's draft
func (s *bookingDraftService) Abandon(draftID string, studentID int) error {
	draft, err := s.Get(draftID, studentID)
	if err != nil {
		return err
	}
	s.store.delete(draft.ID)
	return nil
}

// StartCleanup runs periodic expiry of abandoned drafts until ctx is done
func (s *bookingDraftService) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.store.cleanup(); removed > 0 {
					s.logger.Debug("expired booking drafts removed", zap.Int("count", removed))
				}
			}
		}
	}()
}
