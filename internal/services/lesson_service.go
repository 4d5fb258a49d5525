package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cadenzaschool/backend/internal/metrics"
	"github.com/cadenzaschool/backend/internal/models"
	"github.com/cadenzaschool/backend/internal/notifications"
)

// LessonRepository defines methods for lesson data access
type LessonRepository interface {
	// Create inserts a new lesson
	//
	// "ctx" is the context for the request.
	// "lesson" is the lesson to create.
	//
	// Returns an error if any.
	Create(ctx context.Context, lesson *models.Lesson) error
	// GetByID retrieves a lesson by ID
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the lesson.
	//
	// Returns the lesson and an error if any.
	GetByID(ctx context.Context, id string) (*models.Lesson, error)
	// CountOverlapping counts the teacher's non-terminal lessons
	// overlapping [start, end), excluding the given lesson ID
	//
	// "ctx" is the context for the request.
	// "teacherID" is the ID of the teacher.
	// "start" and "end" bound the interval.
	// "excludeID" is a lesson ID to leave out of the count (may be empty).
	//
	// Returns the count and an error if any.
	CountOverlapping(ctx context.Context, teacherID int, start, end time.Time, excludeID string) (int, error)
	// ListForActor retrieves lessons where the actor is either party,
	// optionally filtered by status
	//
	// "ctx" is the context for the request.
	// "actorID" is the ID of the actor.
	// "status" is an optional status filter.
	//
	// Returns the lessons and an error if any.
	ListForActor(ctx context.Context, actorID int, status *models.LessonStatus) ([]models.Lesson, error)
	// UpdateStatus persists the outcome of a state transition
	//
	// "ctx" is the context for the request.
	// "lesson" is the lesson carrying the new status, times, note and
	// proposal fields.
	//
	// Returns an error if any.
	UpdateStatus(ctx context.Context, lesson *models.Lesson) error
}

type lessonService struct {
	lessonRepo  LessonRepository
	teacherRepo TeacherScheduleRepository
	bus         *notifications.Bus
	logger      *zap.Logger
	horizonDays int
	nowFn       func() time.Time
}

// NewLessonService creates a new lesson service
func NewLessonService(lessonRepo LessonRepository, teacherRepo TeacherScheduleRepository, bus *notifications.Bus, logger *zap.Logger, horizonDays int) *lessonService {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	return &lessonService{
		lessonRepo:  lessonRepo,
		teacherRepo: teacherRepo,
		bus:         bus,
		logger:      logger,
		horizonDays: horizonDays,
		nowFn:       time.Now,
	}
}

// Request creates a lesson in the requested state on behalf of a student.
// The slot is checked for overlap against the teacher's non-terminal
// lessons at submission time; a stale client that slips past this check is
// still caught by the commit-time re-validation on approve.
func (s *lessonService) Request(ctx context.Context, studentID int, req *models.CreateLessonRequest) (*models.Lesson, error) {
	start, end, err := s.validateCreate(ctx, req)
	if err != nil {
		return nil, err
	}

	count, err := s.lessonRepo.CountOverlapping(ctx, req.TeacherID, start, end, "")
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("this slot was just taken, please choose another: %w", models.ErrSlotConflict)
	}

	now := s.nowFn()
	lesson := &models.Lesson{
		ID:             uuid.New().String(),
		TeacherID:      req.TeacherID,
		StudentID:      studentID,
		StartTime:      start,
		EndTime:        end,
		Status:         models.StatusRequested,
		LessonType:     req.LessonType,
		Instrument:     req.Instrument,
		StudentMessage: req.Message,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		return nil, err
	}

	metrics.IncLessonCreated()
	s.logger.Info("lesson requested",
		zap.String("lesson_id", lesson.ID),
		zap.Int("teacher_id", lesson.TeacherID),
		zap.Int("student_id", lesson.StudentID),
		zap.Time("start_time", lesson.StartTime),
	)

	s.publish(lesson, "lesson.requested", studentID, lesson.TeacherID,
		fmt.Sprintf("New %s lesson request for %s", lesson.LessonType, lesson.StartTime.Format("Mon, 02 Jan 15:04")))

	return lesson, nil
}

// validateCreate checks the booking submission and resolves its interval
func (s *lessonService) validateCreate(ctx context.Context, req *models.CreateLessonRequest) (time.Time, time.Time, error) {
	var zero time.Time

	if req.TeacherID <= 0 {
		return zero, zero, fmt.Errorf("teacher is required: %w", models.ErrInvalidSchedule)
	}
	if !req.LessonType.Valid() {
		return zero, zero, fmt.Errorf("lesson type must be individual or group: %w", models.ErrInvalidSchedule)
	}
	if req.Instrument == "" {
		return zero, zero, fmt.Errorf("instrument is required: %w", models.ErrInvalidSchedule)
	}
	if !durationAllowed(req.DurationMinutes) {
		return zero, zero, fmt.Errorf("duration must be one of 30, 45, 60 or 90 minutes: %w", models.ErrInvalidSchedule)
	}

	day, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return zero, zero, fmt.Errorf("invalid date %q: %w", req.Date, models.ErrInvalidSchedule)
	}
	if err := checkBookingDay(day, s.nowFn(), s.horizonDays); err != nil {
		return zero, zero, err
	}

	start, err := clockOnDay(day, req.SlotStart)
	if err != nil {
		return zero, zero, fmt.Errorf("invalid slot start %q: %w", req.SlotStart, models.ErrInvalidSchedule)
	}
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)

	exists, err := s.teacherRepo.Exists(ctx, req.TeacherID)
	if err != nil {
		return zero, zero, err
	}
	if !exists {
		return zero, zero, fmt.Errorf("teacher %d: %w", req.TeacherID, models.ErrNotFound)
	}

	// The slot must fall inside the teacher's working hours for that day
	hours, err := s.teacherRepo.WorkingHours(ctx, req.TeacherID, int(day.Weekday()))
	if err != nil {
		return zero, zero, err
	}
	if hours == nil {
		return zero, zero, fmt.Errorf("teacher does not work on %s: %w", day.Weekday(), models.ErrInvalidSchedule)
	}
	workStart, err := clockOnDay(day, hours.StartTime)
	if err != nil {
		return zero, zero, err
	}
	workEnd, err := clockOnDay(day, hours.EndTime)
	if err != nil {
		return zero, zero, err
	}
	if start.Before(workStart) || end.After(workEnd) {
		return zero, zero, fmt.Errorf("slot is outside the teacher's working hours: %w", models.ErrInvalidSchedule)
	}

	return start, end, nil
}

// Transition applies a move of the lesson state machine on behalf of an
// actor. All validation happens before anything is written: an illegal,
// unauthorized or conflicting move leaves the lesson unchanged and
// produces no notification.
func (s *lessonService) Transition(ctx context.Context, actor models.Actor, lessonID string, move models.Move, params models.TransitionParams) (*models.Lesson, error) {
	rule, ok := move.RuleFor()
	if !ok {
		return nil, fmt.Errorf("unknown move %q: %w", move, models.ErrInvalidState)
	}

	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	// Non-participants may not even learn the lesson exists
	if !lesson.IsParticipant(actor.ID) {
		return nil, fmt.Errorf("lesson %s: %w", lessonID, models.ErrNotFound)
	}

	if lesson.Status != rule.From {
		metrics.IncTransition(string(move), "invalid_state")
		return nil, fmt.Errorf("%s is not allowed while the lesson is %s: %w", move, lesson.Status, models.ErrInvalidState)
	}

	if !rule.AllowsRole(actor.Role) || !actorOnOwnSide(actor, lesson) {
		metrics.IncTransition(string(move), "unauthorized")
		return nil, fmt.Errorf("%s may not %s this lesson: %w", actor.Role, move, models.ErrUnauthorizedTransition)
	}

	updated := *lesson
	now := s.nowFn()

	switch move {
	case models.MoveApprove:
		if err := s.ensureSlotFree(ctx, &updated, updated.StartTime, updated.EndTime); err != nil {
			metrics.IncTransition(string(move), "slot_conflict")
			return nil, err
		}

	case models.MoveReject:
		updated.TeacherNote = params.Reason

	case models.MoveProposeAlternative:
		if !params.NewStart.Before(params.NewEnd) {
			return nil, fmt.Errorf("proposed start must be before proposed end: %w", models.ErrInvalidSchedule)
		}
		if !params.NewStart.After(now) {
			return nil, fmt.Errorf("proposed start must be in the future: %w", models.ErrInvalidSchedule)
		}
		newStart, newEnd := params.NewStart, params.NewEnd
		updated.ProposedStartTime = &newStart
		updated.ProposedEndTime = &newEnd
		updated.TeacherNote = params.Message

	case models.MoveApproveReschedule:
		if !lesson.HasProposal() {
			return nil, fmt.Errorf("no pending proposal on lesson %s: %w", lessonID, models.ErrInvalidState)
		}
		if err := s.ensureSlotFree(ctx, &updated, *lesson.ProposedStartTime, *lesson.ProposedEndTime); err != nil {
			metrics.IncTransition(string(move), "slot_conflict")
			return nil, err
		}
		// The proposed times replace the originals and the proposal is cleared
		updated.StartTime = *lesson.ProposedStartTime
		updated.EndTime = *lesson.ProposedEndTime
		updated.ProposedStartTime = nil
		updated.ProposedEndTime = nil

	case models.MoveRejectReschedule:
		updated.ProposedStartTime = nil
		updated.ProposedEndTime = nil

	case models.MoveComplete:
		// No temporal precondition: the teacher decides when a lesson counts as given

	case models.MoveNoShow:
		if now.Before(lesson.StartTime) {
			return nil, fmt.Errorf("cannot mark a no-show before the lesson starts: %w", models.ErrInvalidSchedule)
		}

	case models.MoveCancel:
		if !now.Before(lesson.StartTime) {
			return nil, fmt.Errorf("cannot cancel after the lesson has started: %w", models.ErrInvalidSchedule)
		}
	}

	updated.Status = rule.To
	updated.UpdatedAt = now

	if err := s.lessonRepo.UpdateStatus(ctx, &updated); err != nil {
		return nil, err
	}

	metrics.IncTransition(string(move), "applied")
	s.logger.Info("lesson transition",
		zap.String("lesson_id", updated.ID),
		zap.String("move", string(move)),
		zap.String("from", string(rule.From)),
		zap.String("to", string(updated.Status)),
		zap.Int("actor_id", actor.ID),
		zap.String("actor_role", actor.Role.String()),
	)

	s.publish(&updated, "lesson."+string(move), actor.ID, updated.CounterpartID(actor.ID), transitionMessage(move, &updated, params))

	return &updated, nil
}

// Get retrieves a lesson visible to the actor
func (s *lessonService) Get(ctx context.Context, actor models.Actor, lessonID string) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if !lesson.IsParticipant(actor.ID) {
		return nil, fmt.Errorf("lesson %s: %w", lessonID, models.ErrNotFound)
	}
	return lesson, nil
}

// ListForActor retrieves the actor's lessons, optionally filtered by status
func (s *lessonService) ListForActor(ctx context.Context, actor models.Actor, status *models.LessonStatus) ([]models.Lesson, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", *status, models.ErrInvalidState)
	}
	return s.lessonRepo.ListForActor(ctx, actor.ID, status)
}

// ListPending retrieves the lessons whose negotiation turn is the actor's:
// requested lessons for a teacher, pending counter-proposals for a student
func (s *lessonService) ListPending(ctx context.Context, actor models.Actor) ([]models.Lesson, error) {
	var status models.LessonStatus
	switch actor.Role {
	case models.RoleTeacher:
		status = models.StatusRequested
	case models.RoleStudent:
		status = models.StatusPendingStudentApproval
	default:
		return []models.Lesson{}, nil
	}

	return s.lessonRepo.ListForActor(ctx, actor.ID, &status)
}

// ensureSlotFree re-checks overlap against the teacher's current
// non-terminal lessons at commit time. Two racing approvals for
// overlapping times are resolved last-committed-wins; the loser gets a
// slot conflict and the lesson stays untouched for manual resolution.
func (s *lessonService) ensureSlotFree(ctx context.Context, lesson *models.Lesson, start, end time.Time) error {
	count, err := s.lessonRepo.CountOverlapping(ctx, lesson.TeacherID, start, end, lesson.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("this slot was just taken, please choose another: %w", models.ErrSlotConflict)
	}
	return nil
}

func (s *lessonService) publish(lesson *models.Lesson, eventType string, actorID, recipientID int, message string) {
	metrics.IncNotificationPublished()
	s.bus.Publish(notifications.Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		LessonID:    lesson.ID,
		RecipientID: recipientID,
		ActorID:     actorID,
		Message:     message,
		CreatedAt:   s.nowFn(),
	})
}

// actorOnOwnSide checks that the actor's role matches their side of the lesson
func actorOnOwnSide(actor models.Actor, lesson *models.Lesson) bool {
	switch actor.Role {
	case models.RoleTeacher:
		return lesson.TeacherID == actor.ID
	case models.RoleStudent:
		return lesson.StudentID == actor.ID
	}
	return false
}

// transitionMessage builds the user-visible notification text for a move
func transitionMessage(move models.Move, lesson *models.Lesson, params models.TransitionParams) string {
	when := lesson.StartTime.Format("Mon, 02 Jan 15:04")

	switch move {
	case models.MoveApprove:
		return fmt.Sprintf("Your lesson on %s was approved", when)
	case models.MoveReject:
		if params.Reason != "" {
			return fmt.Sprintf("Your lesson request was declined: %s", params.Reason)
		}
		return "Your lesson request was declined"
	case models.MoveProposeAlternative:
		return fmt.Sprintf("Your teacher proposed a new time: %s", lesson.ProposedStartTime.Format("Mon, 02 Jan 15:04"))
	case models.MoveApproveReschedule:
		return fmt.Sprintf("The new time was accepted, lesson scheduled for %s", when)
	case models.MoveRejectReschedule:
		if params.Reason != "" {
			return fmt.Sprintf("The proposed time was declined, lesson cancelled: %s", params.Reason)
		}
		return "The proposed time was declined, lesson cancelled"
	case models.MoveComplete:
		return fmt.Sprintf("Your lesson on %s was marked completed", when)
	case models.MoveNoShow:
		return fmt.Sprintf("Your lesson on %s was marked as a no-show", when)
	case models.MoveCancel:
		if params.Reason != "" {
			return fmt.Sprintf("The lesson on %s was cancelled: %s", when, params.Reason)
		}
		return fmt.Sprintf("The lesson on %s was cancelled", when)
	}

	return "Your lesson was updated"
}
