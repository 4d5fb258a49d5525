package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cadenzaschool/backend/internal/models"
)

// AllowedDurations are the lesson lengths a student may request, in minutes
var AllowedDurations = []int{30, 45, 60, 90}

// TeacherScheduleRepository defines methods for teacher schedule data access
type TeacherScheduleRepository interface {
	// Exists checks if the teacher is known to the school
	//
	// "ctx" is the context for the request.
	// "teacherID" is the ID of the teacher.
	//
	// Returns a boolean and an error if any.
	Exists(ctx context.Context, teacherID int) (bool, error)
	// WorkingHours retrieves the teacher's working window for a weekday
	//
	// "ctx" is the context for the request.
	// "teacherID" is the ID of the teacher.
	// "weekday" is the weekday (0 = Sunday .. 6 = Saturday).
	//
	// Returns the working hours (nil when the teacher does not work that
	// day) and an error if any.
	WorkingHours(ctx context.Context, teacherID, weekday int) (*models.WorkingHours, error)
}

// CalendarRepository defines the read side of a teacher's calendar
type CalendarRepository interface {
	// ListForTeacherBetween retrieves the teacher's non-terminal lessons
	// intersecting [from, to)
	//
	// "ctx" is the context for the request.
	// "teacherID" is the ID of the teacher.
	// "from" and "to" bound the interval.
	//
	// Returns the lessons and an error if any.
	ListForTeacherBetween(ctx context.Context, teacherID int, from, to time.Time) ([]models.Lesson, error)
}

type availabilityService struct {
	teacherRepo TeacherScheduleRepository
	lessonRepo  CalendarRepository
	horizonDays int
	stepMinutes int
	nowFn       func() time.Time
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(teacherRepo TeacherScheduleRepository, lessonRepo CalendarRepository, horizonDays, stepMinutes int) *availabilityService {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	if stepMinutes <= 0 {
		stepMinutes = 15
	}
	return &availabilityService{
		teacherRepo: teacherRepo,
		lessonRepo:  lessonRepo,
		horizonDays: horizonDays,
		stepMinutes: stepMinutes,
		nowFn:       time.Now,
	}
}

// ComputeSlots returns the ordered candidate slots of the requested duration
// for a teacher on a calendar day. Slots overlapping any non-terminal lesson
// are included but marked unavailable so the client can render them
// disabled. A day outside working hours yields an empty result, not an
// error. The computation is a pure read.
func (s *availabilityService) ComputeSlots(ctx context.Context, teacherID int, date time.Time, durationMinutes int) ([]models.Slot, error) {
	if !durationAllowed(durationMinutes) {
		return nil, fmt.Errorf("duration must be one of 30, 45, 60 or 90 minutes: %w", models.ErrInvalidSchedule)
	}

	if err := s.validateBookingDay(date); err != nil {
		return nil, err
	}

	exists, err := s.teacherRepo.Exists(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("teacher %d: %w", teacherID, models.ErrNotFound)
	}

	day := startOfDay(date)
	hours, err := s.teacherRepo.WorkingHours(ctx, teacherID, int(day.Weekday()))
	if err != nil {
		return nil, err
	}
	if hours == nil {
		// The teacher does not work that day
		return []models.Slot{}, nil
	}

	workStart, err := clockOnDay(day, hours.StartTime)
	if err != nil {
		return nil, fmt.Errorf("malformed working hours for teacher %d: %w", teacherID, err)
	}
	workEnd, err := clockOnDay(day, hours.EndTime)
	if err != nil {
		return nil, fmt.Errorf("malformed working hours for teacher %d: %w", teacherID, err)
	}

	booked, err := s.lessonRepo.ListForTeacherBetween(ctx, teacherID, workStart, workEnd)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	step := time.Duration(s.stepMinutes) * time.Minute

	var slots []models.Slot
	for cursor := workStart; !cursor.Add(duration).After(workEnd); cursor = cursor.Add(step) {
		slotStart := cursor
		slotEnd := cursor.Add(duration)

		available := true
		for i := range booked {
			if booked[i].Overlaps(slotStart, slotEnd) {
				available = false
				break
			}
		}

		slots = append(slots, models.Slot{
			StartTime: slotStart,
			EndTime:   slotEnd,
			Available: available,
		})
	}

	if slots == nil {
		slots = []models.Slot{}
	}
	return slots, nil
}

func (s *availabilityService) validateBookingDay(date time.Time) error {
	return checkBookingDay(date, s.nowFn(), s.horizonDays)
}

// checkBookingDay enforces the booking horizon: a future calendar day,
// not same-day, at most horizonDays ahead
func checkBookingDay(date, now time.Time, horizonDays int) error {
	day := startOfDay(date)
	today := startOfDay(now)

	if !day.After(today) {
		return fmt.Errorf("bookings start from tomorrow: %w", models.ErrInvalidSchedule)
	}
	if day.After(today.AddDate(0, 0, horizonDays)) {
		return fmt.Errorf("bookings open at most %d days ahead: %w", horizonDays, models.ErrInvalidSchedule)
	}

	return nil
}

func durationAllowed(minutes int) bool {
	for _, d := range AllowedDurations {
		if d == minutes {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// clockOnDay places an "HH:MM" clock string on the given calendar day
func clockOnDay(day time.Time, clock string) (time.Time, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %s", clock)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid hour in %q", clock)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid minute in %q", clock)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}
