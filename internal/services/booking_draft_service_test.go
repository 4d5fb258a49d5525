package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/cadenzaschool/backend/internal/models"
)

// mockSlotComputer is a mock implementation of SlotComputer
type mockSlotComputer struct {
	slots []models.Slot
	err   error
}

func (m *mockSlotComputer) ComputeSlots(ctx context.Context, teacherID int, date time.Time, durationMinutes int) ([]models.Slot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.slots, nil
}

// mockLessonRequester is a mock implementation of LessonRequester
type mockLessonRequester struct {
	lesson *models.Lesson
	err    error
	got    *models.CreateLessonRequest
}

func (m *mockLessonRequester) Request(ctx context.Context, studentID int, req *models.CreateLessonRequest) (*models.Lesson, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return m.lesson, nil
}

func freeSlotAt(t time.Time, duration time.Duration) models.Slot {
	return models.Slot{StartTime: t, EndTime: t.Add(duration), Available: true}
}

func newTestDraftService(slots *mockSlotComputer, lessons *mockLessonRequester) *bookingDraftService {
	logger, _ := zap.NewDevelopment()
	svc := NewBookingDraftService(workingTeacherRepo(), slots, lessons, 30*time.Minute, logger)
	svc.nowFn = func() time.Time { return testNow }
	svc.store.nowFn = svc.nowFn
	return svc
}

func scheduleRequest() *models.SetScheduleRequest {
	return &models.SetScheduleRequest{Date: "2026-09-02", SlotStart: "14:00", DurationMinutes: 60}
}

func detailsRequest() *models.SetDetailsRequest {
	return &models.SetDetailsRequest{LessonType: models.LessonTypeIndividual, Instrument: "violin"}
}

func TestBookingDraftService_FullFlow(t *testing.T) {
	slotStart := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	slots := &mockSlotComputer{slots: []models.Slot{freeSlotAt(slotStart, time.Hour)}}
	lessons := &mockLessonRequester{lesson: &models.Lesson{ID: "lesson-1", Status: models.StatusRequested}}
	svc := newTestDraftService(slots, lessons)

	draft := svc.Start(42)
	assert.Equal(t, models.DraftStepTeacher, draft.Step)

	draft, err := svc.SetTeacher(context.Background(), draft.ID, 42, &models.SetTeacherRequest{TeacherID: 7})
	assert.NoError(t, err)
	assert.Equal(t, models.DraftStepSchedule, draft.Step)

	draft, err = svc.SetSchedule(context.Background(), draft.ID, 42, scheduleRequest())
	assert.NoError(t, err)
	assert.Equal(t, models.DraftStepDetails, draft.Step)

	draft, err = svc.SetDetails(draft.ID, 42, detailsRequest())
	assert.NoError(t, err)
	assert.Equal(t, models.DraftStepConfirm, draft.Step)

	lesson, err := svc.Submit(context.Background(), draft.ID, 42)
	assert.NoError(t, err)
	assert.Equal(t, "lesson-1", lesson.ID)

	// The submission carries everything staged on the draft
	assert.Equal(t, 7, lessons.got.TeacherID)
	assert.Equal(t, "2026-09-02", lessons.got.Date)
	assert.Equal(t, "14:00", lessons.got.SlotStart)
	assert.Equal(t, 60, lessons.got.DurationMinutes)
	assert.Equal(t, "violin", lessons.got.Instrument)

	// The draft is gone after a successful submit
	_, err = svc.Get(draft.ID, 42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBookingDraftService_StepGating(t *testing.T) {
	svc := newTestDraftService(&mockSlotComputer{}, &mockLessonRequester{})
	draft := svc.Start(42)

	// Schedule before teacher
	_, err := svc.SetSchedule(context.Background(), draft.ID, 42, scheduleRequest())
	assert.ErrorIs(t, err, models.ErrInvalidState)

	// Details before schedule
	_, err = svc.SetDetails(draft.ID, 42, detailsRequest())
	assert.ErrorIs(t, err, models.ErrInvalidState)

	// Submit before the draft is complete
	_, err = svc.Submit(context.Background(), draft.ID, 42)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestBookingDraftService_SetSchedule_SlotValidation(t *testing.T) {
	slotStart := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		slots   *mockSlotComputer
		req     *models.SetScheduleRequest
		wantErr error
	}{
		{
			name: "slot taken",
			slots: &mockSlotComputer{slots: []models.Slot{
				{StartTime: slotStart, EndTime: slotStart.Add(time.Hour), Available: false},
			}},
			req:     scheduleRequest(),
			wantErr: models.ErrSlotConflict,
		},
		{
			name:    "slot off the grid",
			slots:   &mockSlotComputer{slots: []models.Slot{freeSlotAt(slotStart, time.Hour)}},
			req:     &models.SetScheduleRequest{Date: "2026-09-02", SlotStart: "14:07", DurationMinutes: 60},
			wantErr: models.ErrInvalidSchedule,
		},
		{
			// Same clock on a different day must not match
			name: "slot on another day",
			slots: &mockSlotComputer{slots: []models.Slot{
				freeSlotAt(slotStart.AddDate(0, 0, 1), time.Hour),
			}},
			req:     scheduleRequest(),
			wantErr: models.ErrInvalidSchedule,
		},
		{
			name:    "malformed date",
			slots:   &mockSlotComputer{},
			req:     &models.SetScheduleRequest{Date: "tomorrow", SlotStart: "14:00", DurationMinutes: 60},
			wantErr: models.ErrInvalidSchedule,
		},
		{
			name:    "malformed slot start",
			slots:   &mockSlotComputer{},
			req:     &models.SetScheduleRequest{Date: "2026-09-02", SlotStart: "2pm", DurationMinutes: 60},
			wantErr: models.ErrInvalidSchedule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestDraftService(tt.slots, &mockLessonRequester{})
			draft := svc.Start(42)
			_, err := svc.SetTeacher(context.Background(), draft.ID, 42, &models.SetTeacherRequest{TeacherID: 7})
			assert.NoError(t, err)

			_, err = svc.SetSchedule(context.Background(), draft.ID, 42, tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBookingDraftService_ChangingTeacherResetsLaterSteps(t *testing.T) {
	slotStart := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	slots := &mockSlotComputer{slots: []models.Slot{freeSlotAt(slotStart, time.Hour)}}
	svc := newTestDraftService(slots, &mockLessonRequester{})

	draft := svc.Start(42)
	_, err := svc.SetTeacher(context.Background(), draft.ID, 42, &models.SetTeacherRequest{TeacherID: 7})
	assert.NoError(t, err)
	_, err = svc.SetSchedule(context.Background(), draft.ID, 42, scheduleRequest())
	assert.NoError(t, err)

	// Picking a different teacher discards the schedule chosen for the first
	draft, err = svc.SetTeacher(context.Background(), draft.ID, 42, &models.SetTeacherRequest{TeacherID: 8})
	assert.NoError(t, err)
	assert.Equal(t, models.DraftStepSchedule, draft.Step)
	assert.Empty(t, draft.Date)
	assert.Empty(t, draft.SlotStart)
	assert.Zero(t, draft.DurationMinutes)
}

func TestBookingDraftService_OwnershipHidesForeignDrafts(t *testing.T) {
	svc := newTestDraftService(&mockSlotComputer{}, &mockLessonRequester{})
	draft := svc.Start(42)

	_, err := svc.Get(draft.ID, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.SetTeacher(context.Background(), draft.ID, 99, &models.SetTeacherRequest{TeacherID: 7})
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = svc.Abandon(draft.ID, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// The owner still sees it
	_, err = svc.Get(draft.ID, 42)
	assert.NoError(t, err)
}

func TestBookingDraftService_Abandon(t *testing.T) {
	svc := newTestDraftService(&mockSlotComputer{}, &mockLessonRequester{})
	draft := svc.Start(42)

	assert.NoError(t, svc.Abandon(draft.ID, 42))

	_, err := svc.Get(draft.ID, 42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBookingDraftService_IdleDraftsExpire(t *testing.T) {
	svc := newTestDraftService(&mockSlotComputer{}, &mockLessonRequester{})
	draft := svc.Start(42)

	// Advance the store clock past the TTL
	svc.store.nowFn = func() time.Time { return testNow.Add(31 * time.Minute) }

	_, err := svc.Get(draft.ID, 42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBookingDraftService_CleanupRemovesExpiredDrafts(t *testing.T) {
	svc := newTestDraftService(&mockSlotComputer{}, &mockLessonRequester{})
	svc.Start(42)
	svc.Start(43)

	svc.store.nowFn = func() time.Time { return testNow.Add(31 * time.Minute) }

	assert.Equal(t, 2, svc.store.cleanup())
	assert.Equal(t, 0, svc.store.cleanup())
}

func TestBookingDraftService_SubmitKeepsDraftOnConflict(t *testing.T) {
	slotStart := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	slots := &mockSlotComputer{slots: []models.Slot{freeSlotAt(slotStart, time.Hour)}}
	lessons := &mockLessonRequester{err: models.ErrSlotConflict}
	svc := newTestDraftService(slots, lessons)

	draft := svc.Start(42)
	_, err := svc.SetTeacher(context.Background(), draft.ID, 42, &models.SetTeacherRequest{TeacherID: 7})
	assert.NoError(t, err)
	_, err = svc.SetSchedule(context.Background(), draft.ID, 42, scheduleRequest())
	assert.NoError(t, err)
	_, err = svc.SetDetails(draft.ID, 42, detailsRequest())
	assert.NoError(t, err)

	_, err = svc.Submit(context.Background(), draft.ID, 42)
	assert.ErrorIs(t, err, models.ErrSlotConflict)

	// The draft survives a failed submit so the student can pick another slot
	kept, err := svc.Get(draft.ID, 42)
	assert.NoError(t, err)
	assert.Equal(t, models.DraftStepConfirm, kept.Step)
}
