package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLessonStatus_Terminal(t *testing.T) {
	tests := []struct {
		name     string
		status   LessonStatus
		terminal bool
	}{
		{name: "requested is not terminal", status: StatusRequested, terminal: false},
		{name: "scheduled is not terminal", status: StatusScheduled, terminal: false},
		{name: "pending student approval is not terminal", status: StatusPendingStudentApproval, terminal: false},
		{name: "completed is terminal", status: StatusCompleted, terminal: true},
		{name: "cancelled is terminal", status: StatusCancelled, terminal: true},
		{name: "rejected is terminal", status: StatusRejected, terminal: true},
		{name: "no show is terminal", status: StatusNoShow, terminal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
}

func TestLessonStatus_PendingFor(t *testing.T) {
	assert.Equal(t, RoleTeacher, StatusRequested.PendingFor())
	assert.Equal(t, RoleStudent, StatusPendingStudentApproval.PendingFor())
	assert.Equal(t, RoleNone, StatusScheduled.PendingFor())
	assert.Equal(t, RoleNone, StatusCompleted.PendingFor())
}

func TestMove_RuleFor(t *testing.T) {
	tests := []struct {
		name     string
		move     Move
		found    bool
		from     LessonStatus
		to       LessonStatus
		allowed  Role
		rejected Role
	}{
		{
			name:  "approve goes requested to scheduled",
			move:  MoveApprove,
			found: true, from: StatusRequested, to: StatusScheduled,
			allowed: RoleTeacher, rejected: RoleStudent,
		},
		{
			name:  "reject goes requested to rejected",
			move:  MoveReject,
			found: true, from: StatusRequested, to: StatusRejected,
			allowed: RoleTeacher, rejected: RoleStudent,
		},
		{
			name:  "propose goes requested to pending student approval",
			move:  MoveProposeAlternative,
			found: true, from: StatusRequested, to: StatusPendingStudentApproval,
			allowed: RoleTeacher, rejected: RoleStudent,
		},
		{
			name:  "approve reschedule goes pending to scheduled",
			move:  MoveApproveReschedule,
			found: true, from: StatusPendingStudentApproval, to: StatusScheduled,
			allowed: RoleStudent, rejected: RoleTeacher,
		},
		{
			name:  "reject reschedule goes pending to cancelled",
			move:  MoveRejectReschedule,
			found: true, from: StatusPendingStudentApproval, to: StatusCancelled,
			allowed: RoleStudent, rejected: RoleTeacher,
		},
		{
			name:  "complete goes scheduled to completed",
			move:  MoveComplete,
			found: true, from: StatusScheduled, to: StatusCompleted,
			allowed: RoleTeacher, rejected: RoleStudent,
		},
		{
			name:  "no show goes scheduled to no show",
			move:  MoveNoShow,
			found: true, from: StatusScheduled, to: StatusNoShow,
			allowed: RoleTeacher, rejected: RoleStudent,
		},
		{
			name:  "unknown move has no rule",
			move:  Move("teleport"),
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := tt.move.RuleFor()
			assert.Equal(t, tt.found, ok)
			if !tt.found {
				return
			}
			assert.Equal(t, tt.from, rule.From)
			assert.Equal(t, tt.to, rule.To)
			assert.True(t, rule.AllowsRole(tt.allowed))
			assert.False(t, rule.AllowsRole(tt.rejected))
		})
	}
}

func TestMoveCancel_AllowsBothParties(t *testing.T) {
	rule, ok := MoveCancel.RuleFor()

	assert.True(t, ok)
	assert.Equal(t, StatusScheduled, rule.From)
	assert.Equal(t, StatusCancelled, rule.To)
	assert.True(t, rule.AllowsRole(RoleTeacher))
	assert.True(t, rule.AllowsRole(RoleStudent))
	assert.False(t, rule.AllowsRole(RoleAdmin))
}

func TestTransitionRules_NeverLeaveTerminalStates(t *testing.T) {
	for move, rule := range transitionRules {
		assert.False(t, rule.From.Terminal(), "move %s starts from terminal status %s", move, rule.From)
	}
}

func TestLesson_HasProposal(t *testing.T) {
	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	lesson := &Lesson{}
	assert.False(t, lesson.HasProposal())

	lesson.ProposedStartTime = &start
	lesson.ProposedEndTime = &end
	assert.True(t, lesson.HasProposal())

	lesson.ProposedStartTime = nil
	lesson.ProposedEndTime = nil
	assert.False(t, lesson.HasProposal())
}

func TestLesson_Participants(t *testing.T) {
	lesson := &Lesson{TeacherID: 7, StudentID: 42}

	assert.True(t, lesson.IsParticipant(7))
	assert.True(t, lesson.IsParticipant(42))
	assert.False(t, lesson.IsParticipant(99))

	assert.Equal(t, 42, lesson.CounterpartID(7))
	assert.Equal(t, 7, lesson.CounterpartID(42))
}

func TestLesson_Overlaps(t *testing.T) {
	base := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	lesson := &Lesson{StartTime: base, EndTime: base.Add(time.Hour)}

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		overlaps bool
	}{
		{name: "identical interval", start: base, end: base.Add(time.Hour), overlaps: true},
		{name: "starts inside", start: base.Add(30 * time.Minute), end: base.Add(90 * time.Minute), overlaps: true},
		{name: "ends inside", start: base.Add(-30 * time.Minute), end: base.Add(30 * time.Minute), overlaps: true},
		{name: "contains lesson", start: base.Add(-time.Hour), end: base.Add(2 * time.Hour), overlaps: true},
		{name: "touching before does not overlap", start: base.Add(-time.Hour), end: base, overlaps: false},
		{name: "touching after does not overlap", start: base.Add(time.Hour), end: base.Add(2 * time.Hour), overlaps: false},
		{name: "fully before", start: base.Add(-2 * time.Hour), end: base.Add(-time.Hour), overlaps: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, lesson.Overlaps(tt.start, tt.end))
		})
	}
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "student", RoleStudent.String())
	assert.Equal(t, "teacher", RoleTeacher.String())
	assert.Equal(t, "admin", RoleAdmin.String())
	assert.Equal(t, "none", RoleNone.String())
}

func TestLessonType_Valid(t *testing.T) {
	assert.True(t, LessonTypeIndividual.Valid())
	assert.True(t, LessonTypeGroup.Valid())
	assert.False(t, LessonType("masterclass").Valid())
	assert.False(t, LessonType("").Valid())
}

func TestDraftStep_Reached(t *testing.T) {
	assert.True(t, DraftStepConfirm.Reached(DraftStepTeacher))
	assert.True(t, DraftStepSchedule.Reached(DraftStepSchedule))
	assert.False(t, DraftStepTeacher.Reached(DraftStepSchedule))
	assert.False(t, DraftStepDetails.Reached(DraftStepConfirm))
}
