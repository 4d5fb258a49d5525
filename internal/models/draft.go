package models

import "time"

// DraftStep represents the current step of the booking request builder
type DraftStep string

const (
	DraftStepTeacher  DraftStep = "teacher"  // choose a teacher
	DraftStepSchedule DraftStep = "schedule" // choose date, duration and slot
	DraftStepDetails  DraftStep = "details"  // lesson type and message
	DraftStepConfirm  DraftStep = "confirm"  // ready to submit
)

// draftStepRank orders the builder steps for forward-navigation gating
var draftStepRank = map[DraftStep]int{
	DraftStepTeacher:  0,
	DraftStepSchedule: 1,
	DraftStepDetails:  2,
	DraftStepConfirm:  3,
}

// Reached reports whether the step is at or past the required one
func (s DraftStep) Reached(required DraftStep) bool {
	return draftStepRank[s] >= draftStepRank[required]
}

// BookingDraft is the staged state of a booking request under construction.
// Drafts live only in memory; abandoning one leaves no server-side trace.
type BookingDraft struct {
	ID              string     `json:"id"`
	StudentID       int        `json:"-"`
	Step            DraftStep  `json:"step"`
	TeacherID       int        `json:"teacherId,omitempty"`
	Date            string     `json:"date,omitempty"`
	SlotStart       string     `json:"slotStart,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	LessonType      LessonType `json:"lessonType,omitempty"`
	Instrument      string     `json:"instrument,omitempty"`
	Message         string     `json:"message,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
