package models

import "time"

// CreateLessonRequest represents a student's booking submission
type CreateLessonRequest struct {
	TeacherID       int        `json:"teacherId"`
	Date            string     `json:"date"`      // "2006-01-02"
	SlotStart       string     `json:"slotStart"` // "15:04"
	DurationMinutes int        `json:"durationMinutes"`
	LessonType      LessonType `json:"lessonType"`
	Instrument      string     `json:"instrument"`
	Message         string     `json:"message,omitempty"`
}

// TransitionParams carries the optional payload of a transition call
type TransitionParams struct {
	Reason   string    `json:"reason,omitempty"`
	NewStart time.Time `json:"newStart,omitempty"`
	NewEnd   time.Time `json:"newEnd,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// SetTeacherRequest sets the teacher on a booking draft
type SetTeacherRequest struct {
	TeacherID int `json:"teacherId"`
}

// SetScheduleRequest sets date, duration and slot on a booking draft
type SetScheduleRequest struct {
	Date            string `json:"date"`      // "2006-01-02"
	SlotStart       string `json:"slotStart"` // "15:04"
	DurationMinutes int    `json:"durationMinutes"`
}

// SetDetailsRequest sets lesson type, instrument and message on a booking draft
type SetDetailsRequest struct {
	LessonType LessonType `json:"lessonType"`
	Instrument string     `json:"instrument"`
	Message    string     `json:"message,omitempty"`
}
