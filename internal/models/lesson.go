package models

import "time"

// LessonStatus represents the authoritative status of a lesson request
type LessonStatus string

const (
	StatusRequested              LessonStatus = "requested"
	StatusScheduled              LessonStatus = "scheduled"
	StatusPendingStudentApproval LessonStatus = "pending_student_approval"
	StatusCompleted              LessonStatus = "completed"
	StatusCancelled              LessonStatus = "cancelled"
	StatusRejected               LessonStatus = "rejected"
	StatusNoShow                 LessonStatus = "no_show"
)

// NonTerminalStatuses lists every status that still blocks the teacher's calendar
var NonTerminalStatuses = []LessonStatus{
	StatusRequested,
	StatusScheduled,
	StatusPendingStudentApproval,
}

// Terminal reports whether no further transition is permitted from the status
func (s LessonStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected, StatusNoShow:
		return true
	}
	return false
}

// Valid reports whether the status is a known lesson status
func (s LessonStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusScheduled, StatusPendingStudentApproval,
		StatusCompleted, StatusCancelled, StatusRejected, StatusNoShow:
		return true
	}
	return false
}

// PendingFor returns which side of the negotiation is expected to act next
func (s LessonStatus) PendingFor() Role {
	switch s {
	case StatusRequested:
		return RoleTeacher
	case StatusPendingStudentApproval:
		return RoleStudent
	}
	return RoleNone
}

// LessonType represents the format of a lesson
type LessonType string

const (
	LessonTypeIndividual LessonType = "individual"
	LessonTypeGroup      LessonType = "group"
)

// Valid reports whether the lesson type is known
func (t LessonType) Valid() bool {
	return t == LessonTypeIndividual || t == LessonTypeGroup
}

// Role identifies which side of a lesson negotiation an actor is on
type Role int

const (
	RoleNone    Role = 0
	RoleStudent Role = 1
	RoleTeacher Role = 2
	RoleAdmin   Role = 3
)

// String returns the lowercase name of the role
func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleTeacher:
		return "teacher"
	case RoleAdmin:
		return "admin"
	}
	return "none"
}

// Actor is a teacher or student participating in a lesson negotiation
type Actor struct {
	ID   int
	Role Role
}

// Lesson is the central booking entity negotiated between a student and a teacher
type Lesson struct {
	ID                string       `json:"id"`
	TeacherID         int          `json:"teacherId"`
	StudentID         int          `json:"studentId"`
	StartTime         time.Time    `json:"startTime"`
	EndTime           time.Time    `json:"endTime"`
	Status            LessonStatus `json:"status"`
	LessonType        LessonType   `json:"lessonType"`
	Instrument        string       `json:"instrument"`
	StudentMessage    string       `json:"studentMessage,omitempty"`
	TeacherNote       string       `json:"teacherNote,omitempty"`
	ProposedStartTime *time.Time   `json:"proposedStartTime,omitempty"`
	ProposedEndTime   *time.Time   `json:"proposedEndTime,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// HasProposal reports whether a counter-proposal is pending on the lesson.
// The proposal fields are a pair: either both are set or both are nil.
func (l *Lesson) HasProposal() bool {
	return l.ProposedStartTime != nil && l.ProposedEndTime != nil
}

// IsParticipant reports whether the actor is one of the two parties of the lesson
func (l *Lesson) IsParticipant(actorID int) bool {
	return l.TeacherID == actorID || l.StudentID == actorID
}

// CounterpartID returns the ID of the other party for a given actor
func (l *Lesson) CounterpartID(actorID int) int {
	if l.TeacherID == actorID {
		return l.StudentID
	}
	return l.TeacherID
}

// Overlaps reports whether the lesson's [start, end) interval intersects the given one
func (l *Lesson) Overlaps(start, end time.Time) bool {
	return l.StartTime.Before(end) && start.Before(l.EndTime)
}
