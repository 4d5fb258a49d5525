package models

import "time"

// Slot is a candidate time interval of the requested duration within a
// teacher's working hours. Unavailable slots are kept in the list so the
// client can render them disabled.
type Slot struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Available bool      `json:"available"`
}

// WorkingHours describes a teacher's bookable window for one weekday.
// Times are "HH:MM" in the school's timezone.
type WorkingHours struct {
	TeacherID int    `json:"teacherId"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}
