package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cadenzaschool/backend/internal/models"
)

type teacherRepository struct {
	db *sql.DB
}

// NewTeacherRepository creates a new teacher repository
func NewTeacherRepository(db *sql.DB) *teacherRepository {
	return &teacherRepository{
		db: db,
	}
}

// Exists checks if any working hours are registered for the teacher
func (r *teacherRepository) Exists(ctx context.Context, teacherID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM teacher_working_hours WHERE teacher_id = ?
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, teacherID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check teacher existence: %w", err)
	}

	return exists, nil
}

// WorkingHours retrieves the teacher's working window for a weekday.
// Returns nil without error when the teacher does not work that day.
func (r *teacherRepository) WorkingHours(ctx context.Context, teacherID, weekday int) (*models.WorkingHours, error) {
	query := `
		SELECT teacher_id, weekday, start_time, end_time
		FROM teacher_working_hours
		WHERE teacher_id = ? AND weekday = ?
		LIMIT 1
	`

	var wh models.WorkingHours
	err := r.db.QueryRowContext(ctx, query, teacherID, weekday).Scan(
		&wh.TeacherID,
		&wh.Weekday,
		&wh.StartTime,
		&wh.EndTime,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get working hours: %w", err)
	}

	return &wh, nil
}
