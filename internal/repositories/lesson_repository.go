package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cadenzaschool/backend/internal/models"
)

type lessonRepository struct {
	db *sql.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{
		db: db,
	}
}

const lessonColumns = `id, teacher_id, student_id, start_time, end_time, status, lesson_type,
	instrument, student_message, teacher_note, proposed_start_time, proposed_end_time,
	created_at, updated_at`

// Create inserts a new lesson
func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	query := `
		INSERT INTO lessons (` + lessonColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(6), NOW(6))
	`

	_, err := r.db.ExecContext(ctx, query,
		lesson.ID,
		lesson.TeacherID,
		lesson.StudentID,
		lesson.StartTime,
		lesson.EndTime,
		lesson.Status,
		lesson.LessonType,
		lesson.Instrument,
		lesson.StudentMessage,
		lesson.TeacherNote,
		lesson.ProposedStartTime,
		lesson.ProposedEndTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	return nil
}

// GetByID retrieves a lesson by its ID
func (r *lessonRepository) GetByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE id = ?
		LIMIT 1
	`

	lesson, err := scanLesson(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lesson %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson by id: %w", err)
	}

	return lesson, nil
}

// ListForTeacherBetween retrieves a teacher's non-terminal lessons whose
// interval intersects [from, to). Terminal lessons never block the calendar.
func (r *lessonRepository) ListForTeacherBetween(ctx context.Context, teacherID int, from, to time.Time) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE teacher_id = ?
		  AND status IN (` + nonTerminalPlaceholders() + `)
		  AND start_time < ?
		  AND end_time > ?
		ORDER BY start_time
	`

	args := []any{teacherID}
	for _, s := range models.NonTerminalStatuses {
		args = append(args, s)
	}
	args = append(args, to, from)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	return collectLessons(rows)
}

// CountOverlapping counts a teacher's non-terminal lessons overlapping
// [start, end), excluding the given lesson. Used for the commit-time
// re-validation before approve and approve_reschedule.
func (r *lessonRepository) CountOverlapping(ctx context.Context, teacherID int, start, end time.Time, excludeID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lessons
		WHERE teacher_id = ?
		  AND id <> ?
		  AND status IN (` + nonTerminalPlaceholders() + `)
		  AND start_time < ?
		  AND end_time > ?
	`

	args := []any{teacherID, excludeID}
	for _, s := range models.NonTerminalStatuses {
		args = append(args, s)
	}
	args = append(args, end, start)

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count overlapping lessons: %w", err)
	}

	return count, nil
}

// ListForActor retrieves lessons where the actor is either party, optionally
// filtered by status, newest first
func (r *lessonRepository) ListForActor(ctx context.Context, actorID int, status *models.LessonStatus) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE (teacher_id = ? OR student_id = ?)
	`
	args := []any{actorID, actorID}

	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY start_time DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	return collectLessons(rows)
}

// UpdateStatus writes the outcome of a state transition: status, times,
// teacher note and the proposal pair, bumping updated_at. Terminal lessons
// are never updated again; the service guarantees that via the transition
// table.
func (r *lessonRepository) UpdateStatus(ctx context.Context, lesson *models.Lesson) error {
	query := `
		UPDATE lessons
		SET status = ?,
		    start_time = ?,
		    end_time = ?,
		    teacher_note = ?,
		    proposed_start_time = ?,
		    proposed_end_time = ?,
		    updated_at = NOW(6)
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		lesson.Status,
		lesson.StartTime,
		lesson.EndTime,
		lesson.TeacherNote,
		lesson.ProposedStartTime,
		lesson.ProposedEndTime,
		lesson.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lesson %s: %w", lesson.ID, models.ErrNotFound)
	}

	return nil
}

// nonTerminalPlaceholders returns the placeholder list for the non-terminal status set
func nonTerminalPlaceholders() string {
	return strings.TrimSuffix(strings.Repeat("?, ", len(models.NonTerminalStatuses)), ", ")
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanLesson
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(row rowScanner) (*models.Lesson, error) {
	var lesson models.Lesson
	var studentMessage, teacherNote sql.NullString
	var proposedStart, proposedEnd sql.NullTime

	err := row.Scan(
		&lesson.ID,
		&lesson.TeacherID,
		&lesson.StudentID,
		&lesson.StartTime,
		&lesson.EndTime,
		&lesson.Status,
		&lesson.LessonType,
		&lesson.Instrument,
		&studentMessage,
		&teacherNote,
		&proposedStart,
		&proposedEnd,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lesson.StudentMessage = studentMessage.String
	lesson.TeacherNote = teacherNote.String
	if proposedStart.Valid {
		lesson.ProposedStartTime = &proposedStart.Time
	}
	if proposedEnd.Valid {
		lesson.ProposedEndTime = &proposedEnd.Time
	}

	return &lesson, nil
}

func collectLessons(rows *sql.Rows) ([]models.Lesson, error) {
	var lessons []models.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, *lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}
