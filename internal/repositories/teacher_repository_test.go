package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTeacherRepository creates a teacher repository with a mock database
func setupTeacherRepository(t *testing.T) (*teacherRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewTeacherRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestTeacherRepository_Exists(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(sqlmock.Sqlmock)
		expectedExists bool
		expectedError  bool
	}{
		{
			name: "teacher with working hours exists",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
			expectedExists: true,
		},
		{
			name: "unknown teacher",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			expectedExists: false,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs(7).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTeacherRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			exists, err := repo.Exists(context.Background(), 7)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedExists, exists)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTeacherRepository_WorkingHours(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedNil   bool
		expectedError bool
	}{
		{
			name: "teacher works that day",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"teacher_id", "weekday", "start_time", "end_time"}).
					AddRow(7, 3, "09:00", "18:00")
				mock.ExpectQuery("SELECT teacher_id, weekday, start_time, end_time").
					WithArgs(7, 3).
					WillReturnRows(rows)
			},
		},
		{
			name: "no row means a day off, not an error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT teacher_id, weekday, start_time, end_time").
					WithArgs(7, 3).
					WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "weekday", "start_time", "end_time"}))
			},
			expectedNil: true,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT teacher_id, weekday, start_time, end_time").
					WithArgs(7, 3).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTeacherRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			hours, err := repo.WorkingHours(context.Background(), 7, 3)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, hours)
			} else if tt.expectedNil {
				assert.NoError(t, err)
				assert.Nil(t, hours)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, hours)
				assert.Equal(t, 7, hours.TeacherID)
				assert.Equal(t, "09:00", hours.StartTime)
				assert.Equal(t, "18:00", hours.EndTime)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
