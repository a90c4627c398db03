package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/acadplan-api/internal/models"
)

func newAvailabilityRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAvailabilityRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "institution_id", "day_of_week", "start_time", "end_time", "is_available", "notes", "created_at"}).
		AddRow("avail-1", "teacher-1", "inst-1", 1, "08:00", "12:00", true, nil, time.Now()).
		AddRow("avail-2", "teacher-1", "inst-1", 2, "13:00", "17:00", true, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, institution_id, day_of_week")).
		WithArgs("inst-1", "teacher-1").
		WillReturnRows(rows)

	windows, err := repo.ListByTeacher(context.Background(), "inst-1", "teacher-1")
	require.NoError(t, err)
	require.Len(t, windows, 2)
	require.Equal(t, 1, windows[0].DayOfWeek)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceForTeacher(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_availability")).
		WithArgs("inst-1", "teacher-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teacher_availability")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teacher_availability")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	windows := []models.TeacherAvailability{
		{DayOfWeek: 1, StartTime: "08:00", EndTime: "12:00", IsAvailable: true},
		{DayOfWeek: 3, StartTime: "09:00", EndTime: "11:00", IsAvailable: true},
	}
	require.NoError(t, repo.ReplaceForTeacher(context.Background(), "inst-1", "teacher-1", windows))
	require.NotEmpty(t, windows[0].ID)
	require.Equal(t, "inst-1", windows[0].InstitutionID)
	require.Equal(t, "teacher-1", windows[1].TeacherID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceWithEmptySetClearsAll(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_availability")).
		WithArgs("inst-1", "teacher-1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceForTeacher(context.Background(), "inst-1", "teacher-1", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_availability")).
		WithArgs("inst-1", "teacher-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teacher_availability")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	windows := []models.TeacherAvailability{
		{DayOfWeek: 1, StartTime: "08:00", EndTime: "12:00", IsAvailable: true},
	}
	require.Error(t, repo.ReplaceForTeacher(context.Background(), "inst-1", "teacher-1", windows))
	require.NoError(t, mock.ExpectationsWereMet())
}
