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

func newEntryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEntryRepositoryListBySchedule(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()

	repo := NewEntryRepository(db)
	room := "Room 1"
	rows := sqlmock.NewRows([]string{"id", "schedule_id", "subject_id", "teacher_id", "day_of_week", "start_time", "end_time", "room", "notes", "created_at"}).
		AddRow("entry-1", "sched-1", "subj-1", "teacher-1", 1, "08:00", "09:00", room, nil, time.Now()).
		AddRow("entry-2", "sched-1", "subj-2", "teacher-2", 1, "10:00", "11:00", room, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, schedule_id, subject_id, teacher_id")).
		WithArgs("sched-1").
		WillReturnRows(rows)

	entries, err := repo.ListBySchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "entry-1", entries[0].ID)
	require.Equal(t, "08:00", entries[0].StartTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()

	repo := NewEntryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ScheduleEntry{
		ScheduleID: "sched-1",
		SubjectID:  "subj-1",
		TeacherID:  "teacher-1",
		DayOfWeek:  3,
		StartTime:  "08:00",
		EndTime:    "09:00",
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryBulkCreateTransaction(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()

	repo := NewEntryRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entries := []models.ScheduleEntry{
		{ScheduleID: "sched-1", SubjectID: "subj-1", TeacherID: "teacher-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"},
		{ScheduleID: "sched-1", SubjectID: "subj-2", TeacherID: "teacher-2", DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00"},
	}
	require.NoError(t, repo.BulkCreate(context.Background(), entries))
	require.NotEmpty(t, entries[0].ID)
	require.NotEmpty(t, entries[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryBulkCreateEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()

	repo := NewEntryRepository(db)
	require.NoError(t, repo.BulkCreate(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryBulkCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()

	repo := NewEntryRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_entries")).
		WillReturnError(errors.New("duplicate key value"))
	mock.ExpectRollback()

	entries := []models.ScheduleEntry{
		{ScheduleID: "sched-1", SubjectID: "subj-1", TeacherID: "teacher-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"},
	}
	require.Error(t, repo.BulkCreate(context.Background(), entries))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newEntryRepoMock(t)
	defer cleanup()

	repo := NewEntryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_entries WHERE id = $1")).
		WithArgs("entry-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "entry-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
