package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/acadplan-api/internal/models"
)

func newConflictRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestConflictRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newConflictRepoMock(t)
	defer cleanup()

	repo := NewConflictRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_conflicts")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	resolvedBy := "user-1"
	resolvedAt := time.Now().UTC()
	record := &models.ScheduleConflict{
		ScheduleID:   "sched-1",
		ConflictType: models.ConflictTeacherDoubleBooking,
		Description:  "Teacher teacher-1 booked twice on Monday 08:00",
		EntryIDs:     pq.StringArray{"entry-1", "entry-2"},
		IsResolved:   true,
		ResolvedBy:   &resolvedBy,
		ResolvedAt:   &resolvedAt,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	require.NotEmpty(t, record.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictRepositoryListBySchedule(t *testing.T) {
	db, mock, cleanup := newConflictRepoMock(t)
	defer cleanup()

	repo := NewConflictRepository(db)
	rows := sqlmock.NewRows([]string{"id", "schedule_id", "conflict_type", "description", "entry_ids", "is_resolved", "resolved_by", "resolved_at", "created_at"}).
		AddRow("conf-1", "sched-1", "room_double_booking", "Room 1 booked twice", pq.StringArray{"entry-1", "entry-2"}, true, "user-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, schedule_id, conflict_type, description")).
		WithArgs("sched-1").
		WillReturnRows(rows)

	records, err := repo.ListBySchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, models.ConflictRoomDoubleBooking, records[0].ConflictType)
	require.True(t, records[0].IsResolved)
	require.NoError(t, mock.ExpectationsWereMet())
}
