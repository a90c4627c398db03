package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/acadplan-api/internal/models"
)

func newSubjectRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubjectRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()

	repo := NewSubjectRepository(db)
	rows := sqlmock.NewRows([]string{"id", "institution_id", "course_id", "name", "hours_per_week", "active", "created_at", "updated_at"}).
		AddRow("subj-1", "inst-1", "course-1", "Mathematics", 4, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, course_id, name")).
		WithArgs("inst-1", "course-1", true).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("inst-1", "course-1", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	active := true
	subjects, total, err := repo.List(context.Background(), models.SubjectFilter{
		InstitutionID: "inst-1",
		CourseID:      "course-1",
		Active:        &active,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, subjects, 1)
	require.Equal(t, "Mathematics", subjects[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListActiveByInstitutionOrdering(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()

	repo := NewSubjectRepository(db)
	rows := sqlmock.NewRows([]string{"id", "institution_id", "course_id", "name", "hours_per_week", "active", "created_at", "updated_at"}).
		AddRow("subj-1", "inst-1", "course-1", "Mathematics", 4, true, time.Now(), time.Now()).
		AddRow("subj-2", "inst-1", "course-1", "Physics", 3, true, time.Now(), time.Now()).
		AddRow("subj-3", "inst-1", "course-2", "History", 2, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("JOIN courses c ON c.id = s.course_id")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	subjects, err := repo.ListActiveByInstitution(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, subjects, 3)
	require.Equal(t, "subj-1", subjects[0].ID)
	require.Equal(t, "subj-3", subjects[2].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()

	repo := NewSubjectRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subjects")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	subject := &models.Subject{
		InstitutionID: "inst-1",
		CourseID:      "course-1",
		Name:          "Chemistry",
		HoursPerWeek:  3,
		Active:        true,
	}
	require.NoError(t, repo.Create(context.Background(), subject))
	require.NotEmpty(t, subject.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
