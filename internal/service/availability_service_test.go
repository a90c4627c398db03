package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/acadplan-api/internal/dto"
	"github.com/acadplan/acadplan-api/internal/models"
)

type availabilityStoreStub struct {
	windows  map[string][]models.TeacherAvailability
	replaced [][]models.TeacherAvailability
}

func (s *availabilityStoreStub) ListByTeacher(_ context.Context, _, teacherID string) ([]models.TeacherAvailability, error) {
	return s.windows[teacherID], nil
}

func (s *availabilityStoreStub) ReplaceForTeacher(_ context.Context, _, _ string, windows []models.TeacherAvailability) error {
	s.replaced = append(s.replaced, windows)
	return nil
}

type userLookupStub struct {
	users map[string]*models.User
}

func (s *userLookupStub) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func newAvailabilityFixture() (*AvailabilityService, *availabilityStoreStub) {
	store := &availabilityStoreStub{windows: map[string][]models.TeacherAvailability{}}
	users := &userLookupStub{users: map[string]*models.User{
		"teacher-1": {ID: "teacher-1", InstitutionID: "inst-1", Role: models.RoleTeacher, Active: true},
		"admin-1":   {ID: "admin-1", InstitutionID: "inst-1", Role: models.RoleAdmin, Active: true},
	}}
	return NewAvailabilityService(store, users, nil, nil), store
}

func TestReplaceAvailabilitySwapsFullSet(t *testing.T) {
	svc, store := newAvailabilityFixture()

	windows, err := svc.Replace(context.Background(), "inst-1", "teacher-1", dto.ReplaceAvailabilityRequest{
		Windows: []dto.AvailabilityWindow{
			{DayOfWeek: 1, StartTime: "08:00", EndTime: "12:00", IsAvailable: true},
			{DayOfWeek: 3, StartTime: "13:00", EndTime: "17:00", IsAvailable: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, windows, 2)
	require.Len(t, store.replaced, 1)
	assert.Equal(t, 1, store.replaced[0][0].DayOfWeek)
}

func TestReplaceAvailabilityEmptySetClears(t *testing.T) {
	svc, store := newAvailabilityFixture()

	windows, err := svc.Replace(context.Background(), "inst-1", "teacher-1", dto.ReplaceAvailabilityRequest{})
	require.NoError(t, err)
	assert.Empty(t, windows)
	require.Len(t, store.replaced, 1)
	assert.Empty(t, store.replaced[0])
}

func TestReplaceAvailabilityRejectsInvertedWindow(t *testing.T) {
	svc, store := newAvailabilityFixture()

	_, err := svc.Replace(context.Background(), "inst-1", "teacher-1", dto.ReplaceAvailabilityRequest{
		Windows: []dto.AvailabilityWindow{
			{DayOfWeek: 1, StartTime: "12:00", EndTime: "08:00", IsAvailable: true},
		},
	})
	require.Error(t, err)
	assert.Empty(t, store.replaced)
}

func TestReplaceAvailabilityRejectsBadDay(t *testing.T) {
	svc, store := newAvailabilityFixture()

	_, err := svc.Replace(context.Background(), "inst-1", "teacher-1", dto.ReplaceAvailabilityRequest{
		Windows: []dto.AvailabilityWindow{
			{DayOfWeek: 8, StartTime: "08:00", EndTime: "12:00", IsAvailable: true},
		},
	})
	require.Error(t, err)
	assert.Empty(t, store.replaced)
}

func TestReplaceAvailabilityRejectsNonTeacher(t *testing.T) {
	svc, store := newAvailabilityFixture()

	_, err := svc.Replace(context.Background(), "inst-1", "admin-1", dto.ReplaceAvailabilityRequest{
		Windows: []dto.AvailabilityWindow{
			{DayOfWeek: 1, StartTime: "08:00", EndTime: "12:00", IsAvailable: true},
		},
	})
	require.Error(t, err)
	assert.Empty(t, store.replaced)
}

func TestListAvailabilityUnknownTeacher(t *testing.T) {
	svc, _ := newAvailabilityFixture()

	_, err := svc.List(context.Background(), "inst-1", "ghost")
	require.Error(t, err)
}
