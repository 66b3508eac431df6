package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type mockSelectionRepo struct {
	counts   map[string]int
	enrolled map[string]bool
	details  map[string]models.ClubMember
	created  []models.ClubSelection
	bulk     []models.ClubSelection
	deleted  []string
	missing  bool
}

func (m *mockSelectionRepo) FindDetailByID(ctx context.Context, id string) (*models.ClubMember, error) {
	if detail, ok := m.details[id]; ok {
		return &detail, nil
	}
	return &models.ClubMember{ClubSelection: models.ClubSelection{ID: id}}, nil
}

func (m *mockSelectionRepo) CountByClub(ctx context.Context, clubID string) (int, error) {
	return m.counts[clubID], nil
}

func (m *mockSelectionRepo) Exists(ctx context.Context, clubID, studentID string) (bool, error) {
	return m.enrolled[clubID+"/"+studentID], nil
}

func (m *mockSelectionRepo) Create(ctx context.Context, selection *models.ClubSelection) error {
	if selection.ID == "" {
		selection.ID = "generated"
	}
	m.created = append(m.created, *selection)
	return nil
}

func (m *mockSelectionRepo) BulkInsert(ctx context.Context, selections []models.ClubSelection) (int, error) {
	m.bulk = append(m.bulk, selections...)
	return len(selections), nil
}

func (m *mockSelectionRepo) Delete(ctx context.Context, id string) error {
	if m.missing {
		return sql.ErrNoRows
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockClubReader struct {
	clubs map[string]models.Club
}

func (m *mockClubReader) FindByID(ctx context.Context, id string) (*models.Club, error) {
	if club, ok := m.clubs[id]; ok {
		return &club, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.students[id]; ok {
		return &student, nil
	}
	return nil, sql.ErrNoRows
}

func newEnrollmentService(selections *mockSelectionRepo, clubs *mockClubReader, students *mockStudentReader) *EnrollmentService {
	return NewEnrollmentService(selections, clubs, students, nil, validator.New(), zap.NewNop())
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	selections := &mockSelectionRepo{counts: map[string]int{"club1": 1}, enrolled: map[string]bool{}}
	clubs := &mockClubReader{clubs: map[string]models.Club{"club1": {ID: "club1", Name: "Satranç", Capacity: 2}}}
	students := &mockStudentReader{students: map[string]models.Student{"st1": {ID: "st1"}}}
	svc := newEnrollmentService(selections, clubs, students)

	member, err := svc.Enroll(context.Background(), "club1", "st1")
	require.NoError(t, err)
	assert.NotNil(t, member)
	assert.Len(t, selections.created, 1)
	assert.Equal(t, "club1", selections.created[0].ClubID)
}

func TestEnrollmentServiceEnrollCapacityFull(t *testing.T) {
	selections := &mockSelectionRepo{counts: map[string]int{"club1": 2}, enrolled: map[string]bool{}}
	clubs := &mockClubReader{clubs: map[string]models.Club{"club1": {ID: "club1", Name: "Satranç", Capacity: 2}}}
	students := &mockStudentReader{students: map[string]models.Student{"st1": {ID: "st1"}}}
	svc := newEnrollmentService(selections, clubs, students)

	_, err := svc.Enroll(context.Background(), "club1", "st1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	assert.Empty(t, selections.created)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	selections := &mockSelectionRepo{counts: map[string]int{}, enrolled: map[string]bool{"club1/st1": true}}
	clubs := &mockClubReader{clubs: map[string]models.Club{"club1": {ID: "club1", Name: "Satranç", Capacity: 2}}}
	students := &mockStudentReader{students: map[string]models.Student{"st1": {ID: "st1"}}}
	svc := newEnrollmentService(selections, clubs, students)

	_, err := svc.Enroll(context.Background(), "club1", "st1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
}

func TestEnrollmentServiceEnrollClubNotFound(t *testing.T) {
	svc := newEnrollmentService(&mockSelectionRepo{}, &mockClubReader{}, &mockStudentReader{})

	_, err := svc.Enroll(context.Background(), "missing", "st1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEnrollmentServiceEnrollBatch(t *testing.T) {
	selections := &mockSelectionRepo{counts: map[string]int{"club1": 0}, enrolled: map[string]bool{}}
	clubs := &mockClubReader{clubs: map[string]models.Club{"club1": {ID: "club1", Name: "Satranç", Capacity: 2}}}
	svc := newEnrollmentService(selections, clubs, &mockStudentReader{})

	inserted, err := svc.EnrollBatch(context.Background(), EnrollBatchRequest{Selections: []models.SelectionRequest{
		{ClubID: "club1", StudentID: "st1"},
		{ClubID: "club1", StudentID: "st2"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Len(t, selections.bulk, 2)
}

func TestEnrollmentServiceEnrollBatchOvershoot(t *testing.T) {
	// One free seat; the in-batch tally must reject the second entry even
	// though the stored count alone would admit it.
	selections := &mockSelectionRepo{counts: map[string]int{"club1": 1}, enrolled: map[string]bool{}}
	clubs := &mockClubReader{clubs: map[string]models.Club{"club1": {ID: "club1", Name: "Satranç", Capacity: 2}}}
	svc := newEnrollmentService(selections, clubs, &mockStudentReader{})

	_, err := svc.EnrollBatch(context.Background(), EnrollBatchRequest{Selections: []models.SelectionRequest{
		{ClubID: "club1", StudentID: "st1"},
		{ClubID: "club1", StudentID: "st2"},
	}})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	assert.Empty(t, selections.bulk)
}

func TestEnrollmentServiceEnrollBatchDuplicatePair(t *testing.T) {
	selections := &mockSelectionRepo{counts: map[string]int{}, enrolled: map[string]bool{}}
	clubs := &mockClubReader{clubs: map[string]models.Club{"club1": {ID: "club1", Name: "Satranç", Capacity: 5}}}
	svc := newEnrollmentService(selections, clubs, &mockStudentReader{})

	_, err := svc.EnrollBatch(context.Background(), EnrollBatchRequest{Selections: []models.SelectionRequest{
		{ClubID: "club1", StudentID: "st1"},
		{ClubID: "club1", StudentID: "st1"},
	}})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
	assert.Empty(t, selections.bulk)
}

func TestEnrollmentServiceEnrollBatchExistingMembership(t *testing.T) {
	selections := &mockSelectionRepo{counts: map[string]int{}, enrolled: map[string]bool{"club1/st1": true}}
	clubs := &mockClubReader{clubs: map[string]models.Club{"club1": {ID: "club1", Name: "Satranç", Capacity: 5}}}
	svc := newEnrollmentService(selections, clubs, &mockStudentReader{})

	_, err := svc.EnrollBatch(context.Background(), EnrollBatchRequest{Selections: []models.SelectionRequest{
		{ClubID: "club1", StudentID: "st1"},
	}})
	require.Error(t, err)
	assert.Empty(t, selections.bulk)
}

func TestEnrollmentServiceEnrollBatchEmpty(t *testing.T) {
	svc := newEnrollmentService(&mockSelectionRepo{}, &mockClubReader{}, &mockStudentReader{})

	_, err := svc.EnrollBatch(context.Background(), EnrollBatchRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEnrollmentServiceRemoveNotFound(t *testing.T) {
	svc := newEnrollmentService(&mockSelectionRepo{missing: true}, &mockClubReader{}, &mockStudentReader{})

	err := svc.Remove(context.Background(), "gone")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
