package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type mockRegistrationRepo struct {
	finalized            *models.Contract
	finalizedPeripherals map[models.ContractKind]*models.Contract
	finalizedSelections  []models.ClubSelection
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, kind models.ContractKind, id string) (*models.ContractDetail, error) {
	if m.finalized == nil || m.finalized.ID != id {
		return nil, sql.ErrNoRows
	}
	return &models.ContractDetail{Contract: *m.finalized}, nil
}

func (m *mockRegistrationRepo) FinalizeRegistration(ctx context.Context, registration *models.Contract, peripherals map[models.ContractKind]*models.Contract, selections []models.ClubSelection) (int, error) {
	if registration.ID == "" {
		registration.ID = "reg1"
	}
	m.finalized = registration
	m.finalizedPeripherals = peripherals
	m.finalizedSelections = selections
	return len(selections), nil
}

func newRegistrationService(repo *mockRegistrationRepo, students *mockStudentReader, clubs *mockClubReader, selections *mockSelectionRepo) *RegistrationService {
	return NewRegistrationService(repo, students, clubs, selections, nil, validator.New(), zap.NewNop())
}

func TestRegistrationServiceFinalize(t *testing.T) {
	repo := &mockRegistrationRepo{}
	students := &mockStudentReader{students: map[string]models.Student{"st1": {ID: "st1"}}}
	clubs := &mockClubReader{clubs: map[string]models.Club{"club1": {ID: "club1", Name: "Satranç", Capacity: 10}}}
	selections := &mockSelectionRepo{counts: map[string]int{}, enrolled: map[string]bool{}}
	svc := newRegistrationService(repo, students, clubs, selections)

	result, err := svc.Finalize(context.Background(), FinalizeRegistrationRequest{
		StudentID:    "st1",
		ContractData: json.RawMessage(`{"tuition":120000}`),
		Peripherals: map[string]json.RawMessage{
			"meal": json.RawMessage(`{"plan":"full"}`),
			"book": json.RawMessage(`{"set":"grade-3"}`),
		},
		SelectedClubs: []string{"club1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.EnrolledClubs)
	assert.Len(t, result.Peripherals, 2)
	assert.Len(t, repo.finalizedPeripherals, 2)
	assert.Len(t, repo.finalizedSelections, 1)
	assert.Equal(t, "st1", repo.finalized.StudentID)
}

func TestRegistrationServiceFinalizeStudentMissing(t *testing.T) {
	svc := newRegistrationService(&mockRegistrationRepo{}, &mockStudentReader{}, &mockClubReader{}, &mockSelectionRepo{})

	_, err := svc.Finalize(context.Background(), FinalizeRegistrationRequest{
		StudentID:    "ghost",
		ContractData: json.RawMessage(`{}`),
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRegistrationServiceFinalizeRejectsRegistrationPeripheral(t *testing.T) {
	students := &mockStudentReader{students: map[string]models.Student{"st1": {ID: "st1"}}}
	svc := newRegistrationService(&mockRegistrationRepo{}, students, &mockClubReader{}, &mockSelectionRepo{})

	_, err := svc.Finalize(context.Background(), FinalizeRegistrationRequest{
		StudentID:    "st1",
		ContractData: json.RawMessage(`{}`),
		Peripherals:  map[string]json.RawMessage{"new-registration": json.RawMessage(`{}`)},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRegistrationServiceFinalizeClubAtCapacity(t *testing.T) {
	repo := &mockRegistrationRepo{}
	students := &mockStudentReader{students: map[string]models.Student{"st1": {ID: "st1"}}}
	clubs := &mockClubReader{clubs: map[string]models.Club{"club1": {ID: "club1", Name: "Satranç", Capacity: 1}}}
	selections := &mockSelectionRepo{counts: map[string]int{"club1": 1}, enrolled: map[string]bool{}}
	svc := newRegistrationService(repo, students, clubs, selections)

	_, err := svc.Finalize(context.Background(), FinalizeRegistrationRequest{
		StudentID:     "st1",
		ContractData:  json.RawMessage(`{}`),
		SelectedClubs: []string{"club1"},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	assert.Nil(t, repo.finalized)
}

func TestRegistrationServiceFinalizeDuplicateClub(t *testing.T) {
	students := &mockStudentReader{students: map[string]models.Student{"st1": {ID: "st1"}}}
	clubs := &mockClubReader{clubs: map[string]models.Club{"club1": {ID: "club1", Name: "Satranç", Capacity: 10}}}
	selections := &mockSelectionRepo{counts: map[string]int{}, enrolled: map[string]bool{}}
	svc := newRegistrationService(&mockRegistrationRepo{}, students, clubs, selections)

	_, err := svc.Finalize(context.Background(), FinalizeRegistrationRequest{
		StudentID:     "st1",
		ContractData:  json.RawMessage(`{}`),
		SelectedClubs: []string{"club1", "club1"},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
}
