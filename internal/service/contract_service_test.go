package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type mockContractRepo struct {
	contracts map[models.ContractKind]map[string]models.ContractDetail
}

func (m *mockContractRepo) bucket(kind models.ContractKind) map[string]models.ContractDetail {
	if m.contracts == nil {
		m.contracts = make(map[models.ContractKind]map[string]models.ContractDetail)
	}
	if m.contracts[kind] == nil {
		m.contracts[kind] = make(map[string]models.ContractDetail)
	}
	return m.contracts[kind]
}

func (m *mockContractRepo) List(ctx context.Context, kind models.ContractKind) ([]models.ContractDetail, error) {
	bucket := m.bucket(kind)
	out := make([]models.ContractDetail, 0, len(bucket))
	for _, contract := range bucket {
		out = append(out, contract)
	}
	return out, nil
}

func (m *mockContractRepo) FindByID(ctx context.Context, kind models.ContractKind, id string) (*models.ContractDetail, error) {
	if contract, ok := m.bucket(kind)[id]; ok {
		return &contract, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockContractRepo) Create(ctx context.Context, kind models.ContractKind, contract *models.Contract) error {
	if contract.ID == "" {
		contract.ID = "generated"
	}
	m.bucket(kind)[contract.ID] = models.ContractDetail{Contract: *contract}
	return nil
}

func (m *mockContractRepo) Update(ctx context.Context, kind models.ContractKind, id string, data types.JSONText) error {
	bucket := m.bucket(kind)
	contract, ok := bucket[id]
	if !ok {
		return sql.ErrNoRows
	}
	contract.Data = data
	bucket[id] = contract
	return nil
}

func (m *mockContractRepo) Delete(ctx context.Context, kind models.ContractKind, id string) error {
	bucket := m.bucket(kind)
	if _, ok := bucket[id]; !ok {
		return sql.ErrNoRows
	}
	delete(bucket, id)
	return nil
}

func (m *mockContractRepo) DeleteMany(ctx context.Context, kind models.ContractKind, ids []string) (int, error) {
	bucket := m.bucket(kind)
	deleted := 0
	for _, id := range ids {
		if _, ok := bucket[id]; ok {
			delete(bucket, id)
			deleted++
		}
	}
	return deleted, nil
}

func newContractService(repo *mockContractRepo, students *mockStudentReader) *ContractService {
	return NewContractService(repo, students, nil, validator.New(), zap.NewNop())
}

func TestContractServiceCreate(t *testing.T) {
	repo := &mockContractRepo{}
	students := &mockStudentReader{students: map[string]models.Student{"st1": {ID: "st1"}}}
	svc := newContractService(repo, students)

	contract, err := svc.Create(context.Background(), models.KindMeal, CreateContractRequest{
		StudentID: "st1",
		Data:      json.RawMessage(`{"plan":"full","months":9}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "st1", contract.StudentID)
	assert.JSONEq(t, `{"plan":"full","months":9}`, string(contract.Data))
}

func TestContractServiceCreateInvalidJSON(t *testing.T) {
	svc := newContractService(&mockContractRepo{}, &mockStudentReader{students: map[string]models.Student{"st1": {ID: "st1"}}})

	_, err := svc.Create(context.Background(), models.KindMeal, CreateContractRequest{
		StudentID: "st1",
		Data:      json.RawMessage(`{broken`),
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestContractServiceCreateStudentMissing(t *testing.T) {
	svc := newContractService(&mockContractRepo{}, &mockStudentReader{})

	_, err := svc.Create(context.Background(), models.KindBook, CreateContractRequest{
		StudentID: "ghost",
		Data:      json.RawMessage(`{}`),
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestContractServiceUpdateReplacesWholesale(t *testing.T) {
	repo := &mockContractRepo{}
	repo.bucket(models.KindUniform)["c1"] = models.ContractDetail{Contract: models.Contract{
		ID:        "c1",
		StudentID: "st1",
		Data:      types.JSONText(`{"size":"M","season":"winter"}`),
	}}
	svc := newContractService(repo, &mockStudentReader{})

	updated, err := svc.Update(context.Background(), models.KindUniform, "c1", UpdateContractRequest{
		Data: json.RawMessage(`{"size":"L"}`),
	})
	require.NoError(t, err)
	// The previous payload must not leak into the replacement.
	assert.JSONEq(t, `{"size":"L"}`, string(updated.Data))
}

func TestContractServiceUpdateNotFound(t *testing.T) {
	svc := newContractService(&mockContractRepo{}, &mockStudentReader{})

	_, err := svc.Update(context.Background(), models.KindUniform, "ghost", UpdateContractRequest{Data: json.RawMessage(`{}`)})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestContractServiceDeleteNotFound(t *testing.T) {
	svc := newContractService(&mockContractRepo{}, &mockStudentReader{})

	err := svc.Delete(context.Background(), models.KindService, "ghost")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestContractServiceDeleteMany(t *testing.T) {
	repo := &mockContractRepo{}
	repo.bucket(models.KindRenewal)["c1"] = models.ContractDetail{Contract: models.Contract{ID: "c1"}}
	repo.bucket(models.KindRenewal)["c2"] = models.ContractDetail{Contract: models.Contract{ID: "c2"}}
	svc := newContractService(repo, &mockStudentReader{})

	deleted, err := svc.DeleteMany(context.Background(), models.KindRenewal, DeleteContractsRequest{IDs: []string{"c1", "c2", "ghost"}})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Empty(t, repo.bucket(models.KindRenewal))
}

func TestContractServiceDeleteManyEmptyIDs(t *testing.T) {
	svc := newContractService(&mockContractRepo{}, &mockStudentReader{})

	_, err := svc.DeleteMany(context.Background(), models.KindRenewal, DeleteContractsRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
