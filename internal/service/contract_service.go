package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type contractRepository interface {
	List(ctx context.Context, kind models.ContractKind) ([]models.ContractDetail, error)
	FindByID(ctx context.Context, kind models.ContractKind, id string) (*models.ContractDetail, error)
	Create(ctx context.Context, kind models.ContractKind, contract *models.Contract) error
	Update(ctx context.Context, kind models.ContractKind, id string, data types.JSONText) error
	Delete(ctx context.Context, kind models.ContractKind, id string) error
	DeleteMany(ctx context.Context, kind models.ContractKind, ids []string) (int, error)
}

// CreateContractRequest is the payload for creating a contract of any kind.
// Data is an opaque JSON document; its shape varies per kind and is stored
// wholesale without interpretation.
type CreateContractRequest struct {
	StudentID string          `json:"student_id" validate:"required"`
	Data      json.RawMessage `json:"data" validate:"required"`
}

// UpdateContractRequest replaces a contract payload wholesale.
type UpdateContractRequest struct {
	Data json.RawMessage `json:"data" validate:"required"`
}

// DeleteContractsRequest names the ids to remove within one kind. The ids
// field must be an array; a bare string is rejected at bind time.
type DeleteContractsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// ContractService implements the shared lifecycle for all six contract
// kinds.
type ContractService struct {
	repo      contractRepository
	students  studentReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContractService constructs the contract service.
func NewContractService(repo contractRepository, students studentReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ContractService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractService{repo: repo, students: students, cache: cache, validator: validate, logger: logger}
}

const historyCacheKey = "history:list"

// List returns all contracts of a kind, newest first.
func (s *ContractService) List(ctx context.Context, kind models.ContractKind) ([]models.ContractDetail, error) {
	contracts, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contracts")
	}
	return contracts, nil
}

// Get returns one contract by id.
func (s *ContractService) Get(ctx context.Context, kind models.ContractKind, id string) (*models.ContractDetail, error) {
	contract, err := s.repo.FindByID(ctx, kind, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contract not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract")
	}
	return contract, nil
}

// Create stores a new contract. The payload must be valid JSON but is not
// otherwise inspected.
func (s *ContractService) Create(ctx context.Context, kind models.ContractKind, req CreateContractRequest) (*models.ContractDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contract payload")
	}
	if !json.Valid(req.Data) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "contract data must be valid JSON")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	contract := &models.Contract{StudentID: req.StudentID, Data: types.JSONText(req.Data)}
	if err := s.repo.Create(ctx, kind, contract); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create contract")
	}
	detail, err := s.repo.FindByID(ctx, kind, contract.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract")
	}
	_ = s.cache.Invalidate(ctx, historyCacheKey)
	return detail, nil
}

// Update replaces the payload wholesale; no merge with the previous payload.
func (s *ContractService) Update(ctx context.Context, kind models.ContractKind, id string, req UpdateContractRequest) (*models.ContractDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contract payload")
	}
	if !json.Valid(req.Data) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "contract data must be valid JSON")
	}
	if err := s.repo.Update(ctx, kind, id, types.JSONText(req.Data)); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contract not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update contract")
	}
	detail, err := s.repo.FindByID(ctx, kind, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract")
	}
	_ = s.cache.Invalidate(ctx, historyCacheKey)
	return detail, nil
}

// Delete removes one contract; deleting an absent id reports not found.
func (s *ContractService) Delete(ctx context.Context, kind models.ContractKind, id string) error {
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "contract not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete contract")
	}
	_ = s.cache.Invalidate(ctx, historyCacheKey)
	return nil
}

// DeleteMany removes a list of ids of one kind in a single statement and
// returns the number of rows actually removed. Ids that did not resolve are
// reflected in the count, not reported individually.
func (s *ContractService) DeleteMany(ctx context.Context, kind models.ContractKind, req DeleteContractsRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "ids must be a non-empty array")
	}
	count, err := s.repo.DeleteMany(ctx, kind, req.IDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete contracts")
	}
	_ = s.cache.Invalidate(ctx, historyCacheKey)
	s.logger.Info("contracts bulk deleted", zap.String("kind", string(kind)), zap.Int("requested", len(req.IDs)), zap.Int("deleted", count))
	return count, nil
}
