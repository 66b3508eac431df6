package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type registrationRepository interface {
	FindByID(ctx context.Context, kind models.ContractKind, id string) (*models.ContractDetail, error)
	FinalizeRegistration(ctx context.Context, registration *models.Contract, peripherals map[models.ContractKind]*models.Contract, selections []models.ClubSelection) (int, error)
}

// FinalizeRegistrationRequest is the one-call registration workflow: the
// registration contract itself, optional peripheral contracts keyed by kind
// slug, and the clubs the student should join.
type FinalizeRegistrationRequest struct {
	StudentID     string                     `json:"student_id" validate:"required"`
	ContractData  json.RawMessage            `json:"contract_data" validate:"required"`
	Peripherals   map[string]json.RawMessage `json:"peripherals"`
	SelectedClubs []string                   `json:"selected_clubs"`
}

// RegistrationResult reports what the workflow wrote.
type RegistrationResult struct {
	Registration  *models.ContractDetail `json:"registration"`
	Peripherals   []models.ContractKind  `json:"peripherals"`
	EnrolledClubs int                    `json:"enrolled_clubs"`
}

// RegistrationService finalizes a new registration: the registration
// contract, any peripheral contracts and the club enrollments are written in
// one database transaction, so a failed leg leaves nothing behind.
type RegistrationService struct {
	repo       registrationRepository
	students   studentReader
	clubs      clubReader
	selections selectionRepository
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(repo registrationRepository, students studentReader, clubs clubReader, selections selectionRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, students: students, clubs: clubs, selections: selections, cache: cache, validator: validate, logger: logger}
}

// Finalize validates the whole workflow up front, then commits it atomically.
func (s *RegistrationService) Finalize(ctx context.Context, req FinalizeRegistrationRequest) (*RegistrationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if !json.Valid(req.ContractData) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "contract data must be valid JSON")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	peripherals := make(map[models.ContractKind]*models.Contract, len(req.Peripherals))
	kinds := make([]models.ContractKind, 0, len(req.Peripherals))
	for slug, data := range req.Peripherals {
		kind, ok := models.ParseContractKind(slug)
		if !ok || kind == models.KindNewRegistration {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown peripheral contract kind "+slug)
		}
		if !json.Valid(data) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "peripheral contract data must be valid JSON")
		}
		peripherals[kind] = &models.Contract{StudentID: req.StudentID, Data: types.JSONText(data)}
		kinds = append(kinds, kind)
	}

	selections, err := s.validateClubs(ctx, req.StudentID, req.SelectedClubs)
	if err != nil {
		return nil, err
	}

	registration := &models.Contract{StudentID: req.StudentID, Data: types.JSONText(req.ContractData)}
	enrolled, err := s.repo.FinalizeRegistration(ctx, registration, peripherals, selections)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize registration")
	}

	detail, err := s.repo.FindByID(ctx, models.KindNewRegistration, registration.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	_ = s.cache.Invalidate(ctx, historyCacheKey)
	_ = s.cache.Invalidate(ctx, clubsCacheKey)
	s.logger.Info("registration finalized",
		zap.String("student_id", req.StudentID),
		zap.Int("peripherals", len(peripherals)),
		zap.Int("enrolled_clubs", enrolled))
	return &RegistrationResult{Registration: detail, Peripherals: kinds, EnrolledClubs: enrolled}, nil
}

// validateClubs applies the same running-tally capacity rules as the batch
// enrollment path before anything is written.
func (s *RegistrationService) validateClubs(ctx context.Context, studentID string, clubIDs []string) ([]models.ClubSelection, error) {
	if len(clubIDs) == 0 {
		return nil, nil
	}
	tally := make(map[string]int)
	clubsByID := make(map[string]*models.Club)
	seen := make(map[string]struct{})
	selections := make([]models.ClubSelection, 0, len(clubIDs))

	for _, clubID := range clubIDs {
		club, ok := clubsByID[clubID]
		if !ok {
			loaded, err := s.clubs.FindByID(ctx, clubID)
			if err != nil {
				if err == sql.ErrNoRows {
					return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("club with id %s not found", clubID))
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club")
			}
			count, err := s.selections.CountByClub(ctx, clubID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count club members")
			}
			clubsByID[clubID] = loaded
			tally[clubID] = count
			club = loaded
		}
		if _, dup := seen[clubID]; dup {
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, fmt.Sprintf("duplicate selection for club %s", club.Name))
		}
		if tally[clubID] >= club.Capacity {
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("club %s is at full capacity", club.Name))
		}
		enrolled, err := s.selections.Exists(ctx, clubID, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
		}
		if enrolled {
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, fmt.Sprintf("student is already in club %s", club.Name))
		}
		seen[clubID] = struct{}{}
		tally[clubID]++
		selections = append(selections, models.ClubSelection{ClubID: clubID, StudentID: studentID})
	}
	return selections, nil
}
