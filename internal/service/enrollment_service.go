package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type selectionRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClubMember, error)
	CountByClub(ctx context.Context, clubID string) (int, error)
	Exists(ctx context.Context, clubID, studentID string) (bool, error)
	Create(ctx context.Context, selection *models.ClubSelection) error
	BulkInsert(ctx context.Context, selections []models.ClubSelection) (int, error)
	Delete(ctx context.Context, id string) error
}

type clubReader interface {
	FindByID(ctx context.Context, id string) (*models.Club, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// EnrollBatchRequest carries candidate (club, student) pairs. Entries may
// span multiple clubs in one call.
type EnrollBatchRequest struct {
	Selections []models.SelectionRequest `json:"selections" validate:"required,min=1,dive"`
}

// EnrollmentService gates club membership changes against the capacity and
// duplicate-membership invariants.
type EnrollmentService struct {
	selections selectionRepository
	clubs      clubReader
	students   studentReader
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(selections selectionRepository, clubs clubReader, students studentReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{selections: selections, clubs: clubs, students: students, cache: cache, validator: validate, logger: logger}
}

// Enroll adds one student to one club. Preconditions, in order: club exists,
// occupancy below capacity, pair not already enrolled.
func (s *EnrollmentService) Enroll(ctx context.Context, clubID, studentID string) (*models.ClubMember, error) {
	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "club not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club")
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	count, err := s.selections.CountByClub(ctx, clubID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count club members")
	}
	if count >= club.Capacity {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("club %s is at full capacity", club.Name))
	}
	exists, err := s.selections.Exists(ctx, clubID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, fmt.Sprintf("student is already in club %s", club.Name))
	}
	selection := &models.ClubSelection{ClubID: clubID, StudentID: studentID}
	if err := s.selections.Create(ctx, selection); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	detail, err := s.selections.FindDetailByID(ctx, selection.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	_ = s.cache.Invalidate(ctx, clubsCacheKey)
	return detail, nil
}

// EnrollBatch validates every candidate pair before inserting anything.
// Validation is all-or-nothing: the first offending entry fails the whole
// call and nothing is written. Occupancy is tracked with a running tally per
// club so that multiple entries targeting the same club within one batch
// cannot overshoot its capacity.
func (s *EnrollmentService) EnrollBatch(ctx context.Context, req EnrollBatchRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selections payload")
	}

	clubsByID := make(map[string]*models.Club)
	tally := make(map[string]int)
	seen := make(map[string]struct{})

	for _, candidate := range req.Selections {
		club, ok := clubsByID[candidate.ClubID]
		if !ok {
			loaded, err := s.clubs.FindByID(ctx, candidate.ClubID)
			if err != nil {
				if err == sql.ErrNoRows {
					return 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("club with id %s not found", candidate.ClubID))
				}
				return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club")
			}
			count, err := s.selections.CountByClub(ctx, candidate.ClubID)
			if err != nil {
				return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count club members")
			}
			clubsByID[candidate.ClubID] = loaded
			tally[candidate.ClubID] = count
			club = loaded
		}

		if tally[candidate.ClubID] >= club.Capacity {
			return 0, appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("club %s is at full capacity", club.Name))
		}

		pair := candidate.StudentID + "/" + candidate.ClubID
		if _, dup := seen[pair]; dup {
			return 0, appErrors.Clone(appErrors.ErrAlreadyEnrolled, fmt.Sprintf("duplicate selection for club %s", club.Name))
		}
		exists, err := s.selections.Exists(ctx, candidate.ClubID, candidate.StudentID)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
		}
		if exists {
			return 0, appErrors.Clone(appErrors.ErrAlreadyEnrolled, fmt.Sprintf("student is already in club %s", club.Name))
		}

		seen[pair] = struct{}{}
		tally[candidate.ClubID]++
	}

	selections := make([]models.ClubSelection, 0, len(req.Selections))
	for _, candidate := range req.Selections {
		selections = append(selections, models.ClubSelection{ClubID: candidate.ClubID, StudentID: candidate.StudentID})
	}
	inserted, err := s.selections.BulkInsert(ctx, selections)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save club selections")
	}
	_ = s.cache.Invalidate(ctx, clubsCacheKey)
	s.logger.Info("club selections saved", zap.Int("requested", len(selections)), zap.Int("inserted", inserted))
	return inserted, nil
}

// Remove deletes a selection by its own identifier. Removing an already
// removed selection reports not found rather than silent success.
func (s *EnrollmentService) Remove(ctx context.Context, selectionID string) error {
	if err := s.selections.Delete(ctx, selectionID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "club selection not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student from club")
	}
	_ = s.cache.Invalidate(ctx, clubsCacheKey)
	return nil
}
