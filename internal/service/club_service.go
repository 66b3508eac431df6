package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type clubRepository interface {
	List(ctx context.Context) ([]models.ClubSummary, error)
	FindByID(ctx context.Context, id string) (*models.Club, error)
	Create(ctx context.Context, club *models.Club) error
	Update(ctx context.Context, club *models.Club) error
	Delete(ctx context.Context, id string) error
}

type clubMemberLister interface {
	ListByClub(ctx context.Context, clubID string) ([]models.ClubMember, error)
}

// ClubPayload holds the writable club fields.
type ClubPayload struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity" validate:"required,gt=0"`
}

// ClubService handles club administration.
type ClubService struct {
	repo      clubRepository
	members   clubMemberLister
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClubService constructs the club service.
func NewClubService(repo clubRepository, members clubMemberLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClubService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClubService{repo: repo, members: members, cache: cache, validator: validate, logger: logger}
}

const clubsCacheKey = "clubs:list"

// List returns all clubs with occupancy, newest first.
func (s *ClubService) List(ctx context.Context) ([]models.ClubSummary, error) {
	var cached []models.ClubSummary
	if hit, _ := s.cache.Get(ctx, clubsCacheKey, &cached); hit {
		return cached, nil
	}
	clubs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clubs")
	}
	_ = s.cache.Set(ctx, clubsCacheKey, clubs, 0)
	return clubs, nil
}

// Get returns a club together with its members.
func (s *ClubService) Get(ctx context.Context, id string) (*models.ClubDetail, error) {
	club, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "club not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club")
	}
	members, err := s.members.ListByClub(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club members")
	}
	return &models.ClubDetail{Club: *club, Members: members}, nil
}

// Create adds a new club. Capacity must be positive.
func (s *ClubService) Create(ctx context.Context, req ClubPayload) (*models.Club, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid club payload")
	}
	club := &models.Club{Name: req.Name, Description: req.Description, Capacity: req.Capacity}
	if err := s.repo.Create(ctx, club); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create club")
	}
	_ = s.cache.Invalidate(ctx, clubsCacheKey)
	return club, nil
}

// Update modifies a club. Shrinking capacity below the current member count
// is allowed; existing members are never evicted, the club just stops
// accepting new enrollments until occupancy drops.
func (s *ClubService) Update(ctx context.Context, id string, req ClubPayload) (*models.Club, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid club payload")
	}
	club, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "club not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club")
	}
	club.Name = req.Name
	club.Description = req.Description
	club.Capacity = req.Capacity
	if err := s.repo.Update(ctx, club); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update club")
	}
	_ = s.cache.Invalidate(ctx, clubsCacheKey)
	return club, nil
}

// Delete removes a club and cascades its selections.
func (s *ClubService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "club not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete club")
	}
	_ = s.cache.Invalidate(ctx, clubsCacheKey)
	s.logger.Info("club deleted", zap.String("club_id", id))
	return nil
}
