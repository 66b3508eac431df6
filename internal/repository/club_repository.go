package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-office-api/internal/models"
)

// ClubRepository handles persistence of clubs.
type ClubRepository struct {
	db *sqlx.DB
}

// NewClubRepository constructs the repository.
func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

// List returns all clubs with their current occupancy, newest first.
func (r *ClubRepository) List(ctx context.Context) ([]models.ClubSummary, error) {
	const query = `SELECT c.id, c.name, c.description, c.capacity, c.created_at, c.updated_at,
        COUNT(cs.id) AS member_count
        FROM clubs c
        LEFT JOIN club_selections cs ON cs.club_id = c.id
        GROUP BY c.id
        ORDER BY c.created_at DESC`
	var clubs []models.ClubSummary
	if err := r.db.SelectContext(ctx, &clubs, query); err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	return clubs, nil
}

// FindByID returns a club by its ID.
func (r *ClubRepository) FindByID(ctx context.Context, id string) (*models.Club, error) {
	const query = `SELECT id, name, description, capacity, created_at, updated_at FROM clubs WHERE id = $1`
	var club models.Club
	if err := r.db.GetContext(ctx, &club, query, id); err != nil {
		return nil, err
	}
	return &club, nil
}

// Create inserts a new club.
func (r *ClubRepository) Create(ctx context.Context, club *models.Club) error {
	if club.ID == "" {
		club.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if club.CreatedAt.IsZero() {
		club.CreatedAt = now
	}
	club.UpdatedAt = now
	const query = `INSERT INTO clubs (id, name, description, capacity, created_at, updated_at)
        VALUES (:id, :name, :description, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, club); err != nil {
		return fmt.Errorf("create club: %w", err)
	}
	return nil
}

// Update modifies an existing club.
func (r *ClubRepository) Update(ctx context.Context, club *models.Club) error {
	club.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clubs SET name = :name, description = :description, capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, club); err != nil {
		return fmt.Errorf("update club: %w", err)
	}
	return nil
}

// Delete removes a club and its selections in one transaction. Returns
// sql.ErrNoRows when the club does not exist.
func (r *ClubRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete club: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM club_selections WHERE club_id = $1`, id); err != nil {
		return fmt.Errorf("delete club selections: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM clubs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete club: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete club result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete club: %w", err)
	}
	return nil
}
