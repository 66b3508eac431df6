package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-office-api/internal/models"
)

// ClubSelectionRepository persists club membership records.
type ClubSelectionRepository struct {
	db *sqlx.DB
}

// NewClubSelectionRepository constructs the repository.
func NewClubSelectionRepository(db *sqlx.DB) *ClubSelectionRepository {
	return &ClubSelectionRepository{db: db}
}

// ListByClub returns the members of a club joined with student display fields.
func (r *ClubSelectionRepository) ListByClub(ctx context.Context, clubID string) ([]models.ClubMember, error) {
	const query = `SELECT cs.id, cs.club_id, cs.student_id, cs.created_at,
        s.first_name, s.last_name, s.tc_number, s.grade
        FROM club_selections cs
        JOIN students s ON s.id = cs.student_id
        WHERE cs.club_id = $1
        ORDER BY cs.created_at ASC`
	var members []models.ClubMember
	if err := r.db.SelectContext(ctx, &members, query, clubID); err != nil {
		return nil, fmt.Errorf("list club members: %w", err)
	}
	return members, nil
}

// FindDetailByID returns one selection with student display fields.
func (r *ClubSelectionRepository) FindDetailByID(ctx context.Context, id string) (*models.ClubMember, error) {
	const query = `SELECT cs.id, cs.club_id, cs.student_id, cs.created_at,
        s.first_name, s.last_name, s.tc_number, s.grade
        FROM club_selections cs
        JOIN students s ON s.id = cs.student_id
        WHERE cs.id = $1`
	var member models.ClubMember
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// CountByClub returns the current occupancy of a club.
func (r *ClubSelectionRepository) CountByClub(ctx context.Context, clubID string) (int, error) {
	const query = `SELECT COUNT(*) FROM club_selections WHERE club_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, clubID); err != nil {
		return 0, fmt.Errorf("count club selections: %w", err)
	}
	return count, nil
}

// Exists reports whether the (student, club) pair is already enrolled.
func (r *ClubSelectionRepository) Exists(ctx context.Context, clubID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM club_selections WHERE club_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, clubID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check club selection: %w", err)
	}
	return true, nil
}

// Create persists a single selection.
func (r *ClubSelectionRepository) Create(ctx context.Context, selection *models.ClubSelection) error {
	if selection.ID == "" {
		selection.ID = uuid.NewString()
	}
	if selection.CreatedAt.IsZero() {
		selection.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO club_selections (id, club_id, student_id, created_at)
        VALUES (:id, :club_id, :student_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, selection); err != nil {
		return fmt.Errorf("create club selection: %w", err)
	}
	return nil
}

// BulkInsert inserts the validated selections in one statement. The unique
// (student_id, club_id) constraint backstops the service-level duplicate
// check; conflicting rows are skipped and the inserted count is returned.
func (r *ClubSelectionRepository) BulkInsert(ctx context.Context, selections []models.ClubSelection) (int, error) {
	if len(selections) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	values := make([]string, 0, len(selections))
	args := make([]interface{}, 0, len(selections)*4)
	for i := range selections {
		if selections[i].ID == "" {
			selections[i].ID = uuid.NewString()
		}
		if selections[i].CreatedAt.IsZero() {
			selections[i].CreatedAt = now
		}
		base := len(args)
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4))
		args = append(args, selections[i].ID, selections[i].ClubID, selections[i].StudentID, selections[i].CreatedAt)
	}
	query := fmt.Sprintf(`INSERT INTO club_selections (id, club_id, student_id, created_at) VALUES %s
        ON CONFLICT (student_id, club_id) DO NOTHING`, strings.Join(values, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk insert club selections: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk insert result: %w", err)
	}
	return int(inserted), nil
}

// Delete removes a selection by its own identifier. Returns sql.ErrNoRows
// when the selection is already gone.
func (r *ClubSelectionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM club_selections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete club selection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete club selection result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
