package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/school-office-api/internal/models"
)

// One table per contract kind, identical columns. The lifecycle logic is
// shared; only the table name differs.
var contractTables = map[models.ContractKind]string{
	models.KindNewRegistration: "new_registrations",
	models.KindRenewal:         "renewals",
	models.KindUniform:         "uniform_contracts",
	models.KindMeal:            "meal_contracts",
	models.KindService:         "service_contracts",
	models.KindBook:            "book_contracts",
}

func contractTableNames() []string {
	names := make([]string, 0, len(contractTables))
	for _, kind := range models.ContractKinds {
		names = append(names, contractTables[kind])
	}
	return names
}

// ContractRepository persists contract records of every kind.
type ContractRepository struct {
	db *sqlx.DB
}

// NewContractRepository constructs the repository.
func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) table(kind models.ContractKind) (string, error) {
	table, ok := contractTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown contract kind %q", kind)
	}
	return table, nil
}

// List returns all contracts of a kind, newest first, joined with student
// display fields.
func (r *ContractRepository) List(ctx context.Context, kind models.ContractKind) ([]models.ContractDetail, error) {
	table, err := r.table(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT c.id, c.student_id, c.data, c.pdf_path, c.created_at, c.updated_at,
        s.first_name, s.last_name, s.tc_number
        FROM %s c
        JOIN students s ON s.id = c.student_id
        ORDER BY c.created_at DESC`, table)
	var contracts []models.ContractDetail
	if err := r.db.SelectContext(ctx, &contracts, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return contracts, nil
}

// FindByID returns one contract of a kind joined with student fields.
func (r *ContractRepository) FindByID(ctx context.Context, kind models.ContractKind, id string) (*models.ContractDetail, error) {
	table, err := r.table(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT c.id, c.student_id, c.data, c.pdf_path, c.created_at, c.updated_at,
        s.first_name, s.last_name, s.tc_number
        FROM %s c
        JOIN students s ON s.id = c.student_id
        WHERE c.id = $1`, table)
	var contract models.ContractDetail
	if err := r.db.GetContext(ctx, &contract, query, id); err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindLatestByStudent returns the newest contract of a kind for a student.
func (r *ContractRepository) FindLatestByStudent(ctx context.Context, kind models.ContractKind, studentID string) (*models.ContractDetail, error) {
	table, err := r.table(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT c.id, c.student_id, c.data, c.pdf_path, c.created_at, c.updated_at,
        s.first_name, s.last_name, s.tc_number
        FROM %s c
        JOIN students s ON s.id = c.student_id
        WHERE c.student_id = $1
        ORDER BY c.created_at DESC
        LIMIT 1`, table)
	var contract models.ContractDetail
	if err := r.db.GetContext(ctx, &contract, query, studentID); err != nil {
		return nil, err
	}
	return &contract, nil
}

// Create inserts one contract record with a server-assigned id.
func (r *ContractRepository) Create(ctx context.Context, kind models.ContractKind, contract *models.Contract) error {
	table, err := r.table(kind)
	if err != nil {
		return err
	}
	fillContractDefaults(contract)
	query := fmt.Sprintf(`INSERT INTO %s (id, student_id, data, pdf_path, created_at, updated_at)
        VALUES (:id, :student_id, :data, :pdf_path, :created_at, :updated_at)`, table)
	if _, err := r.db.NamedExecContext(ctx, query, contract); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	return nil
}

// Update replaces the payload wholesale. Returns sql.ErrNoRows when the id
// does not resolve.
func (r *ContractRepository) Update(ctx context.Context, kind models.ContractKind, id string, data types.JSONText) error {
	table, err := r.table(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET data = $2, updated_at = $3 WHERE id = $1`, table)
	res, err := r.db.ExecContext(ctx, query, id, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s result: %w", table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetPDFPath records the archived document path for a contract.
func (r *ContractRepository) SetPDFPath(ctx context.Context, kind models.ContractKind, id, path string) error {
	table, err := r.table(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET pdf_path = $2, updated_at = $3 WHERE id = $1`, table)
	if _, err := r.db.ExecContext(ctx, query, id, path, time.Now().UTC()); err != nil {
		return fmt.Errorf("set pdf path on %s: %w", table, err)
	}
	return nil
}

// Delete removes a single record. Returns sql.ErrNoRows when the id is
// already gone, so callers can distinguish "not found" from failure.
func (r *ContractRepository) Delete(ctx context.Context, kind models.ContractKind, id string) error {
	table, err := r.table(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s result: %w", table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteMany removes the given ids of one kind in a single statement and
// returns how many rows were removed. Missing ids are not an error at this
// layer.
func (r *ContractRepository) DeleteMany(ctx context.Context, kind models.ContractKind, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	table, err := r.table(kind)
	if err != nil {
		return 0, err
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", table, strings.Join(placeholders, ","))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete from %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk delete from %s result: %w", table, err)
	}
	return int(affected), nil
}

// FinalizeRegistration writes a new-registration contract, any peripheral
// contracts and the requested club selections in one transaction. A failure
// in any leg rolls back every other leg. Returns the number of selections
// actually inserted (duplicates are skipped by the unique constraint).
func (r *ContractRepository) FinalizeRegistration(ctx context.Context, registration *models.Contract, peripherals map[models.ContractKind]*models.Contract, selections []models.ClubSelection) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	fillContractDefaults(registration)
	query := fmt.Sprintf(`INSERT INTO %s (id, student_id, data, pdf_path, created_at, updated_at)
        VALUES (:id, :student_id, :data, :pdf_path, :created_at, :updated_at)`, contractTables[models.KindNewRegistration])
	if _, err := tx.NamedExecContext(ctx, query, registration); err != nil {
		return 0, fmt.Errorf("create registration: %w", err)
	}

	for _, kind := range models.ContractKinds {
		contract, ok := peripherals[kind]
		if !ok || contract == nil {
			continue
		}
		table, err := r.table(kind)
		if err != nil {
			return 0, err
		}
		fillContractDefaults(contract)
		query := fmt.Sprintf(`INSERT INTO %s (id, student_id, data, pdf_path, created_at, updated_at)
            VALUES (:id, :student_id, :data, :pdf_path, :created_at, :updated_at)`, table)
		if _, err := tx.NamedExecContext(ctx, query, contract); err != nil {
			return 0, fmt.Errorf("create %s: %w", table, err)
		}
	}

	enrolled := 0
	if len(selections) > 0 {
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
		insert := fmt.Sprintf(`INSERT INTO club_selections (id, club_id, student_id, created_at) VALUES %s
            ON CONFLICT (student_id, club_id) DO NOTHING`, strings.Join(values, ", "))
		res, err := tx.ExecContext(ctx, insert, args...)
		if err != nil {
			return 0, fmt.Errorf("create registration selections: %w", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("registration selections result: %w", err)
		}
		enrolled = int(inserted)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit registration: %w", err)
	}
	return enrolled, nil
}

func fillContractDefaults(contract *models.Contract) {
	if contract.ID == "" {
		contract.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = now
	}
	contract.UpdatedAt = now
	if len(contract.Data) == 0 {
		contract.Data = types.JSONText("{}")
	}
}
