package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-office-api/internal/models"
)

func newContractMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func contractRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "data", "pdf_path", "created_at", "updated_at", "first_name", "last_name", "tc_number"}).
		AddRow("c1", "st1", []byte(`{"plan":"full"}`), nil, time.Now(), time.Now(), "Ali", "Yılmaz", "12345678901")
}

func TestContractRepositoryList(t *testing.T) {
	db, mock, cleanup := newContractMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM meal_contracts c").WillReturnRows(contractRows())

	contracts, err := repo.List(context.Background(), models.KindMeal)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, "c1", contracts[0].ID)
	assert.Equal(t, "Ali", contracts[0].StudentFirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepositoryListUnknownKind(t *testing.T) {
	db, _, cleanup := newContractMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	_, err := repo.List(context.Background(), models.ContractKind("lunchbox"))
	require.Error(t, err)
}

func TestContractRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newContractMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM book_contracts c").
		WithArgs("c1").
		WillReturnRows(contractRows())

	contract, err := repo.FindByID(context.Background(), models.KindBook, "c1")
	require.NoError(t, err)
	assert.Equal(t, "st1", contract.StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newContractMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectExec("INSERT INTO uniform_contracts").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	contract := &models.Contract{StudentID: "st1", Data: types.JSONText(`{"size":"M"}`)}
	require.NoError(t, repo.Create(context.Background(), models.KindUniform, contract))
	assert.NotEmpty(t, contract.ID)
	assert.False(t, contract.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newContractMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectExec("UPDATE service_contracts SET data").
		WithArgs("ghost", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), models.KindService, "ghost", types.JSONText(`{}`))
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newContractMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectExec("DELETE FROM renewals WHERE id").
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), models.KindRenewal, "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newContractMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectExec("DELETE FROM renewals WHERE id").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), models.KindRenewal, "ghost")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepositoryDeleteMany(t *testing.T) {
	db, mock, cleanup := newContractMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectExec(`DELETE FROM new_registrations WHERE id IN \(\$1,\$2,\$3\)`).
		WithArgs("c1", "c2", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := repo.DeleteMany(context.Background(), models.KindNewRegistration, []string{"c1", "c2", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepositoryFinalizeRegistration(t *testing.T) {
	db, mock, cleanup := newContractMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO new_registrations").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO meal_contracts").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO club_selections").
		WithArgs(sqlmock.AnyArg(), "club1", "st1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	registration := &models.Contract{StudentID: "st1", Data: types.JSONText(`{"tuition":120000}`)}
	peripherals := map[models.ContractKind]*models.Contract{
		models.KindMeal: {StudentID: "st1", Data: types.JSONText(`{"plan":"full"}`)},
	}
	selections := []models.ClubSelection{{ClubID: "club1", StudentID: "st1"}}

	enrolled, err := repo.FinalizeRegistration(context.Background(), registration, peripherals, selections)
	require.NoError(t, err)
	assert.Equal(t, 1, enrolled)
	assert.NotEmpty(t, registration.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepositoryFinalizeRegistrationRollsBack(t *testing.T) {
	db, mock, cleanup := newContractMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO new_registrations").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.FinalizeRegistration(context.Background(), &models.Contract{StudentID: "st1"}, nil, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
