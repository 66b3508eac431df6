package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-office-api/internal/models"
)

func newClubMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClubRepositoryListWithMemberCounts(t *testing.T) {
	db, mock, cleanup := newClubMock(t)
	defer cleanup()
	repo := NewClubRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "capacity", "created_at", "updated_at", "member_count"}).
		AddRow("club1", "Satranç", "", 20, time.Now(), time.Now(), 12)
	mock.ExpectQuery("SELECT c.id, c.name(.+)LEFT JOIN club_selections").
		WillReturnRows(rows)

	clubs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, clubs, 1)
	assert.Equal(t, 12, clubs[0].MemberCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClubRepositoryFindByIDNoRows(t *testing.T) {
	db, mock, cleanup := newClubMock(t)
	defer cleanup()
	repo := NewClubRepository(db)

	mock.ExpectQuery("SELECT id, name, description, capacity").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClubRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newClubMock(t)
	defer cleanup()
	repo := NewClubRepository(db)

	mock.ExpectExec("INSERT INTO clubs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	club := &models.Club{Name: "Satranç", Capacity: 20}
	require.NoError(t, repo.Create(context.Background(), club))
	assert.NotEmpty(t, club.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClubRepositoryDeleteCascadesSelections(t *testing.T) {
	db, mock, cleanup := newClubMock(t)
	defer cleanup()
	repo := NewClubRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM club_selections WHERE club_id").
		WithArgs("club1").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("DELETE FROM clubs WHERE id").
		WithArgs("club1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "club1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClubRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newClubMock(t)
	defer cleanup()
	repo := NewClubRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM club_selections WHERE club_id").
		WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM clubs WHERE id").
		WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "ghost")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
