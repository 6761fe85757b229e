package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestcrm-data/internal/domain"
)

func setupMembershipsMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresMembershipsRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresMembershipsRepository(db)
}

func TestGetMembership_Found(t *testing.T) {
	db, mock, repo := setupMembershipsMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"membership_id", "tenant_id", "user_id", "role", "status"}).
		AddRow("m-1", "t-1", "u-1", "OWNER", "ACTIVE")

	mock.ExpectQuery(`SELECT .+ FROM memberships WHERE tenant_id = \$1::uuid AND user_id = \$2::uuid`).
		WithArgs("t-1", "u-1").
		WillReturnRows(rows)

	m, err := repo.GetMembership(context.Background(), "t-1", "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, m.Role)
	assert.True(t, m.Grants())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMembership_NotFound(t *testing.T) {
	db, mock, repo := setupMembershipsMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM memberships`).
		WithArgs("t-1", "u-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetMembership(context.Background(), "t-1", "u-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountActiveOwned_FiltersRoleAndStatus(t *testing.T) {
	db, mock, repo := setupMembershipsMockDB(t)
	defer db.Close()

	// LEFT and INVITED rows must be excluded by the query itself.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM memberships\s+WHERE user_id = \$1::uuid AND role = \$2 AND status = \$3`).
		WithArgs("u-1", domain.RoleOwner, domain.MembershipActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountActiveOwned(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMembership_DuplicateIsConflict(t *testing.T) {
	db, mock, repo := setupMembershipsMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO memberships`).
		WithArgs("t-1", "u-1", "MEMBER", "ACTIVE").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.CreateMembership(context.Background(), &domain.Membership{
		TenantID: "t-1",
		UserID:   "u-1",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetMembershipStatus_NotFoundOnZeroRows(t *testing.T) {
	db, mock, repo := setupMembershipsMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE memberships SET status = \$3\s+WHERE tenant_id = \$1::uuid AND user_id = \$2::uuid`).
		WithArgs("t-1", "u-1", domain.MembershipLeft).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetMembershipStatus(context.Background(), "t-1", "u-1", domain.MembershipLeft)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
