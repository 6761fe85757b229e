package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestcrm-data/internal/domain"
)

func setupLeadsMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresLeadsRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresLeadsRepository(db)
}

var leadRowColumns = []string{
	"lead_id", "tenant_id", "name", "phone", "email", "stage",
	"assigned_user_id", "transaction_type", "min_price", "min_deposit", "custom_fields",
}

func TestGetLead_ScopedByTenant(t *testing.T) {
	db, mock, repo := setupLeadsMockDB(t)
	defer db.Close()

	tenantID := "6f9e31b8-0000-0000-0000-000000000001"
	leadID := "6f9e31b8-0000-0000-0000-000000000002"

	rows := sqlmock.NewRows(leadRowColumns).
		AddRow(leadID, tenantID, "Kim", "010-1234", nil, "NEW", nil, "sale", 350000, nil, []byte(`{}`))

	// Both tenant_id and lead_id must appear as query args, in that order.
	mock.ExpectQuery(`SELECT .+ FROM leads WHERE tenant_id = \$1::uuid AND lead_id = \$2::uuid`).
		WithArgs(tenantID, leadID).
		WillReturnRows(rows)

	lead, err := repo.GetLead(context.Background(), tenantID, leadID)
	require.NoError(t, err)
	assert.Equal(t, "Kim", lead.Name)
	assert.Equal(t, "NEW", lead.Stage)
	assert.True(t, lead.Phone.Valid)
	assert.False(t, lead.Email.Valid)
	assert.Equal(t, int64(350000), lead.MinPrice.Int64)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLead_NotFound(t *testing.T) {
	db, mock, repo := setupLeadsMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM leads`).
		WithArgs("t-1", "l-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetLead(context.Background(), "t-1", "l-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLeads_FiltersAndPagination(t *testing.T) {
	db, mock, repo := setupLeadsMockDB(t)
	defer db.Close()

	tenantID := "t-1"

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads WHERE tenant_id = \$1::uuid AND stage = \$2`).
		WithArgs(tenantID, "SUCCESS").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows(leadRowColumns).
		AddRow("l-1", tenantID, "Kim", nil, nil, "SUCCESS", nil, nil, nil, nil, []byte(`{}`))
	mock.ExpectQuery(`SELECT .+ FROM leads WHERE tenant_id = \$1::uuid AND stage = \$2 ORDER BY name LIMIT \$3 OFFSET \$4`).
		WithArgs(tenantID, "SUCCESS", 20, 20).
		WillReturnRows(rows)

	leads, total, err := repo.ListLeads(context.Background(), tenantID, LeadFilters{Stage: "SUCCESS"}, 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, leads, 1)
	assert.Equal(t, "SUCCESS", leads[0].Stage)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLead_BuildsDynamicSet(t *testing.T) {
	db, mock, repo := setupLeadsMockDB(t)
	defer db.Close()

	tenantID := "t-1"
	leadID := "l-1"
	stage := "SUCCESS"
	phone := "010-1234"

	rows := sqlmock.NewRows(leadRowColumns).
		AddRow(leadID, tenantID, "Kim", phone, nil, stage, nil, nil, nil, nil, []byte(`{}`))

	// tenant_id and lead_id are always $1/$2; patched columns follow.
	mock.ExpectQuery(`UPDATE leads SET phone = \$3, stage = \$4\s+WHERE tenant_id = \$1::uuid AND lead_id = \$2::uuid\s+RETURNING`).
		WithArgs(tenantID, leadID, phone, stage).
		WillReturnRows(rows)

	lead, err := repo.UpdateLead(context.Background(), tenantID, leadID, &LeadPatch{
		Phone: &phone,
		Stage: &stage,
	})
	require.NoError(t, err)
	assert.Equal(t, stage, lead.Stage)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLead_NoChangesFallsBackToGet(t *testing.T) {
	db, mock, repo := setupLeadsMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows(leadRowColumns).
		AddRow("l-1", "t-1", "Kim", nil, nil, "NEW", nil, nil, nil, nil, []byte(`{}`))
	mock.ExpectQuery(`SELECT .+ FROM leads WHERE tenant_id = \$1::uuid AND lead_id = \$2::uuid`).
		WithArgs("t-1", "l-1").
		WillReturnRows(rows)

	lead, err := repo.UpdateLead(context.Background(), "t-1", "l-1", &LeadPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Kim", lead.Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLead_NotFoundOnZeroRows(t *testing.T) {
	db, mock, repo := setupLeadsMockDB(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM leads WHERE tenant_id = \$1::uuid AND lead_id = \$2::uuid`).
		WithArgs("t-1", "l-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteLead(context.Background(), "t-1", "l-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
