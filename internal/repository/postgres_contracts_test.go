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

func setupContractsMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresContractsRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresContractsRepository(db)
}

var contractRowColumns = []string{
	"contract_id", "tenant_id", "lead_id", "custom_id", "status",
	"transaction_type", "price", "deposit", "rent",
}

func TestGetContractByLeadID_Found(t *testing.T) {
	db, mock, repo := setupContractsMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows(contractRowColumns).
		AddRow("c-1", "t-1", "l-1", "C-X", "DRAFT", "sale", 350000, 50000, 0)

	mock.ExpectQuery(`SELECT .+ FROM contracts WHERE tenant_id = \$1::uuid AND lead_id = \$2::uuid`).
		WithArgs("t-1", "l-1").
		WillReturnRows(rows)

	contract, err := repo.GetContractByLeadID(context.Background(), "t-1", "l-1")
	require.NoError(t, err)
	assert.Equal(t, "C-X", contract.CustomID)
	assert.Equal(t, domain.ContractDraft, contract.Status)
	assert.Equal(t, int64(350000), contract.Price)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateContract_UniqueLeadViolationIsConflict(t *testing.T) {
	db, mock, repo := setupContractsMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO contracts`).
		WithArgs("t-1", "l-1", "C-X", "DRAFT", "sale", int64(100), int64(0), int64(0)).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.CreateContract(context.Background(), &domain.Contract{
		TenantID:        "t-1",
		LeadID:          "l-1",
		CustomID:        "C-X",
		TransactionType: sql.NullString{String: "sale", Valid: true},
		Price:           100,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteContractByLeadID_ZeroRowsIsNoError(t *testing.T) {
	db, mock, repo := setupContractsMockDB(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM contracts WHERE tenant_id = \$1::uuid AND lead_id = \$2::uuid`).
		WithArgs("t-1", "l-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteContractByLeadID(context.Background(), "t-1", "l-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
