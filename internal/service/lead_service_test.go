package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nestcrm-data/internal/audit"
	"nestcrm-data/internal/domain"
	"nestcrm-data/internal/repository"
)

type leadFixture struct {
	leads     *repository.MemoryLeadsRepository
	contracts *repository.MemoryContractsRepository
	auditSink *audit.MemorySink
	service   LeadService
}

func setupLeadService(t *testing.T) *leadFixture {
	t.Helper()
	f := &leadFixture{
		leads:     repository.NewMemoryLeadsRepository(),
		contracts: repository.NewMemoryContractsRepository(),
		auditSink: audit.NewMemorySink(),
	}
	f.service = NewLeadService(f.leads, f.contracts, f.auditSink, zap.NewNop())
	return f
}

func (f *leadFixture) seedLead(t *testing.T, lead *domain.Lead) string {
	t.Helper()
	id, err := f.leads.CreateLead(context.Background(), lead)
	require.NoError(t, err)
	return id
}

func strPtr(s string) *string { return &s }
func i64Ptr(n int64) *int64   { return &n }

func TestApplyLeadUpdate_EnteringSuccessCreatesContract(t *testing.T) {
	f := setupLeadService(t)
	leadID := f.seedLead(t, &domain.Lead{
		TenantID:        "T1",
		Name:            "Kim",
		Stage:           domain.StageNegotiation,
		TransactionType: sql.NullString{String: "sale", Valid: true},
		MinPrice:        sql.NullInt64{Int64: 350000, Valid: true},
		MinDeposit:      sql.NullInt64{Int64: 50000, Valid: true},
	})

	updated, err := f.service.ApplyLeadUpdate(context.Background(), "T1", leadID, &repository.LeadPatch{
		Stage:    strPtr(domain.StageSuccess),
		CustomID: strPtr("C-X"),
		Rent:     i64Ptr(1200),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageSuccess, updated.Stage)

	contract, err := f.contracts.GetContractByLeadID(context.Background(), "T1", leadID)
	require.NoError(t, err)
	assert.Equal(t, "C-X", contract.CustomID)
	assert.Equal(t, domain.ContractDraft, contract.Status)
	assert.Equal(t, "sale", contract.TransactionType.String)
	assert.Equal(t, int64(350000), contract.Price)
	assert.Equal(t, int64(50000), contract.Deposit)
	assert.Equal(t, int64(1200), contract.Rent)

	events := f.auditSink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionLeadStage, events[0].Action)
	assert.Equal(t, domain.StageNegotiation, events[0].Details["from"])
	assert.Equal(t, domain.StageSuccess, events[0].Details["to"])
}

func TestApplyLeadUpdate_GeneratedContractNumber(t *testing.T) {
	f := setupLeadService(t)
	leadID := f.seedLead(t, &domain.Lead{TenantID: "T1", Name: "Kim", Stage: domain.StageNew})

	_, err := f.service.ApplyLeadUpdate(context.Background(), "T1", leadID, &repository.LeadPatch{
		Stage: strPtr(domain.StageSuccess),
	})
	require.NoError(t, err)

	contract, err := f.contracts.GetContractByLeadID(context.Background(), "T1", leadID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(contract.CustomID, "CT-"), "got %q", contract.CustomID)
	assert.Len(t, contract.CustomID, len("CT-20060102-XXXXXX"))
}

func TestApplyLeadUpdate_RepeatedSuccessIsIdempotent(t *testing.T) {
	f := setupLeadService(t)
	leadID := f.seedLead(t, &domain.Lead{TenantID: "T1", Name: "Kim", Stage: domain.StageNew})

	_, err := f.service.ApplyLeadUpdate(context.Background(), "T1", leadID, &repository.LeadPatch{
		Stage:    strPtr(domain.StageSuccess),
		CustomID: strPtr("C-1"),
	})
	require.NoError(t, err)

	// A second update while already at SUCCESS (no stage change) and a
	// direct SUCCESS-to-SUCCESS patch must not mint a second contract.
	_, err = f.service.ApplyLeadUpdate(context.Background(), "T1", leadID, &repository.LeadPatch{
		Stage:    strPtr(domain.StageSuccess),
		CustomID: strPtr("C-2"),
	})
	require.NoError(t, err)

	contract, err := f.contracts.GetContractByLeadID(context.Background(), "T1", leadID)
	require.NoError(t, err)
	assert.Equal(t, "C-1", contract.CustomID)

	_, total, err := f.contracts.ListContracts(context.Background(), "T1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestApplyLeadUpdate_LeavingSuccessDeletesContract(t *testing.T) {
	f := setupLeadService(t)
	leadID := f.seedLead(t, &domain.Lead{TenantID: "T1", Name: "Kim", Stage: domain.StageNew})

	_, err := f.service.ApplyLeadUpdate(context.Background(), "T1", leadID, &repository.LeadPatch{
		Stage: strPtr(domain.StageSuccess),
	})
	require.NoError(t, err)

	_, err = f.service.ApplyLeadUpdate(context.Background(), "T1", leadID, &repository.LeadPatch{
		Stage: strPtr(domain.StageInProgress),
	})
	require.NoError(t, err)

	_, err = f.contracts.GetContractByLeadID(context.Background(), "T1", leadID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyLeadUpdate_NonStageFieldsOnly(t *testing.T) {
	f := setupLeadService(t)
	leadID := f.seedLead(t, &domain.Lead{TenantID: "T1", Name: "Kim", Stage: domain.StageNew})

	updated, err := f.service.ApplyLeadUpdate(context.Background(), "T1", leadID, &repository.LeadPatch{
		Phone: strPtr("010-1234-5678"),
	})
	require.NoError(t, err)
	assert.Equal(t, "010-1234-5678", updated.Phone.String)

	// No stage change, no contract, no audit event.
	_, err = f.contracts.GetContractByLeadID(context.Background(), "T1", leadID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.auditSink.Events())
}

func TestApplyLeadUpdate_CrossTenantIsNotFound(t *testing.T) {
	f := setupLeadService(t)
	leadID := f.seedLead(t, &domain.Lead{TenantID: "T1", Name: "Kim"})

	_, err := f.service.ApplyLeadUpdate(context.Background(), "T2", leadID, &repository.LeadPatch{
		Stage: strPtr(domain.StageSuccess),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// No side effect in either tenant.
	_, err = f.contracts.GetContractByLeadID(context.Background(), "T1", leadID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyLeadUpdate_UnknownStageRejected(t *testing.T) {
	f := setupLeadService(t)
	leadID := f.seedLead(t, &domain.Lead{TenantID: "T1", Name: "Kim"})

	_, err := f.service.ApplyLeadUpdate(context.Background(), "T1", leadID, &repository.LeadPatch{
		Stage: strPtr("CLOSED_WON"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// failingContractsRepo accepts the idempotency check but refuses writes.
type failingContractsRepo struct {
	repository.ContractsRepository
}

func (f *failingContractsRepo) GetContractByLeadID(_ context.Context, _, _ string) (*domain.Contract, error) {
	return nil, domain.ErrNotFound
}

func (f *failingContractsRepo) CreateContract(_ context.Context, _ *domain.Contract) (string, error) {
	return "", errors.New("connection refused")
}

func TestApplyLeadUpdate_ContractFailureDoesNotFailUpdate(t *testing.T) {
	leads := repository.NewMemoryLeadsRepository()
	svc := NewLeadService(leads, &failingContractsRepo{}, audit.NewMemorySink(), zap.NewNop())

	leadID, err := leads.CreateLead(context.Background(), &domain.Lead{TenantID: "T1", Name: "Kim"})
	require.NoError(t, err)

	updated, err := svc.ApplyLeadUpdate(context.Background(), "T1", leadID, &repository.LeadPatch{
		Stage: strPtr(domain.StageSuccess),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageSuccess, updated.Stage)

	// The primary update is committed even though the side effect failed.
	lead, err := leads.GetLead(context.Background(), "T1", leadID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageSuccess, lead.Stage)
}

func TestDeleteLead_RemovesContract(t *testing.T) {
	f := setupLeadService(t)
	leadID := f.seedLead(t, &domain.Lead{TenantID: "T1", Name: "Kim", Stage: domain.StageNew})

	_, err := f.service.ApplyLeadUpdate(context.Background(), "T1", leadID, &repository.LeadPatch{
		Stage: strPtr(domain.StageSuccess),
	})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteLead(context.Background(), "T1", leadID))

	_, err = f.leads.GetLead(context.Background(), "T1", leadID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.contracts.GetContractByLeadID(context.Background(), "T1", leadID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateLead_Validation(t *testing.T) {
	f := setupLeadService(t)

	_, err := f.service.CreateLead(context.Background(), &domain.Lead{TenantID: "T1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.service.CreateLead(context.Background(), &domain.Lead{TenantID: "T1", Name: "Kim", Stage: "BOGUS"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	id, err := f.service.CreateLead(context.Background(), &domain.Lead{TenantID: "T1", Name: "Kim"})
	require.NoError(t, err)

	lead, err := f.leads.GetLead(context.Background(), "T1", id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageNew, lead.Stage)
}
