package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nestcrm-data/internal/audit"
	"nestcrm-data/internal/domain"
	"nestcrm-data/internal/repository"
)

// LeadService is the lead lifecycle engine. Stage transitions drive the
// derived contract: a lead entering SUCCESS gets exactly one contract, a
// lead leaving SUCCESS loses it. The primary lead update is the
// transactional boundary of record; contract side effects are applied
// after it and their failures are logged, never rolled back.
type LeadService interface {
	// ApplyLeadUpdate applies the patch and runs the contract side effect
	// when the stage changes. Errors: domain.ErrNotFound (absent or
	// out-of-tenant lead), domain.ErrValidation (unknown stage),
	// domain.ErrInternal (primary update failed; no side effects ran).
	ApplyLeadUpdate(ctx context.Context, tenantID, leadID string, patch *repository.LeadPatch) (*domain.Lead, error)
	CreateLead(ctx context.Context, lead *domain.Lead) (string, error)
	GetLead(ctx context.Context, tenantID, leadID string) (*domain.Lead, error)
	ListLeads(ctx context.Context, tenantID string, filter repository.LeadFilters, page, size int) ([]*domain.Lead, int, error)
	// DeleteLead removes the lead and its contract, if any.
	DeleteLead(ctx context.Context, tenantID, leadID string) error
}

type leadService struct {
	leads     repository.LeadsRepository
	contracts repository.ContractsRepository
	auditSink audit.Sink
	logger    *zap.Logger
}

func NewLeadService(leads repository.LeadsRepository, contracts repository.ContractsRepository, auditSink audit.Sink, logger *zap.Logger) LeadService {
	return &leadService{
		leads:     leads,
		contracts: contracts,
		auditSink: auditSink,
		logger:    logger,
	}
}

func (s *leadService) ApplyLeadUpdate(ctx context.Context, tenantID, leadID string, patch *repository.LeadPatch) (*domain.Lead, error) {
	if tenantID == "" || leadID == "" {
		return nil, fmt.Errorf("%w: tenant_id and lead_id are required", domain.ErrValidation)
	}
	if patch == nil {
		return nil, fmt.Errorf("%w: patch is required", domain.ErrValidation)
	}
	if patch.Stage != nil && !domain.ValidStage(*patch.Stage) {
		return nil, fmt.Errorf("%w: unknown stage %q", domain.ErrValidation, *patch.Stage)
	}

	current, err := s.leads.GetLead(ctx, tenantID, leadID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: lead", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}

	stageChanged := patch.Stage != nil && *patch.Stage != current.Stage

	updated, err := s.leads.UpdateLead(ctx, tenantID, leadID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: lead", domain.ErrNotFound)
		}
		// Primary update failed: abort before any side effect.
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}

	if stageChanged {
		if updated.Stage == domain.StageSuccess {
			s.createContractForLead(ctx, updated, patch)
		} else {
			s.deleteContractForLead(ctx, tenantID, leadID)
		}

		s.auditSink.Record(ctx, audit.Event{
			Action:   audit.ActionLeadStage,
			TenantID: tenantID,
			Details: map[string]any{
				"lead_id": leadID,
				"from":    current.Stage,
				"to":      updated.Stage,
			},
		})
	}

	return updated, nil
}

// createContractForLead synthesizes the derived contract for a lead that
// just entered SUCCESS. Idempotent: an existing contract for the lead wins
// and no duplicate is written.
func (s *leadService) createContractForLead(ctx context.Context, lead *domain.Lead, patch *repository.LeadPatch) {
	_, err := s.contracts.GetContractByLeadID(ctx, lead.TenantID, lead.LeadID)
	if err == nil {
		// Already has one; the second SUCCESS transition is a no-op.
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("Contract idempotency check failed, skipping creation",
			zap.String("tenant_id", lead.TenantID),
			zap.String("lead_id", lead.LeadID),
			zap.Error(err),
		)
		return
	}

	contract := &domain.Contract{
		TenantID:        lead.TenantID,
		LeadID:          lead.LeadID,
		CustomID:        contractCustomID(patch),
		Status:          domain.ContractDraft,
		TransactionType: lead.TransactionType,
	}
	if lead.MinPrice.Valid {
		contract.Price = lead.MinPrice.Int64
	}
	if lead.MinDeposit.Valid {
		contract.Deposit = lead.MinDeposit.Int64
	}
	if patch.Rent != nil {
		contract.Rent = *patch.Rent
	}

	if _, err := s.contracts.CreateContract(ctx, contract); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Concurrent SUCCESS transition won the race; nothing to do.
			return
		}
		// Logged for reconciliation; the lead update is already committed
		// and stays committed.
		s.logger.Error("Failed to create contract for lead",
			zap.String("tenant_id", lead.TenantID),
			zap.String("lead_id", lead.LeadID),
			zap.Error(err),
		)
	}
}

// deleteContractForLead drops the derived contract after a transition away
// from SUCCESS. Unconditional and no-op-safe.
func (s *leadService) deleteContractForLead(ctx context.Context, tenantID, leadID string) {
	if err := s.contracts.DeleteContractByLeadID(ctx, tenantID, leadID); err != nil {
		s.logger.Error("Failed to delete contract for lead",
			zap.String("tenant_id", tenantID),
			zap.String("lead_id", leadID),
			zap.Error(err),
		)
	}
}

func (s *leadService) CreateLead(ctx context.Context, lead *domain.Lead) (string, error) {
	if lead == nil || lead.TenantID == "" {
		return "", fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(lead.Name) == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if lead.Stage != "" && !domain.ValidStage(lead.Stage) {
		return "", fmt.Errorf("%w: unknown stage %q", domain.ErrValidation, lead.Stage)
	}

	leadID, err := s.leads.CreateLead(ctx, lead)
	if err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}
	return leadID, nil
}

func (s *leadService) GetLead(ctx context.Context, tenantID, leadID string) (*domain.Lead, error) {
	return s.leads.GetLead(ctx, tenantID, leadID)
}

func (s *leadService) ListLeads(ctx context.Context, tenantID string, filter repository.LeadFilters, page, size int) ([]*domain.Lead, int, error) {
	return s.leads.ListLeads(ctx, tenantID, filter, page, size)
}

func (s *leadService) DeleteLead(ctx context.Context, tenantID, leadID string) error {
	if err := s.leads.DeleteLead(ctx, tenantID, leadID); err != nil {
		return err
	}
	// A deleted lead is by definition not at SUCCESS anymore.
	s.deleteContractForLead(ctx, tenantID, leadID)
	return nil
}

// contractCustomID returns the caller-supplied contract number or generates
// one: prefix + date + random suffix, e.g. "CT-20260831-4F2A9C".
func contractCustomID(patch *repository.LeadPatch) string {
	if patch.CustomID != nil && strings.TrimSpace(*patch.CustomID) != "" {
		return strings.TrimSpace(*patch.CustomID)
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("CT-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}
