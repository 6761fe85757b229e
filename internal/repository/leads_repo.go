package repository

import (
	"context"
	"encoding/json"

	"nestcrm-data/internal/domain"
)

// LeadPatch is the resolved update intent for a lead. Handlers parse the
// loose JSON body into this closed set once, at the boundary; nil pointer
// means "leave the column alone".
type LeadPatch struct {
	Name            *string
	Phone           *string
	Email           *string
	Stage           *string
	AssignedUserID  *string
	TransactionType *string
	MinPrice        *int64
	MinDeposit      *int64
	CustomFields    json.RawMessage

	// CustomID and Rent are not lead columns; they ride along so a caller
	// can shape the contract synthesized when the patch moves the lead to
	// SUCCESS.
	CustomID *string
	Rent     *int64
}

// HasChanges reports whether the patch touches any lead column.
func (p *LeadPatch) HasChanges() bool {
	return p.Name != nil || p.Phone != nil || p.Email != nil || p.Stage != nil ||
		p.AssignedUserID != nil || p.TransactionType != nil ||
		p.MinPrice != nil || p.MinDeposit != nil || p.CustomFields != nil
}

// LeadFilters narrows ListLeads.
type LeadFilters struct {
	Stage          string
	AssignedUserID string
	Search         string // substring match on name/phone/email
}

// LeadsRepository is tenant-scoped: every operation takes tenantID and must
// never return or touch a lead from another tenant.
type LeadsRepository interface {
	GetLead(ctx context.Context, tenantID, leadID string) (*domain.Lead, error)
	ListLeads(ctx context.Context, tenantID string, filter LeadFilters, page, size int) ([]*domain.Lead, int, error)
	CreateLead(ctx context.Context, lead *domain.Lead) (string, error)
	// UpdateLead applies the patch and returns the updated row.
	// Returns domain.ErrNotFound when the lead is absent or out of tenant.
	UpdateLead(ctx context.Context, tenantID, leadID string, patch *LeadPatch) (*domain.Lead, error)
	DeleteLead(ctx context.Context, tenantID, leadID string) error
}
