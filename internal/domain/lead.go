package domain

import (
	"database/sql"
	"encoding/json"
)

// Lead pipeline stages (leads.stage). The pipeline is not a strict linear
// order: any stage may move to any other, including into and out of SUCCESS.
const (
	StageNew         = "NEW"
	StageInProgress  = "IN_PROGRESS"
	StageViewing     = "VIEWING"
	StageNegotiation = "NEGOTIATION"
	StageSuccess     = "SUCCESS"
	StageLost        = "LOST"
)

// ValidStage reports whether s is a known pipeline stage.
func ValidStage(s string) bool {
	switch s {
	case StageNew, StageInProgress, StageViewing, StageNegotiation, StageSuccess, StageLost:
		return true
	}
	return false
}

// Lead is a prospective customer record (leads table). Always tenant-scoped;
// every query touching leads filters by tenant_id.
type Lead struct {
	LeadID   string `db:"lead_id"` // UUID, PRIMARY KEY
	TenantID string `db:"tenant_id"`

	Name  string         `db:"name"`
	Phone sql.NullString `db:"phone"`
	Email sql.NullString `db:"email"`

	Stage          string         `db:"stage"` // DEFAULT 'NEW'
	AssignedUserID sql.NullString `db:"assigned_user_id"`

	// Transaction intent, copied onto the contract when the lead closes.
	TransactionType sql.NullString `db:"transaction_type"` // sale/rent
	MinPrice        sql.NullInt64  `db:"min_price"`
	MinDeposit      sql.NullInt64  `db:"min_deposit"`

	// CustomFields holds agency-defined form fields.
	CustomFields json.RawMessage `db:"custom_fields"` // JSONB, nullable
}
