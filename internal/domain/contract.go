package domain

import "database/sql"

// Contract statuses (contracts.status).
const (
	ContractDraft     = "DRAFT"
	ContractSigned    = "SIGNED"
	ContractCancelled = "CANCELLED"
)

// Contract is the derived record for a lead at stage SUCCESS
// (contracts table). UNIQUE (lead_id): at most one contract per lead.
// Contracts are created and deleted only by the lead lifecycle engine,
// never directly by clients.
type Contract struct {
	ContractID string `db:"contract_id"` // UUID, PRIMARY KEY
	TenantID   string `db:"tenant_id"`
	LeadID     string `db:"lead_id"`

	// CustomID is the human-readable contract number shown to agents,
	// e.g. "CT-20260831-4F2A9C". Caller-supplied or generated.
	CustomID string `db:"custom_id"`

	Status string `db:"status"` // DEFAULT 'DRAFT'

	TransactionType sql.NullString `db:"transaction_type"`
	Price           int64          `db:"price"`
	Deposit         int64          `db:"deposit"`
	Rent            int64          `db:"rent"` // 0 unless specified
}
