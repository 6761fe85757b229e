package httpapi

import (
	"encoding/json"

	"nestcrm-data/internal/domain"
)

func jsonRawOrString(s string) any {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err == nil {
		return raw
	}
	return s
}

func tenantToJSON(t *domain.Tenant) map[string]any {
	m := map[string]any{
		"tenant_id":   t.TenantID,
		"tenant_name": t.TenantName,
		"invite_code": t.InviteCode,
		"status":      t.Status,
	}
	if len(t.Config) > 0 {
		m["config"] = jsonRawOrString(string(t.Config))
	}
	return m
}

func leadToJSON(l *domain.Lead) map[string]any {
	m := map[string]any{
		"lead_id":   l.LeadID,
		"tenant_id": l.TenantID,
		"name":      l.Name,
		"stage":     l.Stage,
	}
	if l.Phone.Valid {
		m["phone"] = l.Phone.String
	}
	if l.Email.Valid {
		m["email"] = l.Email.String
	}
	if l.AssignedUserID.Valid {
		m["assigned_user_id"] = l.AssignedUserID.String
	} else {
		m["assigned_user_id"] = nil
	}
	if l.TransactionType.Valid {
		m["transaction_type"] = l.TransactionType.String
	}
	if l.MinPrice.Valid {
		m["min_price"] = l.MinPrice.Int64
	}
	if l.MinDeposit.Valid {
		m["min_deposit"] = l.MinDeposit.Int64
	}
	if len(l.CustomFields) > 0 {
		m["custom_fields"] = jsonRawOrString(string(l.CustomFields))
	}
	return m
}

func contractToJSON(c *domain.Contract) map[string]any {
	m := map[string]any{
		"contract_id": c.ContractID,
		"tenant_id":   c.TenantID,
		"lead_id":     c.LeadID,
		"custom_id":   c.CustomID,
		"status":      c.Status,
		"price":       c.Price,
		"deposit":     c.Deposit,
		"rent":        c.Rent,
	}
	if c.TransactionType.Valid {
		m["transaction_type"] = c.TransactionType.String
	}
	return m
}
