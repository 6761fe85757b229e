package httpapi

import (
	"bytes"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"nestcrm-data/internal/domain"
	"nestcrm-data/internal/repository"
)

// leadExportHeader is the column order of the lead export workbook.
var leadExportHeader = []string{
	"Name",
	"Phone",
	"Email",
	"Stage",
	"Assigned User",
	"Transaction Type",
	"Min Price",
	"Min Deposit",
}

const leadExportPageSize = 500

// Export handles GET /crm/api/v1/leads/export: the full tenant lead list as
// an .xlsx download.
func (h *LeadsHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tenantID, _, err := h.guard.Authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	filter := repository.LeadFilters{
		Stage:          q.Get("stage"),
		AssignedUserID: q.Get("assigned_user_id"),
		Search:         q.Get("search"),
	}

	var all []*domain.Lead
	for page := 1; ; page++ {
		leads, total, err := h.leadService.ListLeads(r.Context(), tenantID, filter, page, leadExportPageSize)
		if err != nil {
			writeError(w, err)
			return
		}
		all = append(all, leads...)
		if len(leads) == 0 || len(all) >= total {
			break
		}
	}

	data, err := generateLeadExport(all)
	if err != nil {
		h.logger.Error("Failed to generate lead export", zap.String("tenant_id", tenantID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// generateLeadExport renders the lead list into a single-sheet workbook with
// a frozen, styled header row.
func generateLeadExport(leads []*domain.Lead) ([]byte, error) {
	f := excelize.NewFile()
	// Note: don't defer Close() here, because WriteTo needs the file open

	sheetName := "Leads"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range leadExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{
		25, // Name
		18, // Phone
		28, // Email
		15, // Stage
		38, // Assigned User
		18, // Transaction Type
		15, // Min Price
		15, // Min Deposit
	}
	for i := range leadExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, lead := range leads {
		row := rowIdx + 2 // row 1 is the header
		values := []any{
			lead.Name,
			nullString(lead.Phone),
			nullString(lead.Email),
			lead.Stage,
			nullString(lead.AssignedUserID),
			nullString(lead.TransactionType),
			nullInt64(lead.MinPrice),
			nullInt64(lead.MinDeposit),
		}
		for colIdx, value := range values {
			if value == nil || value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, colIdx+1, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func nullString(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}

func nullInt64(n sql.NullInt64) any {
	if n.Valid {
		return n.Int64
	}
	return nil
}
