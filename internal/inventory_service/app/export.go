package app

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/voiceops/teamsadmin/internal/inventory_service/domain"
)

var exportHeaders = []string{
	"Line URI", "Display Name", "User Principal Name", "Routing Policy",
	"Carrier", "Location", "Number Range", "Active",
}

// ExportXLSX renders the tenant's filtered inventory as an XLSX workbook.
func (a *Application) ExportXLSX(ctx context.Context, tenantID uuid.UUID, filter domain.ListFilter) ([]byte, error) {
	const exportPageSize = 500
	const sheet = "Phone Numbers"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("prepare export sheet: %w", err)
	}
	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write export header: %w", err)
		}
	}

	row := 2
	for offset := 0; ; offset += exportPageSize {
		records, err := a.numberRepo.List(ctx, tenantID, filter, offset, exportPageSize)
		if err != nil {
			return nil, fmt.Errorf("list inventory for export: %w", err)
		}
		for _, rec := range records {
			values := []string{
				rec.LineURI, rec.DisplayName, rec.UserPrincipalName, rec.RoutingPolicy,
				rec.Carrier, rec.Location, rec.NumberRange, strconv.FormatBool(rec.Active),
			}
			for col, value := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(sheet, cell, value); err != nil {
					return nil, fmt.Errorf("write export row: %w", err)
				}
			}
			row++
		}
		if len(records) < exportPageSize {
			break
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize export workbook: %w", err)
	}
	a.logger.InfoContext(ctx, "inventory exported", "tenant_id", tenantID, "rows", row-2)
	return buf.Bytes(), nil
}
