package services

import (
	"bytes"
	"fmt"

	"portal/internal/common"
	"portal/internal/models"

	"github.com/xuri/excelize/v2"
)

var statementHeader = []string{
	"Date",
	"Reference",
	"Source",
	"Direction",
	"Amount (£)",
	"Status",
}

// StatementExporter renders a transaction list as an XLSX workbook
type StatementExporter interface {
	Export(tenant *models.Tenant, view *TransactionsView) (*bytes.Buffer, error)
}

type xlsxStatementExporter struct{}

func NewStatementExporter() StatementExporter {
	return &xlsxStatementExporter{}
}

func (e *xlsxStatementExporter) Export(tenant *models.Tenant, view *TransactionsView) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Statement"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	title := fmt.Sprintf("%s statement for account %s", tenant.Name, view.Account.AccountNumber)
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheetName, "A2", common.SafeString(view.Account.PropertyAddress)); err != nil {
		return nil, err
	}

	const headerRow = 4
	for i, h := range statementHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(statementHeader), headerRow)
	if err := f.SetCellStyle(sheetName, first, last, headerStyle); err != nil {
		return nil, err
	}

	for i, txn := range view.Transactions {
		row := headerRow + 1 + i
		values := []interface{}{
			txn.OccurredAt.UTC().Format("2006-01-02 15:04"),
			common.SafeString(txn.ExternalRef),
			txn.Source,
			txn.Direction,
			float64(txn.AmountPence) / 100,
			txn.Status,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			return nil, err
		}
		amountCell, _ := excelize.CoordinatesToCellName(5, row)
		if err := f.SetCellStyle(sheetName, amountCell, amountCell, amountStyle); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "F", 20); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}
