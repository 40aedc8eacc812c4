// Package export renders dashboard results as spreadsheet files.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/daeun-oh/kihan/internal/dateutil"
	"github.com/daeun-oh/kihan/internal/model"
)

// SheetName is the single sheet every export carries.
const SheetName = "Dashboard"

// Filename is the download name the dashboard uses.
const Filename = "dashboard.xlsx"

var header = []string{
	"input_date",
	"region_name",
	"store_code",
	"store_name",
	"category",
	"item_name",
	"expiry_date",
	"remaining_days",
	"comment",
}

// Dashboard builds a workbook from the currently displayed item rows.
// remaining_days is written as a number when present and left empty
// otherwise; date columns are normalized to YYYY-MM-DD.
func Dashboard(rows []model.ItemRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, name); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	for i, row := range rows {
		values := []any{
			dateutil.Normalize(row.InputDate),
			row.RegionName,
			row.StoreCode,
			row.StoreName,
			row.Category,
			row.ItemName,
			dateutil.Normalize(row.ExpiryDate),
			"",
			row.Comment,
		}
		if row.RemainingDays.Valid {
			values[7] = row.RemainingDays.N
		}

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", i+1, err)
			}
		}
	}

	return f, nil
}
