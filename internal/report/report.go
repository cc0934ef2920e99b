// Package report выгрузки в xlsx: остатки рабочего центра и журнал расхода.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/shopfloor/internal/domain/usage"
	"github.com/Spok95/shopfloor/internal/workflow"
)

const (
	stockSheet   = "Остатки"
	journalSheet = "Журнал"
)

var stockHeader = []interface{}{"type", "id", "name", "available", "unit", "low"}

var journalHeader = []interface{}{
	"report_id", "created_at", "workcenter_type", "workcenter_id",
	"order_id", "order_name", "step_id", "step_name",
	"item_type", "item_id", "item_name", "quantity", "unit",
}

// StockXLSX снимок остатков; lowThreshold <= 0 отключает пометку.
func StockXLSX(snap *workflow.StockSnapshot, lowThreshold decimal.Decimal) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("stock snapshot is empty")
	}
	f, sheet, err := newBook(stockSheet)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if err := f.SetSheetRow(sheet, "A1", &stockHeader); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	row := 2
	for _, e := range snap.Entries {
		low := ""
		if IsLow(e.Available, lowThreshold) {
			low = "!"
		}
		values := []interface{}{string(e.Type), e.ID, e.Name, e.Available.InexactFloat64(), e.Unit, low}
		if err := setRow(f, sheet, row, values); err != nil {
			return nil, err
		}
		row++
	}
	return write(f)
}

// JournalXLSX одна строка на позицию отчёта.
func JournalXLSX(reports []usage.Report) ([]byte, error) {
	f, sheet, err := newBook(journalSheet)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if err := f.SetSheetRow(sheet, "A1", &journalHeader); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	row := 2
	for _, r := range reports {
		for _, it := range r.Items {
			values := []interface{}{
				r.ID.String(),
				r.CreatedAt.Format(time.DateTime),
				r.WorkcenterType,
				r.WorkcenterID,
				r.OrderID,
				r.OrderName,
				r.ProductionStepID,
				r.StepName,
				string(it.ItemType),
				it.ItemID,
				it.Name,
				it.Quantity.String(),
				it.Unit,
			}
			if err := setRow(f, sheet, row, values); err != nil {
				return nil, err
			}
			row++
		}
	}
	return write(f)
}

// IsLow остаток на пороге или ниже. Нулевой порог выключает проверку.
func IsLow(available, threshold decimal.Decimal) bool {
	return threshold.IsPositive() && available.LessThanOrEqual(threshold)
}

func newBook(name string) (*excelize.File, string, error) {
	f := excelize.NewFile()
	def := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(def, name); err != nil {
		_ = f.Close()
		return nil, "", err
	}
	return f, name, nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	return nil
}

func write(f *excelize.File) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName имя файла выгрузки с отметкой времени.
func FileName(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, at.Format("20060102_150405"))
}
