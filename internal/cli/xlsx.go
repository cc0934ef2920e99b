package cli

import (
	"os"

	"github.com/shopspring/decimal"

	"github.com/Spok95/shopfloor/internal/report"
	"github.com/Spok95/shopfloor/internal/workflow"
)

func writeStockXLSX(path string, snap *workflow.StockSnapshot, low decimal.Decimal) error {
	data, err := report.StockXLSX(snap, low)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
