package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Spok95/shopfloor/internal/infra/logger"
	"github.com/Spok95/shopfloor/internal/report"
	"github.com/Spok95/shopfloor/internal/workflow"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	lowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	headStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
)

func newStockCommand(app *App) *cobra.Command {
	var xlsxPath string
	cmd := &cobra.Command{
		Use:   "stock <workcenter-id>",
		Short: "Show available materials and products of a workcenter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid workcenter id %q", args[0])
			}
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			client := newBackend(cfg, logger.New(cfg.App.Env), nil)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Backend.Timeout)
			defer cancel()
			snap, err := client.WorkcenterStock(ctx, id)
			if err != nil {
				return err
			}

			low := decimal.NewFromFloat(cfg.Workflow.LowStockThreshold)
			fmt.Fprintln(cmd.OutOrStdout(), renderStockTable(snap, low))

			if xlsxPath != "" {
				return writeStockXLSX(xlsxPath, snap, low)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the snapshot to this xlsx file")
	return cmd
}

func renderStockTable(snap *workflow.StockSnapshot, low decimal.Decimal) string {
	var sb strings.Builder
	title := fmt.Sprintf("Workcenter %d", snap.WorkcenterID)
	if snap.Location != "" {
		title += " · " + snap.Location
	}
	sb.WriteString(titleStyle.Render(title) + "\n")

	if len(snap.Entries) == 0 {
		sb.WriteString("no materials or products available")
		return sb.String()
	}

	rows := make([][]string, 0, len(snap.Entries))
	lowRows := map[int]bool{}
	for _, e := range append(snap.Materials(), snap.Products()...) {
		if report.IsLow(e.Available, low) {
			lowRows[len(rows)] = true
		}
		rows = append(rows, []string{string(e.Type), strconv.FormatInt(e.ID, 10), e.Name, e.Available.String(), e.Unit})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TYPE", "ID", "NAME", "AVAILABLE", "UNIT").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headStyle
			case lowRows[row]:
				return lowStyle.Padding(0, 1)
			}
			return cellStyle
		})
	sb.WriteString(t.String())
	return sb.String()
}
