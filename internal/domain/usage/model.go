package usage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Spok95/shopfloor/internal/workflow"
)

// Report запись журнала: успешно отправленный в MES расход.
type Report struct {
	ID               uuid.UUID
	OperatorID       int64
	TelegramID       int64
	WorkcenterType   string
	WorkcenterID     int64
	OrderID          int64
	OrderName        string
	ProductionStepID int64
	StepName         string
	Message          string
	CreatedAt        time.Time
	Items            []ReportItem
}

type ReportItem struct {
	ItemID   int64
	ItemType workflow.ItemType
	Name     string
	Quantity decimal.Decimal
	Unit     string
}

// NewReport снимает данные с сессии до отправки: после успеха сессия сбрасывается.
func NewReport(telegramID, operatorID int64, wcType workflow.WorkcenterType, order *workflow.Order,
	step *workflow.ProductionStep, items []workflow.SelectedItem) *Report {

	r := &Report{
		ID:             uuid.New(),
		OperatorID:     operatorID,
		TelegramID:     telegramID,
		WorkcenterType: string(wcType),
		Items:          make([]ReportItem, 0, len(items)),
	}
	if order != nil {
		r.OrderID = order.ID
		r.OrderName = order.Name
	}
	if step != nil {
		r.ProductionStepID = step.ID
		r.StepName = step.Name
		r.WorkcenterID = step.WorkcenterID
	}
	for _, it := range items {
		r.Items = append(r.Items, ReportItem{
			ItemID:   it.ID,
			ItemType: it.Type,
			Name:     it.Name,
			Quantity: it.Quantity,
			Unit:     it.Unit,
		})
	}
	return r
}

func workflowItemType(s string) workflow.ItemType {
	if s == string(workflow.ItemProduct) {
		return workflow.ItemProduct
	}
	return workflow.ItemMaterial
}
