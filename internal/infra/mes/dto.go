package mes

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Spok95/shopfloor/internal/workflow"
)

// у продуктов в ответе остатков нет единицы измерения
const defaultProductUnit = "pcs"

type orderDTO struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Status           string          `json:"status"`
	ProducedQuantity decimal.Decimal `json:"produced_quantity"`
}

func (d orderDTO) toDomain() workflow.Order {
	return workflow.Order{
		ID:               d.ID,
		Name:             d.Name,
		Status:           d.Status,
		ProducedQuantity: d.ProducedQuantity,
	}
}

type productionStepDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	StepType   string `json:"step_type"`
	Workcenter int64  `json:"workcenter"`
}

func (d productionStepDTO) toDomain() workflow.ProductionStep {
	return workflow.ProductionStep{
		ID:           d.ID,
		Name:         d.Name,
		StepType:     d.StepType,
		WorkcenterID: d.Workcenter,
	}
}

type stockMaterialDTO struct {
	ID       int64           `json:"material__id"`
	Name     string          `json:"material__name"`
	Unit     string          `json:"material__unit_of_measure"`
	Quantity decimal.Decimal `json:"quantity"`
}

type stockProductDTO struct {
	ID       int64           `json:"product__id"`
	Name     string          `json:"product__name"`
	Quantity decimal.Decimal `json:"quantity"`
}

type stockDTO struct {
	WorkcenterLocation string             `json:"workcenter_location"`
	Materials          []stockMaterialDTO `json:"materials"`
	Products           []stockProductDTO  `json:"products"`
}

func (d stockDTO) toDomain(workcenterID int64) *workflow.StockSnapshot {
	snap := &workflow.StockSnapshot{
		WorkcenterID: workcenterID,
		Location:     d.WorkcenterLocation,
		Entries:      make([]workflow.StockEntry, 0, len(d.Materials)+len(d.Products)),
	}
	for _, m := range d.Materials {
		snap.Entries = append(snap.Entries, workflow.StockEntry{
			ID:        m.ID,
			Name:      m.Name,
			Type:      workflow.ItemMaterial,
			Available: m.Quantity,
			Unit:      m.Unit,
		})
	}
	for _, p := range d.Products {
		snap.Entries = append(snap.Entries, workflow.StockEntry{
			ID:        p.ID,
			Name:      p.Name,
			Type:      workflow.ItemProduct,
			Available: p.Quantity,
			Unit:      defaultProductUnit,
		})
	}
	return snap
}

// decodeList принимает и голый массив, и страницу вида {"results": [...]}.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	var out []T
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &out)
		return out, err
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}
