package usage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/shopfloor/internal/workflow"
)

func TestNewReport(t *testing.T) {
	order := &workflow.Order{ID: 1, Name: "O1"}
	step := &workflow.ProductionStep{ID: 11, Name: "Extrusion", WorkcenterID: 100}
	items := []workflow.SelectedItem{
		{ID: 5, Name: "PE", Type: workflow.ItemMaterial, Quantity: decimal.RequireFromString("2.5"), Unit: "kg"},
		{ID: 6, Name: "Roll", Type: workflow.ItemProduct, Quantity: decimal.NewFromInt(1), Unit: "pcs"},
	}

	rep := NewReport(555, 77, workflow.WCExtruder, order, step, items)

	assert.NotEqual(t, uuid.Nil, rep.ID)
	assert.Equal(t, int64(77), rep.OperatorID)
	assert.Equal(t, int64(555), rep.TelegramID)
	assert.Equal(t, "EXTRUDER", rep.WorkcenterType)
	assert.Equal(t, int64(100), rep.WorkcenterID)
	assert.Equal(t, "O1", rep.OrderName)
	assert.Equal(t, "Extrusion", rep.StepName)
	require.Len(t, rep.Items, 2)
	assert.Equal(t, workflow.ItemProduct, rep.Items[1].ItemType)
	assert.True(t, rep.Items[0].Quantity.Equal(decimal.RequireFromString("2.5")))
}

func TestNewReport_NilSelections(t *testing.T) {
	rep := NewReport(1, 2, "", nil, nil, nil)

	assert.Zero(t, rep.OrderID)
	assert.Zero(t, rep.WorkcenterID)
	assert.Empty(t, rep.Items)
}

func TestWorkflowItemType(t *testing.T) {
	assert.Equal(t, workflow.ItemProduct, workflowItemType("product"))
	assert.Equal(t, workflow.ItemMaterial, workflowItemType("material"))
	assert.Equal(t, workflow.ItemMaterial, workflowItemType("unknown"))
}
