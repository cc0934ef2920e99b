package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/shopfloor/internal/workflow"
)

func TestTypesKeyboard(t *testing.T) {
	kb := typesKeyboard([]workflow.WorkcenterType{workflow.WCExtruder, workflow.WCLaminator, workflow.WCPrinter})
	rows := kb.InlineKeyboard
	require.Len(t, rows, 3)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[1], 1)
	require.NotNil(t, rows[0][0].CallbackData)
	assert.Equal(t, "wf:type:EXTRUDER", *rows[0][0].CallbackData)
	assert.Equal(t, dataCancel, *rows[2][0].CallbackData)
}

func TestCartKeyboard(t *testing.T) {
	items := []workflow.SelectedItem{{ID: 1, Name: "M1", Type: workflow.ItemMaterial, Quantity: dec("1")}}

	kb := cartKeyboard(items, true)
	rows := kb.InlineKeyboard
	// позиция, добавить, обновить, к отправке, навигация
	require.Len(t, rows, 5)
	assert.Equal(t, "wf:edit:material:1", *rows[0][0].CallbackData)
	assert.Equal(t, "wf:rm:material:1", *rows[0][1].CallbackData)
	assert.Equal(t, "wf:confirm", *rows[3][0].CallbackData)

	empty := cartKeyboard(nil, false)
	require.Len(t, empty.InlineKeyboard, 2)
	assert.Equal(t, "wf:reload", *empty.InlineKeyboard[0][0].CallbackData)
}

func TestStockKeyboard_MaterialsFirstAndLowFlag(t *testing.T) {
	snap := &workflow.StockSnapshot{Entries: []workflow.StockEntry{
		{ID: 2, Name: "P1", Type: workflow.ItemProduct, Available: dec("3"), Unit: "pcs"},
		{ID: 1, Name: "M1", Type: workflow.ItemMaterial, Available: dec("0.5"), Unit: "kg"},
	}}

	kb := stockKeyboard(snap, dec("1"))
	rows := kb.InlineKeyboard
	require.Len(t, rows, 3)
	assert.Equal(t, "⚠️ M1 · 0.5 kg", rows[0][0].Text)
	assert.Equal(t, "wf:pick:material:1", *rows[0][0].CallbackData)
	assert.Equal(t, "P1 · 3 pcs", rows[1][0].Text)
}
