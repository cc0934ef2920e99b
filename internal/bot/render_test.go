package bot

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/shopfloor/internal/dialog"
	"github.com/Spok95/shopfloor/internal/domain/usage"
	"github.com/Spok95/shopfloor/internal/workflow"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func cartSession(t *testing.T) *workflow.Session {
	t.Helper()
	s := workflow.NewSession()
	s.SelectWorkcenterType(workflow.WCExtruder)
	s.SelectOrder(&workflow.Order{ID: 1, Name: "O1"})
	s.SelectProductionStep(&workflow.ProductionStep{ID: 11, Name: "S1", WorkcenterID: 100})
	return s
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]string{
		"5":      "5",
		"2,5":    "2.5",
		" 0.25 ": "0.25",
		"1 000":  "1000",
		"-3":     "-3",
	}
	for in, want := range cases {
		got, err := parseQuantity(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(dec(want)), in)
	}

	for _, in := range []string{"", "abc", "1,2,3", "5kg"} {
		_, err := parseQuantity(in)
		assert.ErrorIs(t, err, errBadQuantity, in)
	}
}

func TestRenderTypes_StepIndicator(t *testing.T) {
	s := workflow.NewSession()
	assert.Contains(t, renderTypes(s), "Шаг 1/4")
}

func TestRenderCart(t *testing.T) {
	s := cartSession(t)
	text := renderCart(s)
	assert.Contains(t, text, "Шаг 4/4")
	assert.Contains(t, text, "Заказ: O1")
	assert.Contains(t, text, "Этап: S1")
	assert.Contains(t, text, "Корзина пуста")

	require.NoError(t, s.AddItem(workflow.SelectedItem{
		ID: 1, Name: "M1", Type: workflow.ItemMaterial, Quantity: dec("5"), Unit: "kg", Available: dec("10"),
	}))
	text = renderCart(s)
	assert.Contains(t, text, "1. M1 — 5 kg (материал)")
	assert.NotContains(t, text, "Корзина пуста")
}

type stubLookup struct{ snap *workflow.StockSnapshot }

func (l stubLookup) WorkcenterStock(context.Context, int64) (*workflow.StockSnapshot, error) {
	return l.snap, nil
}

func TestRenderStock(t *testing.T) {
	s := cartSession(t)
	assert.Contains(t, renderStock(s, dec("1")), "нет доступных")

	_, err := s.LoadStock(context.Background(), stubLookup{snap: &workflow.StockSnapshot{
		WorkcenterID: 100,
		Location:     "Hall A",
		Entries: []workflow.StockEntry{
			{ID: 1, Name: "M1", Type: workflow.ItemMaterial, Available: dec("0.5"), Unit: "kg"},
		},
	}})
	require.NoError(t, err)

	text := renderStock(s, dec("1"))
	assert.Contains(t, text, "Участок: Hall A")
	assert.Contains(t, text, "остаток на исходе")
	assert.NotContains(t, renderStock(s, decimal.Zero), "остаток на исходе")
}

func TestRenderAskQty(t *testing.T) {
	e := workflow.StockEntry{ID: 2, Name: "P1", Type: workflow.ItemProduct, Available: dec("3"), Unit: "pcs"}
	assert.Contains(t, renderAskQty(e, nil), "Доступно: 3 pcs")

	cur := workflow.NewSelectedItem(e, dec("2"))
	assert.Contains(t, renderAskQty(e, &cur), "Сейчас в корзине: 2 pcs")
}

func TestRenderSubmitted(t *testing.T) {
	assert.Equal(t, "✅ Расход отправлен.", renderSubmitted(&workflow.SubmitResult{Success: true}))
	assert.Contains(t, renderSubmitted(&workflow.SubmitResult{Success: true, Message: "Saved 2 items"}), "Saved 2 items")
}

func TestRenderHistory(t *testing.T) {
	assert.Equal(t, "Отправок пока нет.", renderHistory(nil, nil))

	reports := []usage.Report{{
		OrderName: "O1",
		StepName:  "S1",
		CreatedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		Items:     []usage.ReportItem{{Name: "M1", Quantity: dec("5"), Unit: "kg"}},
	}}
	text := renderHistory(reports, time.UTC)
	assert.Contains(t, text, "01.03 10:30 · O1 · S1")
	assert.Contains(t, text, "M1 — 5 kg")
}

func TestBackFrom(t *testing.T) {
	cases := []struct {
		from dialog.State
		to   dialog.State
		step workflow.Step
	}{
		{dialog.StateWfOrder, dialog.StateWfType, workflow.StepWorkcenterType},
		{dialog.StateWfStep, dialog.StateWfOrder, workflow.StepOrder},
		{dialog.StateWfCart, dialog.StateWfStep, workflow.StepProduction},
		{dialog.StateWfPickItem, dialog.StateWfCart, workflow.StepMaterials},
		{dialog.StateWfItemQty, dialog.StateWfCart, workflow.StepMaterials},
		{dialog.StateWfConfirm, dialog.StateWfCart, workflow.StepMaterials},
	}
	for _, tc := range cases {
		to, step, ok := backFrom(tc.from)
		require.True(t, ok, tc.from)
		assert.Equal(t, tc.to, to)
		assert.Equal(t, tc.step, step)
	}

	_, _, ok := backFrom(dialog.StateWfType)
	assert.False(t, ok)
	_, _, ok = backFrom(dialog.StateIdle)
	assert.False(t, ok)
}

func TestFindOrderAndStep(t *testing.T) {
	orders := []workflow.Order{{ID: 1, Name: "O1"}, {ID: 2, Name: "O2"}}
	o := findOrder(orders, 2)
	require.NotNil(t, o)
	assert.Equal(t, "O2", o.Name)
	o.Name = "changed"
	assert.Equal(t, "O2", orders[1].Name)
	assert.Nil(t, findOrder(orders, 3))

	steps := []workflow.ProductionStep{{ID: 11, Name: "S1"}}
	assert.NotNil(t, findStep(steps, 11))
	assert.Nil(t, findStep(steps, 12))
}
