package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/shopfloor/internal/dialog"
	"github.com/Spok95/shopfloor/internal/domain/usage"
	"github.com/Spok95/shopfloor/internal/report"
	"github.com/Spok95/shopfloor/internal/workflow"
)

var errBadQuantity = errors.New("введите число, например 2.5 или 2,5")

// parseQuantity десятичная запятая допускается. Границы проверяет корзина.
func parseQuantity(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, errBadQuantity
	}
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errBadQuantity
	}
	return q, nil
}

func itemTypeLabel(t workflow.ItemType) string {
	if t == workflow.ItemProduct {
		return "продукт"
	}
	return "материал"
}

func header(s *workflow.Session, title string) string {
	return s.StepIndicator() + " · " + title
}

func renderTypes(s *workflow.Session) string {
	return header(s, "Выберите тип рабочего центра:")
}

func renderOrders(s *workflow.Session, orders []workflow.Order) string {
	var sb strings.Builder
	sb.WriteString(header(s, "Выберите заказ") + "\n")
	sb.WriteString("Тип: " + string(s.WorkcenterType()) + "\n")
	if len(orders) == 0 {
		sb.WriteString("\nЗаказов в работе нет.")
	}
	return sb.String()
}

func renderSteps(s *workflow.Session, steps []workflow.ProductionStep) string {
	var sb strings.Builder
	sb.WriteString(header(s, "Выберите производственный этап") + "\n")
	sb.WriteString("Тип: " + string(s.WorkcenterType()) + "\n")
	if o := s.Order(); o != nil {
		sb.WriteString("Заказ: " + o.Name + "\n")
	}
	if len(steps) == 0 {
		sb.WriteString("\nНет этапов для этого типа рабочего центра.")
	}
	return sb.String()
}

// renderSelection шапка шага 4: что выбрано и где.
func renderSelection(s *workflow.Session) string {
	var sb strings.Builder
	sb.WriteString("Тип: " + string(s.WorkcenterType()) + "\n")
	if o := s.Order(); o != nil {
		sb.WriteString("Заказ: " + o.Name + "\n")
	}
	if ps := s.ProductionStep(); ps != nil {
		sb.WriteString("Этап: " + ps.Name + "\n")
	}
	if st := s.Stock(); st != nil && st.Location != "" {
		sb.WriteString("Участок: " + st.Location + "\n")
	}
	return sb.String()
}

func renderItems(items []workflow.SelectedItem) string {
	var sb strings.Builder
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. %s — %s %s (%s)\n", i+1, it.Name, it.Quantity.String(), it.Unit, itemTypeLabel(it.Type))
	}
	return sb.String()
}

func renderCart(s *workflow.Session) string {
	var sb strings.Builder
	sb.WriteString(header(s, "Материалы и продукты") + "\n")
	sb.WriteString(renderSelection(s))
	if e := s.StockError(); e != "" {
		sb.WriteString("\n⚠️ Не удалось загрузить остатки: " + e + "\n")
	}
	if e := s.SubmitError(); e != "" {
		sb.WriteString("\n⚠️ Ошибка отправки: " + e + "\n")
	}
	items := s.Items()
	if len(items) == 0 {
		sb.WriteString("\nКорзина пуста. Нажмите «Добавить позицию».")
		return sb.String()
	}
	sb.WriteString("\nКорзина:\n")
	sb.WriteString(renderItems(items))
	return sb.String()
}

func renderStock(s *workflow.Session, low decimal.Decimal) string {
	var sb strings.Builder
	sb.WriteString(header(s, "Выберите позицию") + "\n")
	snap := s.Stock()
	if snap == nil || len(snap.Entries) == 0 {
		sb.WriteString("\nНа рабочем центре нет доступных материалов и продуктов.")
		return sb.String()
	}
	if snap.Location != "" {
		sb.WriteString("Участок: " + snap.Location + "\n")
	}
	for _, e := range snap.Entries {
		if report.IsLow(e.Available, low) {
			sb.WriteString("\n⚠️ — остаток на исходе")
			break
		}
	}
	return sb.String()
}

func renderAskQty(e workflow.StockEntry, current *workflow.SelectedItem) string {
	s := fmt.Sprintf("Введите количество для «%s» (%s).\nДоступно: %s %s",
		e.Name, itemTypeLabel(e.Type), e.Available.String(), e.Unit)
	if current != nil {
		s += fmt.Sprintf("\nСейчас в корзине: %s %s", current.Quantity.String(), current.Unit)
	}
	return s
}

func renderConfirm(s *workflow.Session) string {
	var sb strings.Builder
	sb.WriteString("Проверьте и отправьте расход:\n\n")
	sb.WriteString(renderSelection(s))
	sb.WriteString("\n")
	sb.WriteString(renderItems(s.Items()))
	return sb.String()
}

func renderSubmitted(res *workflow.SubmitResult) string {
	s := "✅ Расход отправлен."
	if res != nil && res.Message != "" {
		s += "\n" + res.Message
	}
	return s
}

func renderHistory(reports []usage.Report, loc *time.Location) string {
	if len(reports) == 0 {
		return "Отправок пока нет."
	}
	if loc == nil {
		loc = time.UTC
	}
	var sb strings.Builder
	sb.WriteString("Последние отправки:\n")
	for _, r := range reports {
		fmt.Fprintf(&sb, "\n%s · %s · %s\n", r.CreatedAt.In(loc).Format("02.01 15:04"), r.OrderName, r.StepName)
		for _, it := range r.Items {
			fmt.Fprintf(&sb, "  • %s — %s %s\n", it.Name, it.Quantity.String(), it.Unit)
		}
	}
	return sb.String()
}

// backFrom куда ведёт «Назад» из экрана сценария. Выбор при этом не сбрасывается.
func backFrom(st dialog.State) (dialog.State, workflow.Step, bool) {
	switch st {
	case dialog.StateWfOrder:
		return dialog.StateWfType, workflow.StepWorkcenterType, true
	case dialog.StateWfStep:
		return dialog.StateWfOrder, workflow.StepOrder, true
	case dialog.StateWfCart:
		return dialog.StateWfStep, workflow.StepProduction, true
	case dialog.StateWfPickItem, dialog.StateWfItemQty, dialog.StateWfEditQty, dialog.StateWfConfirm:
		return dialog.StateWfCart, workflow.StepMaterials, true
	}
	return "", 0, false
}
