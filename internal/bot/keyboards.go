package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/shopfloor/internal/report"
	"github.com/Spok95/shopfloor/internal/workflow"
)

const (
	btnUsage      = "Учёт расхода"
	btnStockXLSX  = "Остатки в Excel"
	btnHistory    = "Мои отправки"
	btnJournalXLS = "Журнал в Excel"
)

func navKeyboard(back bool, cancel bool) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(navRow(back, cancel))
}

func navRow(back bool, cancel bool) []tgbotapi.InlineKeyboardButton {
	row := []tgbotapi.InlineKeyboardButton{}
	if back {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", dataBack))
	}
	if cancel {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", dataCancel))
	}
	return row
}

// operatorReplyKeyboard нижняя панель оператора
func operatorReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnUsage)},
			{tgbotapi.NewKeyboardButton(btnStockXLSX)},
			{tgbotapi.NewKeyboardButton(btnHistory), tgbotapi.NewKeyboardButton(btnJournalXLS)},
		},
	}
}

func typesKeyboard(types []workflow.WorkcenterType) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(types); i += 2 {
		row := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(string(types[i]), cbType(types[i])))
		if i+1 < len(types) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(string(types[i+1]), cbType(types[i+1])))
		}
		rows = append(rows, row)
	}
	rows = append(rows, navRow(false, true))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func ordersKeyboard(orders []workflow.Order) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, o := range orders {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(o.Name, cbOrder(o.ID)),
		))
	}
	rows = append(rows, navRow(true, true))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func stepsKeyboard(steps []workflow.ProductionStep) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range steps {
		label := s.Name
		if s.StepType != "" {
			label = fmt.Sprintf("%s (%s)", s.Name, s.StepType)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbStep(s.ID)),
		))
	}
	rows = append(rows, navRow(true, true))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// cartKeyboard шаг 4: позиции корзины с правкой/удалением, добавление, отправка.
func cartKeyboard(items []workflow.SelectedItem, hasStock bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, it := range items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ "+it.Name, cbItem(actEdit, it.Key())),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbItem(actRemove, it.Key())),
		))
	}
	if hasStock {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить позицию", cbSimple(actAdd)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Обновить остатки", cbSimple(actReload)),
	))
	if len(items) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ К отправке", cbSimple(actConfirm)),
		))
	}
	rows = append(rows, navRow(true, true))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// stockKeyboard остатки рабочего центра: сначала материалы, потом продукты.
func stockKeyboard(snap *workflow.StockSnapshot, low decimal.Decimal) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	add := func(entries []workflow.StockEntry) {
		for _, e := range entries {
			label := fmt.Sprintf("%s · %s %s", e.Name, e.Available.String(), e.Unit)
			if report.IsLow(e.Available, low) {
				label = "⚠️ " + label
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, cbItem(actPick, e.Key())),
			))
		}
	}
	if snap != nil {
		add(snap.Materials())
		add(snap.Products())
	}
	rows = append(rows, navRow(true, true))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📨 Отправить", cbSimple(actSend)),
		),
		navRow(true, true),
	)
}
