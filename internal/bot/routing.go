package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/shopfloor/internal/dialog"
)

const helpText = `Команды:
/start — регистрация и главное меню
/usage — учёт расхода материалов и продуктов
/history — мои последние отправки
/stock_xlsx — остатки текущего рабочего центра в Excel
/journal_xlsx — журнал моих отправок в Excel
/cancel — прервать текущий сценарий`

const adminHelpText = `

Администратор:
/pending — заявки на активацию
/approve <telegram_id> <operator_id> — активировать оператора
/deactivate <telegram_id> — отключить оператора`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	tgID := msg.From.ID

	switch msg.Command() {
	case "start":
		b.onboard(ctx, msg)

	case "help":
		text := helpText
		if b.isAdmin(tgID) {
			text += adminHelpText
		}
		b.sendText(chatID, text)

	case "usage":
		if _, ok := b.activeOperator(ctx, chatID, tgID); !ok {
			return
		}
		b.clearPrevStep(ctx, chatID)
		b.startUsage(ctx, chatID, 0)

	case "cancel":
		b.clearPrevStep(ctx, chatID)
		if c, ok := b.chats[chatID]; ok {
			c.session.Reset()
		}
		_ = b.states.Reset(ctx, chatID)
		b.sendText(chatID, "Операция отменена.")

	case "history":
		b.sendHistory(ctx, chatID, tgID)

	case "stock_xlsx":
		b.sendStockXLSX(ctx, chatID, tgID)

	case "journal_xlsx":
		b.sendJournalXLSX(ctx, chatID, tgID)

	case "pending", "approve", "deactivate":
		if !b.isAdmin(tgID) {
			b.sendText(chatID, "Доступ запрещён")
			return
		}
		switch msg.Command() {
		case "pending":
			b.adminPending(ctx, chatID)
		case "approve":
			b.adminApprove(ctx, chatID, msg.CommandArguments())
		case "deactivate":
			b.adminDeactivate(ctx, chatID, msg.CommandArguments())
		}

	default:
		b.sendText(chatID, "Не знаю такую команду. Наберите /help")
	}
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	tgID := msg.From.ID

	// Нижняя панель оператора
	switch msg.Text {
	case btnUsage:
		if _, ok := b.activeOperator(ctx, chatID, tgID); !ok {
			return
		}
		b.clearPrevStep(ctx, chatID)
		b.startUsage(ctx, chatID, 0)
		return
	case btnStockXLSX:
		b.sendStockXLSX(ctx, chatID, tgID)
		return
	case btnHistory:
		b.sendHistory(ctx, chatID, tgID)
		return
	case btnJournalXLS:
		b.sendJournalXLSX(ctx, chatID, tgID)
		return
	}

	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.log.Error("get dialog state failed", "chat_id", chatID, "err", err)
		return
	}

	switch st.State {
	case dialog.StateRegAwaitName:
		b.onName(ctx, msg)
	case dialog.StateRegPending:
		b.sendText(chatID, "Заявка на рассмотрении у администратора.")
	case dialog.StateWfItemQty, dialog.StateWfEditQty:
		b.onQtyText(ctx, msg, st)
	default:
		if st.State.IsWorkflow() {
			b.sendText(chatID, "Используйте кнопки под сообщением.")
			return
		}
		b.sendText(chatID, "Наберите /help")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// повторный ответ на тот же callback Telegram отклонит, ошибка игнорируется
	defer func() { _ = b.answerCallback(cb, "", false) }()

	chatID := cb.Message.Chat.ID
	data, ok := parseCallback(cb.Data)
	if !ok {
		b.log.Warn("unknown callback", "data", cb.Data)
		return
	}

	if data.Action == actCancel {
		b.onCancel(ctx, cb)
		return
	}
	// старая клавиатура остаётся у отключённого оператора
	if _, deny := b.checkOperator(ctx, cb.From.ID); deny != "" {
		_ = b.answerCallback(cb, deny, true)
		return
	}

	switch data.Action {
	case actType:
		b.onType(ctx, chatID, cb.Message.MessageID, data.Type)
		return
	}

	// после перезапуска сессий в памяти нет
	if b.chat(chatID).session.WorkcenterType() == "" {
		_ = b.answerCallback(cb, "Сессия устарела, начните заново", false)
		b.startUsage(ctx, chatID, cb.Message.MessageID)
		return
	}

	switch data.Action {
	case actBack:
		b.onBack(ctx, cb)
	case actOrder:
		b.onOrder(ctx, cb, data.ID)
	case actStep:
		b.onStep(ctx, cb, data.ID)
	case actCart:
		b.showCart(ctx, chatID, cb.Message.MessageID)
	case actAdd:
		b.showStock(ctx, cb)
	case actPick:
		b.askQty(ctx, cb, data.Key, dialog.StateWfItemQty)
	case actEdit:
		b.askQty(ctx, cb, data.Key, dialog.StateWfEditQty)
	case actRemove:
		b.onRemove(ctx, cb, data.Key)
	case actReload:
		b.onReload(ctx, cb)
	case actConfirm:
		b.showConfirm(ctx, cb)
	case actSend:
		b.onSend(ctx, cb)
	}
}
