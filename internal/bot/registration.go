package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/shopfloor/internal/dialog"
	"github.com/Spok95/shopfloor/internal/domain/operators"
)

func (b *Bot) askName(chatID int64) {
	m := tgbotapi.NewMessage(chatID, "Введите, пожалуйста, ФИО одной строкой.")
	m.ReplyMarkup = navKeyboard(false, true)
	b.send(m)
}

func (b *Bot) isAdmin(tgID int64) bool {
	return b.opts.AdminChatID != 0 && tgID == b.opts.AdminChatID
}

const (
	textProfileError = "Ошибка: не удалось загрузить профиль."
	textAccessDenied = "Доступ запрещён: учётная запись ещё не активирована администратором."
)

// checkOperator оператор, которому разрешён сценарий расхода;
// иначе текст отказа.
func (b *Bot) checkOperator(ctx context.Context, tgID int64) (*operators.Operator, string) {
	op, err := b.operators.GetByTelegramID(ctx, tgID)
	if err != nil {
		b.log.Error("get operator failed", "tg_id", tgID, "err", err)
		return nil, textProfileError
	}
	if !op.CanSubmit() {
		return nil, textAccessDenied
	}
	return op, ""
}

func (b *Bot) activeOperator(ctx context.Context, chatID, tgID int64) (*operators.Operator, bool) {
	op, deny := b.checkOperator(ctx, tgID)
	if deny != "" {
		b.sendText(chatID, deny)
		return nil, false
	}
	return op, true
}

func (b *Bot) onboard(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	op, err := b.operators.GetByTelegramID(ctx, msg.From.ID)
	if err != nil {
		b.sendText(chatID, textProfileError)
		return
	}
	switch {
	case op.CanSubmit():
		m := tgbotapi.NewMessage(chatID, fmt.Sprintf("Здравствуйте, %s! Для учёта расхода жмите «%s».", op.FullName, btnUsage))
		m.ReplyMarkup = operatorReplyKeyboard()
		b.send(m)
	case op != nil:
		b.setState(ctx, chatID, dialog.StateRegPending, dialog.Payload{})
		b.sendText(chatID, "Заявка отправлена, ждём активации администратором.")
	default:
		b.setState(ctx, chatID, dialog.StateRegAwaitName, dialog.Payload{})
		b.askName(chatID)
	}
}

func (b *Bot) onName(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	name := strings.TrimSpace(msg.Text)
	if len([]rune(name)) < 3 {
		b.sendText(chatID, "ФИО выглядит пустым. Введите корректно.")
		return
	}
	tg := operators.Telegram{
		ID:        msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	}
	op, err := b.operators.Register(ctx, tg, name)
	if err != nil {
		b.log.Error("register operator failed", "tg_id", tg.ID, "err", err)
		b.sendText(chatID, "Ошибка сохранения, попробуйте ещё раз.")
		return
	}
	b.setState(ctx, chatID, dialog.StateRegPending, dialog.Payload{})
	b.sendText(chatID, "Заявка отправлена, ждём активации администратором.")

	if b.opts.AdminChatID != 0 {
		b.sendText(b.opts.AdminChatID, pendingLine(*op)+"\nАктивировать: /approve "+
			strconv.FormatInt(op.TelegramID, 10)+" <id оператора в MES>")
	}
}

func pendingLine(o operators.Operator) string {
	s := fmt.Sprintf("%s (tg %d", o.FullName, o.TelegramID)
	if o.Username != "" {
		s += ", @" + o.Username
	}
	return s + ")"
}

// parseApproveArgs "<telegram_id> <operator_id>".
func parseApproveArgs(args string) (tgID, operatorID int64, err error) {
	f := strings.Fields(args)
	if len(f) != 2 {
		return 0, 0, fmt.Errorf("ожидается: /approve <telegram_id> <operator_id>")
	}
	if tgID, err = strconv.ParseInt(f[0], 10, 64); err != nil || tgID <= 0 {
		return 0, 0, fmt.Errorf("некорректный telegram_id %q", f[0])
	}
	if operatorID, err = strconv.ParseInt(f[1], 10, 64); err != nil || operatorID <= 0 {
		return 0, 0, fmt.Errorf("некорректный operator_id %q", f[1])
	}
	return tgID, operatorID, nil
}

func (b *Bot) adminApprove(ctx context.Context, chatID int64, args string) {
	tgID, operatorID, err := parseApproveArgs(args)
	if err != nil {
		b.sendText(chatID, err.Error())
		return
	}
	op, err := b.operators.Activate(ctx, tgID, operatorID)
	if err != nil {
		b.log.Error("activate operator failed", "tg_id", tgID, "err", err)
		b.sendText(chatID, "Ошибка активации.")
		return
	}
	if op == nil {
		b.sendText(chatID, "Оператор не найден.")
		return
	}
	b.setState(ctx, op.TelegramID, dialog.StateIdle, dialog.Payload{})
	b.sendText(chatID, "Активирован: "+pendingLine(*op))

	m := tgbotapi.NewMessage(op.TelegramID, fmt.Sprintf("Учётная запись активирована. Для учёта расхода жмите «%s».", btnUsage))
	m.ReplyMarkup = operatorReplyKeyboard()
	b.send(m)
}

func (b *Bot) adminPending(ctx context.Context, chatID int64) {
	list, err := b.operators.ListPending(ctx)
	if err != nil {
		b.sendText(chatID, "Ошибка загрузки заявок.")
		return
	}
	if len(list) == 0 {
		b.sendText(chatID, "Заявок нет.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Ожидают активации:\n")
	for _, o := range list {
		sb.WriteString("• " + pendingLine(o) + "\n")
	}
	b.sendText(chatID, sb.String())
}

func (b *Bot) adminDeactivate(ctx context.Context, chatID int64, args string) {
	tgID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		b.sendText(chatID, "Ожидается: /deactivate <telegram_id>")
		return
	}
	if err := b.operators.Deactivate(ctx, tgID); err != nil {
		b.sendText(chatID, "Ошибка деактивации.")
		return
	}
	delete(b.chats, tgID)
	b.sendText(chatID, "Оператор отключён.")
}
