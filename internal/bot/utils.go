package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/shopfloor/internal/dialog"
)

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) error {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	_, err := b.api.Request(resp)
	return err
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

// show редактирует сообщение editMID или отправляет новое. Возвращает id сообщения с экраном.
func (b *Bot) show(chatID int64, editMID int, text string, kb tgbotapi.InlineKeyboardMarkup) int {
	if editMID > 0 {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, editMID, text, kb))
		return editMID
	}
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = kb
	sent, err := b.api.Send(m)
	if err != nil {
		b.log.Error("send failed", "err", err)
		return 0
	}
	return sent.MessageID
}

func (b *Bot) editTextAndClear(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, messageID, text,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	b.send(edit)
}

// clearPrevStep убрать inline-кнопки у прошлого экрана, если он был
func (b *Bot) clearPrevStep(ctx context.Context, chatID int64) {
	st, _ := b.states.Get(ctx, chatID)
	if st == nil {
		return
	}
	if mid, ok := dialog.GetInt64(st.Payload, dialog.KeyLastMID); ok && mid > 0 {
		rm := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
		b.send(tgbotapi.NewEditMessageReplyMarkup(chatID, int(mid), rm))
	}
}

// saveLastStep сохранить состояние и id текущего бот-сообщения как «последний»
func (b *Bot) saveLastStep(ctx context.Context, chatID int64, next dialog.State, payload dialog.Payload, mid int) {
	if payload == nil {
		payload = dialog.Payload{}
	}
	payload[dialog.KeyLastMID] = float64(mid)
	if err := b.states.Set(ctx, chatID, next, payload); err != nil {
		b.log.Error("save dialog state failed", "chat_id", chatID, "state", next, "err", err)
	}
}

func (b *Bot) setState(ctx context.Context, chatID int64, next dialog.State, payload dialog.Payload) {
	if err := b.states.Set(ctx, chatID, next, payload); err != nil {
		b.log.Error("save dialog state failed", "chat_id", chatID, "state", next, "err", err)
	}
}
