package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/shopfloor/internal/report"
)

func (b *Bot) sendStockXLSX(ctx context.Context, chatID, tgID int64) {
	if _, ok := b.activeOperator(ctx, chatID, tgID); !ok {
		return
	}
	s := b.chat(chatID).session
	snap := s.Stock()
	if snap == nil {
		b.sendText(chatID, "Остатки загружаются на шаге 4: выберите тип, заказ и этап через «"+btnUsage+"».")
		return
	}
	data, err := report.StockXLSX(snap, b.opts.LowStockThreshold)
	if err != nil {
		b.log.Error("stock xlsx failed", "chat_id", chatID, "err", err)
		b.sendText(chatID, "Ошибка формирования файла.")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  report.FileName(fmt.Sprintf("stock_%d", snap.WorkcenterID), time.Now().In(b.opts.Location)),
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("Остатки рабочего центра %d на %s", snap.WorkcenterID,
		snap.FetchedAt.In(b.opts.Location).Format("02.01.2006 15:04"))
	b.send(doc)
}

func (b *Bot) sendHistory(ctx context.Context, chatID, tgID int64) {
	op, ok := b.activeOperator(ctx, chatID, tgID)
	if !ok {
		return
	}
	reports, err := b.journal.ListByOperator(ctx, *op.OperatorID, b.opts.HistoryLimit)
	if err != nil {
		b.log.Error("list usage reports failed", "operator_id", *op.OperatorID, "err", err)
		b.sendText(chatID, "Ошибка загрузки журнала.")
		return
	}
	b.sendText(chatID, renderHistory(reports, b.opts.Location))
}

func (b *Bot) sendJournalXLSX(ctx context.Context, chatID, tgID int64) {
	op, ok := b.activeOperator(ctx, chatID, tgID)
	if !ok {
		return
	}
	reports, err := b.journal.ListByOperator(ctx, *op.OperatorID, b.opts.HistoryLimit)
	if err != nil {
		b.log.Error("list usage reports failed", "operator_id", *op.OperatorID, "err", err)
		b.sendText(chatID, "Ошибка загрузки журнала.")
		return
	}
	if len(reports) == 0 {
		b.sendText(chatID, "Отправок пока нет.")
		return
	}
	data, err := report.JournalXLSX(reports)
	if err != nil {
		b.log.Error("journal xlsx failed", "chat_id", chatID, "err", err)
		b.sendText(chatID, "Ошибка формирования файла.")
		return
	}
	b.send(tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  report.FileName("journal", time.Now().In(b.opts.Location)),
		Bytes: data,
	}))
}
