package bot

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/shopfloor/internal/dialog"
	"github.com/Spok95/shopfloor/internal/domain/operators"
	"github.com/Spok95/shopfloor/internal/domain/usage"
	"github.com/Spok95/shopfloor/internal/metrics"
	"github.com/Spok95/shopfloor/internal/workflow"
)

// Backend то, что экранам нужно от MES. Реализуется mes.Client.
type Backend interface {
	workflow.StockLookup
	workflow.UsageSubmitter
	ListOrders(ctx context.Context, wcType workflow.WorkcenterType, status string) ([]workflow.Order, error)
	ListProductionSteps(ctx context.Context, orderID int64, wcType workflow.WorkcenterType) ([]workflow.ProductionStep, error)
}

// OperatorStore профили операторов. Реализуется operators.Repo.
type OperatorStore interface {
	GetByTelegramID(ctx context.Context, tgID int64) (*operators.Operator, error)
	Register(ctx context.Context, tg operators.Telegram, fullName string) (*operators.Operator, error)
	Activate(ctx context.Context, tgID, operatorID int64) (*operators.Operator, error)
	Deactivate(ctx context.Context, tgID int64) error
	ListPending(ctx context.Context) ([]operators.Operator, error)
}

// Journal локальный журнал отправок. Реализуется usage.Repo.
type Journal interface {
	Save(ctx context.Context, rep *usage.Report) error
	ListByOperator(ctx context.Context, operatorID int64, limit int) ([]usage.Report, error)
}

type Options struct {
	AdminChatID       int64
	WorkcenterTypes   []workflow.WorkcenterType
	OrderStatus       string
	LowStockThreshold decimal.Decimal
	HistoryLimit      int
	RequestTimeout    time.Duration
	Location          *time.Location
}

// chatState сценарий одного чата и списки, показанные на текущем экране.
type chatState struct {
	session *workflow.Session
	orders  []workflow.Order
	steps   []workflow.ProductionStep
}

type Bot struct {
	api       *tgbotapi.BotAPI
	log       *slog.Logger
	operators OperatorStore
	states    *dialog.Repo
	journal   Journal
	backend   Backend
	metrics   *metrics.Metrics
	opts      Options

	// апдейты обрабатываются последовательно, отдельная блокировка не нужна
	chats map[int64]*chatState
}

func New(api *tgbotapi.BotAPI, log *slog.Logger,
	operatorsRepo OperatorStore, statesRepo *dialog.Repo, journalRepo Journal,
	backend Backend, m *metrics.Metrics, opts Options) *Bot {

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}
	return &Bot{
		api: api, log: log, operators: operatorsRepo, states: statesRepo,
		journal: journalRepo, backend: backend, metrics: m, opts: opts,
		chats: map[int64]*chatState{},
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				b.onMessage(ctx, upd)
			} else if upd.CallbackQuery != nil {
				b.onCallback(ctx, upd)
			}
		}
	}
}

func (b *Bot) onMessage(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg.From == nil {
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleStateMessage(ctx, msg)
}

func (b *Bot) onCallback(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery.Message == nil {
		return
	}
	b.handleCallback(ctx, upd.CallbackQuery)
}

func (b *Bot) chat(chatID int64) *chatState {
	c, ok := b.chats[chatID]
	if !ok {
		c = &chatState{session: workflow.NewSession()}
		b.chats[chatID] = c
	}
	return c
}

// backendCtx таймаут на один запрос к MES.
func (b *Bot) backendCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.opts.RequestTimeout)
}
