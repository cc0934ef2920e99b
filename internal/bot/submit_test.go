package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/shopfloor/internal/domain/operators"
	"github.com/Spok95/shopfloor/internal/domain/usage"
	"github.com/Spok95/shopfloor/internal/infra/mes"
	"github.com/Spok95/shopfloor/internal/metrics"
	"github.com/Spok95/shopfloor/internal/workflow"
)

type fakeBackend struct {
	snap     *workflow.StockSnapshot
	stockErr error
	res      *workflow.SubmitResult
	err      error
	requests []workflow.BulkUsageRequest
	during   func()
}

func (f *fakeBackend) WorkcenterStock(context.Context, int64) (*workflow.StockSnapshot, error) {
	return f.snap, f.stockErr
}

func (f *fakeBackend) SubmitUsage(_ context.Context, req workflow.BulkUsageRequest) (*workflow.SubmitResult, error) {
	f.requests = append(f.requests, req)
	if f.during != nil {
		f.during()
	}
	return f.res, f.err
}

func (f *fakeBackend) ListOrders(context.Context, workflow.WorkcenterType, string) ([]workflow.Order, error) {
	return nil, nil
}

func (f *fakeBackend) ListProductionSteps(context.Context, int64, workflow.WorkcenterType) ([]workflow.ProductionStep, error) {
	return nil, nil
}

type fakeJournal struct {
	saved []*usage.Report
	err   error
}

func (j *fakeJournal) Save(_ context.Context, rep *usage.Report) error {
	j.saved = append(j.saved, rep)
	return j.err
}

func (j *fakeJournal) ListByOperator(context.Context, int64, int) ([]usage.Report, error) {
	return nil, nil
}

type fakeOperators struct {
	op  *operators.Operator
	err error
}

func (f fakeOperators) GetByTelegramID(context.Context, int64) (*operators.Operator, error) {
	return f.op, f.err
}

func (f fakeOperators) Register(context.Context, operators.Telegram, string) (*operators.Operator, error) {
	return nil, errors.New("not implemented")
}

func (f fakeOperators) Activate(context.Context, int64, int64) (*operators.Operator, error) {
	return nil, errors.New("not implemented")
}

func (f fakeOperators) Deactivate(context.Context, int64) error { return errors.New("not implemented") }

func (f fakeOperators) ListPending(context.Context) ([]operators.Operator, error) { return nil, nil }

const testChat = int64(42)

func newTestBot(backend Backend, journal Journal, ops OperatorStore) *Bot {
	return &Bot{
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		operators: ops,
		journal:   journal,
		backend:   backend,
		metrics:   metrics.New(prometheus.NewRegistry()),
		opts:      Options{RequestTimeout: time.Second},
		chats:     map[int64]*chatState{},
	}
}

// cartWithItem сессия чата с одной позицией в корзине.
func cartWithItem(t *testing.T, b *Bot) *workflow.Session {
	t.Helper()
	s := cartSession(t)
	require.NoError(t, s.AddItem(workflow.SelectedItem{
		ID: 5, Name: "PE", Type: workflow.ItemMaterial, Quantity: dec("2.5"), Unit: "kg", Available: dec("10"),
	}))
	b.chat(testChat).session = s
	return s
}

func submissions(b *Bot, outcome string) float64 {
	return testutil.ToFloat64(b.metrics.Submissions.WithLabelValues(outcome))
}

func TestSubmitUsage_SuccessSavesReportFromSelection(t *testing.T) {
	backend := &fakeBackend{res: &workflow.SubmitResult{Success: true, Message: "Usage recorded"}}
	journal := &fakeJournal{}
	b := newTestBot(backend, journal, nil)
	s := cartWithItem(t, b)

	res, err := b.submitUsage(context.Background(), testChat, 555, 77)
	require.NoError(t, err)
	assert.True(t, res.Success)

	// сессия уже сброшена, отчёт собран из выбора до отправки
	assert.Equal(t, workflow.WorkcenterType(""), s.WorkcenterType())
	require.Len(t, journal.saved, 1)
	rep := journal.saved[0]
	assert.Equal(t, int64(555), rep.TelegramID)
	assert.Equal(t, int64(77), rep.OperatorID)
	assert.Equal(t, string(workflow.WCExtruder), rep.WorkcenterType)
	assert.Equal(t, int64(1), rep.OrderID)
	assert.Equal(t, "S1", rep.StepName)
	assert.Equal(t, int64(100), rep.WorkcenterID)
	assert.Equal(t, "Usage recorded", rep.Message)
	require.Len(t, rep.Items, 1)
	assert.True(t, rep.Items[0].Quantity.Equal(dec("2.5")))

	assert.Equal(t, 1.0, submissions(b, "success"))
	assert.Equal(t, 0.0, submissions(b, "error"))
}

func TestSubmitUsage_JournalErrorDoesNotFailSubmission(t *testing.T) {
	backend := &fakeBackend{res: &workflow.SubmitResult{Success: true}}
	b := newTestBot(backend, &fakeJournal{err: errors.New("db down")}, nil)
	cartWithItem(t, b)

	res, err := b.submitUsage(context.Background(), testChat, 555, 77)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1.0, submissions(b, "success"))
}

func TestSubmitUsage_RejectedKeepsCart(t *testing.T) {
	backend := &fakeBackend{res: &workflow.SubmitResult{Success: false, Error: "Недостаточно материала"}}
	journal := &fakeJournal{}
	b := newTestBot(backend, journal, nil)
	s := cartWithItem(t, b)

	res, err := b.submitUsage(context.Background(), testChat, 555, 77)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, workflow.IsKind(err, workflow.KindSubmission))

	assert.Empty(t, journal.saved)
	assert.Equal(t, 1, s.ItemCount())
	assert.Equal(t, "Недостаточно материала", s.SubmitError())
	assert.Equal(t, 1.0, submissions(b, "rejected"))
	assert.Equal(t, 0.0, submissions(b, "success"))
}

func TestSubmitUsage_TransportErrorShowsOperatorText(t *testing.T) {
	backend := &fakeBackend{err: fmt.Errorf("mes backend unavailable: %w", mes.ErrCircuitOpen)}
	journal := &fakeJournal{}
	b := newTestBot(backend, journal, nil)
	s := cartWithItem(t, b)

	res, err := b.submitUsage(context.Background(), testChat, 555, 77)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, mes.IsUnavailable(err))

	assert.Empty(t, journal.saved)
	assert.Equal(t, "сервис производства временно недоступен, попробуйте позже", s.SubmitError())
	assert.Equal(t, 1.0, submissions(b, "error"))
}

func TestSubmitUsage_EmptyCartIsNotCounted(t *testing.T) {
	backend := &fakeBackend{res: &workflow.SubmitResult{Success: true}}
	b := newTestBot(backend, &fakeJournal{}, nil)
	b.chat(testChat).session = cartSession(t)

	_, err := b.submitUsage(context.Background(), testChat, 555, 77)
	require.Error(t, err)
	assert.True(t, workflow.IsKind(err, workflow.KindSelection))
	assert.Empty(t, backend.requests)
	for _, outcome := range []string{"success", "rejected", "error"} {
		assert.Equal(t, 0.0, submissions(b, outcome), outcome)
	}
}

func TestSubmitUsage_StaleResultDropped(t *testing.T) {
	backend := &fakeBackend{res: &workflow.SubmitResult{Success: true}}
	journal := &fakeJournal{}
	b := newTestBot(backend, journal, nil)
	s := cartWithItem(t, b)
	backend.during = func() { s.SelectOrder(&workflow.Order{ID: 2, Name: "O2"}) }

	_, err := b.submitUsage(context.Background(), testChat, 555, 77)
	assert.ErrorIs(t, err, workflow.ErrStale)
	assert.Empty(t, journal.saved)
	assert.Equal(t, 0.0, submissions(b, "success"))
}

func TestLoadStock_ErrorShownAsOperatorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "breaker open",
			err:  fmt.Errorf("mes backend unavailable: %w", mes.ErrCircuitOpen),
			want: "сервис производства временно недоступен, попробуйте позже",
		},
		{
			name: "timeout",
			err:  fmt.Errorf("request GET /api/workcenters/100/stock/: %w", context.DeadlineExceeded),
			want: "сервис производства не ответил вовремя, попробуйте позже",
		},
		{
			name: "other",
			err:  errors.New("backend returned status 500: boom"),
			want: "backend returned status 500: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBot(&fakeBackend{stockErr: tt.err}, &fakeJournal{}, nil)
			s := cartSession(t)
			b.chat(testChat).session = s

			b.loadStock(context.Background(), testChat)

			assert.Equal(t, tt.want, s.StockError())
			text := renderCart(s)
			assert.Contains(t, text, "Не удалось загрузить остатки: "+tt.want)
			assert.NotContains(t, text, "circuit breaker")
		})
	}
}

func TestToOperatorError_Nil(t *testing.T) {
	assert.NoError(t, toOperatorError(nil))
}

func TestCheckOperator(t *testing.T) {
	opID := int64(77)
	tests := []struct {
		name     string
		store    fakeOperators
		wantDeny string
	}{
		{name: "active", store: fakeOperators{op: &operators.Operator{Active: true, OperatorID: &opID}}},
		{name: "deactivated", store: fakeOperators{op: &operators.Operator{Active: false, OperatorID: &opID}}, wantDeny: textAccessDenied},
		{name: "not linked", store: fakeOperators{op: &operators.Operator{Active: true}}, wantDeny: textAccessDenied},
		{name: "unknown", store: fakeOperators{}, wantDeny: textAccessDenied},
		{name: "store error", store: fakeOperators{err: errors.New("db down")}, wantDeny: textProfileError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBot(&fakeBackend{}, &fakeJournal{}, tt.store)

			op, deny := b.checkOperator(context.Background(), 555)

			assert.Equal(t, tt.wantDeny, deny)
			if tt.wantDeny == "" {
				require.NotNil(t, op)
				assert.Equal(t, opID, *op.OperatorID)
			} else {
				assert.Nil(t, op)
			}
		})
	}
}
