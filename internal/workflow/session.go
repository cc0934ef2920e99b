package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session состояние сценария одного оператора.
//
// Смена выбора на любом шаге полностью сбрасывает всё, что ниже по цепочке,
// и увеличивает generation: ответы запросов, начатых до смены, отбрасываются.
type Session struct {
	mu sync.Mutex

	step      Step
	wcType    WorkcenterType
	order     *Order
	prodStep  *ProductionStep
	stock     *StockSnapshot
	stockErr  string
	submitErr string
	ledger    *Ledger
	gen       uint64
	// idemKey ключ идемпотентности отправки; живёт до успеха,
	// смены выбора или изменения корзины.
	idemKey string
}

func NewSession() *Session {
	return &Session{step: StepWorkcenterType, ledger: NewLedger()}
}

// SelectWorkcenterType тип не проверяется: допустимый набор знает бэкенд.
func (s *Session) SelectWorkcenterType(t WorkcenterType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wcType = t
	s.order = nil
	s.clearFromStepLocked()
	s.step = StepOrder
	s.gen++
}

// SelectOrder nil принимается молча, нижние шаги всё равно очищаются.
func (s *Session) SelectOrder(o *Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = o
	s.clearFromStepLocked()
	s.step = StepProduction
	s.gen++
}

func (s *Session) SelectProductionStep(ps *ProductionStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prodStep = ps
	s.clearStockLocked()
	s.step = StepMaterials
	s.gen++
}

// SetCurrentStep прямое переключение шага, границы не проверяются.
func (s *Session) SetCurrentStep(n Step) {
	s.mu.Lock()
	s.step = n
	s.mu.Unlock()
}

// Reset возвращает сценарий в начало.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.wcType = ""
	s.order = nil
	s.clearFromStepLocked()
	s.step = StepWorkcenterType
	s.gen++
}

func (s *Session) clearFromStepLocked() {
	s.prodStep = nil
	s.clearStockLocked()
}

func (s *Session) clearStockLocked() {
	s.stock = nil
	s.stockErr = ""
	s.submitErr = ""
	s.ledger.Clear()
	s.idemKey = ""
}

/* Чтение состояния */

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// StepIndicator подпись вида "Шаг 2/4" для шапки экрана.
func (s *Session) StepIndicator() string {
	return fmt.Sprintf("Шаг %d/%d", s.Step(), TotalSteps)
}

func (s *Session) WorkcenterType() WorkcenterType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wcType
}

func (s *Session) Order() *Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

func (s *Session) ProductionStep() *ProductionStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prodStep
}

func (s *Session) Stock() *StockSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock
}

func (s *Session) StockError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stockErr
}

func (s *Session) SubmitError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitErr
}

func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

/* Корзина */

func (s *Session) Items() []SelectedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Items()
}

func (s *Session) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Len()
}

func (s *Session) AddItem(item SelectedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idemKey = ""
	return s.ledger.Add(item)
}

// AddFromStock добавляет позицию из текущего снимка остатков.
func (s *Session) AddFromStock(key ItemKey, qty decimal.Decimal) (SelectedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.stock.Find(key)
	if !ok {
		return SelectedItem{}, ErrUnknownItem
	}
	item := NewSelectedItem(e, qty)
	s.idemKey = ""
	if err := s.ledger.Add(item); err != nil {
		return SelectedItem{}, err
	}
	return item, nil
}

func (s *Session) RemoveItem(id int64) {
	s.mu.Lock()
	s.ledger.Remove(id)
	s.idemKey = ""
	s.mu.Unlock()
}

func (s *Session) RemoveItemKey(key ItemKey) {
	s.mu.Lock()
	s.ledger.RemoveKey(key)
	s.idemKey = ""
	s.mu.Unlock()
}

func (s *Session) UpdateQuantity(id int64, qty decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idemKey = ""
	return s.ledger.UpdateQuantity(id, qty)
}

func (s *Session) UpdateQuantityKey(key ItemKey, qty decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idemKey = ""
	return s.ledger.UpdateQuantityKey(key, qty)
}

func (s *Session) ClearItems() {
	s.mu.Lock()
	s.ledger.Clear()
	s.idemKey = ""
	s.mu.Unlock()
}

/* Запросы к бэкенду */

// LoadStock запрашивает остатки рабочего центра выбранного этапа.
// При ошибке прежний снимок не трогается, текст ошибки доступен через StockError.
func (s *Session) LoadStock(ctx context.Context, lookup StockLookup) (*StockSnapshot, error) {
	s.mu.Lock()
	if s.prodStep == nil {
		s.mu.Unlock()
		return nil, selectionError(ErrNoProductionStep)
	}
	wcID := s.prodStep.WorkcenterID
	gen := s.gen
	s.mu.Unlock()

	snap, err := lookup.WorkcenterStock(ctx, wcID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil, ErrStale
	}
	if err != nil {
		s.stockErr = err.Error()
		return nil, fetchError(err)
	}
	s.stock = snap
	s.stockErr = ""
	return snap, nil
}

// BuildRequest собирает тело запроса из текущего выбора и корзины.
func (s *Session) BuildRequest(operatorID int64) (BulkUsageRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildRequestLocked(operatorID)
}

func (s *Session) buildRequestLocked(operatorID int64) (BulkUsageRequest, error) {
	switch {
	case s.order == nil:
		return BulkUsageRequest{}, selectionError(ErrNoOrder)
	case s.prodStep == nil:
		return BulkUsageRequest{}, selectionError(ErrNoProductionStep)
	case s.ledger.Len() == 0:
		return BulkUsageRequest{}, selectionError(ErrEmptyLedger)
	}
	if s.idemKey == "" {
		s.idemKey = uuid.NewString()
	}
	items := s.ledger.Items()
	req := BulkUsageRequest{
		OrderID:          s.order.ID,
		ProductionStepID: s.prodStep.ID,
		OperatorID:       operatorID,
		WorkcenterID:     s.prodStep.WorkcenterID,
		Items:            make([]UsageItem, 0, len(items)),
		IdempotencyKey:   s.idemKey,
	}
	for _, it := range items {
		req.Items = append(req.Items, toUsageItem(it))
	}
	return req, nil
}

// Submit отправляет корзину. При успехе сценарий сбрасывается на шаг 1,
// при отказе выбор и корзина остаются для повторной отправки
// с тем же ключом идемпотентности.
func (s *Session) Submit(ctx context.Context, sub UsageSubmitter, operatorID int64) (*SubmitResult, error) {
	s.mu.Lock()
	req, err := s.buildRequestLocked(operatorID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	gen := s.gen
	s.mu.Unlock()

	res, err := sub.SubmitUsage(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil, ErrStale
	}
	if err != nil {
		s.submitErr = err.Error()
		return nil, submissionError(s.submitErr, err)
	}
	if res == nil || !res.Success {
		s.submitErr = res.FailureText()
		return res, submissionError(s.submitErr, nil)
	}
	s.resetLocked()
	return res, nil
}
