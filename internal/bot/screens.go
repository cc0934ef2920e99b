package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/shopfloor/internal/dialog"
	"github.com/Spok95/shopfloor/internal/domain/usage"
	"github.com/Spok95/shopfloor/internal/infra/mes"
	"github.com/Spok95/shopfloor/internal/workflow"
)

func backendErrText(err error) string {
	switch {
	case mes.IsUnavailable(err):
		return "сервис производства временно недоступен, попробуйте позже"
	case errors.Is(err, context.DeadlineExceeded):
		return "сервис производства не ответил вовремя, попробуйте позже"
	}
	return workflow.Message(err)
}

// operatorError текст для оператора поверх исходной ошибки.
type operatorError struct {
	text string
	err  error
}

func (e *operatorError) Error() string { return e.text }
func (e *operatorError) Unwrap() error { return e.err }

func toOperatorError(err error) error {
	if err == nil {
		return nil
	}
	return &operatorError{text: backendErrText(err), err: err}
}

// operatorFacing ошибки остатков и отправки попадают в сессию уже текстом для оператора.
type operatorFacing struct{ Backend }

func (o operatorFacing) WorkcenterStock(ctx context.Context, workcenterID int64) (*workflow.StockSnapshot, error) {
	snap, err := o.Backend.WorkcenterStock(ctx, workcenterID)
	return snap, toOperatorError(err)
}

func (o operatorFacing) SubmitUsage(ctx context.Context, req workflow.BulkUsageRequest) (*workflow.SubmitResult, error) {
	res, err := o.Backend.SubmitUsage(ctx, req)
	return res, toOperatorError(err)
}

func (b *Bot) transition(s *workflow.Session) {
	b.metrics.Transition(strconv.Itoa(int(s.Step())))
}

/*** Шаг 1 ***/

func (b *Bot) startUsage(ctx context.Context, chatID int64, editMID int) {
	c := b.chat(chatID)
	c.session.Reset()
	c.orders, c.steps = nil, nil
	b.showTypes(ctx, chatID, editMID)
}

func (b *Bot) showTypes(ctx context.Context, chatID int64, editMID int) {
	s := b.chat(chatID).session
	mid := b.show(chatID, editMID, renderTypes(s), typesKeyboard(b.opts.WorkcenterTypes))
	b.saveLastStep(ctx, chatID, dialog.StateWfType, nil, mid)
	b.transition(s)
}

/*** Шаг 2 ***/

func (b *Bot) onType(ctx context.Context, chatID int64, editMID int, t workflow.WorkcenterType) {
	b.chat(chatID).session.SelectWorkcenterType(t)
	b.showOrders(ctx, chatID, editMID)
}

func (b *Bot) showOrders(ctx context.Context, chatID int64, editMID int) {
	c := b.chat(chatID)
	s := c.session
	if s.WorkcenterType() == "" {
		b.showTypes(ctx, chatID, editMID)
		return
	}

	rctx, cancel := b.backendCtx(ctx)
	defer cancel()
	orders, err := b.backend.ListOrders(rctx, s.WorkcenterType(), b.opts.OrderStatus)
	if err != nil {
		b.log.Warn("list orders failed", "chat_id", chatID, "workcenter_type", s.WorkcenterType(), "err", err)
		mid := b.show(chatID, editMID, "Не удалось загрузить заказы: "+backendErrText(err), navKeyboard(true, true))
		b.saveLastStep(ctx, chatID, dialog.StateWfOrder, nil, mid)
		return
	}
	c.orders = orders

	mid := b.show(chatID, editMID, renderOrders(s, orders), ordersKeyboard(orders))
	b.saveLastStep(ctx, chatID, dialog.StateWfOrder, nil, mid)
	b.transition(s)
}

/*** Шаг 3 ***/

func (b *Bot) onOrder(ctx context.Context, cb *tgbotapi.CallbackQuery, id int64) {
	chatID := cb.Message.Chat.ID
	c := b.chat(chatID)
	o := findOrder(c.orders, id)
	if o == nil {
		_ = b.answerCallback(cb, "Заказ не найден, список обновлён", false)
		b.showOrders(ctx, chatID, cb.Message.MessageID)
		return
	}
	c.session.SelectOrder(o)
	b.showSteps(ctx, chatID, cb.Message.MessageID)
}

func (b *Bot) showSteps(ctx context.Context, chatID int64, editMID int) {
	c := b.chat(chatID)
	s := c.session
	o := s.Order()
	if o == nil {
		b.showOrders(ctx, chatID, editMID)
		return
	}

	rctx, cancel := b.backendCtx(ctx)
	defer cancel()
	steps, err := b.backend.ListProductionSteps(rctx, o.ID, s.WorkcenterType())
	if err != nil {
		b.log.Warn("list production steps failed", "chat_id", chatID, "order_id", o.ID, "err", err)
		mid := b.show(chatID, editMID, "Не удалось загрузить этапы: "+backendErrText(err), navKeyboard(true, true))
		b.saveLastStep(ctx, chatID, dialog.StateWfStep, nil, mid)
		return
	}
	c.steps = steps

	mid := b.show(chatID, editMID, renderSteps(s, steps), stepsKeyboard(steps))
	b.saveLastStep(ctx, chatID, dialog.StateWfStep, nil, mid)
	b.transition(s)
}

/*** Шаг 4 ***/

func (b *Bot) onStep(ctx context.Context, cb *tgbotapi.CallbackQuery, id int64) {
	chatID := cb.Message.Chat.ID
	c := b.chat(chatID)
	ps := findStep(c.steps, id)
	if ps == nil {
		_ = b.answerCallback(cb, "Этап не найден, список обновлён", false)
		b.showSteps(ctx, chatID, cb.Message.MessageID)
		return
	}
	c.session.SelectProductionStep(ps)
	b.loadStock(ctx, chatID)
	b.showCart(ctx, chatID, cb.Message.MessageID)
}

// loadStock ошибка остаётся в сессии и выводится на экране корзины.
func (b *Bot) loadStock(ctx context.Context, chatID int64) {
	rctx, cancel := b.backendCtx(ctx)
	defer cancel()
	_, err := b.chat(chatID).session.LoadStock(rctx, operatorFacing{b.backend})
	switch {
	case errors.Is(err, workflow.ErrStale):
		b.log.Debug("stale stock result dropped", "chat_id", chatID)
	case err != nil:
		b.log.Warn("load stock failed", "chat_id", chatID, "err", err)
	}
}

func (b *Bot) showCart(ctx context.Context, chatID int64, editMID int) {
	s := b.chat(chatID).session
	if s.ProductionStep() == nil {
		b.showSteps(ctx, chatID, editMID)
		return
	}
	mid := b.show(chatID, editMID, renderCart(s), cartKeyboard(s.Items(), s.Stock() != nil))
	b.saveLastStep(ctx, chatID, dialog.StateWfCart, nil, mid)
	b.transition(s)
}

func (b *Bot) showStock(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	s := b.chat(chatID).session
	if s.Stock() == nil {
		_ = b.answerCallback(cb, "Остатки не загружены, нажмите «Обновить остатки»", true)
		return
	}
	mid := b.show(chatID, cb.Message.MessageID, renderStock(s, b.opts.LowStockThreshold),
		stockKeyboard(s.Stock(), b.opts.LowStockThreshold))
	b.saveLastStep(ctx, chatID, dialog.StateWfPickItem, nil, mid)
}

// askQty next: StateWfItemQty для новой позиции, StateWfEditQty для правки корзины.
func (b *Bot) askQty(ctx context.Context, cb *tgbotapi.CallbackQuery, key workflow.ItemKey, next dialog.State) {
	chatID := cb.Message.Chat.ID
	s := b.chat(chatID).session
	e, ok := s.Stock().Find(key)
	if !ok {
		_ = b.answerCallback(cb, "Позиции нет в остатках", true)
		return
	}
	var current *workflow.SelectedItem
	for _, it := range s.Items() {
		if it.Key() == key {
			item := it
			current = &item
			break
		}
	}
	mid := b.show(chatID, cb.Message.MessageID, renderAskQty(e, current), navKeyboard(true, true))
	b.saveLastStep(ctx, chatID, next, dialog.Payload{
		dialog.KeyItemID:   float64(key.ID),
		dialog.KeyItemType: string(key.Type),
	}, mid)
}

func (b *Bot) onQtyText(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	s := b.chat(chatID).session

	id, ok1 := dialog.GetInt64(st.Payload, dialog.KeyItemID)
	typ, ok2 := dialog.GetString(st.Payload, dialog.KeyItemType)
	if !ok1 || !ok2 || s.Stock() == nil {
		b.sendText(chatID, "Сессия устарела, начните заново.")
		b.startUsage(ctx, chatID, 0)
		return
	}
	key := workflow.ItemKey{ID: id, Type: workflow.ItemType(typ)}

	qty, err := parseQuantity(msg.Text)
	if err != nil {
		b.sendText(chatID, err.Error())
		return
	}

	if st.State == dialog.StateWfEditQty {
		err = s.UpdateQuantityKey(key, qty)
	} else {
		_, err = s.AddFromStock(key, qty)
	}
	switch {
	case errors.Is(err, workflow.ErrInvalidQuantity):
		e, _ := s.Stock().Find(key)
		b.sendText(chatID, fmt.Sprintf("Количество должно быть больше 0 и не больше %s %s. Введите ещё раз.",
			e.Available.String(), e.Unit))
		return
	case errors.Is(err, workflow.ErrUnknownItem):
		b.sendText(chatID, "Позиция больше не доступна, обновите остатки.")
	case err != nil:
		b.sendText(chatID, "Ошибка: "+err.Error())
		return
	}

	b.clearPrevStep(ctx, chatID)
	b.showCart(ctx, chatID, 0)
}

func (b *Bot) onRemove(ctx context.Context, cb *tgbotapi.CallbackQuery, key workflow.ItemKey) {
	chatID := cb.Message.Chat.ID
	b.chat(chatID).session.RemoveItemKey(key)
	_ = b.answerCallback(cb, "Удалено", false)
	b.showCart(ctx, chatID, cb.Message.MessageID)
}

func (b *Bot) onReload(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	b.loadStock(ctx, chatID)
	b.showCart(ctx, chatID, cb.Message.MessageID)
}

func (b *Bot) showConfirm(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	s := b.chat(chatID).session
	if s.ItemCount() == 0 {
		_ = b.answerCallback(cb, "Корзина пуста", true)
		return
	}
	mid := b.show(chatID, cb.Message.MessageID, renderConfirm(s), confirmKeyboard())
	b.saveLastStep(ctx, chatID, dialog.StateWfConfirm, nil, mid)
}

/*** Отправка ***/

func (b *Bot) onSend(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	op, ok := b.activeOperator(ctx, chatID, cb.From.ID)
	if !ok {
		return
	}
	res, err := b.submitUsage(ctx, chatID, cb.From.ID, *op.OperatorID)
	switch {
	case errors.Is(err, workflow.ErrStale):
		return
	case workflow.IsKind(err, workflow.KindSelection):
		_ = b.answerCallback(cb, workflow.Message(err), true)
		b.showCart(ctx, chatID, cb.Message.MessageID)
		return
	case err != nil:
		b.showCart(ctx, chatID, cb.Message.MessageID)
		return
	}

	b.editTextAndClear(chatID, cb.Message.MessageID, renderSubmitted(res))
	c := b.chat(chatID)
	c.orders, c.steps = nil, nil
	b.showTypes(ctx, chatID, 0)
}

// submitUsage отправляет корзину чата, считает исход в метриках и при успехе
// пишет отчёт в журнал. Ошибка та же, что вернула сессия.
func (b *Bot) submitUsage(ctx context.Context, chatID, tgID, operatorID int64) (*workflow.SubmitResult, error) {
	s := b.chat(chatID).session

	// после успеха сессия сбрасывается, данные для журнала снимаем заранее
	wcType, order, step, items := s.WorkcenterType(), s.Order(), s.ProductionStep(), s.Items()

	rctx, cancel := b.backendCtx(ctx)
	defer cancel()
	res, err := s.Submit(rctx, operatorFacing{b.backend}, operatorID)
	switch {
	case errors.Is(err, workflow.ErrStale):
		b.log.Debug("stale submit result dropped", "chat_id", chatID)
		return nil, err
	case workflow.IsKind(err, workflow.KindSelection):
		return nil, err
	case err != nil:
		outcome := "error"
		if res != nil {
			outcome = "rejected"
		}
		b.metrics.Submission(outcome, len(items))
		b.log.Warn("usage submission failed", "chat_id", chatID, "outcome", outcome, "err", err)
		return res, err
	}

	b.metrics.Submission("success", len(items))
	b.log.Info("usage submitted", "chat_id", chatID, "operator_id", operatorID, "items", len(items))

	rep := usage.NewReport(tgID, operatorID, wcType, order, step, items)
	rep.Message = res.Message
	if err := b.journal.Save(ctx, rep); err != nil {
		b.log.Error("save usage report failed", "report_id", rep.ID, "err", err)
	}
	return res, nil
}

/*** Навигация ***/

func (b *Bot) onBack(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	st, _ := b.states.Get(ctx, chatID)
	if st == nil {
		b.onCancel(ctx, cb)
		return
	}
	target, step, ok := backFrom(st.State)
	if !ok {
		b.onCancel(ctx, cb)
		return
	}
	b.chat(chatID).session.SetCurrentStep(step)

	mid := cb.Message.MessageID
	switch target {
	case dialog.StateWfType:
		b.showTypes(ctx, chatID, mid)
	case dialog.StateWfOrder:
		b.showOrders(ctx, chatID, mid)
	case dialog.StateWfStep:
		b.showSteps(ctx, chatID, mid)
	case dialog.StateWfCart:
		b.showCart(ctx, chatID, mid)
	}
}

func (b *Bot) onCancel(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	if c, ok := b.chats[chatID]; ok {
		c.session.Reset()
		c.orders, c.steps = nil, nil
	}
	_ = b.states.Reset(ctx, chatID)
	b.editTextAndClear(chatID, cb.Message.MessageID, "Операция отменена.")
	_ = b.answerCallback(cb, "Отменено", false)
}

func findOrder(orders []workflow.Order, id int64) *workflow.Order {
	for i := range orders {
		if orders[i].ID == id {
			o := orders[i]
			return &o
		}
	}
	return nil
}

func findStep(steps []workflow.ProductionStep, id int64) *workflow.ProductionStep {
	for i := range steps {
		if steps[i].ID == id {
			s := steps[i]
			return &s
		}
	}
	return nil
}
