package workflow

import "github.com/shopspring/decimal"

// Ledger корзина оператора: что будет списано при отправке.
// На каждую пару (id, type) не более одной позиции, порядок вставки сохраняется.
type Ledger struct {
	items []SelectedItem
}

func NewLedger() *Ledger { return &Ledger{} }

func validQuantity(qty, available decimal.Decimal) bool {
	return qty.IsPositive() && qty.LessThanOrEqual(available)
}

// Add добавляет позицию; повторная позиция с тем же (id, type) заменяет прежнюю
// на своём месте вместе с остатком, единицей и названием.
func (l *Ledger) Add(item SelectedItem) error {
	if !validQuantity(item.Quantity, item.Available) {
		return ErrInvalidQuantity
	}
	if i := l.indexOfKey(item.Key()); i >= 0 {
		l.items[i] = item
		return nil
	}
	l.items = append(l.items, item)
	return nil
}

// Remove удаляет первую позицию с таким id, тип не учитывается.
// Материал и продукт с одинаковым id неразличимы, для точного удаления есть RemoveKey.
func (l *Ledger) Remove(id int64) {
	if i := l.indexOfID(id); i >= 0 {
		l.removeAt(i)
	}
}

func (l *Ledger) RemoveKey(key ItemKey) {
	if i := l.indexOfKey(key); i >= 0 {
		l.removeAt(i)
	}
}

// UpdateQuantity меняет количество у первой позиции с таким id.
// Отсутствующий id - no-op.
func (l *Ledger) UpdateQuantity(id int64, qty decimal.Decimal) error {
	i := l.indexOfID(id)
	if i < 0 {
		return nil
	}
	return l.updateAt(i, qty)
}

func (l *Ledger) UpdateQuantityKey(key ItemKey, qty decimal.Decimal) error {
	i := l.indexOfKey(key)
	if i < 0 {
		return nil
	}
	return l.updateAt(i, qty)
}

func (l *Ledger) Clear() { l.items = nil }

func (l *Ledger) Len() int { return len(l.items) }

func (l *Ledger) Get(key ItemKey) (SelectedItem, bool) {
	if i := l.indexOfKey(key); i >= 0 {
		return l.items[i], true
	}
	return SelectedItem{}, false
}

// Items копия позиций в порядке добавления.
func (l *Ledger) Items() []SelectedItem {
	out := make([]SelectedItem, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) updateAt(i int, qty decimal.Decimal) error {
	if !validQuantity(qty, l.items[i].Available) {
		return ErrInvalidQuantity
	}
	l.items[i].Quantity = qty
	return nil
}

func (l *Ledger) removeAt(i int) {
	l.items = append(l.items[:i], l.items[i+1:]...)
}

func (l *Ledger) indexOfID(id int64) int {
	for i, it := range l.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) indexOfKey(key ItemKey) int {
	for i, it := range l.items {
		if it.ID == key.ID && it.Type == key.Type {
			return i
		}
	}
	return -1
}
