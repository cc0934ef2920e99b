package workflow

import (
	"time"

	"github.com/shopspring/decimal"
)

// Step номер экрана в сценарии оператора (1..4).
type Step int

const (
	StepWorkcenterType Step = 1 // выбор типа рабочего центра
	StepOrder          Step = 2 // выбор заказа
	StepProduction     Step = 3 // выбор производственного этапа
	StepMaterials      Step = 4 // материалы/продукты, количества, подтверждение
)

const TotalSteps = 4

type WorkcenterType string

const (
	WCExtruder  WorkcenterType = "EXTRUDER"
	WCLaminator WorkcenterType = "LAMINATOR"
	WCPrinter   WorkcenterType = "PRINTER"
	WCSlitter   WorkcenterType = "SLITTER"
)

type Workcenter struct {
	ID   int64
	Name string
	Type WorkcenterType
}

type Order struct {
	ID               int64
	Name             string
	Status           string
	ProducedQuantity decimal.Decimal
}

type ProductionStep struct {
	ID           int64
	Name         string
	StepType     string
	WorkcenterID int64
}

type ItemType string

const (
	ItemMaterial ItemType = "material"
	ItemProduct  ItemType = "product"
)

// ItemKey уникальный ключ позиции в корзине.
type ItemKey struct {
	ID   int64
	Type ItemType
}

type StockEntry struct {
	ID        int64
	Name      string
	Type      ItemType
	Available decimal.Decimal
	Unit      string
}

func (e StockEntry) Key() ItemKey { return ItemKey{ID: e.ID, Type: e.Type} }

// StockSnapshot остатки рабочего центра на момент запроса. Не кэшируется.
type StockSnapshot struct {
	WorkcenterID int64
	Location     string
	Entries      []StockEntry
	FetchedAt    time.Time
}

// Find ищет позицию по ключу.
func (s *StockSnapshot) Find(key ItemKey) (StockEntry, bool) {
	if s == nil {
		return StockEntry{}, false
	}
	for _, e := range s.Entries {
		if e.ID == key.ID && e.Type == key.Type {
			return e, true
		}
	}
	return StockEntry{}, false
}

// Materials и Products разбивают снимок по типу позиции, порядок сохраняется.
func (s *StockSnapshot) Materials() []StockEntry { return s.byType(ItemMaterial) }
func (s *StockSnapshot) Products() []StockEntry  { return s.byType(ItemProduct) }

func (s *StockSnapshot) byType(t ItemType) []StockEntry {
	if s == nil {
		return nil
	}
	var out []StockEntry
	for _, e := range s.Entries {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type SelectedItem struct {
	ID        int64
	Name      string
	Type      ItemType
	Quantity  decimal.Decimal
	Unit      string
	Available decimal.Decimal // остаток на момент выбора
}

func (i SelectedItem) Key() ItemKey { return ItemKey{ID: i.ID, Type: i.Type} }

// NewSelectedItem собирает позицию корзины из строки снимка остатков.
func NewSelectedItem(e StockEntry, qty decimal.Decimal) SelectedItem {
	return SelectedItem{
		ID:        e.ID,
		Name:      e.Name,
		Type:      e.Type,
		Quantity:  qty,
		Unit:      e.Unit,
		Available: e.Available,
	}
}
