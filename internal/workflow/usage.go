package workflow

import "context"

// StockLookup возвращает доступные материалы и продукты рабочего центра.
type StockLookup interface {
	WorkcenterStock(ctx context.Context, workcenterID int64) (*StockSnapshot, error)
}

// UsageSubmitter отправляет накопленную корзину в бэкенд одним запросом.
type UsageSubmitter interface {
	SubmitUsage(ctx context.Context, req BulkUsageRequest) (*SubmitResult, error)
}

// UsageItem строка запроса: задан либо MaterialID, либо ProductID.
type UsageItem struct {
	MaterialID    *int64 `json:"material_id,omitempty" validate:"required_without=ProductID,excluded_with=ProductID"`
	ProductID     *int64 `json:"product_id,omitempty" validate:"required_without=MaterialID"`
	Quantity      string `json:"quantity" validate:"required,numeric"`
	UnitOfMeasure string `json:"unit_of_measure" validate:"required"`
}

type BulkUsageRequest struct {
	OrderID          int64       `json:"order_id" validate:"required"`
	ProductionStepID int64       `json:"production_step_id" validate:"required"`
	OperatorID       int64       `json:"operator_id" validate:"required"`
	WorkcenterID     int64       `json:"workcenter_id" validate:"required"`
	Items            []UsageItem `json:"items" validate:"required,min=1,dive"`
	// IdempotencyKey уходит заголовком Idempotency-Key, не телом.
	IdempotencyKey string `json:"-"`
}

type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FailureText текст отказа бэкенда: error, затем message.
func (r *SubmitResult) FailureText() string {
	if r == nil {
		return "empty response"
	}
	if r.Error != "" {
		return r.Error
	}
	if r.Message != "" {
		return r.Message
	}
	return "submission rejected"
}

func toUsageItem(it SelectedItem) UsageItem {
	id := it.ID
	u := UsageItem{
		Quantity:      it.Quantity.String(),
		UnitOfMeasure: it.Unit,
	}
	if it.Type == ItemProduct {
		u.ProductID = &id
	} else {
		u.MaterialID = &id
	}
	return u
}
