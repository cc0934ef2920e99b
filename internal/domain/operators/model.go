package operators

import "time"

type Operator struct {
	ID         int64
	TelegramID int64
	Username   string
	FullName   string
	OperatorID *int64 // id оператора в MES, назначает админ
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CanSubmit оператор активен и привязан к MES.
func (o *Operator) CanSubmit() bool {
	return o != nil && o.Active && o.OperatorID != nil && *o.OperatorID > 0
}

type Telegram struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}
