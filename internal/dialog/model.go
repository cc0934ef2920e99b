package dialog

type State string

const (
	StateIdle State = "idle"

	// Регистрация оператора
	StateRegAwaitName State = "reg_await_name" // ввод ФИО
	StateRegPending   State = "reg_pending"    // ждём активации админом

	// Сценарий расхода (4 шага)
	StateWfType     State = "wf_type"      // шаг 1: тип рабочего центра
	StateWfOrder    State = "wf_order"     // шаг 2: заказ
	StateWfStep     State = "wf_step"      // шаг 3: производственный этап
	StateWfCart     State = "wf_cart"      // шаг 4: корзина
	StateWfPickItem State = "wf_pick_item" // список остатков для выбора
	StateWfItemQty  State = "wf_item_qty"  // ввод количества новой позиции
	StateWfEditQty  State = "wf_edit_qty"  // изменение количества в корзине
	StateWfConfirm  State = "wf_confirm"   // сводка перед отправкой
)

// Payload ключи
const (
	KeyLastMID  = "last_mid"
	KeyItemID   = "item_id"
	KeyItemType = "item_type"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}

// IsWorkflow состояние относится к сценарию расхода.
func (s State) IsWorkflow() bool {
	switch s {
	case StateWfType, StateWfOrder, StateWfStep, StateWfCart,
		StateWfPickItem, StateWfItemQty, StateWfEditQty, StateWfConfirm:
		return true
	}
	return false
}
