package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Spok95/shopfloor/internal/workflow"
)

type action string

const (
	actType    action = "type"
	actOrder   action = "order"
	actStep    action = "step"
	actAdd     action = "add"
	actPick    action = "pick"
	actEdit    action = "edit"
	actRemove  action = "rm"
	actCart    action = "cart"
	actConfirm action = "confirm"
	actSend    action = "send"
	actReload  action = "reload"
	actBack    action = "back"
	actCancel  action = "cancel"
)

const (
	dataBack   = "nav:back"
	dataCancel = "nav:cancel"
)

// callback разобранные данные inline-кнопки.
type callback struct {
	Action action
	Type   workflow.WorkcenterType // actType
	ID     int64                   // actOrder, actStep
	Key    workflow.ItemKey        // actPick, actEdit, actRemove
}

func cbType(t workflow.WorkcenterType) string { return "wf:type:" + string(t) }
func cbOrder(id int64) string                 { return fmt.Sprintf("wf:order:%d", id) }
func cbStep(id int64) string                  { return fmt.Sprintf("wf:step:%d", id) }
func cbSimple(a action) string                { return "wf:" + string(a) }

func cbItem(a action, key workflow.ItemKey) string {
	return fmt.Sprintf("wf:%s:%s:%d", a, key.Type, key.ID)
}

func parseCallback(data string) (callback, bool) {
	switch data {
	case dataBack:
		return callback{Action: actBack}, true
	case dataCancel:
		return callback{Action: actCancel}, true
	}

	parts := strings.Split(data, ":")
	if len(parts) < 2 || parts[0] != "wf" {
		return callback{}, false
	}
	a := action(parts[1])
	switch a {
	case actAdd, actCart, actConfirm, actSend, actReload:
		if len(parts) != 2 {
			return callback{}, false
		}
		return callback{Action: a}, true

	case actType:
		if len(parts) != 3 || parts[2] == "" {
			return callback{}, false
		}
		return callback{Action: a, Type: workflow.WorkcenterType(parts[2])}, true

	case actOrder, actStep:
		if len(parts) != 3 {
			return callback{}, false
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return callback{}, false
		}
		return callback{Action: a, ID: id}, true

	case actPick, actEdit, actRemove:
		if len(parts) != 4 {
			return callback{}, false
		}
		t := workflow.ItemType(parts[2])
		if t != workflow.ItemMaterial && t != workflow.ItemProduct {
			return callback{}, false
		}
		id, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return callback{}, false
		}
		return callback{Action: a, Key: workflow.ItemKey{ID: id, Type: t}}, true
	}
	return callback{}, false
}
