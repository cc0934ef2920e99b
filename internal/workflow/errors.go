package workflow

import (
	"errors"
	"fmt"
)

// Kind класс ошибки сценария. Все три обрабатываются на месте вызова
// и превращаются в сообщение оператору.
type Kind string

const (
	KindSelection  Kind = "SELECTION_ERROR"
	KindFetch      Kind = "FETCH_ERROR"
	KindSubmission Kind = "SUBMISSION_ERROR"
)

var (
	ErrNoOrder          = errors.New("order is not selected")
	ErrNoProductionStep = errors.New("production step is not selected")
	ErrEmptyLedger      = errors.New("no items selected")
	ErrInvalidQuantity  = errors.New("quantity must be > 0 and not exceed available quantity")
	ErrUnknownItem      = errors.New("item is not in the stock snapshot")
	// ErrStale результат запроса пришёл после смены выбора и отброшен.
	ErrStale = errors.New("selection changed while request was in flight")
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func selectionError(err error) *Error {
	return &Error{Kind: KindSelection, Message: err.Error(), Err: err}
}

func fetchError(err error) *Error {
	return &Error{Kind: KindFetch, Message: err.Error(), Err: err}
}

func submissionError(msg string, err error) *Error {
	return &Error{Kind: KindSubmission, Message: msg, Err: err}
}

// IsKind проверяет класс ошибки по цепочке обёрток.
func IsKind(err error, kind Kind) bool {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind == kind
	}
	return false
}

// Message текст для показа пользователю.
func Message(err error) string {
	var we *Error
	if errors.As(err, &we) {
		return we.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
