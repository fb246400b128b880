package usecase

import (
	"errors"
	"fmt"
)

// エラーの種類。handler がHTTPステータスに変換する
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	KindEmptyCart
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindEmptyCart:
		return "empty_cart"
	default:
		return "internal"
	}
}

// Error はusecaseが返す型付きエラー。
// Message はクライアントにそのまま返してよい文言。Err は内部原因（ログ用）。
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

// 同じ種類・同じ文言なら一致とみなす（センチネル比較用）
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error {
	return NewError(KindValidation, message)
}

// ストレージ等の失敗。文言は固定
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: fmt.Errorf("%s: %w", op, err)}
}

func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// KindOf は型付きでないエラーを Internal とみなす
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrUnauthorized       = NewError(KindUnauthorized, "unauthorized")
	ErrForbidden          = NewError(KindForbidden, "unauthorized")
	ErrProductNotFound    = NewError(KindNotFound, "product not found")
	ErrProductUnavailable = NewError(KindConflict, "requested quantity exceeds available stock")
	ErrItemNotFound       = NewError(KindNotFound, "item not found in cart")
	ErrEmptyCart          = NewError(KindEmptyCart, "the cart is empty, cannot create order")
	ErrOrderNotFound      = NewError(KindNotFound, "order not found")
	ErrOrderCancelled     = NewError(KindConflict, "order is cancelled")
	ErrAddressNotFound    = NewError(KindNotFound, "address not found")
	ErrNoProducts         = NewError(KindNotFound, "no products found")
)

// Tx内から返ったエラーを型付きに揃える
func asUsecaseError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	return Internal(op, err)
}
