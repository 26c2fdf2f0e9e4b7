package pkg

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类，handler 按分类映射状态码
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindInvalidOperation
	KindForbidden
	KindNotFound
	KindAlreadyExists
	KindInvalidState
	KindBlocked
)

var kindNames = map[Kind]string{
	KindInternal:         "INTERNAL",
	KindUnauthenticated:  "UNAUTHENTICATED",
	KindInvalidOperation: "INVALID_OPERATION",
	KindForbidden:        "FORBIDDEN",
	KindNotFound:         "NOT_FOUND",
	KindAlreadyExists:    "ALREADY_EXISTS",
	KindInvalidState:     "INVALID_STATE",
	KindBlocked:          "BLOCKED",
}

// String 稳定的机器可读原因码
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindInternal]
}

// HTTPStatus 错误类型对应的 HTTP 状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalidOperation:
		return http.StatusBadRequest
	case KindForbidden, KindBlocked:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists, KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error 业务错误。Msg 可直接返回给用户，Err 为底层原因，仅非生产环境返回
type Error struct {
	Kind    Kind
	Msg     string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 只比较分类，errors.Is(err, ErrNotFound) 对所有 NotFound 错误成立
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// WithDetail 复制一份并附加机器可读字段
func (e *Error) WithDetail(key string, value any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

var (
	ErrUnauthenticated  = &Error{Kind: KindUnauthenticated, Msg: "unauthenticated"}
	ErrInvalidOperation = &Error{Kind: KindInvalidOperation, Msg: "invalid operation"}
	ErrForbidden        = &Error{Kind: KindForbidden, Msg: "forbidden"}
	ErrNotFound         = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrAlreadyExists    = &Error{Kind: KindAlreadyExists, Msg: "already exists"}
	ErrInvalidState     = &Error{Kind: KindInvalidState, Msg: "invalid state"}
	ErrBlocked          = &Error{Kind: KindBlocked, Msg: "blocked"}
	ErrInternal         = &Error{Kind: KindInternal, Msg: "internal error"}
)

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Unauthenticated(format string, args ...any) *Error {
	return newErr(KindUnauthenticated, format, args...)
}

func InvalidOperation(format string, args ...any) *Error {
	return newErr(KindInvalidOperation, format, args...)
}

func Forbidden(format string, args ...any) *Error { return newErr(KindForbidden, format, args...) }

func NotFound(format string, args ...any) *Error { return newErr(KindNotFound, format, args...) }

func AlreadyExists(format string, args ...any) *Error {
	return newErr(KindAlreadyExists, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return newErr(KindInvalidState, format, args...)
}

func Blocked(format string, args ...any) *Error { return newErr(KindBlocked, format, args...) }

// Internal 包装存储或外部依赖错误；err 为 nil 时返回 nil，已是 *Error 时原样返回
func Internal(msg string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf 非 *Error 一律视为 Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
