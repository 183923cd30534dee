// Package apperror 定义了文档生成链路的错误分类。
package apperror

import (
	"errors"
	"fmt"
)

// Kind 标识错误类别。
type Kind int

const (
	KindValidation Kind = iota + 1
	KindCacheUnavailable
	KindBackend
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindCacheUnavailable:
		return "cache_unavailable"
	case KindBackend:
		return "backend"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// 哨兵错误，配合 errors.Is 使用。
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrCacheUnavailable  = &Error{Kind: KindCacheUnavailable}
	ErrBackend           = &Error{Kind: KindBackend}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
)

// Error 是带类别的错误。ResponseLength 只在 KindMalformedResponse 时有意义。
type Error struct {
	Kind           Kind
	Op             string
	Message        string
	ResponseLength int
	Err            error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Kind == KindMalformedResponse {
		msg += fmt.Sprintf(" (response length %d)", e.ResponseLength)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按类别匹配，使 errors.Is(err, ErrBackend) 对任意 BackendError 成立。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

// Validation 表示调用方传入的字段缺失或非法。
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// CacheUnavailable 表示缓存读写失败，只在缓存层内部使用。
func CacheUnavailable(op string, err error) error {
	return &Error{Kind: KindCacheUnavailable, Op: op, Err: err}
}

// Backend 表示生成式后端调用失败或超时。
func Backend(op string, err error) error {
	return &Error{Kind: KindBackend, Op: op, Err: err}
}

// Malformed 表示后端有响应但无法从中恢复出合法的结构化数据。
func Malformed(op string, length int, err error) error {
	return &Error{Kind: KindMalformedResponse, Op: op, ResponseLength: length, Err: err}
}

// KindOf 返回错误链上第一个 *Error 的类别，没有时返回 0。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
