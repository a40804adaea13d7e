// Package xerrors 提供引擎统一的错误分类：校验错误、领域错误与数值错误
package xerrors

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	// KindValidation 输入超出合法取值范围，在构造时即被发现
	KindValidation Kind = iota + 1
	// KindDomain 给定合约配置不存在适用的定价或计算方法
	KindDomain
	// KindNumerical 数值计算失败，例如越界插值或求根不收敛
	KindNumerical
	// KindNotFound 按 ID 查询的资源不存在
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindDomain:
		return "DOMAIN"
	case KindNumerical:
		return "NUMERICAL"
	case KindNotFound:
		return "NOT_FOUND"
	}
	return "UNKNOWN"
}

// Error 带类别与错误码的错误
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Detail  string
	cause   error
}

// New 创建哨兵错误
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = msg + ": " + e.Detail
	}
	if e.cause != nil {
		msg = msg + ": " + e.cause.Error()
	}
	return msg
}

// Is 按错误码匹配，使带有明细的副本仍能与哨兵错误比较
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail 返回附加明细的副本，错误码保持不变
func (e *Error) WithDetail(format string, args ...any) *Error {
	cp := *e
	cp.Detail = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap 返回以 cause 为底层原因的副本
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// KindOf 提取错误链上第一个 *Error 的类别，没有则返回 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// CodeOf 提取错误码
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }

func IsDomain(err error) bool { return KindOf(err) == KindDomain }

func IsNumerical(err error) bool { return KindOf(err) == KindNumerical }
