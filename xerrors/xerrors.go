// Package xerrors 提供 shardkit 统一的错误处理工具与错误分类。
//
// 路由核心只产生同步、本地的错误：
//   - ErrInvalidArgument: 分片值参数非法（空值列表、空表名等），调用方可修正
//   - ErrUnsupportedOperation: 不支持的分片操作符，属于调用方的编程错误
//   - ErrClosed: 在已关闭的 Hint 作用域上继续写入
//
// "未找到分片值" 不是错误，由 (value, ok) 形式返回。
package xerrors

import (
	"errors"
	"fmt"
)

// 错误码，用于日志与跨边界传递
const (
	CodeInvalidArgument      = "INVALID_ARGUMENT"
	CodeUnsupportedOperation = "UNSUPPORTED_OPERATION"
	CodeHandlerFailed        = "HANDLER_FAILED"
	CodeInvalidInput         = "INVALID_INPUT"
)

// 哨兵错误
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrInvalidInput         = errors.New("invalid input")
	ErrClosed               = errors.New("closed")
	ErrNoRoute              = errors.New("no route")
	ErrHandler              = errors.New("event handler failed")
)

// Wrap 用上下文信息包装错误，保留错误链。
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 用格式化的上下文信息包装错误。
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// WithCode 用错误码包装错误。
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Cause: err}
}

// CodedError 带有机器可读错误码的错误。
type CodedError struct {
	Code  string
	Cause error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("[%s]", e.Code)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// GetCode 从错误链中提取错误码，没有时返回空串。
func GetCode(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// InvalidArgument 构造一个 ErrInvalidArgument 类错误。
func InvalidArgument(format string, args ...any) error {
	return WithCode(Wrapf(ErrInvalidArgument, format, args...), CodeInvalidArgument)
}

// UnsupportedOperation 构造一个 ErrUnsupportedOperation 类错误，name 为操作的展示名。
func UnsupportedOperation(name string) error {
	return WithCode(Wrap(ErrUnsupportedOperation, name), CodeUnsupportedOperation)
}

// MultiError 合并多个错误。
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%v (and %d more errors)", m.Errors[0], len(m.Errors)-1)
}

func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Combine 将多个错误合并为一个，忽略 nil。
func Combine(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return &MultiError{Errors: nonNil}
	}
}

// Must 如果 err 不为 nil，则 panic。仅用于初始化阶段。
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}

// 标准库函数再导出
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)
