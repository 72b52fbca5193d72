package config

import (
	"fmt"

	"github.com/ceyewan/shardkit/xerrors"
)

// ErrValidationFailed 配置验证失败，属于 ErrInvalidInput 类错误
var ErrValidationFailed = xerrors.Wrap(xerrors.ErrInvalidInput, "configuration validation failed")

// IsInvalidInput 检查错误是否为配置格式无效或验证失败
func IsInvalidInput(err error) bool {
	return xerrors.Is(err, xerrors.ErrInvalidInput)
}

// wrapLoadError 保留原始错误链并归类为 ErrInvalidInput
func wrapLoadError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), xerrors.ErrInvalidInput, err)
	return xerrors.WithCode(wrapped, xerrors.CodeInvalidInput)
}
