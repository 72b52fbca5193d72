package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ceyewan/shardkit/xerrors"
)

func TestWrapLoadError(t *testing.T) {
	assert.NoError(t, wrapLoadError(nil, "ignored"))

	cause := errors.New("yaml: line 1")
	err := wrapLoadError(cause, "read config file %s", "config")
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsInvalidInput(err))
	assert.Equal(t, xerrors.CodeInvalidInput, xerrors.GetCode(err))
	assert.Contains(t, err.Error(), "read config file config")
}

func TestIsInvalidInput(t *testing.T) {
	assert.True(t, IsInvalidInput(ErrValidationFailed))
	assert.True(t, IsInvalidInput(xerrors.Wrap(ErrValidationFailed, "empty")))
	assert.False(t, IsInvalidInput(errors.New("other")))
	assert.False(t, IsInvalidInput(nil))
}
