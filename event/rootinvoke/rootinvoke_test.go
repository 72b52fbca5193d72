package rootinvoke

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartEvent_Finish(t *testing.T) {
	start := NewStartEvent("query")
	require.NotEmpty(t, start.ID)
	assert.Equal(t, "query", start.Operation)

	cause := errors.New("boom")
	finish := start.Finish(cause)
	assert.Equal(t, start.ID, finish.ID)
	assert.Equal(t, "query", finish.Operation)
	assert.Same(t, cause, finish.Err)
	assert.False(t, finish.Time.Before(start.Time))
}

func TestLoader_DiscoversRegisteredHandlers(t *testing.T) {
	var ops []string
	Register(HandlerFuncs{
		StartFunc: func(ctx context.Context, e StartEvent) (context.Context, error) {
			ops = append(ops, "start:"+e.Operation)
			return ctx, nil
		},
		FinishFunc: func(ctx context.Context, e FinishEvent) error {
			ops = append(ops, "finish:"+e.Operation)
			return nil
		},
	})

	l := Loader()
	assert.Same(t, l, Loader())
	assert.Equal(t, Family, l.Family())

	start := NewStartEvent("transaction")
	ctx, err := l.Start(context.Background(), start)
	require.NoError(t, err)
	require.NoError(t, l.Finish(ctx, start.Finish(nil)))
	assert.Equal(t, []string{"start:transaction", "finish:transaction"}, ops)
}
