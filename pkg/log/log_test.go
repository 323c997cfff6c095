package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestReplaceGlobalsSkipsDisabledLevels(t *testing.T) {
	oldL, oldP := L(), _globalP.Load().(*ZapProperties)
	t.Cleanup(func() { ReplaceGlobals(oldL, oldP) })

	var buf bytes.Buffer
	lg, props, err := InitLoggerWithWriteSyncer(&Config{Level: "info"}, zapcore.AddSync(&buf))
	require.NoError(t, err)
	ReplaceGlobals(lg, props)

	assert.NotContains(t, buf.String(), "IncreaseLevel")
	_, ok := _globalLevelLogger.Load(zapcore.DebugLevel)
	assert.False(t, ok)
	_, ok = _globalLevelLogger.Load(zapcore.WarnLevel)
	assert.True(t, ok)

	Ctx(context.Background()).Debug("hidden")
	Ctx(context.Background()).Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestContextLogger(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithFields(context.Background(), zap.String("request", "r1"))
	l, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, l, Ctx(ctx))

	// 继承已有的上下文 Logger
	nested := WithFields(ctx, FieldComponent("c"))
	nl, ok := FromContext(nested)
	require.True(t, ok)
	assert.NotSame(t, l, nl)

	intent, span := NewIntentContext("test", "normalize")
	defer span.End()
	_, ok = FromContext(intent)
	assert.True(t, ok)
}
