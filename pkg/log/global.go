// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxLogKeyType struct{}

// CtxLogKey 为上下文中保存 *MLogger 的 key。
var CtxLogKey = ctxLogKeyType{}

// Info 使用全局 Logger 输出一条 Info 日志。
func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

// Error 使用全局 Logger 输出一条 Error 日志。
func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

// With 创建一个携带额外字段的子 Logger，父子之间的字段互不影响。
func With(fields ...zap.Field) *MLogger {
	return &MLogger{
		Logger: L().WithOptions(zap.AddCallerSkip(-1)).With(fields...),
	}
}

// WithFields 返回一个附加了指定字段的上下文，已有的上下文 Logger 会被继承。
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	base := ctxL()
	if l, ok := FromContext(ctx); ok {
		base = l.Logger
	}
	return context.WithValue(ctx, CtxLogKey, &MLogger{Logger: base.With(fields...)})
}

// NewIntentContext 创建一个携带意图信息的新上下文，并返回对应的 trace.Span。
// 上下文中的 Logger 带有 role、intent 与 traceID 字段。
func NewIntentContext(name string, intent string) (context.Context, trace.Span) {
	intentCtx, span := otel.Tracer(name).Start(context.Background(), intent)
	intentCtx = WithFields(intentCtx,
		zap.String("role", name),
		zap.String("intent", intent),
		zap.String("traceID", span.SpanContext().TraceID().String()))
	return intentCtx, span
}

// FromContext 返回 ctx 中通过 WithFields 附加的 Logger。
func FromContext(ctx context.Context) (*MLogger, bool) {
	if ctx == nil {
		return nil, false
	}
	l, ok := ctx.Value(CtxLogKey).(*MLogger)
	return l, ok && l != nil
}

// Ctx 返回 ctx 中的 Logger，没有时返回全局 Logger。
func Ctx(ctx context.Context) *MLogger {
	if l, ok := FromContext(ctx); ok {
		return l
	}
	return &MLogger{Logger: ctxL()}
}
