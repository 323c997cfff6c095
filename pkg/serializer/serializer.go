// Package serializer 组合 Normalizer 与编码器，一次调用完成 normalize 与编码。
package serializer

import (
	"context"
	"reflect"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lk2023060901/normalizer-go/pkg/encoder"
	"github.com/lk2023060901/normalizer-go/pkg/log"
	"github.com/lk2023060901/normalizer-go/pkg/normalizer"
)

const tracerName = "normalizer-go/serializer"

// Serializer 是 Normalizer 与编码器工厂的组合，可被多个 goroutine 并发使用。
type Serializer struct {
	log.Binder

	normalizer *normalizer.Normalizer
	options    []encoder.Option
}

type Option func(*Serializer)

// WithNormalizer 指定使用的 Normalizer，默认使用 normalizer.New()。
func WithNormalizer(n *normalizer.Normalizer) Option {
	return func(s *Serializer) {
		s.normalizer = n
	}
}

// WithEncoderOptions 设置每次编码的基础选项，类级 serialize 指令与调用参数在其之后生效。
func WithEncoderOptions(opts ...encoder.Option) Option {
	return func(s *Serializer) {
		s.options = append(s.options, opts...)
	}
}

func WithLogger(logger *log.MLogger) Option {
	return func(s *Serializer) {
		s.SetLogger(logger)
	}
}

func New(opts ...Option) *Serializer {
	s := &Serializer{}
	s.SetLogger(log.With(log.FieldComponent("serializer")))
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = normalizer.New()
	}
	return s
}

// Normalizer 返回内部使用的 Normalizer。
func (s *Serializer) Normalizer() *normalizer.Normalizer {
	return s.normalizer
}

// Serialize 将 value 以 group 分组 normalize 后编码为 format 格式。
//
// value 的类型带有 serialize 指令时：wrap 作为包装 key 传给编码器；group 为空时使用指令中的分组。
// 未知格式在任何 normalize 工作之前返回 ErrUnknownEncoder。
func (s *Serializer) Serialize(ctx context.Context, value any, format, group string) ([]byte, error) {
	return s.SerializeWith(ctx, value, format, group)
}

// SerializeWith 与 Serialize 相同，opts 在其它编码选项之后生效。
func (s *Serializer) SerializeWith(ctx context.Context, value any, format, group string, opts ...encoder.Option) (out []byte, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Serialize", trace.WithAttributes(
		attribute.String("format", format),
		attribute.String("group", group),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	construct, err := encoder.Lookup(format)
	if err != nil {
		return nil, err
	}

	directive, err := s.normalizer.Registry().SerializeDirective(reflect.TypeOf(value))
	if err != nil {
		return nil, err
	}
	if group == "" {
		group = directive.Group
	}

	normalized, err := s.normalizer.Normalize(ctx, value, group)
	if err != nil {
		s.Logger().Warn("normalize failed",
			log.FieldFormat(format),
			log.FieldGroup(group),
			zap.Error(err))
		return nil, err
	}

	options := slices.Clone(s.options)
	if directive.Wrap != "" {
		options = append(options, encoder.WithWrap(directive.Wrap))
	}
	options = append(options, opts...)

	out, err = construct(options...).Encode(normalized)
	if err != nil {
		s.Logger().Warn("encode failed",
			log.FieldFormat(format),
			log.FieldGroup(group),
			zap.Error(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("bytes", len(out)))
	return out, nil
}
