package normalizer

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/lk2023060901/normalizer-go/pkg/ir"
	"github.com/lk2023060901/normalizer-go/pkg/log"
	"github.com/lk2023060901/normalizer-go/pkg/metrics"
	"github.com/lk2023060901/normalizer-go/pkg/util/conc"
	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
)

const (
	logRateGroup    = "normalizer"
	logCreditPerSec = 1
	logMaxBalance   = 60
)

func componentLogger(l *log.MLogger) *log.MLogger {
	return l.With(log.FieldComponent("normalizer")).WithRateGroup(logRateGroup, logCreditPerSec, logMaxBalance)
}

// Normalizer 将对象图转换为中间表示。
// Normalizer 本身无调用级状态，可被多个 goroutine 并发使用。
type Normalizer struct {
	log.Binder

	cfg      Config
	registry *Registry
	accessor *accessor

	poolOnce sync.Once
	pool     *conc.Pool[any]
}

// Option 配置 Normalizer。
type Option func(*Normalizer)

// WithConfig 设置配置，零值字段使用默认值。
func WithConfig(cfg Config) Option {
	return func(n *Normalizer) {
		n.cfg = cfg
	}
}

// WithRegistry 指定使用的 Registry，默认根据 TagName 选择 DefaultRegistry 或新建。
func WithRegistry(registry *Registry) Option {
	return func(n *Normalizer) {
		n.registry = registry
	}
}

// WithLogger 设置组件 Logger。
func WithLogger(logger *log.MLogger) Option {
	return func(n *Normalizer) {
		n.SetLogger(logger)
	}
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{cfg: DefaultConfig()}
	n.SetLogger(componentLogger(log.With()))
	for _, opt := range opts {
		opt(n)
	}
	n.cfg = n.cfg.withDefaults()
	if n.registry == nil {
		if n.cfg.TagName == DefaultTagName {
			n.registry = DefaultRegistry()
		} else {
			n.registry = NewRegistry(WithTagName(n.cfg.TagName))
		}
	}
	n.accessor = newAccessor(n.registry, n.cfg.Materialize)
	return n
}

// Config 返回生效的配置。
func (n *Normalizer) Config() Config {
	return n.cfg
}

// Registry 返回使用的指令缓存。
func (n *Normalizer) Registry() *Registry {
	return n.registry
}

// NormalizeObject 以 objectName 为根对象名 normalize 一个结构体（或结构体指针），
// 返回按成员顺序组织的有序映射。objectName 为空时使用类型名。
func (n *Normalizer) NormalizeObject(ctx context.Context, objectName string, obj any, group string) (result *ir.Map, err error) {
	start := time.Now()
	defer func() {
		metrics.NormalizeTotal.WithLabelValues(metrics.StatusLabel(err)).Inc()
		metrics.NormalizeLatency.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	target, ok := objectOf(obj)
	if !ok {
		return nil, merr.WrapErrClassInvalid(obj)
	}
	if objectName == "" {
		objectName = typeName(target.Type())
	}

	t := n.newTraversal(ctx, group)
	if lazy, ok := target.Addr().Interface().(Lazy); ok {
		if err := n.accessor.materialize(t.ctx, lazy, objectName, ""); err != nil {
			return nil, err
		}
	}
	return t.normalizeObject(objectName, target)
}

// Normalize 将任意值转换为中间表示：结构体转换为映射，切片与数组逐个元素转换，
// 以 string 为 key 的 map 逐个值转换，其余值原样返回。
func (n *Normalizer) Normalize(ctx context.Context, value any, group string) (result any, err error) {
	start := time.Now()
	defer func() {
		metrics.NormalizeTotal.WithLabelValues(metrics.StatusLabel(err)).Inc()
		metrics.NormalizeLatency.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	return n.newTraversal(ctx, group).normalizeValue(value)
}

// Value 读取 obj 上名为 member 的成员值。force 为 true 时优先使用取值方法。
func (n *Normalizer) Value(ctx context.Context, obj any, member string, force bool) (any, error) {
	target, ok := objectOf(obj)
	if !ok {
		return nil, merr.WrapErrClassInvalid(obj)
	}
	info, err := n.registry.classOf(target.Type())
	if err != nil {
		return nil, err
	}
	m, ok := info.memberByName(member)
	if !ok {
		return nil, merr.WrapErrParameterInvalid("member of "+info.name, member)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return n.accessor.value(ctx, target, info, m, force)
}

// ValueByMethod 调用 obj 上名为 method 的无参方法；方法不存在时返回 (nil, nil)。
func (n *Normalizer) ValueByMethod(obj any, method string) (any, error) {
	v, _, err := n.accessor.valueByMethod(reflect.ValueOf(obj), method)
	return v, err
}
