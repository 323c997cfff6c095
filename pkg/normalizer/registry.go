package normalizer

import (
	"reflect"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lk2023060901/normalizer-go/pkg/log"
	"github.com/lk2023060901/normalizer-go/pkg/metrics"
)

// DefaultTagName 是字段指令默认使用的 struct tag 名。
const DefaultTagName = "normalize"

// Registry 按类型缓存已解析的指令与访问表。
//
// 指令解析是类型与显式注册的纯函数，因此并发未命中时即便重复解析也只会得到相同结果；
// 这里用 singleflight 合并同一类型的并发解析，避免重复的反射开销。
type Registry struct {
	tagName string

	classes      sync.Map // reflect.Type -> *classInfo
	methodTables sync.Map // reflect.Type -> methodTable
	sf           singleflight.Group
}

// RegistryOption 配置 Registry。
type RegistryOption func(*Registry)

// WithTagName 设置读取字段指令的 struct tag 名。
func WithTagName(name string) RegistryOption {
	return func(r *Registry) {
		if name != "" {
			r.tagName = name
		}
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{tagName: DefaultTagName}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry 返回进程级共享的 Registry，首次调用时初始化。
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// TagName 返回该 Registry 读取的 struct tag 名。
func (r *Registry) TagName() string {
	return r.tagName
}

func (r *Registry) methodTable(t reflect.Type) methodTable {
	if v, ok := r.methodTables.Load(t); ok {
		return v.(methodTable)
	}
	table := buildMethodTable(t)
	actual, _ := r.methodTables.LoadOrStore(t, table)
	return actual.(methodTable)
}

func typeKey(t reflect.Type) string {
	return strconv.FormatUint(uint64(reflect.ValueOf(t).Pointer()), 16)
}

// classOf 返回类型 t（可为指针类型）的解析结果，必要时解析并写入缓存。
func (r *Registry) classOf(t reflect.Type) (*classInfo, error) {
	t = structType(t)
	version := registrationVersion.Load()
	if v, ok := r.classes.Load(t); ok && v.(*classInfo).version == version {
		metrics.DirectiveCache.WithLabelValues(metrics.HitLabel).Inc()
		return v.(*classInfo), nil
	}
	metrics.DirectiveCache.WithLabelValues(metrics.MissLabel).Inc()

	v, err, _ := r.sf.Do(typeKey(t), func() (any, error) {
		info, err := r.build(t, nil)
		if err != nil {
			return nil, err
		}
		info.version = version
		r.classes.Store(t, info)
		log.With(log.FieldComponent("normalizer.registry")).Debug("class directives resolved",
			log.FieldClass(info.name),
			zap.Int("members", len(info.members)),
			zap.String("memberNames", joinNames(info.members)))
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*classInfo), nil
}

// Preload 预先解析给定类型，可用于在启动阶段暴露指令配置错误。
func (r *Registry) Preload(types ...reflect.Type) error {
	for _, t := range types {
		if _, err := r.classOf(t); err != nil {
			return err
		}
	}
	return nil
}

// Members 返回类型 t 的成员列表：字段在前（自身字段、父类型字段），方法在后（字典序）。
func (r *Registry) Members(t reflect.Type) ([]Member, error) {
	info, err := r.classOf(t)
	if err != nil {
		return nil, err
	}
	out := make([]Member, 0, len(info.members))
	for _, m := range info.members {
		out = append(out, m.public())
	}
	return out, nil
}

// Directives 返回成员的指令列表；成员不存在或没有指令时返回空列表。
func (r *Registry) Directives(t reflect.Type, member string) ([]MemberDirective, error) {
	info, err := r.classOf(t)
	if err != nil {
		return nil, err
	}
	if m, ok := info.memberByName(member); ok {
		return m.public().Directives, nil
	}
	return nil, nil
}

// ClassDirective 返回类型 t 的类级指令。
func (r *Registry) ClassDirective(t reflect.Type) (ClassDirective, error) {
	info, err := r.classOf(t)
	if err != nil {
		return ClassDirective{}, err
	}
	return info.class, nil
}

// SerializeDirective 返回类型 t 的序列化指令。非结构体类型返回零值。
func (r *Registry) SerializeDirective(t reflect.Type) (SerializeDirective, error) {
	if t == nil || structType(t).Kind() != reflect.Struct {
		return SerializeDirective{}, nil
	}
	info, err := r.classOf(t)
	if err != nil {
		return SerializeDirective{}, err
	}
	return info.serialize, nil
}
