package normalizer

import (
	"context"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
	"github.com/lk2023060901/normalizer-go/pkg/util/retry"
)

// Lazy 由延迟加载数据的占位对象实现。
// 占位对象在读取成员前必须先 Materialize，且之后只能通过取值方法读取成员。
type Lazy interface {
	Materialized() bool
	Materialize(ctx context.Context) error
}

// accessor 负责读取成员值：直接读取导出字段，或调用预先解析好的取值方法。
type accessor struct {
	registry *Registry
	cfg      MaterializeConfig
}

func newAccessor(registry *Registry, cfg MaterializeConfig) *accessor {
	return &accessor{
		registry: registry,
		cfg:      cfg,
	}
}

// addressable 返回指向 v 的指针，以便调用指针接收者方法。
// v 为 nil 指针或 nil 接口时返回 false；不可寻址的值会被复制。
func addressable(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		for v.Elem().Kind() == reflect.Pointer {
			v = v.Elem()
			if v.IsNil() {
				return reflect.Value{}, false
			}
		}
		return v, true
	}
	if v.CanAddr() {
		return v.Addr(), true
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p, true
}

// materializeValue 在 raw 是未加载的占位对象时加载它，并返回加载后的值。
// raw 不是指针时 Materialize 作用在其副本上，此时返回该副本。
func (a *accessor) materializeValue(ctx context.Context, raw any, class, member string) (any, error) {
	v := reflect.ValueOf(raw)
	ptr, ok := addressable(v)
	if !ok || !ptr.CanInterface() {
		return raw, nil
	}
	lazy, ok := ptr.Interface().(Lazy)
	if !ok {
		return raw, nil
	}
	if err := a.materialize(ctx, lazy, class, member); err != nil {
		return nil, err
	}
	if v.Kind() == reflect.Pointer {
		return raw, nil
	}
	return ptr.Elem().Interface(), nil
}

// materialize 强制加载占位对象，失败时按配置重试。
func (a *accessor) materialize(ctx context.Context, lazy Lazy, class, member string) error {
	if lazy.Materialized() {
		return nil
	}
	err := retry.Do(ctx, func() error {
		return lazy.Materialize(ctx)
	},
		retry.Attempts(a.cfg.Attempts),
		retry.Sleep(a.cfg.Sleep),
		retry.MaxSleepTime(a.cfg.MaxSleep),
	)
	if err != nil {
		return merr.WrapErrProxyMaterialization(class, member, err)
	}
	return nil
}

func (a *accessor) call(ptr reflect.Value, class string, mi *methodInfo) (result any, err error) {
	defer func() {
		if x := recover(); x != nil {
			result = nil
			err = merr.WrapErrCallbackFailed(class, mi.name, errors.Newf("panic: %v", x))
		}
	}()
	out := ptr.Method(mi.index).Call(nil)
	if mi.returnsErr && !out[1].IsNil() {
		return nil, merr.WrapErrCallbackFailed(class, mi.name, out[1].Interface().(error))
	}
	return out[0].Interface(), nil
}

func readField(obj reflect.Value, index []int) (any, bool) {
	f, err := obj.FieldByIndexErr(index)
	if err != nil {
		// 经过 nil 的嵌入指针
		return nil, true
	}
	if !f.CanInterface() {
		return nil, false
	}
	return f.Interface(), true
}

// value 读取 obj（可寻址的结构体）上成员 m 的值。
//
// 导出字段默认直接读取；force 为 true 且存在取值方法时优先调用取值方法。
// 未导出字段必须有取值方法，否则返回 ErrNoAccessor。
// 占位对象先被加载，然后只能通过取值方法读取，缺少时返回 ErrProxyMaterialization。
func (a *accessor) value(ctx context.Context, obj reflect.Value, info *classInfo, m *member, force bool) (any, error) {
	ptr := obj.Addr()
	if lazy, ok := ptr.Interface().(Lazy); ok {
		if err := a.materialize(ctx, lazy, info.name, m.name); err != nil {
			return nil, err
		}
		switch {
		case m.method != nil:
			return a.call(ptr, info.name, m.method)
		case m.getter != nil:
			return a.call(ptr, info.name, m.getter)
		default:
			return nil, merr.WrapErrProxyMaterialization(info.name, m.name, nil)
		}
	}

	if m.method != nil {
		return a.call(ptr, info.name, m.method)
	}
	if m.exported && (!force || m.getter == nil) {
		if v, ok := readField(obj, m.index); ok {
			return v, nil
		}
	}
	if m.getter != nil {
		return a.call(ptr, info.name, m.getter)
	}
	return nil, merr.WrapErrNoAccessor(info.name, m.name)
}

// valueByMethod 在 v 上调用名为 method 的无参方法。
// 方法不存在或签名不符合取值方法要求时返回 (nil, false, nil)。
func (a *accessor) valueByMethod(v reflect.Value, method string) (any, bool, error) {
	ptr, ok := addressable(v)
	if !ok {
		return nil, false, nil
	}
	t := ptr.Type().Elem()
	mi, ok := a.registry.methodTable(t)[method]
	if !ok {
		return nil, false, nil
	}
	result, err := a.call(ptr, typeName(t), &mi)
	return result, true, err
}
