package normalizer

import (
	"encoding"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/normalizer-go/pkg/ir"
	"github.com/lk2023060901/normalizer-go/pkg/log"
	"github.com/lk2023060901/normalizer-go/pkg/metrics"
)

var textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

// isNil 判断 v 是否为 nil 或持有 nil 的指针、接口、map、切片、函数、channel。
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// isEmpty 判断原始值是否为空：nil、长度为 0 的字符串、切片、数组、map，以及没有条目的 *ir.Map。
// 数值 0 与 false 不是空值。
func isEmpty(v any) bool {
	if isNil(v) {
		return true
	}
	if m, ok := v.(*ir.Map); ok {
		return m.Len() == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	default:
		return false
	}
}

// canonical 将写入结果前的值规整：typed nil 变为 nil，空序列变为 nil，空映射保持不变。
func canonical(v any) any {
	if isNil(v) {
		return nil
	}
	if ir.KindOf(v) == ir.KindList {
		if list, ok := ir.ListOf(v); ok && len(list) == 0 {
			return nil
		}
	}
	return v
}

// objectOf 解引用指针与接口，返回可寻址的结构体值。
func objectOf(raw any) (reflect.Value, bool) {
	v := reflect.ValueOf(raw)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	if !v.CanAddr() {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p.Elem()
	}
	return v, true
}

// isObjectLike 判断集合元素是否按被引用对象处理。实现 encoding.TextMarshaler 的结构体（例如 time.Time）按标量处理。
func isObjectLike(v any) bool {
	obj, ok := objectOf(v)
	if !ok {
		return false
	}
	return !reflect.PointerTo(obj.Type()).Implements(textMarshalerType)
}

func formatDatetime(v any, layout string) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(layout)
	case *time.Time:
		if t != nil {
			return t.Format(layout)
		}
	}
	return nil
}

// coerce 按指令声明的类型转换原始值。类型不匹配时退化为 nil，不返回错误。
func (t *traversal) coerce(info *classInfo, member string, d MemberDirective, raw any) (any, error) {
	switch d.Type {
	case TypeDatetime:
		value := raw
		if d.Callback != "" {
			var err error
			if value, err = t.handleCallbackResult(value, info, d); err != nil {
				return nil, err
			}
		}
		layout := d.Format
		if layout == "" {
			layout = t.n.cfg.DateFormat
		}
		return formatDatetime(value, layout), nil

	case TypeObject:
		return t.objectValue(raw, info, d)

	case TypeCollection:
		return t.collectionValue(raw, info, member, d)

	default:
		if d.Callback != "" {
			return t.handleCallbackResult(raw, info, d)
		}
		return raw, nil
	}
}

// handleCallbackResult 处理 callback 的返回值：typed nil 变为 nil，占位对象被加载，
// 在该指令启用空值抑制时空结果变为 nil，其余原样返回（不递归）。
func (t *traversal) handleCallbackResult(v any, info *classInfo, d MemberDirective) (any, error) {
	if isNil(v) {
		return nil, nil
	}
	v, err := t.n.accessor.materializeValue(t.ctx, v, info.name, d.Callback)
	if err != nil {
		return nil, err
	}
	if isEmpty(v) && t.skipEmpty(info, d) {
		return nil, nil
	}
	return v, nil
}

func (t *traversal) maxDepth(info *classInfo, d MemberDirective) int {
	switch {
	case d.MaxDepth != nil:
		return *d.MaxDepth
	case info.class.MaxDepth != nil:
		return *info.class.MaxDepth
	default:
		return t.n.cfg.DefaultMaxDepth
	}
}

// objectValue 处理 object 类型：达到最大深度时返回 nil；否则深度加一后递归 normalize 被引用对象。
// 指令声明了 callback 且被引用对象上存在该方法时，返回 callback 的结果而不递归。
func (t *traversal) objectValue(raw any, info *classInfo, d MemberDirective) (any, error) {
	if limit := t.maxDepth(info, d); t.depth >= limit {
		metrics.DepthLimited.Inc()
		t.logger.RatedDebug(1, "max depth reached, value replaced with null",
			log.FieldClass(info.name),
			log.FieldDepth(t.depth),
			zap.Int("maxDepth", limit))
		return nil, nil
	}
	t.depth++
	defer func() {
		t.depth--
	}()

	if d.Callback != "" {
		result, found, err := t.n.accessor.valueByMethod(reflect.ValueOf(raw), d.Callback)
		if err != nil {
			return nil, err
		}
		if found {
			return t.handleCallbackResult(result, info, d)
		}
	}

	if isEmpty(raw) {
		return nil, nil
	}
	target, ok := objectOf(raw)
	if !ok {
		return nil, nil
	}
	m, err := t.normalizeReferenced(target)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// collectionValue 处理 collection 类型：只接受切片与数组，元素按 object 规则处理，非对象元素原样保留。
func (t *traversal) collectionValue(raw any, info *classInfo, member string, d MemberDirective) (any, error) {
	// 未加载的占位集合可能是 nil 切片，先加载再判断
	raw, err := t.n.accessor.materializeValue(t.ctx, raw, info.name, member)
	if err != nil {
		return nil, err
	}
	if isNil(raw) {
		return nil, nil
	}

	v := reflect.ValueOf(raw)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, nil
	}

	out := make([]any, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i).Interface()
		if !isObjectLike(elem) {
			out = append(out, canonicalScalar(elem))
			continue
		}
		item, err := t.objectValue(elem, info, d)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func canonicalScalar(v any) any {
	if isNil(v) {
		return nil
	}
	return v
}
