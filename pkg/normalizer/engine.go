package normalizer

import (
	"context"
	"reflect"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/normalizer-go/pkg/ir"
	"github.com/lk2023060901/normalizer-go/pkg/log"
)

// traversal 是一次顶层 normalize 调用的上下文。
// 被引用对象的递归复用同一个 traversal，因此共享深度计数与已处理根对象记录。
type traversal struct {
	ctx    context.Context
	n      *Normalizer
	logger *log.MLogger
	group  string

	// depth 为当前递归深度，进入 object 成员时加一、返回时减一，不会小于 0。
	depth int
	// processedDepthObjects 记录每个根对象名开始 normalize 时的深度，仅用于检测重入。
	processedDepthObjects map[string]int
	// branch 为当前递归路径上的对象实例。
	branch []ObjectIdentity
}

func (n *Normalizer) newTraversal(ctx context.Context, group string) *traversal {
	if ctx == nil {
		ctx = context.Background()
	}
	// 上下文携带 Logger 时（例如 log.NewIntentContext）沿用其字段
	logger := n.Logger()
	if ctxLogger, ok := log.FromContext(ctx); ok {
		logger = componentLogger(ctxLogger)
	}
	return &traversal{
		ctx:                   ctx,
		n:                     n,
		logger:                logger,
		group:                 group,
		processedDepthObjects: make(map[string]int),
	}
}

func (t *traversal) onBranch(id ObjectIdentity) bool {
	for _, b := range t.branch {
		if b == id {
			return true
		}
	}
	return false
}

func (t *traversal) skipEmpty(info *classInfo, d MemberDirective) bool {
	return d.SkipEmpty || (info.class.SkipEmpty && info.class.AppliesTo(t.group))
}

// read 读取指令对应的原始值。
// 未声明类型或 datetime 类型且声明了 callback 时，原始值即当前对象上 callback 的返回值；
// datetime 类型总是优先使用取值方法。
func (t *traversal) read(obj reflect.Value, info *classInfo, m *member, d MemberDirective) (any, error) {
	if d.Callback != "" && (d.Type == TypeNone || d.Type == TypeDatetime) {
		v, _, err := t.n.accessor.valueByMethod(obj, d.Callback)
		return v, err
	}
	return t.n.accessor.value(t.ctx, obj, info, m, d.Type == TypeDatetime)
}

// normalizeReferenced 加载占位对象后以其类型名作为对象名继续 normalize。
func (t *traversal) normalizeReferenced(target reflect.Value) (*ir.Map, error) {
	name := typeName(target.Type())
	if lazy, ok := target.Addr().Interface().(Lazy); ok {
		if err := t.n.accessor.materialize(t.ctx, lazy, name, ""); err != nil {
			return nil, err
		}
	}
	return t.normalizeObject(name, target)
}

// normalizeObject 将一个可寻址的结构体转换为有序映射。
//
// 对每个带指令的成员，按声明顺序处理每条指令：分组不匹配则跳过；读取原始值；
// 原始值为空且启用了空值抑制则跳过；按类型转换；空序列折叠为 nil；写入输出 key（后写覆盖先写）。
// 成员读取失败时立即返回错误，错误信息包含类型名与成员名。
func (t *traversal) normalizeObject(objectName string, obj reflect.Value) (*ir.Map, error) {
	if prev, ok := t.processedDepthObjects[objectName]; ok && prev < t.depth {
		t.logger.RatedDebug(1, "re-entrant normalization of root object",
			log.FieldClass(objectName),
			log.FieldDepth(t.depth),
			zap.Int("firstDepth", prev))
	}
	t.processedDepthObjects[objectName] = t.depth

	if id, ok := identityOf(obj); ok {
		if t.onBranch(id) {
			t.logger.RatedDebug(1, "object revisited on current branch",
				log.FieldClass(objectName),
				log.FieldDepth(t.depth))
		}
		t.branch = append(t.branch, id)
		defer func() {
			t.branch = t.branch[:len(t.branch)-1]
		}()
	}

	info, err := t.n.registry.classOf(obj.Type())
	if err != nil {
		return nil, err
	}

	result := ir.NewMap(len(info.members))
	for _, m := range info.members {
		for _, d := range m.directives {
			if !d.AppliesTo(t.group) {
				continue
			}
			raw, err := t.read(obj, info, m, d)
			if err != nil {
				t.logger.Warn("failed to read member",
					log.FieldClass(info.name),
					log.FieldMember(m.name),
					zap.Error(err))
				return nil, errors.Wrapf(err, "normalize %s.%s", info.name, m.name)
			}
			if isEmpty(raw) && t.skipEmpty(info, d) {
				continue
			}
			value, err := t.coerce(info, m.name, d, raw)
			if err != nil {
				return nil, errors.Wrapf(err, "normalize %s.%s", info.name, m.name)
			}
			result.Set(d.outputKey(m.name), canonical(value))
		}
	}
	return result, nil
}

// normalizeValue 处理 Normalize 的入口值：结构体转换为映射，序列逐个元素转换，
// 以 string 为 key 的 map 逐个值转换，其它值原样返回。
func (t *traversal) normalizeValue(v any) (any, error) {
	switch ir.KindOf(v) {
	case ir.KindNull:
		return nil, nil
	case ir.KindList:
		list, _ := ir.ListOf(v)
		out := make([]any, 0, len(list))
		for _, item := range list {
			normalized, err := t.normalizeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, normalized)
		}
		return out, nil
	case ir.KindMap:
		in, _ := ir.MapOf(v)
		out := ir.NewMap(in.Len())
		for _, p := range in.Pairs() {
			normalized, err := t.normalizeValue(p.Value)
			if err != nil {
				return nil, err
			}
			out.Set(p.Key, normalized)
		}
		return out, nil
	case ir.KindOther:
		if !isObjectLike(v) {
			return v, nil
		}
		obj, _ := objectOf(v)
		return t.normalizeReferenced(obj)
	default:
		return v, nil
	}
}
