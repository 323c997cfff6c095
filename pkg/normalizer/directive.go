package normalizer

import (
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/normalizer-go/pkg/util/typeutil"
)

// Type 是成员指令声明的值类型，决定取值后的转换方式。
type Type int

const (
	// TypeNone 表示未声明类型：值原样透传，或经由 callback 得到。
	TypeNone Type = iota
	TypeDatetime
	TypeObject
	TypeCollection
)

var typeNames = map[Type]string{
	TypeNone:       "",
	TypeDatetime:   "datetime",
	TypeObject:     "object",
	TypeCollection: "collection",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseType 解析类型名，大小写不敏感，空字符串对应 TypeNone。
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return TypeNone, nil
	case "datetime":
		return TypeDatetime, nil
	case "object":
		return TypeObject, nil
	case "collection":
		return TypeCollection, nil
	default:
		return TypeNone, errors.Newf("unknown type %q", s)
	}
}

// MemberDirective 描述一个字段或方法应如何输出。
// 同一成员可以携带多条指令，每条指令独立产生一个输出条目。
type MemberDirective struct {
	// Name 为输出 key，为空时使用成员名。
	Name string
	Type Type
	// Groups 为空表示任何分组都适用。
	Groups []string
	// MaxDepth 为空时依次使用类级指令与全局配置中的最大深度。
	MaxDepth *int
	// Format 为 Go 时间布局，仅对 TypeDatetime 生效。
	Format string
	// Callback 为取值方法名：未声明类型或 datetime 时在当前对象上调用，
	// object/collection 时在被引用对象上调用。
	Callback  string
	SkipEmpty bool

	inherit bool
	groups  typeutil.Set[string]
}

// Inherit 返回一条“沿用父类型同名成员指令”的标记指令。
// 父类型即第一个匿名嵌入的结构体；父类型缺少该成员或没有指令时，该成员不输出。
func Inherit() MemberDirective {
	return MemberDirective{inherit: true}
}

// Depth 返回 n 的指针，便于填写 MaxDepth。
func Depth(n int) *int {
	return &n
}

// IsInherit 判断是否为 Inherit 标记指令。
func (d MemberDirective) IsInherit() bool {
	return d.inherit
}

// AppliesTo 判断指令是否适用于请求的分组。
// 空分组集合总是适用；非空集合只接受其中列出的分组，因此默认分组 "" 不会命中非空集合。
func (d MemberDirective) AppliesTo(group string) bool {
	if len(d.Groups) == 0 {
		return true
	}
	if d.groups != nil {
		return d.groups.Contain(group)
	}
	for _, g := range d.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// outputKey 返回该指令的输出 key。
func (d MemberDirective) outputKey(member string) string {
	if d.Name != "" {
		return d.Name
	}
	return member
}

func (d MemberDirective) sealed() MemberDirective {
	if len(d.Groups) > 0 {
		d.Groups = append([]string(nil), d.Groups...)
		d.groups = typeutil.NewSet(d.Groups...)
	}
	if d.MaxDepth != nil {
		d.MaxDepth = Depth(*d.MaxDepth)
	}
	return d
}

func (d MemberDirective) validate() error {
	if d.inherit {
		return nil
	}
	if _, ok := typeNames[d.Type]; !ok {
		return errors.Newf("unknown type %d", int(d.Type))
	}
	if d.MaxDepth != nil && *d.MaxDepth < 0 {
		return errors.Newf("maxDepth must be >= 0, got %d", *d.MaxDepth)
	}
	return nil
}

// ClassDirective 是类级指令。
type ClassDirective struct {
	// Groups 限定 SkipEmpty 生效的分组，为空表示任何分组。
	Groups    []string
	SkipEmpty bool
	// MaxDepth 为该类型所有 object/collection 成员的默认最大深度。
	MaxDepth *int

	groups typeutil.Set[string]
}

// AppliesTo 判断类级指令是否适用于请求的分组，规则与 MemberDirective 相同。
func (d ClassDirective) AppliesTo(group string) bool {
	if len(d.Groups) == 0 {
		return true
	}
	if d.groups != nil {
		return d.groups.Contain(group)
	}
	return MemberDirective{Groups: d.Groups}.AppliesTo(group)
}

func (d ClassDirective) sealed() ClassDirective {
	if len(d.Groups) > 0 {
		d.Groups = append([]string(nil), d.Groups...)
		d.groups = typeutil.NewSet(d.Groups...)
	}
	if d.MaxDepth != nil {
		d.MaxDepth = Depth(*d.MaxDepth)
	}
	return d
}

// SerializeDirective 是类级序列化指令，由 pkg/serializer 使用。
type SerializeDirective struct {
	// Wrap 非空时，编码前将结果包装为 {Wrap: value}。
	Wrap string
	// Group 在调用方未指定分组时作为默认分组。
	Group string
}

// Class 是类级指令的标记类型，以匿名字段的方式嵌入：
//
//	type Person struct {
//	    normalizer.Class `normalize:"skipEmpty,group=api" serialize:"wrap=person"`
//	    ...
//	}
//
// 标记字段本身从不作为成员输出。
type Class struct{}

var classType = reflect.TypeOf(Class{})

// ObjectIdentity 标识一个对象实例，仅用于调试日志中的重复访问检测。
type ObjectIdentity struct {
	Type reflect.Type
	Addr uintptr
}

// identityOf 返回 v 的实例标识，不可寻址的值没有稳定标识。
func identityOf(v reflect.Value) (ObjectIdentity, bool) {
	switch {
	case v.Kind() == reflect.Pointer && !v.IsNil():
		return ObjectIdentity{Type: v.Type().Elem(), Addr: v.Pointer()}, true
	case v.CanAddr():
		return ObjectIdentity{Type: v.Type(), Addr: v.Addr().Pointer()}, true
	default:
		return ObjectIdentity{}, false
	}
}
