package normalizer

import (
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
	"github.com/lk2023060901/normalizer-go/pkg/util/typeutil"
)

// MemberKind 区分字段成员与方法成员。
type MemberKind int

const (
	MemberField MemberKind = iota
	MemberMethod
)

func (k MemberKind) String() string {
	if k == MemberMethod {
		return "method"
	}
	return "field"
}

// Member 是类型成员及其已解析指令的只读描述。
type Member struct {
	Name       string
	Kind       MemberKind
	Directives []MemberDirective
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// methodInfo 描述指针类型方法集中一个可用作取值器的方法：无参数，返回 T 或 (T, error)。
type methodInfo struct {
	index      int
	name       string
	returnsErr bool
}

type methodTable map[string]methodInfo

func buildMethodTable(t reflect.Type) methodTable {
	pt := reflect.PointerTo(t)
	table := make(methodTable, pt.NumMethod())
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		mt := m.Type
		// In(0) 为接收者
		if mt.NumIn() != 1 {
			continue
		}
		switch {
		case mt.NumOut() == 1:
			table[m.Name] = methodInfo{index: i, name: m.Name}
		case mt.NumOut() == 2 && mt.Out(1) == errorType:
			table[m.Name] = methodInfo{index: i, name: m.Name, returnsErr: true}
		}
	}
	return table
}

type member struct {
	name     string
	kind     MemberKind
	index    []int
	exported bool
	// getter 为字段的取值方法，method 为方法成员本身。
	getter     *methodInfo
	method     *methodInfo
	directives []MemberDirective
}

func (m *member) public() Member {
	return Member{
		Name:       m.name,
		Kind:       m.kind,
		Directives: slices.Clone(m.directives),
	}
}

// classInfo 是某个结构体类型解析后的全部指令与访问表，解析后只读。
type classInfo struct {
	typ       reflect.Type
	name      string
	class     ClassDirective
	serialize SerializeDirective
	members   []*member
	methods   methodTable
	version   int64
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// getterFor 按 Get<Name>、Is<Name> 的顺序查找字段取值方法；
// 未导出字段额外接受 Go 惯用的 <Name>()。
func getterFor(methods methodTable, field string, exported bool) *methodInfo {
	name := upperFirst(field)
	candidates := []string{"Get" + name, "Is" + name}
	if !exported {
		candidates = append(candidates, name)
	}
	for _, c := range candidates {
		if mi, ok := methods[c]; ok {
			return &mi
		}
	}
	return nil
}

func isParentField(sf reflect.StructField, tagName string) bool {
	if !sf.Anonymous || sf.Type == classType {
		return false
	}
	if _, ok := sf.Tag.Lookup(tagName); ok {
		return false
	}
	return structType(sf.Type).Kind() == reflect.Struct
}

// build 解析类型 t 的成员列表，顺序为：自身字段（声明顺序）、父类型字段、方法（字典序）。
// 父类型即匿名嵌入且没有指令 tag 的结构体，其字段按 Go 的提升规则被子类型同名字段遮蔽。
// visiting 防止指针嵌入形成的类型环导致无限递归。
func (r *Registry) build(t reflect.Type, visiting typeutil.Set[reflect.Type]) (*classInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, merr.WrapErrClassInvalid(reflect.Zero(t).Interface())
	}
	if visiting == nil {
		visiting = typeutil.NewSet[reflect.Type]()
	}
	visiting.Insert(t)

	snap, _ := lookupRegistration(t)
	info := &classInfo{
		typ:     t,
		name:    typeName(t),
		methods: r.methodTable(t),
	}

	var parents []reflect.StructField
	seen := typeutil.NewSet[string]()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == classType {
			if err := r.parseClassTags(info, sf); err != nil {
				return nil, err
			}
			continue
		}
		if isParentField(sf, r.tagName) {
			parents = append(parents, sf)
			continue
		}
		m := &member{
			name:     sf.Name,
			kind:     MemberField,
			index:    []int{i},
			exported: sf.IsExported(),
		}
		m.getter = getterFor(info.methods, sf.Name, m.exported)
		directives, err := r.fieldDirectives(info.name, sf, snap)
		if err != nil {
			return nil, err
		}
		m.directives = directives
		info.members = append(info.members, m)
		seen.Insert(sf.Name)
	}
	if snap.class != nil {
		if snap.class.MaxDepth != nil && *snap.class.MaxDepth < 0 {
			return nil, merr.WrapErrDirectiveInvalid(info.name, "Class", "maxDepth must be >= 0")
		}
		info.class = snap.class.sealed()
	}

	var parentInfos []*classInfo
	for _, p := range parents {
		pt := structType(p.Type)
		if visiting.Contain(pt) {
			continue
		}
		parentInfo, err := r.build(pt, visiting)
		if err != nil {
			return nil, err
		}
		parentInfos = append(parentInfos, parentInfo)
		for _, pm := range parentInfo.members {
			if pm.kind != MemberField || seen.Contain(pm.name) {
				continue
			}
			seen.Insert(pm.name)
			directives := pm.directives
			// 子类型的显式注册覆盖父类型的字段指令
			if registered, ok := snap.fields[pm.name]; ok {
				if directives, err = sealDirectives(info.name, pm.name, registered); err != nil {
					return nil, err
				}
			}
			info.members = append(info.members, &member{
				name:       pm.name,
				kind:       MemberField,
				index:      append(slices.Clone(p.Index), pm.index...),
				exported:   pm.exported,
				getter:     getterFor(info.methods, pm.name, pm.exported),
				directives: directives,
			})
		}
	}

	if err := r.resolveInherited(info, parentInfos); err != nil {
		return nil, err
	}
	if err := r.buildMethodMembers(info, snap, parentInfos); err != nil {
		return nil, err
	}
	for name := range snap.fields {
		if !seen.Contain(name) {
			return nil, merr.WrapErrDirectiveInvalid(info.name, name, "field not found")
		}
	}
	visiting.Remove(t)
	return info, nil
}

func (r *Registry) parseClassTags(info *classInfo, sf reflect.StructField) error {
	class, err := classDirectiveFromTag(sf.Tag.Get(r.tagName))
	if err != nil {
		return merr.WrapErrDirectiveInvalid(info.name, sf.Name, err.Error())
	}
	if class.MaxDepth != nil && *class.MaxDepth < 0 {
		return merr.WrapErrDirectiveInvalid(info.name, sf.Name, "maxDepth must be >= 0")
	}
	info.class = class.sealed()

	serialize, err := serializeDirectiveFromTag(sf.Tag.Get("serialize"))
	if err != nil {
		return merr.WrapErrDirectiveInvalid(info.name, sf.Name, err.Error())
	}
	info.serialize = serialize
	return nil
}

func (r *Registry) fieldDirectives(class string, sf reflect.StructField, snap registrationSnapshot) ([]MemberDirective, error) {
	directives, registered := snap.fields[sf.Name]
	if !registered {
		tag, ok := sf.Tag.Lookup(r.tagName)
		if !ok {
			return nil, nil
		}
		parsed, ignored, err := memberDirectivesFromTag(tag)
		if err != nil {
			return nil, merr.WrapErrDirectiveInvalid(class, sf.Name, err.Error())
		}
		if ignored {
			return nil, nil
		}
		directives = parsed
	}
	return sealDirectives(class, sf.Name, directives)
}

func sealDirectives(class, name string, directives []MemberDirective) ([]MemberDirective, error) {
	out := make([]MemberDirective, 0, len(directives))
	for _, d := range directives {
		if err := d.validate(); err != nil {
			return nil, merr.WrapErrDirectiveInvalid(class, name, err.Error())
		}
		out = append(out, d.sealed())
	}
	return out, nil
}

func onlyInherit(directives []MemberDirective) bool {
	return len(directives) > 0 && lo.EveryBy(directives, MemberDirective.IsInherit)
}

// inheritFrom 在第一个父类型中查找同名同类成员的指令；找不到时返回空列表。
func inheritFrom(parents []*classInfo, name string, kind MemberKind) []MemberDirective {
	if len(parents) == 0 {
		return nil
	}
	for _, pm := range parents[0].members {
		if pm.name == name && pm.kind == kind {
			return pm.directives
		}
	}
	return nil
}

// resolveInherited 处理字段上的 inherit 标记。
func (r *Registry) resolveInherited(info *classInfo, parents []*classInfo) error {
	for _, m := range info.members {
		if !onlyInherit(m.directives) {
			m.directives = lo.Reject(m.directives, func(d MemberDirective, _ int) bool { return d.inherit })
			continue
		}
		m.directives = inheritFrom(parents, m.name, MemberField)
	}
	return nil
}

// buildMethodMembers 追加方法成员：本类型显式注册的方法与父类型中未被重新注册的方法，按名称排序。
func (r *Registry) buildMethodMembers(info *classInfo, snap registrationSnapshot, parents []*classInfo) error {
	declared := make(map[string][]MemberDirective, len(snap.methods))
	for name, directives := range snap.methods {
		if onlyInherit(directives) {
			declared[name] = inheritFrom(parents, name, MemberMethod)
			continue
		}
		sealed, err := sealDirectives(info.name, name, lo.Reject(directives, func(d MemberDirective, _ int) bool { return d.inherit }))
		if err != nil {
			return err
		}
		declared[name] = sealed
	}
	for _, parent := range parents {
		for _, pm := range parent.members {
			if pm.kind != MemberMethod {
				continue
			}
			if _, ok := declared[pm.name]; !ok {
				declared[pm.name] = pm.directives
			}
		}
	}

	names := lo.Keys(declared)
	slices.Sort(names)
	for _, name := range names {
		mi, ok := info.methods[name]
		if !ok {
			return merr.WrapErrDirectiveInvalid(info.name, name,
				"method not found or not a getter (want func() T or func() (T, error))")
		}
		info.members = append(info.members, &member{
			name:       name,
			kind:       MemberMethod,
			exported:   true,
			method:     &mi,
			directives: declared[name],
		})
	}
	return nil
}

// memberByName 用于测试与内省。
func (c *classInfo) memberByName(name string) (*member, bool) {
	return lo.Find(c.members, func(m *member) bool { return m.name == name })
}

func joinNames(members []*member) string {
	return strings.Join(lo.Map(members, func(m *member, _ int) string { return m.name }), ",")
}
