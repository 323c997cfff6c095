package normalizer

import (
	"reflect"
	"sync"

	"go.uber.org/atomic"
)

var (
	registrations       sync.Map // reflect.Type -> *Registration
	registrationVersion = atomic.NewInt64(0)
)

// Registration 收集某个类型的显式指令，显式指令优先于 struct tag。
// 应在该类型第一次被 normalize 之前完成注册（通常放在 init 中）；
// 之后的注册会使所有 Registry 中该类型的缓存失效。
type Registration struct {
	typ reflect.Type

	mu      sync.Mutex
	class   *ClassDirective
	fields  map[string][]MemberDirective
	methods map[string][]MemberDirective
}

type registrationSnapshot struct {
	class   *ClassDirective
	fields  map[string][]MemberDirective
	methods map[string][]MemberDirective
}

// Register 返回类型 T 的注册入口，T 可以是结构体或结构体指针。
func Register[T any]() *Registration {
	return RegisterType(reflect.TypeOf((*T)(nil)).Elem())
}

// RegisterType 与 Register 相同，但以 reflect.Type 指定类型。
func RegisterType(t reflect.Type) *Registration {
	t = structType(t)
	reg := &Registration{
		typ:     t,
		fields:  make(map[string][]MemberDirective),
		methods: make(map[string][]MemberDirective),
	}
	actual, _ := registrations.LoadOrStore(t, reg)
	return actual.(*Registration)
}

// Class 设置类级指令，覆盖 Class 标记字段上的 tag。
func (r *Registration) Class(d ClassDirective) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.class = &d
	registrationVersion.Inc()
	return r
}

// Field 为字段设置指令，覆盖该字段的 tag。
func (r *Registration) Field(name string, directives ...MemberDirective) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields[name] = append([]MemberDirective(nil), directives...)
	registrationVersion.Inc()
	return r
}

// Method 为方法成员设置指令。方法必须无参数，返回 T 或 (T, error)。
func (r *Registration) Method(name string, directives ...MemberDirective) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = append([]MemberDirective(nil), directives...)
	registrationVersion.Inc()
	return r
}

func (r *Registration) snapshot() registrationSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := registrationSnapshot{
		class:   r.class,
		fields:  make(map[string][]MemberDirective, len(r.fields)),
		methods: make(map[string][]MemberDirective, len(r.methods)),
	}
	for k, v := range r.fields {
		snap.fields[k] = v
	}
	for k, v := range r.methods {
		snap.methods[k] = v
	}
	return snap
}

func lookupRegistration(t reflect.Type) (registrationSnapshot, bool) {
	v, ok := registrations.Load(t)
	if !ok {
		return registrationSnapshot{}, false
	}
	return v.(*Registration).snapshot(), true
}

// structType 去掉指针层，返回底层类型。
func structType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
