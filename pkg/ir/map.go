package ir

import (
	"reflect"
	"strings"
)

// Map 是保持插入顺序的 string -> 中间值映射。
//
// 对已存在的 key 重复 Set 时覆盖其值，但保留该 key 首次插入时的位置。
// Map 不是并发安全的，由单次 normalize 调用独占构建。
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap 创建一个预留 capacity 个条目的 Map。
func NewMap(capacity int) *Map {
	return &Map{
		keys:   make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

// Pair 是 Map 中的一个键值对。
type Pair struct {
	Key   string
	Value any
}

// Of 按顺序使用给定键值对构造 Map。
func Of(pairs ...Pair) *Map {
	m := NewMap(len(pairs))
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

// Wrap 返回只包含 {key: value} 一个条目的 Map。
func Wrap(key string, value any) *Map {
	return Of(Pair{Key: key, Value: value})
}

// Set 写入 key 对应的值，后写覆盖先写。
func (m *Map) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get 返回 key 对应的值以及是否存在。
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Delete 删除 key，不存在时忽略。
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len 返回条目数，nil Map 的长度为 0。
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys 按插入顺序返回所有 key 的副本。
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Range 按插入顺序遍历条目，回调返回 false 时提前终止。
func (m *Map) Range(f func(key string, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !f(k, m.values[k]) {
			return
		}
	}
}

// Pairs 按插入顺序返回所有键值对。
func (m *Map) Pairs() []Pair {
	if m == nil {
		return nil
	}
	pairs := make([]Pair, 0, len(m.keys))
	for _, k := range m.keys {
		pairs = append(pairs, Pair{Key: k, Value: m.values[k]})
	}
	return pairs
}

// Equal 判断两个 Map 是否拥有相同的键序列与相同的值（递归比较）。
// go-cmp 会自动使用该方法比较 *Map。
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i, k := range m.keys {
		if other.keys[i] != k {
			return false
		}
		if !Equal(m.values[k], other.values[k]) {
			return false
		}
	}
	return true
}

// String 返回便于调试的文本形式，例如 {id: 1, tags: [a b]}。
func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	m.Range(func(key string, value any) bool {
		if sb.Len() > 1 {
			sb.WriteString(", ")
		}
		sb.WriteString(key)
		sb.WriteString(": ")
		writeDebug(&sb, value)
		return true
	})
	sb.WriteByte('}')
	return sb.String()
}

// Equal 递归比较两个中间值。*Map 按键序比较，[]any 按元素比较，其它值使用 reflect.DeepEqual。
func Equal(a, b any) bool {
	switch av := a.(type) {
	case *Map:
		bv, ok := b.(*Map)
		if !ok {
			return false
		}
		return av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}
