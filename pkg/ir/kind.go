package ir

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Kind 是中间值的分类。
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
	// KindOther 表示不属于中间表示的外部值，例如结构体或 time.Time。
	KindOther
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindList:   "list",
	KindMap:    "map",
	KindOther:  "other",
}

func (k Kind) String() string {
	return kindNames[k]
}

// KindOf 对任意值分类。
// nil 指针、nil 接口与 nil map 视为 null；[]byte 视为外部值，由编码器自行处理。
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case *Map:
		if v.(*Map) == nil {
			return KindNull
		}
		return KindMap
	case []any:
		return KindList
	case bool:
		return KindBool
	case string:
		return KindString
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr, float32, float64:
		return KindNumber
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return KindNull
		}
		return KindOther
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.String:
		return KindString
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindOther
		}
		if rv.IsNil() {
			return KindNull
		}
		return KindList
	case reflect.Array:
		return KindList
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return KindOther
		}
		if rv.IsNil() {
			return KindNull
		}
		return KindMap
	default:
		return KindOther
	}
}

// ListOf 将切片或数组转换为 []any，其它值返回 nil, false。
func ListOf(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, false
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, true
}

// MapOf 将 *Map 或以 string 为 key 的 Go map 转换为 *Map。
// Go map 没有顺序，转换时按 key 升序排列，以保证输出稳定。
func MapOf(v any) (*Map, bool) {
	if m, ok := v.(*Map); ok {
		return m, m != nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	m := NewMap(len(keys))
	for _, k := range keys {
		m.Set(k.String(), rv.MapIndex(k).Interface())
	}
	return m, true
}

// Float 将数值类中间值转换为 float64，第二个返回值表示是否为数值。
func Float(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func writeDebug(sb *strings.Builder, v any) {
	switch KindOf(v) {
	case KindNull:
		sb.WriteString("null")
	case KindMap:
		m, _ := MapOf(v)
		sb.WriteString(m.String())
	case KindList:
		list, _ := ListOf(v)
		sb.WriteByte('[')
		for i, item := range list {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writeDebug(sb, item)
		}
		sb.WriteByte(']')
	default:
		fmt.Fprintf(sb, "%v", v)
	}
}
