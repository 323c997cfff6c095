// Package encoder 将中间表示编码为字节序列。
//
// 编码器只接受 pkg/ir 描述的值：nil、bool、数值、字符串、序列与有序映射；
// 其它值（例如 time.Time）按各格式自身的规则处理。
package encoder

import (
	"sort"
	"strings"
	"sync"

	"github.com/lk2023060901/normalizer-go/pkg/ir"
	"github.com/lk2023060901/normalizer-go/pkg/metrics"
	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
)

const (
	TypeJSON  = "json"
	TypeXML   = "xml"
	TypeYAML  = "yaml"
	TypeProto = "proto"
)

// Encoder 将中间表示编码为某种输出格式。
// 设置了包装 key 时，编码前先将值改写为 {wrap: value}。
type Encoder interface {
	// Type 返回格式名，与 New 接受的名称一致。
	Type() string
	Encode(value any) ([]byte, error)
}

// Constructor 根据选项创建编码器。
type Constructor func(opts ...Option) Encoder

var (
	mu           sync.RWMutex
	constructors = map[string]Constructor{
		TypeJSON:  func(opts ...Option) Encoder { return NewJSON(opts...) },
		TypeXML:   func(opts ...Option) Encoder { return NewXML(opts...) },
		TypeYAML:  func(opts ...Option) Encoder { return NewYAML(opts...) },
		TypeProto: func(opts ...Option) Encoder { return NewProto(opts...) },
	}
)

// Register 注册（或替换）某个格式的编码器构造函数，格式名大小写不敏感。
func Register(format string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	constructors[strings.ToLower(format)] = c
}

// Lookup 返回指定格式的构造函数，未注册的格式返回 ErrUnknownEncoder。
func Lookup(format string) (Constructor, error) {
	mu.RLock()
	c, ok := constructors[strings.ToLower(format)]
	mu.RUnlock()
	if !ok {
		return nil, merr.WrapErrUnknownEncoder(format)
	}
	return c, nil
}

// New 返回指定格式的编码器，未注册的格式返回 ErrUnknownEncoder。
func New(format string, opts ...Option) (Encoder, error) {
	c, err := Lookup(format)
	if err != nil {
		return nil, err
	}
	return c(opts...), nil
}

// Formats 返回已注册的格式名，按字典序排列。
func Formats() []string {
	mu.RLock()
	defer mu.RUnlock()
	formats := make([]string, 0, len(constructors))
	for f := range constructors {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

func wrap(key string, value any) any {
	if key == "" {
		return value
	}
	return ir.Wrap(key, value)
}

func record(format string, out []byte, err error) {
	metrics.EncodeTotal.WithLabelValues(format, metrics.StatusLabel(err)).Inc()
	if err == nil {
		metrics.EncodedBytes.WithLabelValues(format).Observe(float64(len(out)))
	}
}
