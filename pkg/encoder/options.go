package encoder

import (
	"strings"

	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
)

// JSONFlag 是 JSON 编码选项的位掩码，多个选项按位或组合。
type JSONFlag uint32

const (
	// JSONEscapeHTML 将 <、>、& 转义为 \u003c 形式。
	JSONEscapeHTML JSONFlag = 1 << iota
	// JSONInvalidUTF8Substitute 将非法 UTF-8 替换为 U+FFFD，默认返回错误。
	JSONInvalidUTF8Substitute
	// JSONPrettyPrint 以四个空格缩进输出。
	JSONPrettyPrint
	// JSONCompatEngine 使用 json-iterator 的标准库兼容模式编码标量与外部值。
	JSONCompatEngine
)

var jsonFlagNames = map[string]JSONFlag{
	"escapeHTML":            JSONEscapeHTML,
	"invalidUTF8Substitute": JSONInvalidUTF8Substitute,
	"prettyPrint":           JSONPrettyPrint,
	"compatEngine":          JSONCompatEngine,
}

// Has 判断是否包含全部给定选项。
func (f JSONFlag) Has(flag JSONFlag) bool {
	return f&flag == flag
}

// ParseJSONFlags 将配置中的选项名转换为位掩码，名称大小写不敏感。
func ParseJSONFlags(names []string) (JSONFlag, error) {
	var flags JSONFlag
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		found := false
		for key, flag := range jsonFlagNames {
			if strings.EqualFold(key, name) {
				flags |= flag
				found = true
				break
			}
		}
		if !found {
			return 0, merr.WrapErrParameterInvalid("json flag name", name)
		}
	}
	return flags, nil
}

const defaultXMLRoot = "response"

// Options 是编码器的公共选项，各编码器只读取与自身相关的部分。
type Options struct {
	// Wrap 非空时，编码前将值包装为 {Wrap: value}；XML 中作为根元素名。
	Wrap      string
	JSONFlags JSONFlag
	// XMLRoot 为未设置 Wrap 时 XML 的根元素名。
	XMLRoot    string
	XMLPrefix  string
	XMLIndent  string
	YAMLIndent int
}

// Option 修改 Options。
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		XMLRoot:    defaultXMLRoot,
		YAMLIndent: 2,
	}
}

func buildOptions(opts []Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.XMLRoot == "" {
		o.XMLRoot = defaultXMLRoot
	}
	return o
}

// WithWrap 设置包装 key。
func WithWrap(key string) Option {
	return func(o *Options) {
		o.Wrap = key
	}
}

func WithJSONFlags(flags JSONFlag) Option {
	return func(o *Options) {
		o.JSONFlags = flags
	}
}

func WithXMLRoot(root string) Option {
	return func(o *Options) {
		o.XMLRoot = root
	}
}

// WithXMLIndent 设置 XML 的行前缀与缩进，均为空时输出紧凑格式。
func WithXMLIndent(prefix, indent string) Option {
	return func(o *Options) {
		o.XMLPrefix = prefix
		o.XMLIndent = indent
	}
}

func WithYAMLIndent(spaces int) Option {
	return func(o *Options) {
		if spaces > 0 {
			o.YAMLIndent = spaces
		}
	}
}

// WithOptions 整体覆盖选项，通常用于由配置生成的选项。
func WithOptions(options Options) Option {
	return func(o *Options) {
		*o = options
	}
}
