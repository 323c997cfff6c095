package encoder

import (
	"bytes"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/lk2023060901/normalizer-go/pkg/ir"
	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
)

// YAMLEncoder 先构造保持插入顺序的 yaml.Node 树，再交给 yaml.v3 输出。
type YAMLEncoder struct {
	opts Options
}

var _ Encoder = (*YAMLEncoder)(nil)

func NewYAML(opts ...Option) *YAMLEncoder {
	return &YAMLEncoder{opts: buildOptions(opts)}
}

func (e *YAMLEncoder) Type() string {
	return TypeYAML
}

func (e *YAMLEncoder) Encode(value any) (out []byte, err error) {
	defer func() { record(TypeYAML, out, err) }()

	node, err := yamlNode(wrap(e.opts.Wrap, value))
	if err != nil {
		return nil, merr.WrapErrEncodingYAML(err.Error())
	}

	indent := e.opts.YAMLIndent
	if indent <= 0 {
		indent = 2
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(node); err != nil {
		return nil, merr.WrapErrEncodingYAML(err.Error())
	}
	if err := enc.Close(); err != nil {
		return nil, merr.WrapErrEncodingYAML(err.Error())
	}
	return buf.Bytes(), nil
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func yamlNode(v any) (*yaml.Node, error) {
	switch ir.KindOf(v) {
	case ir.KindNull:
		return scalarNode("!!null", "null"), nil

	case ir.KindBool:
		return scalarNode("!!bool", strconv.FormatBool(reflect.ValueOf(v).Bool())), nil

	case ir.KindNumber:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			f := rv.Float()
			switch {
			case math.IsNaN(f):
				return scalarNode("!!float", ".nan"), nil
			case math.IsInf(f, 1):
				return scalarNode("!!float", ".inf"), nil
			case math.IsInf(f, -1):
				return scalarNode("!!float", "-.inf"), nil
			}
			text := strconv.FormatFloat(f, 'g', -1, 64)
			if !strings.ContainsAny(text, ".e") {
				text += ".0"
			}
			return scalarNode("!!float", text), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return scalarNode("!!int", strconv.FormatUint(rv.Uint(), 10)), nil
		default:
			return scalarNode("!!int", strconv.FormatInt(rv.Int(), 10)), nil
		}

	case ir.KindString:
		return scalarNode("!!str", reflect.ValueOf(v).String()), nil

	case ir.KindList:
		list, _ := ir.ListOf(v)
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range list {
			child, err := yamlNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil

	case ir.KindMap:
		m, _ := ir.MapOf(v)
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		var err error
		m.Range(func(key string, value any) bool {
			var child *yaml.Node
			if child, err = yamlNode(value); err != nil {
				return false
			}
			node.Content = append(node.Content, scalarNode("!!str", key), child)
			return true
		})
		if err != nil {
			return nil, err
		}
		return node, nil

	default:
		return foreignNode(v)
	}
}

// foreignNode 使用 yaml.v3 的反射规则编码外部值，yaml.v3 对不支持的类型会 panic。
func foreignNode(v any) (node *yaml.Node, err error) {
	defer func() {
		if x := recover(); x != nil {
			node, err = nil, errors.Newf("%v", x)
		}
	}()
	node = &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, errors.Wrapf(err, "cannot encode %T", v)
	}
	return node, nil
}
