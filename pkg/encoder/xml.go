package encoder

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/lk2023060901/normalizer-go/pkg/ir"
	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
)

// XMLEncoder 将有序映射输出为嵌套元素：
// 根元素为包装 key（未设置时为 XMLRoot），序列元素输出为 item0、item1……，nil 输出为空元素。
type XMLEncoder struct {
	opts Options
}

var _ Encoder = (*XMLEncoder)(nil)

func NewXML(opts ...Option) *XMLEncoder {
	return &XMLEncoder{opts: buildOptions(opts)}
}

func (e *XMLEncoder) Type() string {
	return TypeXML
}

// Encode 编码 value。顶层值不是映射时返回 (nil, nil)。
// 输出在返回前会被重新解析检查，不合法时返回 ErrEncodingXML，错误信息为解析器的原始描述。
func (e *XMLEncoder) Encode(value any) (out []byte, err error) {
	defer func() { record(TypeXML, out, err) }()

	if ir.KindOf(value) != ir.KindMap {
		return nil, nil
	}
	root := e.opts.Wrap
	if root == "" {
		root = e.opts.XMLRoot
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent(e.opts.XMLPrefix, e.opts.XMLIndent)
	if err := writeElement(enc, root, value); err != nil {
		return nil, merr.WrapErrEncodingXML(err.Error())
	}
	if err := enc.Flush(); err != nil {
		return nil, merr.WrapErrEncodingXML(err.Error())
	}
	buf.WriteByte('\n')

	if err := checkXML(buf.Bytes()); err != nil {
		return nil, merr.WrapErrEncodingXML(err.Error())
	}
	return buf.Bytes(), nil
}

func writeElement(enc *xml.Encoder, name string, v any) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	switch ir.KindOf(v) {
	case ir.KindNull:
	case ir.KindMap:
		m, _ := ir.MapOf(v)
		var err error
		m.Range(func(key string, value any) bool {
			err = writeElement(enc, key, value)
			return err == nil
		})
		if err != nil {
			return err
		}
	case ir.KindList:
		list, _ := ir.ListOf(v)
		for i, item := range list {
			if err := writeElement(enc, "item"+strconv.Itoa(i), item); err != nil {
				return err
			}
		}
	default:
		text, err := scalarText(v)
		if err != nil {
			return err
		}
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
