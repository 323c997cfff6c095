package encoder

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/lk2023060901/normalizer-go/internal/json"
	"github.com/lk2023060901/normalizer-go/pkg/ir"
	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
)

const jsonIndent = "    "

var (
	errMalformedUTF8 = errors.New("Malformed UTF-8 characters, possibly incorrectly encoded")
	errInfOrNaN      = errors.New("Inf and NaN cannot be JSON encoded")
)

// jsonAPI 是标量与外部值使用的底层引擎，sonic 与 json-iterator 均满足该接口。
type jsonAPI interface {
	Marshal(v any) ([]byte, error)
}

// JSONEncoder 按插入顺序输出有序映射，标量与外部值交给底层引擎编码。
type JSONEncoder struct {
	opts Options
	api  jsonAPI
}

var _ Encoder = (*JSONEncoder)(nil)

func NewJSON(opts ...Option) *JSONEncoder {
	o := buildOptions(opts)
	return &JSONEncoder{
		opts: o,
		api:  jsonEngine(o.JSONFlags),
	}
}

func jsonEngine(flags JSONFlag) jsonAPI {
	escapeHTML := flags.Has(JSONEscapeHTML)
	if flags.Has(JSONCompatEngine) {
		return jsoniter.Config{
			EscapeHTML:             escapeHTML,
			SortMapKeys:            true,
			ValidateJsonRawMessage: true,
		}.Froze()
	}
	return json.Config(escapeHTML)
}

func (e *JSONEncoder) Type() string {
	return TypeJSON
}

// Encode 编码 value，失败时返回 ErrEncodingJSON，错误信息附带底层原因。
func (e *JSONEncoder) Encode(value any) (out []byte, err error) {
	defer func() { record(TypeJSON, out, err) }()

	w := &jsonWriter{
		api:    e.api,
		flags:  e.opts.JSONFlags,
		pretty: e.opts.JSONFlags.Has(JSONPrettyPrint),
	}
	if err := w.write(wrap(e.opts.Wrap, value)); err != nil {
		return nil, merr.WrapErrEncodingJSON(err.Error())
	}
	return w.buf.Bytes(), nil
}

type jsonWriter struct {
	buf    bytes.Buffer
	api    jsonAPI
	flags  JSONFlag
	pretty bool
	depth  int
}

func (w *jsonWriter) newline() {
	if !w.pretty {
		return
	}
	w.buf.WriteByte('\n')
	for i := 0; i < w.depth; i++ {
		w.buf.WriteString(jsonIndent)
	}
}

func (w *jsonWriter) write(v any) error {
	switch ir.KindOf(v) {
	case ir.KindNull:
		w.buf.WriteString("null")
		return nil

	case ir.KindBool:
		if reflect.ValueOf(v).Bool() {
			w.buf.WriteString("true")
		} else {
			w.buf.WriteString("false")
		}
		return nil

	case ir.KindNumber:
		if f, ok := ir.Float(v); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return errInfOrNaN
		}
		return w.marshal(v)

	case ir.KindString:
		return w.writeString(reflect.ValueOf(v).String())

	case ir.KindList:
		list, _ := ir.ListOf(v)
		return w.writeList(list)

	case ir.KindMap:
		m, _ := ir.MapOf(v)
		return w.writeMap(m)

	default:
		return w.marshal(v)
	}
}

func (w *jsonWriter) marshal(v any) error {
	b, err := w.api.Marshal(v)
	if err != nil {
		return err
	}
	w.buf.Write(b)
	return nil
}

func (w *jsonWriter) writeString(s string) error {
	if !utf8.ValidString(s) {
		if !w.flags.Has(JSONInvalidUTF8Substitute) {
			return errMalformedUTF8
		}
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return w.marshal(s)
}

func (w *jsonWriter) writeList(list []any) error {
	w.buf.WriteByte('[')
	if len(list) == 0 {
		w.buf.WriteByte(']')
		return nil
	}
	w.depth++
	for i, item := range list {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.newline()
		if err := w.write(item); err != nil {
			return err
		}
	}
	w.depth--
	w.newline()
	w.buf.WriteByte(']')
	return nil
}

func (w *jsonWriter) writeMap(m *ir.Map) error {
	w.buf.WriteByte('{')
	if m.Len() == 0 {
		w.buf.WriteByte('}')
		return nil
	}
	w.depth++
	i := 0
	var err error
	m.Range(func(key string, value any) bool {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		i++
		w.newline()
		if err = w.writeString(key); err != nil {
			return false
		}
		w.buf.WriteByte(':')
		if w.pretty {
			w.buf.WriteByte(' ')
		}
		err = w.write(value)
		return err == nil
	})
	if err != nil {
		return err
	}
	w.depth--
	w.newline()
	w.buf.WriteByte('}')
	return nil
}
