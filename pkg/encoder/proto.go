package encoder

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/normalizer-go/pkg/ir"
	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
)

// ProtoEncoder 将中间表示转换为 google.protobuf.Value 后输出二进制编码。
//
// 注意：protobuf 的 Struct 是无序 map，映射的插入顺序不会保留；数值统一为 double。
type ProtoEncoder struct {
	opts Options
}

var _ Encoder = (*ProtoEncoder)(nil)

func NewProto(opts ...Option) *ProtoEncoder {
	return &ProtoEncoder{opts: buildOptions(opts)}
}

func (e *ProtoEncoder) Type() string {
	return TypeProto
}

func (e *ProtoEncoder) Encode(value any) (out []byte, err error) {
	defer func() { record(TypeProto, out, err) }()

	// 未包装的 proto.Message 直接编码
	msg, ok := value.(proto.Message)
	if !ok || e.opts.Wrap != "" {
		if msg, err = protoValue(wrap(e.opts.Wrap, value)); err != nil {
			return nil, merr.WrapErrEncodingProto(err.Error())
		}
	}
	out, err = proto.MarshalOptions{Deterministic: true}.Marshal(msg)
	if err != nil {
		return nil, merr.WrapErrEncodingProto(err.Error())
	}
	return out, nil
}

// protoValue 将中间值转换为 structpb.Value。
func protoValue(v any) (*structpb.Value, error) {
	switch ir.KindOf(v) {
	case ir.KindNull:
		return structpb.NewNullValue(), nil

	case ir.KindBool:
		return structpb.NewBoolValue(reflect.ValueOf(v).Bool()), nil

	case ir.KindNumber:
		f, _ := ir.Float(v)
		return structpb.NewNumberValue(f), nil

	case ir.KindString:
		return structpb.NewStringValue(reflect.ValueOf(v).String()), nil

	case ir.KindList:
		list, _ := ir.ListOf(v)
		values := make([]*structpb.Value, 0, len(list))
		for _, item := range list {
			pv, err := protoValue(item)
			if err != nil {
				return nil, err
			}
			values = append(values, pv)
		}
		return structpb.NewListValue(&structpb.ListValue{Values: values}), nil

	case ir.KindMap:
		m, _ := ir.MapOf(v)
		fields := make(map[string]*structpb.Value, m.Len())
		var err error
		m.Range(func(key string, value any) bool {
			var pv *structpb.Value
			if pv, err = protoValue(value); err != nil {
				return false
			}
			fields[key] = pv
			return true
		})
		if err != nil {
			return nil, err
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil

	default:
		if msg, ok := v.(proto.Message); ok {
			return nil, errors.Newf("nested proto.Message %T is not supported", msg)
		}
		text, err := scalarText(v)
		if err != nil {
			return nil, err
		}
		return structpb.NewStringValue(text), nil
	}
}
