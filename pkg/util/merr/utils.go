// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case normalizerError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	var merrs multiErrors
	if errors.As(err, &merrs) {
		for _, item := range merrs.errs {
			if IsRetryableErr(item) {
				return true
			}
		}
		return false
	}
	var nerr normalizerError
	if errors.As(err, &nerr) {
		return nerr.retriable
	}
	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

func WrapErrAsInputError(err error) error {
	if merr, ok := err.(normalizerError); ok {
		WithErrorType(InputError)(&merr)
		return merr
	}
	return err
}

func GetErrorType(err error) ErrorType {
	if merr, ok := err.(normalizerError); ok {
		return merr.errType
	}

	return SystemError
}

// Member access 相关错误封装。

// WrapErrNoAccessor 表示成员需要通过 getter 读取，但类型上不存在可用的 getter。
func WrapErrNoAccessor(class, member string, msg ...string) error {
	err := wrapFields(ErrNoAccessor,
		value("member", member),
		value("class", class),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// WrapErrProxyMaterialization 表示惰性占位对象无法被强制加载。
// cause 非空时保留原始错误，errors.Is 对两者均成立。
func WrapErrProxyMaterialization(class, member string, cause error) error {
	err := wrapFields(ErrProxyMaterialization,
		value("member", member),
		value("class", class),
	)
	if cause != nil {
		return Combine(err, cause)
	}
	return err
}

func WrapErrCallbackFailed(class, callback string, cause error) error {
	err := wrapFields(ErrCallbackFailed,
		value("callback", callback),
		value("class", class),
	)
	if cause != nil {
		return Combine(err, cause)
	}
	return err
}

// Directive 相关错误封装。
func WrapErrDirectiveInvalid(class, member string, reason string) error {
	return wrapFieldsWithDesc(ErrDirectiveInvalid, reason,
		value("member", member),
		value("class", class),
	)
}

func WrapErrClassInvalid(v any, msg ...string) error {
	err := wrapFields(ErrClassInvalid, value("type", fmt.Sprintf("%T", v)))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Encoding 相关错误封装。
// 错误信息格式固定为 "<前缀>: <底层引擎信息>"，底层信息原样保留，便于精确匹配。
func WrapErrEncodingJSON(detail string) error {
	return wrapFieldsWithDesc(ErrEncodingJSON, detail)
}

func WrapErrEncodingXML(detail string) error {
	return wrapFieldsWithDesc(ErrEncodingXML, detail)
}

func WrapErrEncodingYAML(detail string) error {
	return wrapFieldsWithDesc(ErrEncodingYAML, detail)
}

func WrapErrEncodingProto(detail string) error {
	return wrapFieldsWithDesc(ErrEncodingProto, detail)
}

func WrapErrUnknownEncoder(format string, msg ...string) error {
	err := wrapFields(ErrUnknownEncoder, value("format", format))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Parameter 相关错误封装。
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidRange[T any](lower, upper, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		bound("value", actual, lower, upper),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func wrapFields(err normalizerError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err normalizerError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
