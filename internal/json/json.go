// Package json 统一项目内的 JSON 编解码实现，底层基于 bytedance/sonic。
package json

import (
	"sync"

	"github.com/bytedance/sonic"
)

var (
	json = sonic.ConfigStd

	Marshal             = json.Marshal
	Unmarshal           = json.Unmarshal
	MarshalIndent       = json.MarshalIndent
	MarshalToString     = json.MarshalToString
	UnmarshalFromString = json.UnmarshalFromString
	Valid               = json.Valid
	NewEncoder          = json.NewEncoder
	NewDecoder          = json.NewDecoder
)

type (
	API = sonic.API
)

type configKey struct {
	escapeHTML bool
}

var frozen sync.Map // configKey -> sonic.API

// Config 返回指定选项下冻结的 sonic API，相同选项复用同一实例。
// map 的 key 总是按升序输出，保证编码结果稳定；非法 UTF-8 被替换为 U+FFFD。
func Config(escapeHTML bool) API {
	key := configKey{escapeHTML: escapeHTML}
	if api, ok := frozen.Load(key); ok {
		return api.(API)
	}
	api := sonic.Config{
		EscapeHTML:     escapeHTML,
		SortMapKeys:    true,
		ValidateString: true,
	}.Froze()
	actual, _ := frozen.LoadOrStore(key, api)
	return actual.(API)
}
