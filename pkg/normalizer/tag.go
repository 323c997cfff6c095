package normalizer

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ParseTag 解析一个 tag 值，返回按声明顺序排列的指令。
//
// 多条指令之间以 ';' 分隔；每条指令内部以 ',' 或空格分隔，
// 元素为 key=value 或单独的标记。单引号或双引号内的分隔符按字面处理：
//
//	name=id;name=identifier,group=legacy
//	type=datetime,format='2006-01-02 15:04:05'
func ParseTag(tag string) ([]map[string]string, error) {
	var result []map[string]string
	for _, raw := range splitQuoted(tag, ";") {
		parsed, err := parseDirective(raw)
		if err != nil {
			return nil, err
		}
		if len(parsed) > 0 {
			result = append(result, parsed)
		}
	}
	return result, nil
}

func parseDirective(raw string) (map[string]string, error) {
	result := make(map[string]string)
	for _, part := range splitQuoted(raw, ", ") {
		if idx := strings.Index(part, "="); idx >= 0 {
			key := strings.TrimSpace(part[:idx])
			value := strings.TrimSpace(part[idx+1:])
			if key == "" {
				return nil, errors.Newf("invalid tag: empty key in %q", part)
			}
			result[key] = unquoteValue(value)
		} else {
			result[part] = ""
		}
	}
	return result, nil
}

// splitQuoted 以 seps 中任意字符切分 s，引号内的字符不参与切分，空片段被丢弃。
func splitQuoted(s string, seps string) []string {
	var parts []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false

	flush := func() {
		part := strings.TrimSpace(current.String())
		if part != "" {
			parts = append(parts, part)
		}
		current.Reset()
	}

	for i := 0; i < len(s); i++ {
		char := s[i]
		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			current.WriteByte(char)
		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			current.WriteByte(char)
		case strings.IndexByte(seps, char) >= 0 && !inSingleQuote && !inDoubleQuote:
			flush()
		default:
			current.WriteByte(char)
		}
	}
	flush()
	return parts
}

// unquoteValue 去掉成对的单引号或双引号。
func unquoteValue(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

func splitGroups(value string) []string {
	var groups []string
	for _, g := range strings.Split(value, "|") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

func parseDepth(value string) (*int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid maxDepth %q", value)
	}
	return Depth(n), nil
}

// memberDirectivesFromTag 将字段 tag 转换为成员指令，调用方需确认字段带有该 tag。
// 返回 ignored=true 表示字段显式标记为 "-"。
func memberDirectivesFromTag(tag string) (directives []MemberDirective, ignored bool, err error) {
	parsed, err := ParseTag(tag)
	if err != nil {
		return nil, false, err
	}
	if len(parsed) == 0 {
		// 空 tag 声明一条使用默认值的指令
		return []MemberDirective{{}}, false, nil
	}
	for _, kv := range parsed {
		if _, ok := kv["-"]; ok {
			return nil, true, nil
		}
		var d MemberDirective
		for key, value := range kv {
			switch key {
			case "name":
				d.Name = value
			case "type":
				if d.Type, err = ParseType(value); err != nil {
					return nil, false, err
				}
			case "group", "groups":
				d.Groups = splitGroups(value)
			case "maxDepth":
				if d.MaxDepth, err = parseDepth(value); err != nil {
					return nil, false, err
				}
			case "format":
				d.Format = value
			case "callback":
				d.Callback = value
			case "skipEmpty":
				d.SkipEmpty = value == "" || value == "true"
			case "inherit":
				d.inherit = true
			default:
				return nil, false, errors.Newf("unknown key %q", key)
			}
		}
		directives = append(directives, d)
	}
	return directives, false, nil
}

func classDirectiveFromTag(tag string) (ClassDirective, error) {
	var d ClassDirective
	parsed, err := ParseTag(tag)
	if err != nil {
		return d, err
	}
	for _, kv := range parsed {
		for key, value := range kv {
			switch key {
			case "group", "groups":
				d.Groups = append(d.Groups, splitGroups(value)...)
			case "skipEmpty":
				d.SkipEmpty = value == "" || value == "true"
			case "maxDepth":
				if d.MaxDepth, err = parseDepth(value); err != nil {
					return d, err
				}
			default:
				return d, errors.Newf("unknown key %q", key)
			}
		}
	}
	return d, nil
}

func serializeDirectiveFromTag(tag string) (SerializeDirective, error) {
	var d SerializeDirective
	parsed, err := ParseTag(tag)
	if err != nil {
		return d, err
	}
	for _, kv := range parsed {
		for key, value := range kv {
			switch key {
			case "wrap":
				d.Wrap = value
			case "group":
				d.Group = value
			default:
				return d, errors.Newf("unknown key %q", key)
			}
		}
	}
	return d, nil
}
