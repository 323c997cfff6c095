package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameClass     = "class"
	FieldNameMember    = "member"
	FieldNameGroup     = "group"
	FieldNameFormat    = "format"
	FieldNameDepth     = "depth"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldClass 返回一个包含被规范化类型名的 zap 字段。
func FieldClass(class string) zap.Field {
	return zap.String(FieldNameClass, class)
}

// FieldMember 返回一个包含成员（字段或方法）名的 zap 字段。
func FieldMember(member string) zap.Field {
	return zap.String(FieldNameMember, member)
}

// FieldGroup 返回一个包含请求分组的 zap 字段，空分组记为 "<default>"。
func FieldGroup(group string) zap.Field {
	if group == "" {
		group = "<default>"
	}
	return zap.String(FieldNameGroup, group)
}

// FieldFormat 返回一个包含输出格式的 zap 字段。
func FieldFormat(format string) zap.Field {
	return zap.String(FieldNameFormat, format)
}

// FieldDepth 返回一个包含当前递归深度的 zap 字段。
func FieldDepth(depth int) zap.Field {
	return zap.Int(FieldNameDepth, depth)
}
