// Package normalizer 将任意对象图转换为与格式无关的中间表示（见 pkg/ir）。
//
// 转换完全由声明式指令驱动：
//   - 字段指令写在 struct tag 中（默认 tag 名为 normalize）；
//   - 类级指令写在匿名嵌入的 Class 标记字段上；
//   - 方法指令通过 Register[T]().Method(...) 显式注册。
//
// 指令按类型解析一次并缓存在 Registry 中，之后的每次 normalize 调用都复用缓存。
// 每次顶层调用使用独立的 traversal 上下文记录递归深度，因此同一个 Normalizer
// 可以被多个 goroutine 并发使用。
package normalizer
