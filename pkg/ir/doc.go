// Package ir 定义 normalize 的中间表示（intermediate representation）。
//
// 中间表示由以下值组成：
//   - nil
//   - bool、整数、浮点数、string
//   - []any：有序序列
//   - *Map：保持插入顺序的 string -> 中间值映射
//
// Normalizer 只产出上述值，各 Encoder 只消费上述值；
// 对于其它外部值（例如未声明类型、原样透传的结构体），编码器按自身规则处理。
package ir
