package normalizer

import (
	"context"

	"github.com/lk2023060901/normalizer-go/pkg/util/conc"
)

func (n *Normalizer) workerPool() *conc.Pool[any] {
	n.poolOnce.Do(func() {
		opts := []conc.PoolOption{
			conc.WithConcealPanic(true),
			conc.WithPreAlloc(n.cfg.BatchPreAlloc),
		}
		if n.cfg.BatchIdleTimeout > 0 {
			opts = append(opts, conc.WithIdleTimeout(n.cfg.BatchIdleTimeout))
		}
		n.pool = conc.NewPool[any](n.cfg.BatchWorkers, opts...)
	})
	return n.pool
}

// NormalizeAll 并发 normalize 多个值，结果顺序与输入一致。
// 每个值使用独立的 traversal；任一元素失败时返回按输入顺序的第一个错误。
func (n *Normalizer) NormalizeAll(ctx context.Context, values []any, group string) ([]any, error) {
	pool := n.workerPool()
	futures := make([]*conc.Future[any], 0, len(values))
	for _, value := range values {
		futures = append(futures, pool.Submit(func() (any, error) {
			return n.Normalize(ctx, value, group)
		}))
	}
	if err := conc.AwaitAll(futures...); err != nil {
		return nil, err
	}

	results := make([]any, len(futures))
	for i, f := range futures {
		results[i] = f.Value()
	}
	return results, nil
}

// Close 释放 NormalizeAll 使用的协程池，之后再调用 NormalizeAll 会返回提交错误。
func (n *Normalizer) Close() {
	n.workerPool().Release()
}
