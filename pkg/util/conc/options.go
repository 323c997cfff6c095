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

package conc

import (
	"time"

	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/normalizer-go/pkg/log"
)

type poolOption struct {
	// preAlloc 为 true 时创建协程池即分配全部 worker。
	preAlloc bool
	// idleTimeout 为空闲 worker 被回收前的存活时间，0 表示使用 ants 的默认值。
	idleTimeout time.Duration
	// concealPanic 为 true 时任务 panic 只记录日志并写入 Future 的错误。
	concealPanic bool
}

func (opt *poolOption) antsOptions() []ants.Option {
	result := []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		// ants 会 recover 任务中的 panic，但不会把错误交给调用方
		ants.WithPanicHandler(func(v any) {
			log.Error("conc pool task panicked", zap.Any("panic", v))
			if !opt.concealPanic {
				panic(v)
			}
		}),
	}
	if opt.idleTimeout > 0 {
		result = append(result, ants.WithExpiryDuration(opt.idleTimeout))
	}
	return result
}

// PoolOption 配置协程池。
type PoolOption func(opt *poolOption)

func defaultPoolOption() *poolOption {
	return &poolOption{}
}

func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.preAlloc = v
	}
}

// WithIdleTimeout 设置空闲 worker 的回收间隔。
func WithIdleTimeout(d time.Duration) PoolOption {
	return func(opt *poolOption) {
		opt.idleTimeout = d
	}
}

func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.concealPanic = v
	}
}
