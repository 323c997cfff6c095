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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	normalizeSubsystem = "normalize"
	encodeSubsystem    = "encode"
)

var (
	normalizerMetricsRegisterOnce sync.Once

	// NormalizeTotal 统计顶层 normalize 调用次数，按结果区分。
	NormalizeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: normalizerNamespace,
			Subsystem: normalizeSubsystem,
			Name:      "total",
			Help:      "顶层 normalize 调用次数",
		}, []string{statusLabelName})

	NormalizeLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: normalizerNamespace,
			Subsystem: normalizeSubsystem,
			Name:      "latency_ms",
			Help:      "顶层 normalize 调用耗时（毫秒）",
			Buckets:   buckets,
		})

	// DepthLimited 统计因达到最大递归深度而被截断为 null 的对象成员数。
	DepthLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: normalizerNamespace,
			Subsystem: normalizeSubsystem,
			Name:      "depth_limited_total",
			Help:      "因达到最大递归深度被截断的成员数",
		})

	DirectiveCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: normalizerNamespace,
			Subsystem: normalizeSubsystem,
			Name:      "directive_cache_total",
			Help:      "类型指令缓存命中情况",
		}, []string{resultLabelName})

	EncodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: normalizerNamespace,
			Subsystem: encodeSubsystem,
			Name:      "total",
			Help:      "编码调用次数，按格式与结果区分",
		}, []string{formatLabelName, statusLabelName})

	EncodedBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: normalizerNamespace,
			Subsystem: encodeSubsystem,
			Name:      "bytes",
			Help:      "编码结果大小（字节）",
			Buckets:   sizeBuckets,
		}, []string{formatLabelName})
)

// RegisterNormalizerMetrics 注册 normalize 与 encode 相关指标。
func RegisterNormalizerMetrics(registry prometheus.Registerer) {
	normalizerMetricsRegisterOnce.Do(func() {
		registry.MustRegister(NormalizeTotal)
		registry.MustRegister(NormalizeLatency)
		registry.MustRegister(DepthLimited)
		registry.MustRegister(DirectiveCache)
		registry.MustRegister(EncodeTotal)
		registry.MustRegister(EncodedBytes)
	})
}

// StatusLabel 将错误映射为 status 标签值。
func StatusLabel(err error) string {
	if err != nil {
		return FailLabel
	}
	return SuccessLabel
}
