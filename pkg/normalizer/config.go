package normalizer

import (
	"runtime"
	"time"
)

const (
	defaultMaxDepth            = 16
	defaultMaterializeAttempts = 3
	defaultMaterializeSleep    = 10 * time.Millisecond
	defaultMaterializeMaxSleep = 200 * time.Millisecond
	defaultDateFormat          = time.RFC3339
)

// Config 是 Normalizer 的配置。
type Config struct {
	// DefaultMaxDepth 为成员与类级指令均未指定 maxDepth 时的最大递归深度，0 表示使用默认值 16。
	DefaultMaxDepth int `mapstructure:"defaultMaxDepth" json:"defaultMaxDepth"`
	// DateFormat 为 datetime 指令未指定 format 时使用的 Go 时间布局。
	DateFormat string `mapstructure:"dateFormat" json:"dateFormat"`
	// TagName 为读取字段指令的 struct tag 名。
	TagName string `mapstructure:"tagName" json:"tagName"`
	// BatchWorkers 为 NormalizeAll 使用的协程池容量，0 表示 GOMAXPROCS。
	BatchWorkers int `mapstructure:"batchWorkers" json:"batchWorkers"`
	// BatchPreAlloc 为 true 时协程池创建即分配全部 worker。
	BatchPreAlloc bool `mapstructure:"batchPreAlloc" json:"batchPreAlloc"`
	// BatchIdleTimeout 为空闲 worker 的回收间隔，0 表示使用协程池默认值。
	BatchIdleTimeout time.Duration     `mapstructure:"batchIdleTimeout" json:"batchIdleTimeout"`
	Materialize      MaterializeConfig `mapstructure:"materialize" json:"materialize"`
}

// MaterializeConfig 控制占位对象加载失败时的重试。
type MaterializeConfig struct {
	Attempts uint          `mapstructure:"attempts" json:"attempts"`
	Sleep    time.Duration `mapstructure:"sleep" json:"sleep"`
	MaxSleep time.Duration `mapstructure:"maxSleep" json:"maxSleep"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		DefaultMaxDepth: defaultMaxDepth,
		DateFormat:      defaultDateFormat,
		TagName:         DefaultTagName,
		BatchWorkers:    runtime.GOMAXPROCS(0),
		Materialize: MaterializeConfig{
			Attempts: defaultMaterializeAttempts,
			Sleep:    defaultMaterializeSleep,
			MaxSleep: defaultMaterializeMaxSleep,
		},
	}
}

// withDefaults 用默认值补齐零值字段。
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DefaultMaxDepth <= 0 {
		c.DefaultMaxDepth = def.DefaultMaxDepth
	}
	if c.DateFormat == "" {
		c.DateFormat = def.DateFormat
	}
	if c.TagName == "" {
		c.TagName = def.TagName
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = def.BatchWorkers
	}
	if c.Materialize.Attempts == 0 {
		c.Materialize.Attempts = def.Materialize.Attempts
	}
	if c.Materialize.Sleep <= 0 {
		c.Materialize.Sleep = def.Materialize.Sleep
	}
	if c.Materialize.MaxSleep <= 0 {
		c.Materialize.MaxSleep = def.Materialize.MaxSleep
	}
	return c
}
