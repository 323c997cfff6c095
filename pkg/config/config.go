// Package config 定义进程级配置，并通过 viper 从 YAML/JSON 文件与 NORMALIZER_* 环境变量加载。
package config

import (
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/normalizer-go/pkg/encoder"
	"github.com/lk2023060901/normalizer-go/pkg/log"
	"github.com/lk2023060901/normalizer-go/pkg/normalizer"
	"github.com/lk2023060901/normalizer-go/pkg/util/viper"
)

// EnvPrefix 为环境变量覆盖使用的前缀。
const EnvPrefix = "NORMALIZER"

type Config struct {
	Log        log.Config        `mapstructure:"log" json:"log"`
	Normalizer normalizer.Config `mapstructure:"normalizer" json:"normalizer"`
	Encoder    EncoderConfig     `mapstructure:"encoder" json:"encoder"`
	Metrics    MetricsConfig     `mapstructure:"metrics" json:"metrics"`
	// Logging 为按组件名配置的独立 Logger，例如 logging.normalizer。
	Logging map[string]log.Config `mapstructure:"logging" json:"logging"`
}

// EncoderConfig 为各编码器共享的基础选项。
type EncoderConfig struct {
	// JSONFlags 为 JSON 选项名，取值见 encoder.ParseJSONFlags。
	JSONFlags  []string `mapstructure:"jsonFlags" json:"jsonFlags"`
	XMLRoot    string   `mapstructure:"xmlRoot" json:"xmlRoot"`
	XMLIndent  string   `mapstructure:"xmlIndent" json:"xmlIndent"`
	YAMLIndent int      `mapstructure:"yamlIndent" json:"yamlIndent"`
}

type MetricsConfig struct {
	// Enabled 为 true 时向默认 Registerer 注册指标。
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

// Default 返回默认配置。
func Default() *Config {
	cfg := &Config{
		Log: log.Config{
			Level:  "info",
			Format: "text",
			Stdout: true,
		},
		Normalizer: normalizer.DefaultConfig(),
		Encoder: EncoderConfig{
			XMLRoot:    "response",
			YAMLIndent: 2,
		},
	}
	// 0 表示在 normalizer.New 时按当时的 GOMAXPROCS 取值
	cfg.Normalizer.BatchWorkers = 0
	return cfg
}

// Options 将编码器配置转换为 encoder.Option，未知的 JSON 选项名返回 ErrParameterInvalid。
func (c EncoderConfig) Options() ([]encoder.Option, error) {
	flags, err := encoder.ParseJSONFlags(c.JSONFlags)
	if err != nil {
		return nil, err
	}
	opts := []encoder.Option{encoder.WithJSONFlags(flags)}
	if c.XMLRoot != "" {
		opts = append(opts, encoder.WithXMLRoot(c.XMLRoot))
	}
	if c.XMLIndent != "" {
		opts = append(opts, encoder.WithXMLIndent("", c.XMLIndent))
	}
	if c.YAMLIndent > 0 {
		opts = append(opts, encoder.WithYAMLIndent(c.YAMLIndent))
	}
	return opts, nil
}

// Load 从 path 加载配置；path 为空时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		if err := v.LoadFile(path); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %q", path)
		}
	}
	return unmarshal(v)
}

// Parse 从内存中的配置内容加载，configType 取值 yaml 或 json。
func Parse(configType string, data []byte) (*Config, error) {
	v := newViper()
	if err := v.LoadBytes(configType, data); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	return unmarshal(v)
}

func newViper() *viper.Config {
	v := viper.New()
	v.SetDefaults(defaults())
	v.BindEnv(EnvPrefix)
	return v
}

func unmarshal(v *viper.Config) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	return cfg, nil
}

// defaults 展开 Default() 为扁平 key，环境变量只覆盖已知 key。
func defaults() map[string]any {
	def := Default()
	return map[string]any{
		"log.level":                 def.Log.Level,
		"log.format":                def.Log.Format,
		"log.stdout":                def.Log.Stdout,
		"log.file.rootpath":         def.Log.File.RootPath,
		"log.file.filename":         def.Log.File.Filename,
		"log.disable-error-verbose": def.Log.DisableErrorVerbose,

		"normalizer.defaultMaxDepth":      def.Normalizer.DefaultMaxDepth,
		"normalizer.dateFormat":           def.Normalizer.DateFormat,
		"normalizer.tagName":              def.Normalizer.TagName,
		"normalizer.batchWorkers":         def.Normalizer.BatchWorkers,
		"normalizer.batchPreAlloc":        def.Normalizer.BatchPreAlloc,
		"normalizer.batchIdleTimeout":     def.Normalizer.BatchIdleTimeout.String(),
		"normalizer.materialize.attempts": def.Normalizer.Materialize.Attempts,
		"normalizer.materialize.sleep":    def.Normalizer.Materialize.Sleep.String(),
		"normalizer.materialize.maxSleep": def.Normalizer.Materialize.MaxSleep.String(),

		"encoder.jsonFlags":  []string{},
		"encoder.xmlRoot":    def.Encoder.XMLRoot,
		"encoder.xmlIndent":  def.Encoder.XMLIndent,
		"encoder.yamlIndent": def.Encoder.YAMLIndent,

		"metrics.enabled": def.Metrics.Enabled,
	}
}
