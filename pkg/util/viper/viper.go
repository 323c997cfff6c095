package viper

import (
	"bytes"
	"path/filepath"
	"strings"

	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
type Config struct {
	v *spfviper.Viper
}

// New 创建一个空的 Config。
// 在调用 Unmarshal/UnmarshalKey 之前通常需要先调用 LoadFile 或 LoadBytes 加载配置。
func New() *Config {
	return &Config{
		v: spfviper.New(),
	}
}

func (c *Config) viper() *spfviper.Viper {
	if c.v == nil {
		c.v = spfviper.New()
	}
	return c.v
}

// BindEnv 开启环境变量覆盖：key 中的 "." 映射为 "_" 并加上大写前缀，
// 例如 prefix 为 NORMALIZER 时 normalizer.defaultMaxDepth 对应 NORMALIZER_NORMALIZER_DEFAULTMAXDEPTH。
// 只有在默认值或配置文件中出现过的 key 才会参与 Unmarshal。
func (c *Config) BindEnv(prefix string) {
	v := c.viper()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// SetDefaults 按扁平化的 key 写入默认值。
func (c *Config) SetDefaults(defaults map[string]any) {
	v := c.viper()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中。
// 文件类型通过扩展名（.yaml/.yml/.json）推断。
func (c *Config) LoadFile(path string) error {
	v := c.viper()
	v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		v.SetConfigType("yaml")
	case ".json":
		v.SetConfigType("json")
	default:
		// 让 viper 自行推断类型，或在读取时返回清晰的错误信息。
	}

	return v.ReadInConfig()
}

// LoadBytes 从内存加载配置，configType 取值 yaml 或 json。
func (c *Config) LoadBytes(configType string, data []byte) error {
	v := c.viper()
	v.SetConfigType(configType)
	return v.ReadConfig(bytes.NewReader(data))
}

// IsSet 判断 key 是否出现在默认值、配置文件或环境变量中。
func (c *Config) IsSet(key string) bool {
	return c.viper().IsSet(key)
}

// GetString 返回 key 对应的字符串值。
func (c *Config) GetString(key string) string {
	return c.viper().GetString(key)
}

// Unmarshal 将完整配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst interface{}) error {
	if c.v == nil {
		return nil
	}
	return c.v.Unmarshal(dst)
}

// UnmarshalKey 将指定 key 对应的子配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) UnmarshalKey(key string, dst interface{}) error {
	if c.v == nil {
		return nil
	}
	return c.v.UnmarshalKey(key, dst)
}
