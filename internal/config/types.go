package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述进程级参数：日志、存储目录、下载与生成器并发。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`

	LibraryStoragePath    string `mapstructure:"LibraryStoragePath"`
	BlockStateStoragePath string `mapstructure:"BlockStateStoragePath"`
	CliDataStoragePath    string `mapstructure:"CliDataStoragePath"`
	ScratchPath           string `mapstructure:"ScratchPath"`
	LockStripes           int    `mapstructure:"LockStripes"`

	UpstreamTimeout     Duration `mapstructure:"UpstreamTimeout"`
	DownloadConcurrency int      `mapstructure:"DownloadConcurrency"`
	LoadingLimit        int      `mapstructure:"LoadingLimit"`

	GeneratorPermits    int    `mapstructure:"GeneratorPermits"`
	JavaExecutable      string `mapstructure:"JavaExecutable"`
	GeneratorMinHeap    string `mapstructure:"GeneratorMinHeap"`
	GeneratorMaxHeap    string `mapstructure:"GeneratorMaxHeap"`
	GeneratorEntryPoint string `mapstructure:"GeneratorEntryPoint"`
}

// VersionConfig 描述一个需要导入的游戏版本。
type VersionConfig struct {
	ID          string `mapstructure:"ID"`
	MetadataURL string `mapstructure:"MetadataURL"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global   GlobalConfig    `mapstructure:",squash"`
	Versions []VersionConfig `mapstructure:"Version"`
}

// VersionIDs 返回所有版本号，供启动日志使用。
func (c *Config) VersionIDs() []string {
	if len(c.Versions) == 0 {
		return nil
	}
	ids := make([]string, len(c.Versions))
	for i, v := range c.Versions {
		ids[i] = v.ID
	}
	return ids
}
