package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	for i := range cfg.Versions {
		cfg.Versions[i].ID = strings.TrimSpace(cfg.Versions[i].ID)
		cfg.Versions[i].MetadataURL = strings.TrimSpace(cfg.Versions[i].MetadataURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, p := range []*string{
		&cfg.Global.LibraryStoragePath,
		&cfg.Global.BlockStateStoragePath,
		&cfg.Global.CliDataStoragePath,
		&cfg.Global.ScratchPath,
	} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("无法解析目录 %s: %w", *p, err)
		}
		*p = abs
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("LibraryStoragePath", "./storage/libraries")
	v.SetDefault("BlockStateStoragePath", "./storage/block-states")
	v.SetDefault("CliDataStoragePath", "./storage/we-cli-data")
	v.SetDefault("ScratchPath", "")
	v.SetDefault("LockStripes", 32)
	v.SetDefault("UpstreamTimeout", "5m")
	v.SetDefault("DownloadConcurrency", 4)
	v.SetDefault("LoadingLimit", 4)
	v.SetDefault("GeneratorPermits", 8)
	v.SetDefault("JavaExecutable", "java")
	v.SetDefault("GeneratorMinHeap", "64M")
	v.SetDefault("GeneratorMaxHeap", "512M")
	v.SetDefault("GeneratorEntryPoint", "net.minecraft.data.Main")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	if g.UpstreamTimeout.DurationValue() == 0 {
		g.UpstreamTimeout = Duration(5 * time.Minute)
	}
	g.JavaExecutable = strings.TrimSpace(g.JavaExecutable)
	g.GeneratorEntryPoint = strings.TrimSpace(g.GeneratorEntryPoint)
	g.GeneratorMinHeap = strings.ToUpper(strings.TrimSpace(g.GeneratorMinHeap))
	g.GeneratorMaxHeap = strings.ToUpper(strings.TrimSpace(g.GeneratorMaxHeap))
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
