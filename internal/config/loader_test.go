package config

import "testing"

func TestLoadFailsWithMissingFields(t *testing.T) {
	if _, err := Load(testConfigPath("missing.toml")); err == nil {
		t.Fatalf("缺失字段的配置应返回错误")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
LogLevel = "info"
UpstreamTimeout = "boom"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadAcceptsNumericDuration(t *testing.T) {
	cfg := `
UpstreamTimeout = 90
`
	path := writeTempConfig(t, cfg)
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if got := loaded.Global.UpstreamTimeout.DurationValue().Seconds(); got != 90 {
		t.Fatalf("UpstreamTimeout 应为 90s, got %vs", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(testConfigPath("does-not-exist.toml")); err == nil {
		t.Fatalf("不存在的配置文件应返回错误")
	}
}
