package config

import (
	"os"
	"path/filepath"
	"testing"
)

func testConfigPath(name string) string {
	return filepath.Join("testdata", name)
}

// writeTempConfig 把内联 TOML 落到临时目录，返回其路径。
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blockdeck.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}
