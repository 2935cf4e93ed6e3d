package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseCLIFlagsPriority(t *testing.T) {
	t.Setenv("BLOCKDECK_CONFIG", "/tmp/env.toml")

	opts, err := parseCLIFlags([]string{})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/env.toml" {
		t.Fatalf("应优先使用环境变量，得到 %s", opts.configPath)
	}

	opts, err = parseCLIFlags([]string{"--config", "/tmp/flag.toml", "-ingest"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/flag.toml" {
		t.Fatalf("flag 应高于环境变量，得到 %s", opts.configPath)
	}
	if !opts.ingestOnly {
		t.Fatalf("-ingest 应被解析")
	}
}

func TestParseCLIFlagsRejectsUnknown(t *testing.T) {
	if _, err := parseCLIFlags([]string{"-bogus"}); err == nil {
		t.Fatalf("未知参数应返回错误")
	}
}

func TestRunCheckConfigSuccess(t *testing.T) {
	captureOutput(t)
	code := run(cliOptions{configPath: configFixture("valid.toml"), checkOnly: true})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d", code)
	}
}

func TestRunCheckConfigFailure(t *testing.T) {
	out := captureOutput(t)
	code := run(cliOptions{configPath: configFixture("missing.toml"), checkOnly: true})
	if code == 0 {
		t.Fatalf("无效配置应返回非零退出码")
	}
	if !strings.Contains(out.stderr.String(), "Version[].ID") {
		t.Fatalf("错误输出应包含字段路径, got %s", out.stderr.String())
	}
}

func TestRunVersionOutput(t *testing.T) {
	out := captureOutput(t)
	code := run(cliOptions{showVersion: true})
	if code != 0 {
		t.Fatalf("version 模式应成功退出，得到 %d", code)
	}
	if !strings.Contains(out.stdout.String(), "blockdeck") {
		t.Fatalf("version 输出应包含 blockdeck 标识")
	}
}

func TestRunIngestWithoutVersions(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfigFile(t, fmt.Sprintf(`
LogLevel = "error"
LibraryStoragePath = "%s"
BlockStateStoragePath = "%s"
CliDataStoragePath = "%s"
`, filepath.Join(dir, "libraries"), filepath.Join(dir, "block-states"), filepath.Join(dir, "we-cli-data")))

	out := captureOutput(t)
	if code := run(cliOptions{configPath: configPath, ingestOnly: true}); code != 0 {
		t.Fatalf("没有版本时导入应直接成功，得到 %d (stderr=%s)", code, out.stderr.String())
	}
}

func TestRunIngestReportsFailures(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	dir := t.TempDir()
	configPath := writeConfigFile(t, fmt.Sprintf(`
LogLevel = "error"
LibraryStoragePath = "%s"
BlockStateStoragePath = "%s"
CliDataStoragePath = "%s"

[[Version]]
ID = "1.20.1"
MetadataURL = "%s/1.20.1.json"
`, filepath.Join(dir, "libraries"), filepath.Join(dir, "block-states"), filepath.Join(dir, "we-cli-data"), upstream.URL))

	out := captureOutput(t)
	if code := run(cliOptions{configPath: configPath, ingestOnly: true}); code != 1 {
		t.Fatalf("导入失败应返回退出码 1，得到 %d", code)
	}
	if !strings.Contains(out.stderr.String(), "1.20.1") {
		t.Fatalf("错误输出应包含失败的版本号, got %s", out.stderr.String())
	}
}

func TestParseCLIFlagsImportCliDataNeedsDataVersion(t *testing.T) {
	if _, err := parseCLIFlags([]string{"-import-cli-data", "we.json"}); err == nil {
		t.Fatalf("缺少 -data-version 时应返回错误")
	}
	opts, err := parseCLIFlags([]string{"-import-cli-data", "we.json", "-data-version", "3465"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.cliDataFile != "we.json" || opts.dataVersion != 3465 || opts.cliDataVersion != 1 {
		t.Fatalf("CLI 数据参数解析不正确: %+v", opts)
	}
}

func TestRunImportCliData(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfigFile(t, fmt.Sprintf(`
LogLevel = "error"
LibraryStoragePath = "%s"
BlockStateStoragePath = "%s"
CliDataStoragePath = "%s"
`, filepath.Join(dir, "libraries"), filepath.Join(dir, "block-states"), filepath.Join(dir, "we-cli-data")))

	dataFile := filepath.Join(dir, "we.json")
	body := `{"blocks":{},"items":[],"entities":[],"biomes":["minecraft:plains"],"blocktags":{},"itemtags":{},"entitytags":{}}`
	if err := os.WriteFile(dataFile, []byte(body), 0o600); err != nil {
		t.Fatalf("写入数据失败: %v", err)
	}

	out := captureOutput(t)
	code := run(cliOptions{configPath: configPath, cliDataFile: dataFile, dataVersion: 3465, cliDataVersion: 2})
	if code != 0 {
		t.Fatalf("导入应成功，得到 %d (stderr=%s)", code, out.stderr.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "we-cli-data", "3465-2.json")); err != nil {
		t.Fatalf("应生成 3465-2.json: %v", err)
	}

	if err := os.WriteFile(dataFile, []byte(`{"blocks":{}}`), 0o600); err != nil {
		t.Fatalf("写入数据失败: %v", err)
	}
	if code := run(cliOptions{configPath: configPath, cliDataFile: dataFile, dataVersion: 3465}); code != 1 {
		t.Fatalf("不完整的文档应返回退出码 1，得到 %d", code)
	}
}
