package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
)

// 与 JVM -Xms/-Xmx 接受的写法一致，例如 64M、2G、1048576。
var heapSizePattern = regexp.MustCompile(`^\d+[KMG]?$`)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.LibraryStoragePath == "" {
		return newFieldError("Global.LibraryStoragePath", "不能为空")
	}
	if g.BlockStateStoragePath == "" {
		return newFieldError("Global.BlockStateStoragePath", "不能为空")
	}
	if filepath.Clean(g.LibraryStoragePath) == filepath.Clean(g.BlockStateStoragePath) {
		return newFieldError("Global.BlockStateStoragePath", "不能与 LibraryStoragePath 相同")
	}
	if g.CliDataStoragePath == "" {
		return newFieldError("Global.CliDataStoragePath", "不能为空")
	}
	switch filepath.Clean(g.CliDataStoragePath) {
	case filepath.Clean(g.LibraryStoragePath), filepath.Clean(g.BlockStateStoragePath):
		return newFieldError("Global.CliDataStoragePath", "不能与其它存储目录相同")
	}
	if g.LockStripes <= 0 {
		return newFieldError("Global.LockStripes", "必须大于 0")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	if g.DownloadConcurrency <= 0 {
		return newFieldError("Global.DownloadConcurrency", "必须大于 0")
	}
	if g.LoadingLimit <= 0 {
		return newFieldError("Global.LoadingLimit", "必须大于 0")
	}
	if g.GeneratorPermits <= 0 {
		return newFieldError("Global.GeneratorPermits", "必须大于 0")
	}
	if g.JavaExecutable == "" {
		return newFieldError("Global.JavaExecutable", "不能为空")
	}
	if g.GeneratorEntryPoint == "" {
		return newFieldError("Global.GeneratorEntryPoint", "不能为空")
	}
	if !heapSizePattern.MatchString(g.GeneratorMinHeap) {
		return newFieldError("Global.GeneratorMinHeap", "格式应为数字加可选 K/M/G 单位")
	}
	if !heapSizePattern.MatchString(g.GeneratorMaxHeap) {
		return newFieldError("Global.GeneratorMaxHeap", "格式应为数字加可选 K/M/G 单位")
	}

	seen := map[string]struct{}{}
	for _, v := range c.Versions {
		if v.ID == "" {
			return newFieldError("Version[].ID", "不能为空")
		}
		if _, exists := seen[v.ID]; exists {
			return newFieldError(versionField(v.ID, "ID"), "重复")
		}
		seen[v.ID] = struct{}{}

		if err := validateUpstream(v.MetadataURL); err != nil {
			return fmt.Errorf("%s: %w", versionField(v.ID, "MetadataURL"), err)
		}
	}

	return nil
}

func validateUpstream(raw string) error {
	if raw == "" {
		return errors.New("缺少上游地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，上游: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("上游缺少 Host: %s", raw)
	}
	return nil
}
