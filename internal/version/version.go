package version

import "fmt"

// Version/Commit 可在构建时通过 -ldflags 注入，默认使用开发占位符。
var (
	Version = "0.1.0"
	Commit  = "dev"
)

// Product 是对外标识本服务的名称，用于 CLI 输出与 User-Agent。
const Product = "blockdeck"

// Full 返回便于 CLI 打印的完整版本信息。
func Full() string {
	return fmt.Sprintf("%s %s (%s)", Product, Version, Commit)
}

// UserAgent 返回所有上游请求携带的固定 User-Agent。
func UserAgent() string {
	return Product + "/" + Version
}
