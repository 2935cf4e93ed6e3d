package routes

import (
	"sort"

	"github.com/gofiber/fiber/v3"

	"github.com/blockdeck/blockdeck/internal/version"
)

// RegisterDiagnosticRoutes 暴露 /-/healthz 与 /-/versions 诊断接口。
// versions 为配置中声明需要导入的版本号。
func RegisterDiagnosticRoutes(app *fiber.App, versions []string) {
	if app == nil {
		return
	}
	sorted := append([]string(nil), versions...)
	sort.Strings(sorted)

	app.Get("/-/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": version.Full(),
		})
	})

	app.Get("/-/versions", func(c fiber.Ctx) error {
		return c.JSON(versionsPayload{Versions: sorted})
	})
}

type versionsPayload struct {
	Versions []string `json:"versions"`
}
