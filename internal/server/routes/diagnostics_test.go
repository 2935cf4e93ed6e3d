package routes

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/go-cmp/cmp"
)

func TestHealthz(t *testing.T) {
	app := fiber.New()
	RegisterDiagnosticRoutes(app, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/-/healthz", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["status"] != "ok" || payload["version"] == "" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestVersionsAreSorted(t *testing.T) {
	app := fiber.New()
	configured := []string{"1.20.1", "1.13.2", "1.19.4"}
	RegisterDiagnosticRoutes(app, configured)

	resp, err := app.Test(httptest.NewRequest("GET", "/-/versions", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	var payload versionsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if diff := cmp.Diff([]string{"1.13.2", "1.19.4", "1.20.1"}, payload.Versions); diff != "" {
		t.Fatalf("versions mismatch (-want +got):\n%s", diff)
	}
	if configured[0] != "1.20.1" {
		t.Fatalf("caller slice must not be reordered")
	}
}
