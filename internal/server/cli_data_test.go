package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/blockdeck/blockdeck/internal/blockstates"
	"github.com/blockdeck/blockdeck/internal/cache"
	"github.com/blockdeck/blockdeck/internal/clidata"
)

func newCliDataApp(t *testing.T) (*fiber.App, *clidata.Service) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	stateStore, err := cache.NewStore(t.TempDir(), cache.Options{Logger: logger})
	if err != nil {
		t.Fatalf("store init error: %v", err)
	}
	cliStore, err := cache.NewStore(t.TempDir(), cache.Options{Logger: logger})
	if err != nil {
		t.Fatalf("store init error: %v", err)
	}
	svc := clidata.NewService(cliStore, logger)
	app, err := NewApp(AppOptions{
		Logger:     logger,
		States:     blockstates.NewService(stateStore, logger),
		CliData:    svc,
		ListenPort: 5000,
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	return app, svc
}

func cliDocument(biome string) clidata.CliData {
	return clidata.CliData{
		Blocks:     map[string]clidata.BlockManifest{},
		Items:      []string{},
		Entities:   []string{},
		Biomes:     []string{biome},
		BlockTags:  map[string][]string{},
		ItemTags:   map[string][]string{},
		EntityTags: map[string][]string{},
	}
}

func TestCliDataDefaultsToVersionOne(t *testing.T) {
	app, svc := newCliDataApp(t)
	ctx := context.Background()
	if err := svc.Put(ctx, 3465, 1, cliDocument("minecraft:plains")); err != nil {
		t.Fatalf("put error: %v", err)
	}
	if err := svc.Put(ctx, 3465, 2, cliDocument("minecraft:desert")); err != nil {
		t.Fatalf("put error: %v", err)
	}

	testCases := []struct {
		path  string
		biome string
	}{
		{"/we-cli-data/3465", "minecraft:plains"},
		{"/we-cli-data/3465?cliDataVersion=1", "minecraft:plains"},
		{"/we-cli-data/3465?cliDataVersion=2", "minecraft:desert"},
	}
	for _, tc := range testCases {
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
		if err != nil {
			t.Fatalf("app.Test failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.path, resp.StatusCode)
		}
		var got clidata.CliData
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(got.Biomes) != 1 || got.Biomes[0] != tc.biome {
			t.Fatalf("%s: unexpected document %+v", tc.path, got)
		}
	}
}

func TestCliDataErrors(t *testing.T) {
	app, _ := newCliDataApp(t)

	testCases := []struct {
		path   string
		status int
		code   string
	}{
		{"/we-cli-data/1631", fiber.StatusNotFound, "not_found"},
		{"/we-cli-data/latest", fiber.StatusBadRequest, "invalid_data_version"},
		{"/we-cli-data/1631?cliDataVersion=x", fiber.StatusBadRequest, "invalid_cli_data_version"},
	}
	for _, tc := range testCases {
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
		if err != nil {
			t.Fatalf("app.Test failed: %v", err)
		}
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.status, resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if !bytes.Contains(body, []byte(`"`+tc.code+`"`)) {
			t.Fatalf("%s: expected %s, got %s", tc.path, tc.code, body)
		}
	}
}

func TestCliDataRouteOptional(t *testing.T) {
	app, _ := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/we-cli-data/1", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 without a cli data source, got %d", resp.StatusCode)
	}
}
