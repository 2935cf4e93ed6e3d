package clidata

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/blockdeck/blockdeck/internal/cache"
)

func newTestService(t *testing.T) (*Service, cache.Store) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := cache.NewStore(t.TempDir(), cache.Options{Logger: logger})
	if err != nil {
		t.Fatalf("store init error: %v", err)
	}
	return NewService(store, logger), store
}

func sampleData() CliData {
	return CliData{
		Blocks: map[string]BlockManifest{
			"minecraft:lever": {
				DefaultState: "minecraft:lever[face=wall,facing=north,powered=false]",
				Properties: map[string]BlockProperty{
					"powered": {Values: []string{"false", "true"}, Type: "bool"},
				},
			},
		},
		Items:      []string{"minecraft:stick"},
		Entities:   []string{"minecraft:pig"},
		Biomes:     []string{"minecraft:plains"},
		BlockTags:  map[string][]string{"minecraft:logs": {"minecraft:oak_log"}},
		ItemTags:   map[string][]string{},
		EntityTags: map[string][]string{},
	}
}

func TestServicePutGet(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := svc.Put(ctx, 3465, DefaultCliDataVersion, sampleData()); err != nil {
		t.Fatalf("put error: %v", err)
	}
	got, err := svc.Get(ctx, 3465, DefaultCliDataVersion)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if diff := cmp.Diff(sampleData(), got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	res, err := store.Retrieve(ctx, "3465-1.json")
	if err != nil {
		t.Fatalf("expected document under 3465-1.json: %v", err)
	}
	res.Reader.Close()

	if _, err := svc.Get(ctx, 3465, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other cli data version should be absent, got %v", err)
	}
}

func TestServiceMissing(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Open(context.Background(), 1631, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServicePutRejectsIncompleteDocument(t *testing.T) {
	svc, _ := newTestService(t)
	d := sampleData()
	d.Biomes = nil
	if err := svc.Put(context.Background(), 1, 1, d); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := svc.Get(context.Background(), 1, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rejected document must not be stored, got %v", err)
	}
}

func TestServiceImport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	body := `{
		"blocks": {"minecraft:stone": {"defaultstate": "minecraft:stone", "properties": {}}},
		"items": [], "entities": [], "biomes": [],
		"blocktags": {}, "itemtags": {}, "entitytags": {}
	}`
	if err := svc.Import(ctx, 1631, 2, strings.NewReader(body)); err != nil {
		t.Fatalf("import error: %v", err)
	}
	got, err := svc.Get(ctx, 1631, 2)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.Blocks["minecraft:stone"].DefaultState != "minecraft:stone" {
		t.Fatalf("unexpected document: %+v", got)
	}
}

func TestDecodeValidation(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"malformed", `{"blocks":`},
		{"missing items", `{"blocks":{},"entities":[],"biomes":[],"blocktags":{},"itemtags":{},"entitytags":{}}`},
		{"null tags", `{"blocks":{},"items":[],"entities":[],"biomes":[],"blocktags":null,"itemtags":{},"entitytags":{}}`},
		{"block without default", `{"blocks":{"a":{"properties":{}}},"items":[],"entities":[],"biomes":[],"blocktags":{},"itemtags":{},"entitytags":{}}`},
		{"property without type", `{"blocks":{"a":{"defaultstate":"a","properties":{"p":{"values":["1"]}}}},"items":[],"entities":[],"biomes":[],"blocktags":{},"itemtags":{},"entitytags":{}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tc.body)); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
