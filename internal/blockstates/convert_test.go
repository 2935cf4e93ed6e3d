package blockstates

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const leverReport = `{
  "minecraft:lever": {
    "properties": {
      "face": ["floor", "wall", "ceiling"],
      "facing": ["north", "south", "west", "east"],
      "powered": ["true", "false"]
    },
    "states": [
      {"id": 5626, "properties": {"face": "floor", "facing": "north", "powered": "true"}},
      {"id": 5635, "default": true, "properties": {"face": "wall", "facing": "north", "powered": "false"}}
    ]
  },
  "minecraft:stone": {
    "states": [{"id": 1, "default": true}]
  },
  "minecraft:redstone_wire": {
    "properties": {"power": ["0", "1", "2", "10", "15", "3"]},
    "states": [{"id": 2, "default": true, "properties": {"power": "0"}}]
  }
}`

func TestConvertInfersTypesAndDefaults(t *testing.T) {
	var report Report
	if err := json.Unmarshal([]byte(leverReport), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	got, err := Convert(report)
	if err != nil {
		t.Fatalf("convert error: %v", err)
	}

	want := BlockStates{
		"minecraft:lever": {
			DefaultState: BlockState{
				ID:         "minecraft:lever",
				Properties: map[string]string{"face": "wall", "facing": "north", "powered": "false"},
			},
			Properties: map[string]BlockProperty{
				"face":    {Type: TypeEnum, Values: []string{"ceiling", "floor", "wall"}},
				"facing":  {Type: TypeDirection, Values: []string{"east", "north", "south", "west"}},
				"powered": {Type: TypeBoolean, Values: []string{"false", "true"}},
			},
		},
		"minecraft:stone": {
			DefaultState: BlockState{ID: "minecraft:stone", Properties: map[string]string{}},
			Properties:   map[string]BlockProperty{},
		},
		"minecraft:redstone_wire": {
			DefaultState: BlockState{ID: "minecraft:redstone_wire", Properties: map[string]string{"power": "0"}},
			Properties: map[string]BlockProperty{
				"power": {Type: TypeInt, Values: []string{"0", "1", "2", "3", "10", "15"}},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("block states mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertRequiresDefaultState(t *testing.T) {
	report := Report{
		"minecraft:odd": {States: []ReportState{{ID: 1}, {ID: 2}}},
	}
	_, err := Convert(report)
	if err == nil || !strings.Contains(err.Error(), "minecraft:odd") {
		t.Fatalf("expected error naming the block, got %v", err)
	}
}

func TestInferType(t *testing.T) {
	cases := []struct {
		values []string
		want   PropertyType
	}{
		{[]string{"true"}, TypeBoolean},
		{[]string{"up", "down"}, TypeDirection},
		{[]string{"north", "up", "x"}, TypeEnum},
		{[]string{"-1", "+2", "30"}, TypeInt},
		{[]string{"1", "1.5"}, TypeEnum},
		{[]string{"x", "y", "z"}, TypeEnum},
	}
	for _, tc := range cases {
		if got := inferType(tc.values); got != tc.want {
			t.Fatalf("inferType(%v) = %s, want %s", tc.values, got, tc.want)
		}
	}
}

func TestNewPropertyDeduplicates(t *testing.T) {
	got := newProperty([]string{"b", "a", "b"})
	want := BlockProperty{Type: TypeEnum, Values: []string{"a", "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("property mismatch (-want +got):\n%s", diff)
	}
}
