package blockstates

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Report is the generator's reports/blocks.json, keyed by block id.
type Report map[string]ReportBlock

// ReportBlock lists the possible values of each property and every state.
type ReportBlock struct {
	Properties map[string][]string `json:"properties,omitempty"`
	States     []ReportState       `json:"states"`
}

// ReportState is one concrete state of a block.
type ReportState struct {
	ID         int               `json:"id"`
	Properties map[string]string `json:"properties,omitempty"`
	Default    bool              `json:"default,omitempty"`
}

// PropertyType is the inferred kind of a block property.
type PropertyType string

const (
	TypeInt       PropertyType = "int"
	TypeEnum      PropertyType = "enum"
	TypeDirection PropertyType = "direction"
	TypeBoolean   PropertyType = "boolean"
)

// BlockStates is the published document, keyed by block id.
type BlockStates map[string]BlockStateData

// BlockStateData describes one block.
type BlockStateData struct {
	DefaultState BlockState               `json:"defaultState"`
	Properties   map[string]BlockProperty `json:"properties"`
}

// BlockState is a block id with concrete property values.
type BlockState struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// BlockProperty is a property's type and its possible values.
type BlockProperty struct {
	Type   PropertyType `json:"type"`
	Values []string     `json:"values"`
}

var (
	booleanValues   = map[string]bool{"true": true, "false": true}
	directionValues = map[string]bool{"north": true, "east": true, "south": true, "west": true, "up": true, "down": true}
	intPattern      = regexp.MustCompile(`^[-+]?\d+$`)
)

// Convert builds the published document from a generator report. Every block
// must have exactly one state flagged default.
func Convert(report Report) (BlockStates, error) {
	out := make(BlockStates, len(report))
	for id, block := range report {
		def, ok := defaultState(block.States)
		if !ok {
			return nil, fmt.Errorf("default state is missing from %s", id)
		}
		props := make(map[string]string, len(def.Properties))
		for k, v := range def.Properties {
			props[k] = v
		}
		properties := make(map[string]BlockProperty, len(block.Properties))
		for name, values := range block.Properties {
			properties[name] = newProperty(values)
		}
		out[id] = BlockStateData{
			DefaultState: BlockState{ID: id, Properties: props},
			Properties:   properties,
		}
	}
	return out, nil
}

func defaultState(states []ReportState) (ReportState, bool) {
	for _, s := range states {
		if s.Default {
			return s, true
		}
	}
	return ReportState{}, false
}

func newProperty(values []string) BlockProperty {
	set := make(map[string]bool, len(values))
	uniq := make([]string, 0, len(values))
	for _, v := range values {
		if !set[v] {
			set[v] = true
			uniq = append(uniq, v)
		}
	}
	typ := inferType(uniq)
	if typ == TypeInt {
		sort.Slice(uniq, func(i, j int) bool {
			a, _ := strconv.ParseInt(uniq[i], 10, 64)
			b, _ := strconv.ParseInt(uniq[j], 10, 64)
			return a < b
		})
	} else {
		sort.Strings(uniq)
	}
	return BlockProperty{Type: typ, Values: uniq}
}

func inferType(values []string) PropertyType {
	if subsetOf(values, booleanValues) {
		return TypeBoolean
	}
	if subsetOf(values, directionValues) {
		return TypeDirection
	}
	for _, v := range values {
		if !intPattern.MatchString(v) {
			return TypeEnum
		}
	}
	return TypeInt
}

func subsetOf(values []string, set map[string]bool) bool {
	for _, v := range values {
		if !set[v] {
			return false
		}
	}
	return true
}
