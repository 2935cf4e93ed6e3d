package clidata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DefaultCliDataVersion 是请求未指定 cliDataVersion 时使用的格式版本。
const DefaultCliDataVersion = 1

// CliData 是 WorldEdit CLI 使用的注册表快照。所有字段都必须出现，空集合允许。
type CliData struct {
	Blocks     map[string]BlockManifest `json:"blocks"`
	Items      []string                 `json:"items"`
	Entities   []string                 `json:"entities"`
	Biomes     []string                 `json:"biomes"`
	BlockTags  map[string][]string      `json:"blocktags"`
	ItemTags   map[string][]string      `json:"itemtags"`
	EntityTags map[string][]string      `json:"entitytags"`
}

type BlockManifest struct {
	DefaultState string                   `json:"defaultstate"`
	Properties   map[string]BlockProperty `json:"properties"`
}

type BlockProperty struct {
	Values []string `json:"values"`
	Type   string   `json:"type"`
}

// ErrInvalid 包装所有文档校验失败。
var ErrInvalid = errors.New("invalid cli data")

// Validate 检查必填字段，JSON 中缺失或为 null 的字段视为缺失。
func (d CliData) Validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s is required", ErrInvalid, field)
	}
	switch {
	case d.Blocks == nil:
		return missing("blocks")
	case d.Items == nil:
		return missing("items")
	case d.Entities == nil:
		return missing("entities")
	case d.Biomes == nil:
		return missing("biomes")
	case d.BlockTags == nil:
		return missing("blocktags")
	case d.ItemTags == nil:
		return missing("itemtags")
	case d.EntityTags == nil:
		return missing("entitytags")
	}
	for id, block := range d.Blocks {
		if block.DefaultState == "" {
			return missing("blocks[" + id + "].defaultstate")
		}
		if block.Properties == nil {
			return missing("blocks[" + id + "].properties")
		}
		for name, prop := range block.Properties {
			if prop.Values == nil {
				return missing("blocks[" + id + "].properties[" + name + "].values")
			}
			if prop.Type == "" {
				return missing("blocks[" + id + "].properties[" + name + "].type")
			}
		}
	}
	return nil
}

// Decode 读取并校验一份文档。
func Decode(r io.Reader) (CliData, error) {
	var d CliData
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return CliData{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := d.Validate(); err != nil {
		return CliData{}, err
	}
	return d, nil
}
