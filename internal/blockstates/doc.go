// Package blockstates turns the data generator's block report into the
// published block-state document and persists it per data version.
//
// The stored document maps each block id to its default state and to its
// properties, every property carrying an inferred type and its sorted values:
//
//	{
//	  "minecraft:lever": {
//	    "defaultState": {"id": "minecraft:lever", "properties": {"face": "wall", "facing": "north", "powered": "false"}},
//	    "properties": {
//	      "facing":  {"type": "direction", "values": ["east", "north", "south", "west"]},
//	      "powered": {"type": "boolean", "values": ["false", "true"]}
//	    }
//	  }
//	}
package blockstates
