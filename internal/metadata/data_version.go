package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zip"
)

// UnknownDataVersion is reported for old jars that carry no version.json.
const UnknownDataVersion = -1

// Data versions that cannot be read from their jars but are needed downstream.
var knownDataVersions = map[string]int{
	"1.13.2": 1631,
	"1.12.2": 1343,
}

type versionFile struct {
	WorldVersion int `json:"world_version"`
}

// KnownDataVersion reports a data version that is pinned rather than read from the jar.
func KnownDataVersion(versionID string) (int, bool) {
	v, ok := knownDataVersions[versionID]
	return v, ok
}

// DataVersion returns the world data version of the game jar at jarPath.
func DataVersion(jarPath, versionID string) (int, error) {
	if v, ok := KnownDataVersion(versionID); ok {
		return v, nil
	}

	zr, err := zip.OpenReader(jarPath)
	if err != nil {
		return 0, fmt.Errorf("open jar %s: %w", jarPath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "version.json" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return 0, fmt.Errorf("open version.json: %w", err)
		}
		defer rc.Close()

		var v versionFile
		if err := json.NewDecoder(rc).Decode(&v); err != nil {
			return 0, fmt.Errorf("decode version.json: %w", err)
		}
		return v.WorldVersion, nil
	}
	return UnknownDataVersion, nil
}
