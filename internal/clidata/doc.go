// Package clidata stores the WorldEdit CLI data documents: block manifests
// plus item, entity and biome registries and their tags, one document per
// (data version, CLI data version) pair under the key
// "<dataVersion>-<cliDataVersion>.json".
package clidata
