// Package ingest derives and stores block states for game versions.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/blockdeck/blockdeck/internal/blockstates"
	"github.com/blockdeck/blockdeck/internal/generator"
	"github.com/blockdeck/blockdeck/internal/library"
	"github.com/blockdeck/blockdeck/internal/logging"
	"github.com/blockdeck/blockdeck/internal/metadata"
)

// DefaultLoadingLimit bounds concurrent versions when none is configured.
const DefaultLoadingLimit = 4

// minGeneratorDataVersion is the 1.13 release; older jars ship no data generator.
const minGeneratorDataVersion = 1519

// Version names a game version and where its manifest lives.
type Version struct {
	ID          string
	MetadataURL string
}

// Outcome of a single ingest.
const (
	StatusStored        = "stored"
	StatusAlreadyStored = "already_stored"
	StatusNoGenerator   = "no_generator"
	StatusFailed        = "failed"
)

// Result reports what happened to one version.
type Result struct {
	VersionID   string
	DataVersion int
	Status      string
	Err         error
}

// Options wires an Ingester.
type Options struct {
	Metadata     *metadata.Client
	Libraries    *library.Storage
	Runner       *generator.Runner
	States       *blockstates.Service
	LoadingLimit int
	Logger       *logrus.Logger
}

// Ingester runs the fetch, derive and store pipeline.
type Ingester struct {
	metadata  *metadata.Client
	libraries *library.Storage
	runner    *generator.Runner
	states    *blockstates.Service
	limit     int
	logger    *logrus.Logger
}

// New validates opts and builds an Ingester.
func New(opts Options) (*Ingester, error) {
	switch {
	case opts.Metadata == nil:
		return nil, errors.New("metadata client is required")
	case opts.Libraries == nil:
		return nil, errors.New("library storage is required")
	case opts.Runner == nil:
		return nil, errors.New("generator runner is required")
	case opts.States == nil:
		return nil, errors.New("block state service is required")
	}
	limit := opts.LoadingLimit
	if limit <= 0 {
		limit = DefaultLoadingLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Ingester{
		metadata:  opts.Metadata,
		libraries: opts.Libraries,
		runner:    opts.Runner,
		states:    opts.States,
		limit:     limit,
		logger:    logger,
	}, nil
}

// Ingest stores block states for v unless they are already present.
func (i *Ingester) Ingest(ctx context.Context, v Version) (Result, error) {
	result := Result{VersionID: v.ID, DataVersion: metadata.UnknownDataVersion}
	fields := logging.VersionFields(v.ID, result.DataVersion)
	fields["action"] = "ingest"

	meta, err := i.metadata.Fetch(ctx, v.MetadataURL)
	if err != nil {
		return i.fail(result, err)
	}
	if meta.ID == "" {
		meta.ID = v.ID
	} else if meta.ID != v.ID {
		return i.fail(result, fmt.Errorf("manifest describes %s, expected %s", meta.ID, v.ID))
	}

	dataVersion, err := i.dataVersion(ctx, meta)
	if err != nil {
		return i.fail(result, err)
	}
	result.DataVersion = dataVersion
	fields["data_version"] = dataVersion

	if dataVersion < minGeneratorDataVersion {
		result.Status = StatusNoGenerator
		i.logger.WithFields(fields).Info("ingest_skipped_no_generator")
		return result, nil
	}
	stored, err := i.states.Has(ctx, dataVersion)
	if err != nil {
		return i.fail(result, err)
	}
	if stored {
		result.Status = StatusAlreadyStored
		i.logger.WithFields(fields).Info("ingest_skipped_already_stored")
		return result, nil
	}

	jars, err := meta.Classpath()
	if err != nil {
		return i.fail(result, err)
	}
	start := time.Now()
	var report blockstates.Report
	err = i.libraries.UseJars(ctx, jars, func(paths []string) error {
		var genErr error
		report, genErr = blockstates.Generate(ctx, i.runner, v.ID, paths)
		return genErr
	})
	if err != nil {
		return i.fail(result, err)
	}
	states, err := blockstates.Convert(report)
	if err != nil {
		return i.fail(result, err)
	}
	if err := i.states.Put(ctx, dataVersion, states); err != nil {
		return i.fail(result, err)
	}

	result.Status = StatusStored
	fields["blocks"] = len(states)
	fields["elapsed_ms"] = time.Since(start).Milliseconds()
	i.logger.WithFields(fields).Info("ingest_completed")
	return result, nil
}

func (i *Ingester) dataVersion(ctx context.Context, meta *metadata.Metadata) (int, error) {
	if v, ok := metadata.KnownDataVersion(meta.ID); ok {
		return v, nil
	}
	client, err := meta.ClientJar()
	if err != nil {
		return 0, err
	}
	var dataVersion int
	err = i.libraries.UseJar(ctx, client, func(path string) error {
		var dvErr error
		dataVersion, dvErr = metadata.DataVersion(path, meta.ID)
		return dvErr
	})
	return dataVersion, err
}

func (i *Ingester) fail(result Result, err error) (Result, error) {
	result.Status = StatusFailed
	result.Err = fmt.Errorf("ingest %s: %w", result.VersionID, err)
	return result, result.Err
}

// IngestAll ingests versions concurrently. A failing version is logged and
// reported in its Result without stopping the others; the returned error
// joins every failure.
func (i *Ingester) IngestAll(ctx context.Context, versions []Version) ([]Result, error) {
	results := make([]Result, len(versions))
	var g errgroup.Group
	g.SetLimit(i.limit)
	for idx, v := range versions {
		g.Go(func() error {
			res, err := i.Ingest(ctx, v)
			if err != nil {
				fields := logging.VersionFields(v.ID, res.DataVersion)
				fields["action"] = "ingest"
				i.logger.WithError(err).WithFields(fields).Warn("ingest_failed")
			}
			results[idx] = res
			return nil
		})
	}
	g.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return results, errors.Join(errs...)
}
