// Package library keeps verified game and library jars on disk and hands
// out their paths while they are read-locked.
package library

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/blockdeck/blockdeck/internal/cache"
	"github.com/blockdeck/blockdeck/internal/download"
	"github.com/blockdeck/blockdeck/internal/metadata"
)

// DefaultConcurrency bounds parallel downloads when none is configured.
const DefaultConcurrency = 4

// Storage combines a cache.Store with the Downloader that fills it.
type Storage struct {
	store       cache.Store
	downloader  *download.Downloader
	concurrency int
	logger      *logrus.Logger
}

// NewStorage wires store and downloader. concurrency <= 0 selects DefaultConcurrency.
func NewStorage(store cache.Store, downloader *download.Downloader, concurrency int, logger *logrus.Logger) *Storage {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Storage{
		store:       store,
		downloader:  downloader,
		concurrency: concurrency,
		logger:      logger,
	}
}

// UseJars makes sure every download is committed, then calls fn with their
// absolute paths in the order given. The files cannot be removed while fn runs.
func (s *Storage) UseJars(ctx context.Context, downloads []metadata.Download, fn func(paths []string) error) error {
	keys, err := s.prepare(ctx, downloads)
	if err != nil {
		return err
	}
	return s.store.UsePaths(ctx, keys, fn)
}

// UseJar is UseJars for a single download.
func (s *Storage) UseJar(ctx context.Context, d metadata.Download, fn func(path string) error) error {
	return s.UseJars(ctx, []metadata.Download{d}, func(paths []string) error {
		return fn(paths[0])
	})
}

// Bytes returns the verified content of d.
func (s *Storage) Bytes(ctx context.Context, d metadata.Download) ([]byte, error) {
	desc, err := d.Descriptor()
	if err != nil {
		return nil, err
	}
	rc, err := s.downloader.Fetch(ctx, desc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *Storage) prepare(ctx context.Context, downloads []metadata.Download) ([]string, error) {
	descs := make([]download.Descriptor, len(downloads))
	keys := make([]string, len(downloads))
	for i, d := range downloads {
		desc, err := d.Descriptor()
		if err != nil {
			return nil, err
		}
		descs[i] = desc
		keys[i] = desc.Key
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, desc := range descs {
		g.Go(func() error {
			rc, err := s.downloader.Fetch(gctx, desc)
			if err != nil {
				return err
			}
			return rc.Close()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"action": "library_prepare",
		"jars":   len(keys),
	}).Debug("library_ready")
	return keys, nil
}
