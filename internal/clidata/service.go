package clidata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/blockdeck/blockdeck/internal/cache"
	"github.com/blockdeck/blockdeck/internal/logging"
)

// ErrNotFound means no document is stored for the version pair.
var ErrNotFound = errors.New("cli data not found")

// Service stores one document per (data version, CLI data version).
type Service struct {
	store  cache.Store
	logger *logrus.Logger
}

// NewService wraps store.
func NewService(store cache.Store, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{store: store, logger: logger}
}

// Key returns "<dataVersion>-<cliDataVersion>.json".
func Key(dataVersion, cliDataVersion int) string {
	return fmt.Sprintf("%d-%d.json", dataVersion, cliDataVersion)
}

// Open returns the stored document as raw JSON. The caller closes the reader.
func (s *Service) Open(ctx context.Context, dataVersion, cliDataVersion int) (*cache.ReadResult, error) {
	result, err := s.store.Retrieve(ctx, Key(dataVersion, cliDataVersion))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, fmt.Errorf("data version %d, cli data version %d: %w", dataVersion, cliDataVersion, ErrNotFound)
	}
	return result, err
}

func (s *Service) Get(ctx context.Context, dataVersion, cliDataVersion int) (CliData, error) {
	result, err := s.Open(ctx, dataVersion, cliDataVersion)
	if err != nil {
		return CliData{}, err
	}
	defer result.Reader.Close()

	var d CliData
	if err := json.NewDecoder(result.Reader).Decode(&d); err != nil {
		return CliData{}, fmt.Errorf("decode cli data %s: %w", Key(dataVersion, cliDataVersion), err)
	}
	return d, nil
}

// Put validates d and replaces the stored document.
func (s *Service) Put(ctx context.Context, dataVersion, cliDataVersion int, d CliData) error {
	if err := d.Validate(); err != nil {
		return err
	}
	entry, err := s.store.Store(ctx, Key(dataVersion, cliDataVersion), func(w io.Writer) error {
		return json.NewEncoder(w).Encode(d)
	})
	if err != nil {
		return err
	}
	fields := logging.ArtifactFields("we-cli-data", entry.Key)
	fields["action"] = "cli_data_store"
	fields["blocks"] = len(d.Blocks)
	fields["size_bytes"] = entry.SizeBytes
	s.logger.WithFields(fields).Info("cli_data_stored")
	return nil
}

// Import decodes a document from r and stores it.
func (s *Service) Import(ctx context.Context, dataVersion, cliDataVersion int, r io.Reader) error {
	d, err := Decode(r)
	if err != nil {
		return err
	}
	return s.Put(ctx, dataVersion, cliDataVersion, d)
}
