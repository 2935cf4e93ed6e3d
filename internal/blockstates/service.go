package blockstates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/blockdeck/blockdeck/internal/cache"
	"github.com/blockdeck/blockdeck/internal/logging"
)

// ErrNotFound means no document is stored for the data version.
var ErrNotFound = errors.New("block states not found")

// Service stores one document per data version.
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

// Key returns the cache key for dataVersion.
func Key(dataVersion int) string {
	return strconv.Itoa(dataVersion) + ".json"
}

// Open returns the stored document as raw JSON. The caller closes the reader.
func (s *Service) Open(ctx context.Context, dataVersion int) (*cache.ReadResult, error) {
	result, err := s.store.Retrieve(ctx, Key(dataVersion))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, fmt.Errorf("data version %d: %w", dataVersion, ErrNotFound)
	}
	return result, err
}

// Get decodes the stored document for dataVersion.
func (s *Service) Get(ctx context.Context, dataVersion int) (BlockStates, error) {
	result, err := s.Open(ctx, dataVersion)
	if err != nil {
		return nil, err
	}
	defer result.Reader.Close()

	var states BlockStates
	if err := json.NewDecoder(result.Reader).Decode(&states); err != nil {
		return nil, fmt.Errorf("decode block states %d: %w", dataVersion, err)
	}
	return states, nil
}

// Has reports whether a document is stored for dataVersion.
func (s *Service) Has(ctx context.Context, dataVersion int) (bool, error) {
	err := s.store.UsePath(ctx, Key(dataVersion), func(string) error { return nil })
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, cache.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Put replaces the document for dataVersion.
func (s *Service) Put(ctx context.Context, dataVersion int, states BlockStates) error {
	entry, err := s.store.Store(ctx, Key(dataVersion), func(w io.Writer) error {
		return json.NewEncoder(w).Encode(states)
	})
	if err != nil {
		return err
	}
	fields := logging.ArtifactFields("block-states", entry.Key)
	fields["action"] = "block_states_store"
	fields["blocks"] = len(states)
	fields["size_bytes"] = entry.SizeBytes
	s.logger.WithFields(fields).Info("block_states_stored")
	return nil
}
