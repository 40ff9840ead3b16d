package storage

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalEngine/models"
)

// MemoryStore keeps the signal history in process memory, optionally mirrored
// to a JSON file. The file is best-effort: write failures are logged, a
// corrupt file on load is treated as empty history and cleared.
type MemoryStore struct {
	mu        sync.Mutex
	retention int
	path      string
	records   []models.PersistedSignal // oldest first
	logger    zerolog.Logger
}

// NewMemoryStore creates a store bounded to retention records. A non-empty
// path enables the JSON file mirror.
func NewMemoryStore(retention int, path string) *MemoryStore {
	s := &MemoryStore{
		retention: retention,
		path:      path,
		logger:    log.With().Str("component", "memory_store").Logger(),
	}
	if path != "" {
		s.load()
	}
	return s
}

// Append adds a record, evicting the oldest once past the retention bound.
func (s *MemoryStore) Append(_ context.Context, signal models.PersistedSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, signal)
	if len(s.records) > s.retention {
		s.records = s.records[len(s.records)-s.retention:]
	}
	s.flush()
	return nil
}

// UpdateStatus resolves a record. Terminal records are never mutated.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status models.SignalStatus, outcome models.SignalOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		if s.records[i].Status.Terminal() {
			return nil
		}
		s.records[i].Status = status
		if outcome != "" {
			s.records[i].Outcome = outcome
		}
		s.flush()
		return nil
	}
	return ErrNotFound
}

// List returns retained records, newest first.
func (s *MemoryStore) List(_ context.Context) ([]models.PersistedSignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.PersistedSignal, len(s.records))
	for i, r := range s.records {
		out[len(s.records)-1-i] = r
	}
	return out, nil
}

// ClearAll wipes the history.
func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.flush()
	return nil
}

// load restores the file mirror. Caller does not hold the lock (constructor
// only). Records missing required fields are dropped; a corrupt file is
// cleared so the next load starts clean.
func (s *MemoryStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Msg("Failed to read history file, starting empty")
		}
		return
	}

	var decoded []models.PersistedSignal
	if err := json.Unmarshal(data, &decoded); err != nil {
		s.logger.Warn().Err(err).Msg("Corrupt history file, clearing it")
		_ = os.Remove(s.path)
		return
	}

	for _, r := range decoded {
		if valid(r) {
			s.records = append(s.records, r)
		}
	}
	if len(s.records) > s.retention {
		s.records = s.records[len(s.records)-s.retention:]
	}
}

// flush mirrors current state to the file. Caller holds the lock.
func (s *MemoryStore) flush() {
	if s.path == "" {
		return
	}

	data, err := json.Marshal(s.records)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode history")
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write history file")
	}
}
