package storage

import (
	"context"
	"errors"

	"github.com/Alias1177/SignalEngine/models"
)

// ErrNotFound is returned when no persisted signal has the requested id.
var ErrNotFound = errors.New("signal not found")

// Store is the append-only history of accepted signals with bounded FIFO
// retention. Implementations must keep status transitions monotonic: once a
// record reaches a terminal status, UpdateStatus leaves it untouched.
type Store interface {
	// Append persists an accepted signal, evicting the oldest record once
	// the retention bound is exceeded.
	Append(ctx context.Context, signal models.PersistedSignal) error
	// UpdateStatus resolves a record's lifecycle status. Updates to records
	// already in a terminal state are silently ignored.
	UpdateStatus(ctx context.Context, id string, status models.SignalStatus, outcome models.SignalOutcome) error
	// List returns the retained records, newest first.
	List(ctx context.Context) ([]models.PersistedSignal, error)
	// ClearAll wipes the whole history.
	ClearAll(ctx context.Context) error
}

// valid reports whether a decoded record carries the required fields.
// Schema drift is tolerated by dropping bad records, not failing the load.
func valid(s models.PersistedSignal) bool {
	return s.ID != "" && s.Pair != "" && s.Timestamp > 0 && s.Type != ""
}
