// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/sensorlabel/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetLoadStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking operation runs and their labelled slices.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(op schema.OperationKind, inputFile string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, rowsIn, rowsOut int) error

	// RecordSlices stores the labelled slices produced by a run
	RecordSlices(runID int64, slices []schema.SliceRecord) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every recorded run
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllSlices returns every recorded slice
	GetAllSlices() ([]schema.SliceRecord, error)

	// Close closes the underlying connection
	Close() error
}

// Prompter asks the operator for free-form text or a yes/no answer.
type Prompter interface {
	Ask(question string) (string, error)
	Confirm(question string) (bool, error)
}
