package storage

import (
	"context"
	"time"

	"sift/internal/descriptor"
)

// RunInfo describes one persisted discovery run.
type RunInfo struct {
	ID        int64
	Label     string
	RootID    string
	CreatedAt time.Time
	NodeCount int
}

// StoredNode is the flattened form of a descriptor, enough to re-render the
// tree: the unique id carries the full ancestry, the flags mirror the node
// classification, and Position preserves sibling order.
type StoredNode struct {
	UID         string
	ParentUID   string
	SegmentType string
	DisplayName string
	IsRoot      bool
	IsContainer bool
	IsTest      bool
	Position    int
}

// SnapshotStore persists discovery trees across runs.
type SnapshotStore interface {
	// SaveRun stores the whole tree rooted at root as a new run and
	// returns its id.
	SaveRun(ctx context.Context, label string, root descriptor.Descriptor) (int64, error)

	// LoadRun retrieves every node of a run in stored order.
	LoadRun(ctx context.Context, runID int64) ([]StoredNode, error)

	// ListRuns returns all runs, most recent first.
	ListRuns(ctx context.Context) ([]RunInfo, error)

	Close() error
}
