// Package memory provides process-local persistence for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"dashboard/application/ports"
	pkgerrors "dashboard/pkg/errors"
)

// SnapshotStore keeps category snapshots in a map
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]ports.CategorySnapshot
}

// NewSnapshotStore creates an empty store
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]ports.CategorySnapshot)}
}

// Save stores a copy of the snapshot unless a newer one is already present
func (s *SnapshotStore) Save(_ context.Context, snapshot *ports.CategorySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := snapshot.Category.ID
	if current, ok := s.snapshots[id]; ok && current.GeneratedAt.After(snapshot.GeneratedAt) {
		return nil
	}
	s.snapshots[id] = *snapshot
	return nil
}

// Get returns a copy of the stored snapshot
func (s *SnapshotStore) Get(_ context.Context, categoryID string) (*ports.CategorySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[categoryID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("snapshot for category %s", categoryID))
	}
	return &snapshot, nil
}

// Delete removes the snapshot of a category
func (s *SnapshotStore) Delete(_ context.Context, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, categoryID)
	return nil
}
