package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dashboard/application/ports"
	pkgerrors "dashboard/pkg/errors"

	"github.com/google/uuid"
)

// Locker is a process-local ports.Locker with expiring leases
type Locker struct {
	mu   sync.Mutex
	held map[string]lease
	now  func() time.Time
}

type lease struct {
	id        string
	expiresAt time.Time
}

// NewLocker creates a new Locker
func NewLocker() *Locker {
	return &Locker{held: make(map[string]lease), now: time.Now}
}

// Acquire takes the lock on resource or returns a Conflict error
func (l *Locker) Acquire(_ context.Context, resource, _ string, ttl time.Duration) (ports.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if current, ok := l.held[resource]; ok && now.Before(current.expiresAt) {
		return nil, pkgerrors.NewConflictError(fmt.Sprintf("lock already held for resource: %s", resource)).WithCode(pkgerrors.CodeLockHeld)
	}

	id := uuid.NewString()
	l.held[resource] = lease{id: id, expiresAt: now.Add(ttl)}
	return &heldLock{locker: l, resource: resource, id: id}, nil
}

type heldLock struct {
	locker   *Locker
	resource string
	id       string
}

// Release drops the lease if it is still ours
func (h *heldLock) Release(context.Context) error {
	h.locker.mu.Lock()
	defer h.locker.mu.Unlock()

	if current, ok := h.locker.held[h.resource]; ok && current.id == h.id {
		delete(h.locker.held, h.resource)
	}
	return nil
}
