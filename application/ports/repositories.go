package ports

import (
	"context"
	"time"

	"dashboard/application/hydration"
	"dashboard/domain/core/entities"
	"dashboard/domain/core/valueobjects"
	"dashboard/domain/events"
)

// CategoryRegistry is the static, read-only set of known categories
type CategoryRegistry interface {
	// Get resolves a category id
	Get(id string) (*entities.Category, bool)

	// IDs returns every category id in registry order
	IDs() []string
}

// CategorySnapshot is the output of a build-time load: the descriptor plus
// the serialized query cache the page hydrates from
type CategorySnapshot struct {
	Category    entities.CategoryDocument `json:"category"`
	State       hydration.DehydratedState `json:"dehydratedState"`
	Version     string                    `json:"version"`
	GeneratedAt time.Time                 `json:"generatedAt"`
	Trigger     string                    `json:"trigger,omitempty"`
	Failed      int                       `json:"failedQueries"`
}

// SnapshotStore persists category snapshots
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type SnapshotStore interface {
	// Save stores the snapshot, replacing any previous version of the category
	Save(ctx context.Context, snapshot *CategorySnapshot) error

	// Get retrieves the current snapshot of a category; missing snapshots are NotFound errors
	Get(ctx context.Context, categoryID string) (*CategorySnapshot, error)

	// Delete removes the snapshot of a category
	Delete(ctx context.Context, categoryID string) error
}

// PublishedContract is the published metadata of a contract template or module
type PublishedContract struct {
	Publisher   string   `json:"publisher"`
	ContractID  string   `json:"contractId"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName,omitempty"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Logo        string   `json:"logo,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Audit       string   `json:"audit,omitempty"`
}

// PublisherProfile is a publisher's public profile
type PublisherProfile struct {
	Name    string `json:"name"`
	Avatar  string `json:"avatar,omitempty"`
	Bio     string `json:"bio,omitempty"`
	Website string `json:"website,omitempty"`
	Twitter string `json:"twitter,omitempty"`
	GitHub  string `json:"github,omitempty"`
}

// ContractRegistry reads published contract metadata and publisher profiles
type ContractRegistry interface {
	// GetPublishedContract returns the latest version of a published contract or module
	GetPublishedContract(ctx context.Context, publisher, contractID string) (*PublishedContract, error)

	// GetPublisherProfile returns a publisher's profile
	GetPublisherProfile(ctx context.Context, publisher string) (*PublisherProfile, error)
}

// TokenQuery bounds a token read
type TokenQuery struct {
	Start         int
	Count         int
	IncludeOwners bool
}

// TokenReader is the chain read layer for NFT contracts
type TokenReader interface {
	// GetNFTs reads up to query.Count tokens starting at query.Start
	GetNFTs(ctx context.Context, handle valueobjects.ContractHandle, query TokenQuery) ([]entities.Token, error)

	// GetSupply reads the claimed and total supply of a drop
	GetSupply(ctx context.Context, handle valueobjects.ContractHandle) (*entities.SupplySummary, error)
}

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker serializes work on a named resource across processes
type Locker interface {
	// Acquire takes the lock or fails with a Conflict error when it is held
	Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (Lock, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
