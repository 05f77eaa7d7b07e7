package events

import (
	"time"
)

// SourceExplore is the event source used on the event bus
const SourceExplore = "dashboard.explore"

// Event types
const (
	TypeCategoryPrerendered     = "explore.category.prerendered"
	TypeCategoryPrerenderFailed = "explore.category.prerender_failed"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Category Events

// CategoryPrerendered is raised when a category snapshot has been generated and stored
type CategoryPrerendered struct {
	BaseEvent
	CategoryID      string `json:"category_id"`
	SnapshotVersion string `json:"snapshot_version"`
	QueryCount      int    `json:"query_count"`
	FailedQueries   int    `json:"failed_queries"`
	Trigger         string `json:"trigger"`
}

// NewCategoryPrerendered creates a CategoryPrerendered event
func NewCategoryPrerendered(categoryID, snapshotVersion string, queryCount, failedQueries int, trigger string, timestamp time.Time) CategoryPrerendered {
	return CategoryPrerendered{
		BaseEvent: BaseEvent{
			AggregateID: categoryID,
			EventType:   TypeCategoryPrerendered,
			Timestamp:   timestamp,
			Version:     1,
		},
		CategoryID:      categoryID,
		SnapshotVersion: snapshotVersion,
		QueryCount:      queryCount,
		FailedQueries:   failedQueries,
		Trigger:         trigger,
	}
}

// CategoryPrerenderFailed is raised when generating a category snapshot failed
type CategoryPrerenderFailed struct {
	BaseEvent
	CategoryID string `json:"category_id"`
	Reason     string `json:"reason"`
	Trigger    string `json:"trigger"`
}

// NewCategoryPrerenderFailed creates a CategoryPrerenderFailed event
func NewCategoryPrerenderFailed(categoryID, reason, trigger string, timestamp time.Time) CategoryPrerenderFailed {
	return CategoryPrerenderFailed{
		BaseEvent: BaseEvent{
			AggregateID: categoryID,
			EventType:   TypeCategoryPrerenderFailed,
			Timestamp:   timestamp,
			Version:     1,
		},
		CategoryID: categoryID,
		Reason:     reason,
		Trigger:    trigger,
	}
}
