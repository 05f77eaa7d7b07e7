package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dashboard/application/ports"
	"dashboard/domain/config"
	"dashboard/domain/core/entities"
	"dashboard/domain/core/valueobjects"
	"dashboard/pkg/observability"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TokenQueryKey identifies one token read
type TokenQueryKey struct {
	Handle     valueobjects.ContractHandle
	Query      ports.TokenQuery
	WithSupply bool
}

func (k TokenQueryKey) String() string {
	return fmt.Sprintf("%s:%d:%d:%t:%t", k.Handle, k.Query.Start, k.Query.Count, k.Query.IncludeOwners, k.WithSupply)
}

// TokenQueryState is an observation of a token read
type TokenQueryState struct {
	Status    valueobjects.FetchStatus `json:"status"`
	Tokens    []entities.Token         `json:"tokens,omitempty"`
	Supply    *entities.SupplySummary  `json:"supply,omitempty"`
	Error     string                   `json:"error,omitempty"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

type tokenQuery struct {
	key         TokenQueryKey
	state       TokenQueryState
	settled     chan struct{}
	subscribers map[int]chan TokenQueryState
	lastUsed    time.Time
}

// TokenQueries tracks token reads as Idle -> Loading -> Loaded | Failed state
// machines. Reads run in the background; callers observe them with State,
// Wait or Subscribe.
type TokenQueries struct {
	reader  ports.TokenReader
	cfg     *config.DomainConfig
	tracer  *observability.Tracer
	metrics *observability.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	queries map[string]*tokenQuery
	nextSub int
	now     func() time.Time
}

// NewTokenQueries creates a new token query tracker
func NewTokenQueries(
	reader ports.TokenReader,
	cfg *config.DomainConfig,
	tracer *observability.Tracer,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *TokenQueries {
	return &TokenQueries{
		reader:  reader,
		cfg:     cfg,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
		queries: make(map[string]*tokenQuery),
		now:     time.Now,
	}
}

// State returns the current state of key without starting a read
func (t *TokenQueries) State(key TokenQueryKey) TokenQueryState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if q, ok := t.queries[key.String()]; ok {
		return q.state
	}
	return TokenQueryState{Status: valueobjects.FetchIdle}
}

// Ensure starts a read for key unless one is in flight or a fresh result exists
func (t *TokenQueries) Ensure(ctx context.Context, key TokenQueryKey) TokenQueryState {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.lookupLocked(key)
	q.lastUsed = t.now()

	switch {
	case q.state.Status == valueobjects.FetchIdle:
	case q.state.Status.IsSettled() && t.now().Sub(q.state.UpdatedAt) >= t.cfg.TokenQueryStaleAfter:
	default:
		return q.state
	}

	t.startLocked(ctx, q)
	return q.state
}

// Wait ensures a read for key and blocks until it settles or ctx is done.
// On ctx expiry the pending state is returned without an error.
func (t *TokenQueries) Wait(ctx context.Context, key TokenQueryKey) TokenQueryState {
	state := t.Ensure(ctx, key)
	if state.Status.IsSettled() {
		return state
	}

	t.mu.Lock()
	settled := t.queries[key.String()].settled
	t.mu.Unlock()

	select {
	case <-settled:
	case <-ctx.Done():
	}
	return t.State(key)
}

// Subscribe streams the state transitions of key, starting with the current
// state. The channel is closed by cancel.
func (t *TokenQueries) Subscribe(key TokenQueryKey) (<-chan TokenQueryState, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.lookupLocked(key)
	q.lastUsed = t.now()

	id := t.nextSub
	t.nextSub++
	ch := make(chan TokenQueryState, 4)
	ch <- q.state
	q.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(q.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Prune drops settled queries nobody has used for maxIdle
func (t *TokenQueries) Prune(maxIdle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	cutoff := t.now().Add(-maxIdle)
	for hash, q := range t.queries {
		if q.state.Status.IsPending() || len(q.subscribers) > 0 || q.lastUsed.After(cutoff) {
			continue
		}
		delete(t.queries, hash)
		removed++
	}
	return removed
}

// Run prunes idle queries every interval until ctx is done
func (t *TokenQueries) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Prune(10 * t.cfg.TokenQueryStaleAfter); n > 0 {
				t.logger.Debug("Pruned token queries", zap.Int("count", n))
			}
		}
	}
}

func (t *TokenQueries) lookupLocked(key TokenQueryKey) *tokenQuery {
	hash := key.String()
	q, ok := t.queries[hash]
	if !ok {
		q = &tokenQuery{
			key:         key,
			state:       TokenQueryState{Status: valueobjects.FetchIdle},
			settled:     make(chan struct{}),
			subscribers: make(map[int]chan TokenQueryState),
		}
		t.queries[hash] = q
	}
	return q
}

func (t *TokenQueries) startLocked(ctx context.Context, q *tokenQuery) {
	next := q.state
	next.Error = ""
	if !t.transitionLocked(q, next, valueobjects.FetchLoading) {
		return
	}
	select {
	case <-q.settled:
		q.settled = make(chan struct{})
	default:
	}

	// The read outlives the request that started it.
	readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.cfg.TokenQueryTimeout)
	go func() {
		defer cancel()
		t.read(readCtx, q)
	}()
}

func (t *TokenQueries) read(ctx context.Context, q *tokenQuery) {
	start := t.now()
	var (
		tokens []entities.Token
		supply *entities.SupplySummary
	)

	err := t.tracer.TraceFunction(ctx, "nft.read", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			tokens, err = t.reader.GetNFTs(gctx, q.key.Handle, q.key.Query)
			return err
		})
		if q.key.WithSupply {
			g.Go(func() error {
				s, err := t.reader.GetSupply(gctx, q.key.Handle)
				if err != nil {
					t.logger.Warn("Supply read failed",
						zap.String("contract", q.key.Handle.String()),
						zap.Error(err),
					)
					return nil
				}
				supply = s
				return nil
			})
		}
		return g.Wait()
	})
	t.metrics.Timing("token_read_duration", "GetNFTs", t.now().Sub(start))

	t.mu.Lock()
	defer t.mu.Unlock()

	next := TokenQueryState{Tokens: tokens, Supply: supply, UpdatedAt: t.now()}
	status := valueobjects.FetchLoaded
	if err != nil {
		t.metrics.Increment("token_read_failures", "GetNFTs")
		t.logger.Warn("Token read failed",
			zap.String("contract", q.key.Handle.String()),
			zap.Error(err),
		)
		// Keep whatever the last successful read returned.
		next.Tokens, next.Supply = q.state.Tokens, q.state.Supply
		next.Error = err.Error()
		status = valueobjects.FetchFailed
	}

	if t.transitionLocked(q, next, status) {
		close(q.settled)
	}
}

// transitionLocked moves q to status with the given payload and notifies subscribers
func (t *TokenQueries) transitionLocked(q *tokenQuery, payload TokenQueryState, status valueobjects.FetchStatus) bool {
	if _, err := q.state.Status.TransitionTo(status); err != nil {
		t.logger.Error("Rejected token query transition", zap.String("query", q.key.String()), zap.Error(err))
		return false
	}

	payload.Status = status
	q.state = payload
	for _, ch := range q.subscribers {
		publishLatest(ch, payload)
	}
	return true
}

// publishLatest delivers state without blocking, replacing the oldest queued
// state when the subscriber lags
func publishLatest(ch chan TokenQueryState, state TokenQueryState) {
	select {
	case ch <- state:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- state:
	default:
	}
}
