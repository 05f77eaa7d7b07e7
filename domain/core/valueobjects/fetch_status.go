package valueobjects

import "fmt"

// FetchStatus is the state of an asynchronous read
type FetchStatus string

const (
	FetchIdle    FetchStatus = "idle"
	FetchLoading FetchStatus = "loading"
	FetchLoaded  FetchStatus = "loaded"
	FetchFailed  FetchStatus = "failed"
)

var fetchTransitions = map[FetchStatus][]FetchStatus{
	FetchIdle:    {FetchLoading},
	FetchLoading: {FetchLoaded, FetchFailed},
	FetchLoaded:  {FetchLoading},
	FetchFailed:  {FetchLoading},
}

// CanTransitionTo checks if the status can move to next
func (s FetchStatus) CanTransitionTo(next FetchStatus) bool {
	for _, allowed := range fetchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo returns next if the move is legal
func (s FetchStatus) TransitionTo(next FetchStatus) (FetchStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("illegal fetch transition %s -> %s", s, next)
	}
	return next, nil
}

// IsPending reports whether a read is in flight
func (s FetchStatus) IsPending() bool { return s == FetchLoading }

// IsSettled reports whether the read finished, successfully or not
func (s FetchStatus) IsSettled() bool { return s == FetchLoaded || s == FetchFailed }

func (s FetchStatus) String() string { return string(s) }
