package hydration

import (
	"encoding/json"
	"fmt"
)

// QueryStatus is the settled status of a dehydrated query
type QueryStatus string

const StatusSuccess QueryStatus = "success"

// QueryState is the serialized result of a query
type QueryState struct {
	Data          json.RawMessage `json:"data"`
	DataUpdatedAt int64           `json:"dataUpdatedAt"`
	Status        QueryStatus     `json:"status"`
}

// DehydratedQuery is one entry of a snapshot
type DehydratedQuery struct {
	QueryKey  QueryKey   `json:"queryKey"`
	QueryHash string     `json:"queryHash"`
	State     QueryState `json:"state"`
}

// DehydratedState is the serialized cache handed to the client for hydration
type DehydratedState struct {
	Queries []DehydratedQuery `json:"queries"`
}

// Find returns the query stored under key
func (s DehydratedState) Find(key QueryKey) (DehydratedQuery, bool) {
	hash := key.Hash()
	for _, q := range s.Queries {
		if q.QueryHash == hash {
			return q, true
		}
	}
	return DehydratedQuery{}, false
}

// Decode unmarshals the data stored under key into v
func (s DehydratedState) Decode(key QueryKey, v interface{}) error {
	q, ok := s.Find(key)
	if !ok {
		return fmt.Errorf("query %s not in snapshot", key.Hash())
	}
	return json.Unmarshal(q.State.Data, v)
}
