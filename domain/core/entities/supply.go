package entities

import "math/big"

// SupplySummary describes how much of a drop has been claimed
type SupplySummary struct {
	Total   *big.Int `json:"total"`
	Claimed *big.Int `json:"claimed"`
}

// Unclaimed returns total minus claimed, never negative
func (s SupplySummary) Unclaimed() *big.Int {
	if s.Total == nil {
		return new(big.Int)
	}
	claimed := s.Claimed
	if claimed == nil {
		claimed = new(big.Int)
	}
	out := new(big.Int).Sub(s.Total, claimed)
	if out.Sign() < 0 {
		return new(big.Int)
	}
	return out
}
