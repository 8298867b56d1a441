package domain

import (
	"fmt"

	"github.com/holiman/uint256"
)

// DefaultFeeBps is the platform fee applied until an admin changes it (2.5%).
const DefaultFeeBps uint32 = 250

// LedgerSettings is the single-row global state: fee, supply and id counters.
type LedgerSettings struct {
	FeeBps        uint32
	TotalSupply   *uint256.Int
	GigSeq        uint64
	OrderSeq      uint64
	CredentialSeq uint64
}

// Clone returns a deep copy.
func (s *LedgerSettings) Clone() *LedgerSettings {
	if s == nil {
		return nil
	}
	out := *s
	out.TotalSupply = AmountOrZero(s.TotalSupply)
	return &out
}

// Roles are the configured privileged identities.
type Roles struct {
	Admin    Address
	Minter   Address
	Escrow   Address
	Treasury Address
}

// Validate rejects an escrow identity that shares an address with another
// role. Admin and minter may coincide.
func (r Roles) Validate() error {
	if r.Escrow.IsZero() {
		return fmt.Errorf("escrow identity is required")
	}
	for _, other := range []struct {
		name string
		addr Address
	}{
		{"admin", r.Admin},
		{"minter", r.Minter},
		{"treasury", r.Treasury},
	} {
		if other.addr == r.Escrow {
			return fmt.Errorf("escrow identity %s must differ from the %s", r.Escrow, other.name)
		}
	}
	return nil
}

// Privileged reports whether a is a system account that never buys or sells.
func (r Roles) Privileged(a Address) bool {
	return a == r.Escrow || a == r.Treasury
}
