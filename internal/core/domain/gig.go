package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// Gig is a seller's listing. Price and terms never change after creation.
type Gig struct {
	ID                uint64       `json:"id"`
	Seller            Address      `json:"seller"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	AIModel           string       `json:"ai_model"`
	Price             *uint256.Int `json:"price"`
	DeliveryTimeHours uint32       `json:"delivery_time_hours"`
	IsActive          bool         `json:"is_active"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// Clone returns a deep copy.
func (g *Gig) Clone() *Gig {
	if g == nil {
		return nil
	}
	out := *g
	out.Price = AmountOrZero(g.Price)
	return &out
}

// GigFilter narrows a gig listing. Zero values match everything.
type GigFilter struct {
	Seller     Address
	ActiveOnly bool
}

// Matches reports whether g passes the filter.
func (f GigFilter) Matches(g *Gig) bool {
	if f.Seller != "" && g.Seller != f.Seller {
		return false
	}
	if f.ActiveOnly && !g.IsActive {
		return false
	}
	return true
}
