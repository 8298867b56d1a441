package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// OrderStatus is the escrow lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "PENDING"
	OrderStatusDelivered         OrderStatus = "DELIVERED"
	OrderStatusApproved          OrderStatus = "APPROVED"
	OrderStatusRejected          OrderStatus = "REJECTED"
	OrderStatusResolvedForSeller OrderStatus = "RESOLVED_FOR_SELLER"
	OrderStatusResolvedForBuyer  OrderStatus = "RESOLVED_FOR_BUYER"
)

// Rating bounds accepted on approval.
const (
	MinRating = 1
	MaxRating = 5
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusDelivered, OrderStatusApproved,
		OrderStatusRejected, OrderStatusResolvedForSeller, OrderStatusResolvedForBuyer:
		return true
	}
	return false
}

// IsTerminal returns true once escrowed funds have left the escrow account.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusApproved ||
		s == OrderStatusResolvedForSeller ||
		s == OrderStatusResolvedForBuyer
}

// CanTransitionTo encodes the allowed edges of the escrow state machine.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusDelivered
	case OrderStatusDelivered:
		return next == OrderStatusApproved || next == OrderStatusRejected
	case OrderStatusRejected:
		return next == OrderStatusResolvedForSeller || next == OrderStatusResolvedForBuyer
	}
	return false
}

// Order is one purchase of a gig. Price is the gig price at placement time.
type Order struct {
	ID             uint64       `json:"id"`
	GigID          uint64       `json:"gig_id"`
	Buyer          Address      `json:"buyer"`
	Seller         Address      `json:"seller"`
	Price          *uint256.Int `json:"price"`
	Requirements   string       `json:"requirements"`
	Status         OrderStatus  `json:"status"`
	DeliverableRef string       `json:"deliverable_ref"`
	Rating         uint8        `json:"rating"`
	RejectReason   string       `json:"reject_reason"`
	FeePaid        *uint256.Int `json:"fee_paid"`
	SellerPayout   *uint256.Int `json:"seller_payout"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	out := *o
	out.Price = AmountOrZero(o.Price)
	out.FeePaid = AmountOrZero(o.FeePaid)
	out.SellerPayout = AmountOrZero(o.SellerPayout)
	return &out
}

// OrderFilter narrows an order listing. Zero values match everything.
type OrderFilter struct {
	Buyer  Address
	Seller Address
	Status OrderStatus
}

// Matches reports whether o passes the filter.
func (f OrderFilter) Matches(o *Order) bool {
	if f.Buyer != "" && o.Buyer != f.Buyer {
		return false
	}
	if f.Seller != "" && o.Seller != f.Seller {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	return true
}

// Page selects a window of an ascending-id listing.
type Page struct {
	Offset int
	Limit  int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > MaxPageLimit {
		p.Limit = DefaultPageLimit
	}
	return p
}
