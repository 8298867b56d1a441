package memory

import (
	"context"
	"fmt"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"

	"github.com/holiman/uint256"
)

// --- Accounts ---

type accountRepo struct{ st *state }

func (r accountRepo) Balance(_ context.Context, owner domain.Address) (*uint256.Int, error) {
	return domain.AmountOrZero(r.st.balances[owner]), nil
}

func (r accountRepo) SetBalance(_ context.Context, owner domain.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		delete(r.st.balances, owner)
		return nil
	}
	r.st.balances[owner] = amount.Clone()
	return nil
}

func (r accountRepo) Allowance(_ context.Context, owner, spender domain.Address) (*uint256.Int, error) {
	return domain.AmountOrZero(r.st.allowances[allowanceKey{owner, spender}]), nil
}

func (r accountRepo) SetAllowance(_ context.Context, owner, spender domain.Address, amount *uint256.Int) error {
	key := allowanceKey{owner, spender}
	if amount.IsZero() {
		delete(r.st.allowances, key)
		return nil
	}
	r.st.allowances[key] = amount.Clone()
	return nil
}

// --- Credentials ---

type credentialRepo struct{ st *state }

func (r credentialRepo) Create(_ context.Context, c *domain.Credential) error {
	if _, exists := r.st.credentials[c.ID]; exists {
		return fmt.Errorf("credential %d already exists", c.ID)
	}
	if _, exists := r.st.holders[c.Holder]; exists {
		return fmt.Errorf("holder %s already has a credential", c.Holder)
	}
	r.st.credentials[c.ID] = c.Clone()
	r.st.holders[c.Holder] = c.ID
	return nil
}

func (r credentialRepo) GetByID(_ context.Context, id uint64) (*domain.Credential, error) {
	return r.st.credentials[id].Clone(), nil
}

func (r credentialRepo) GetByHolder(_ context.Context, holder domain.Address) (*domain.Credential, error) {
	id, ok := r.st.holders[holder]
	if !ok {
		return nil, nil
	}
	return r.st.credentials[id].Clone(), nil
}

func (r credentialRepo) Update(_ context.Context, c *domain.Credential) error {
	existing, ok := r.st.credentials[c.ID]
	if !ok {
		return fmt.Errorf("credential %d not found", c.ID)
	}
	if existing.Holder != c.Holder {
		return fmt.Errorf("credential %d holder is immutable", c.ID)
	}
	r.st.credentials[c.ID] = c.Clone()
	return nil
}

// --- Gigs ---

type gigRepo struct{ st *state }

func (r gigRepo) Create(_ context.Context, g *domain.Gig) error {
	if _, exists := r.st.gigs[g.ID]; exists {
		return fmt.Errorf("gig %d already exists", g.ID)
	}
	r.st.gigs[g.ID] = g.Clone()
	return nil
}

func (r gigRepo) GetByID(_ context.Context, id uint64) (*domain.Gig, error) {
	return r.st.gigs[id].Clone(), nil
}

func (r gigRepo) Update(_ context.Context, g *domain.Gig) error {
	if _, ok := r.st.gigs[g.ID]; !ok {
		return fmt.Errorf("gig %d not found", g.ID)
	}
	r.st.gigs[g.ID] = g.Clone()
	return nil
}

// List walks ids 1..n; ids are dense because nothing is deleted.
func (r gigRepo) List(_ context.Context, filter domain.GigFilter, page domain.Page) ([]*domain.Gig, int64, error) {
	page = page.Normalize()
	var (
		items []*domain.Gig
		total int64
	)
	for id := uint64(1); id <= uint64(len(r.st.gigs)); id++ {
		g, ok := r.st.gigs[id]
		if !ok || !filter.Matches(g) {
			continue
		}
		if total >= int64(page.Offset) && len(items) < page.Limit {
			items = append(items, g.Clone())
		}
		total++
	}
	return items, total, nil
}

// --- Orders ---

type orderRepo struct{ st *state }

func (r orderRepo) Create(_ context.Context, o *domain.Order) error {
	if _, exists := r.st.orders[o.ID]; exists {
		return fmt.Errorf("order %d already exists", o.ID)
	}
	r.st.orders[o.ID] = o.Clone()
	return nil
}

func (r orderRepo) GetByID(_ context.Context, id uint64) (*domain.Order, error) {
	return r.st.orders[id].Clone(), nil
}

func (r orderRepo) Update(_ context.Context, o *domain.Order) error {
	if _, ok := r.st.orders[o.ID]; !ok {
		return fmt.Errorf("order %d not found", o.ID)
	}
	r.st.orders[o.ID] = o.Clone()
	return nil
}

func (r orderRepo) List(_ context.Context, filter domain.OrderFilter, page domain.Page) ([]*domain.Order, int64, error) {
	page = page.Normalize()
	var (
		items []*domain.Order
		total int64
	)
	for id := uint64(1); id <= uint64(len(r.st.orders)); id++ {
		o, ok := r.st.orders[id]
		if !ok || !filter.Matches(o) {
			continue
		}
		if total >= int64(page.Offset) && len(items) < page.Limit {
			items = append(items, o.Clone())
		}
		total++
	}
	return items, total, nil
}

func (r orderRepo) SellerStats(_ context.Context, seller domain.Address) (*ports.OrderStats, error) {
	stats := &ports.OrderStats{Earnings: domain.Zero(), FeesPaid: domain.Zero()}
	for _, o := range r.st.orders {
		if o.Seller != seller {
			continue
		}
		stats.Total++
		switch o.Status {
		case domain.OrderStatusPending, domain.OrderStatusDelivered:
			stats.Pending++
		case domain.OrderStatusApproved, domain.OrderStatusResolvedForSeller:
			stats.Completed++
			stats.Earnings.Add(stats.Earnings, domain.AmountOrZero(o.SellerPayout))
			stats.FeesPaid.Add(stats.FeesPaid, domain.AmountOrZero(o.FeePaid))
		case domain.OrderStatusRejected:
			stats.Disputed++
		case domain.OrderStatusResolvedForBuyer:
			stats.Refunded++
		}
	}
	return stats, nil
}

// --- Settings ---

type settingsRepo struct{ st *state }

func (r settingsRepo) Load(_ context.Context) (*domain.LedgerSettings, error) {
	return r.st.settings.Clone(), nil
}

func (r settingsRepo) Save(_ context.Context, s *domain.LedgerSettings) error {
	r.st.settings = s.Clone()
	return nil
}

// --- Events ---

type eventRepo struct{ st *state }

func (r eventRepo) Last(_ context.Context) (*domain.Event, error) {
	if len(r.st.events) == 0 {
		return nil, nil
	}
	return r.st.events[len(r.st.events)-1].Clone(), nil
}

func (r eventRepo) Append(_ context.Context, e *domain.Event) error {
	if want := uint64(len(r.st.events)) + 1; e.Seq != want {
		return fmt.Errorf("event seq %d out of order, want %d", e.Seq, want)
	}
	r.st.events = append(r.st.events, e.Clone())
	return nil
}

func (r eventRepo) List(_ context.Context, after uint64, limit int) ([]*domain.Event, error) {
	if after >= uint64(len(r.st.events)) {
		return nil, nil
	}
	end := uint64(len(r.st.events))
	if limit > 0 && after+uint64(limit) < end {
		end = after + uint64(limit)
	}
	out := make([]*domain.Event, 0, end-after)
	for _, e := range r.st.events[after:end] {
		out = append(out, e.Clone())
	}
	return out, nil
}
