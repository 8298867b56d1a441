// Package memory is an in-process ports.Store used for tests, demos and single-node runs.
package memory

import (
	"context"
	"sync"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"

	"github.com/holiman/uint256"
)

type allowanceKey struct {
	owner   domain.Address
	spender domain.Address
}

// state is one immutable-by-convention snapshot. Stored values are never
// mutated in place, so a snapshot copy only needs fresh maps.
type state struct {
	balances    map[domain.Address]*uint256.Int
	allowances  map[allowanceKey]*uint256.Int
	credentials map[uint64]*domain.Credential
	holders     map[domain.Address]uint64
	gigs        map[uint64]*domain.Gig
	orders      map[uint64]*domain.Order
	settings    *domain.LedgerSettings
	events      []*domain.Event
}

func newState() *state {
	return &state{
		balances:    make(map[domain.Address]*uint256.Int),
		allowances:  make(map[allowanceKey]*uint256.Int),
		credentials: make(map[uint64]*domain.Credential),
		holders:     make(map[domain.Address]uint64),
		gigs:        make(map[uint64]*domain.Gig),
		orders:      make(map[uint64]*domain.Order),
		settings: &domain.LedgerSettings{
			FeeBps:      domain.DefaultFeeBps,
			TotalSupply: domain.Zero(),
		},
	}
}

func (s *state) snapshot() *state {
	out := &state{
		balances:    make(map[domain.Address]*uint256.Int, len(s.balances)),
		allowances:  make(map[allowanceKey]*uint256.Int, len(s.allowances)),
		credentials: make(map[uint64]*domain.Credential, len(s.credentials)),
		holders:     make(map[domain.Address]uint64, len(s.holders)),
		gigs:        make(map[uint64]*domain.Gig, len(s.gigs)),
		orders:      make(map[uint64]*domain.Order, len(s.orders)),
		settings:    s.settings,
		// Capacity pinned to length so appends in the working copy never
		// write into the committed backing array.
		events: s.events[:len(s.events):len(s.events)],
	}
	for k, v := range s.balances {
		out.balances[k] = v
	}
	for k, v := range s.allowances {
		out.allowances[k] = v
	}
	for k, v := range s.credentials {
		out.credentials[k] = v
	}
	for k, v := range s.holders {
		out.holders[k] = v
	}
	for k, v := range s.gigs {
		out.gigs[k] = v
	}
	for k, v := range s.orders {
		out.orders[k] = v
	}
	return out
}

// Store implements ports.Store. One writer at a time; readers see the last committed snapshot.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore creates an empty store with the default platform fee.
func NewStore() *Store {
	return &Store{state: newState()}
}

// WithinTx runs fn against a working copy and publishes it only if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.StoreTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.snapshot()
	if err := fn(ctx, &storeTx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// View runs fn against the committed state. Writes inside View are discarded.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx ports.StoreTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	current := s.state
	s.mu.RUnlock()

	return fn(ctx, &storeTx{st: current.snapshot()})
}

type storeTx struct {
	st *state
}

func (t *storeTx) Accounts() ports.AccountRepository       { return accountRepo{t.st} }
func (t *storeTx) Credentials() ports.CredentialRepository { return credentialRepo{t.st} }
func (t *storeTx) Gigs() ports.GigRepository               { return gigRepo{t.st} }
func (t *storeTx) Orders() ports.OrderRepository           { return orderRepo{t.st} }
func (t *storeTx) Settings() ports.SettingsRepository      { return settingsRepo{t.st} }
func (t *storeTx) Events() ports.EventRepository           { return eventRepo{t.st} }
