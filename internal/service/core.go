package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// Core is shared by the ledger-backed services: one store, one set of roles,
// one clock. Every mutating call runs through execute.
type Core struct {
	store     ports.Store
	roles     domain.Roles
	publisher ports.EventPublisher
	now       func() time.Time
	log       zerolog.Logger

	// pubMu spans commit and enqueue so publish order matches chain order.
	pubMu sync.Mutex
}

// NewCore creates a Core. publisher may be nil.
func NewCore(store ports.Store, roles domain.Roles, publisher ports.EventPublisher, log zerolog.Logger) *Core {
	return &Core{
		store:     store,
		roles:     roles,
		publisher: publisher,
		now:       time.Now,
		log:       log,
	}
}

// SetNowFunc overrides the clock (for testing).
func (c *Core) SetNowFunc(fn func() time.Time) {
	c.now = fn
}

// Roles returns the configured privileged identities.
func (c *Core) Roles() domain.Roles {
	return c.roles
}

// unit is one store transaction plus the events it will append on success.
type unit struct {
	ports.StoreTx
	now     time.Time
	pending []pendingEvent
}

type pendingEvent struct {
	typ     domain.EventType
	payload map[string]any
}

func (u *unit) emit(typ domain.EventType, payload map[string]any) {
	u.pending = append(u.pending, pendingEvent{typ: typ, payload: payload})
}

// flush chains pending events onto the log tail.
func (u *unit) flush(ctx context.Context) ([]*domain.Event, error) {
	if len(u.pending) == 0 {
		return nil, nil
	}
	last, err := u.Events().Last(ctx)
	if err != nil {
		return nil, fmt.Errorf("load last event: %w", err)
	}
	seq, prev := uint64(0), domain.GenesisHash
	if last != nil {
		seq, prev = last.Seq, last.Hash
	}

	out := make([]*domain.Event, 0, len(u.pending))
	for _, p := range u.pending {
		body, err := json.Marshal(p.payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", p.typ, err)
		}
		seq++
		e := &domain.Event{
			Seq:       seq,
			Type:      p.typ,
			Payload:   body,
			PrevHash:  prev,
			Hash:      domain.ChainHash(prev, p.typ, body),
			CreatedAt: u.now,
		}
		if err := u.Events().Append(ctx, e); err != nil {
			return nil, fmt.Errorf("append event %d: %w", seq, err)
		}
		prev = e.Hash
		out = append(out, e)
	}
	return out, nil
}

// execute runs fn in one store transaction. Any error discards every write,
// events included. Committed events are handed to the publisher afterwards.
func (c *Core) execute(ctx context.Context, op string, fn func(ctx context.Context, u *unit) error) error {
	var committed []*domain.Event
	locked := false
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx ports.StoreTx) error {
		u := &unit{StoreTx: tx, now: c.now().UTC()}
		if err := fn(ctx, u); err != nil {
			return err
		}
		events, err := u.flush(ctx)
		if err != nil {
			return err
		}
		if c.publisher != nil && len(events) > 0 && !locked {
			c.pubMu.Lock()
			locked = true
		}
		committed = events
		return nil
	})
	if locked {
		defer c.pubMu.Unlock()
	}
	if err != nil {
		return asAppError(op, err)
	}

	if c.publisher != nil && len(committed) > 0 {
		if err := c.publisher.Publish(ctx, committed); err != nil {
			c.log.Warn().Err(err).Str("op", op).Msg("event publish failed")
		}
	}
	return nil
}

// view runs a read-only fn against committed state.
func (c *Core) view(ctx context.Context, op string, fn func(ctx context.Context, tx ports.StoreTx) error) error {
	if err := c.store.View(ctx, fn); err != nil {
		return asAppError(op, err)
	}
	return nil
}

// asAppError passes AppErrors through and wraps anything else as SYS_001.
func asAppError(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

// --- tx-scoped ledger primitives shared by every service ---

func (u *unit) loadSettings(ctx context.Context) (*domain.LedgerSettings, error) {
	st, err := u.Settings().Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

func (u *unit) saveSettings(ctx context.Context, st *domain.LedgerSettings) error {
	if err := u.Settings().Save(ctx, st); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (u *unit) credit(ctx context.Context, to domain.Address, amount *uint256.Int) error {
	bal, err := u.Accounts().Balance(ctx, to)
	if err != nil {
		return fmt.Errorf("load balance: %w", err)
	}
	next, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return apperror.ErrInvalidAmount()
	}
	if err := u.Accounts().SetBalance(ctx, to, next); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

func (u *unit) debit(ctx context.Context, from domain.Address, amount *uint256.Int) error {
	bal, err := u.Accounts().Balance(ctx, from)
	if err != nil {
		return fmt.Errorf("load balance: %w", err)
	}
	if bal.Lt(amount) {
		return apperror.ErrInsufficientBalance()
	}
	if err := u.Accounts().SetBalance(ctx, from, new(uint256.Int).Sub(bal, amount)); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

// transfer moves amount between balances and emits Transfer.
func (u *unit) transfer(ctx context.Context, from, to domain.Address, amount *uint256.Int) error {
	if err := u.debit(ctx, from, amount); err != nil {
		return err
	}
	if err := u.credit(ctx, to, amount); err != nil {
		return err
	}
	u.emit(domain.EventTransfer, map[string]any{
		"from":   from,
		"to":     to,
		"amount": amount.Dec(),
	})
	return nil
}

// transferFrom spends spender's allowance on owner. Allowance is checked
// before balance.
func (u *unit) transferFrom(ctx context.Context, spender, owner, to domain.Address, amount *uint256.Int) error {
	allowance, err := u.Accounts().Allowance(ctx, owner, spender)
	if err != nil {
		return fmt.Errorf("load allowance: %w", err)
	}
	if allowance.Lt(amount) {
		return apperror.ErrInsufficientAllowance()
	}
	bal, err := u.Accounts().Balance(ctx, owner)
	if err != nil {
		return fmt.Errorf("load balance: %w", err)
	}
	if bal.Lt(amount) {
		return apperror.ErrInsufficientBalance()
	}
	if err := u.Accounts().SetAllowance(ctx, owner, spender, new(uint256.Int).Sub(allowance, amount)); err != nil {
		return fmt.Errorf("set allowance: %w", err)
	}
	return u.transfer(ctx, owner, to, amount)
}

// recordOutcome applies one finalized order to a credential.
func (u *unit) recordOutcome(ctx context.Context, credentialID uint64, outcome ports.Outcome) error {
	cred, err := u.Credentials().GetByID(ctx, credentialID)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return apperror.ErrCredentialNotFound()
	}
	if outcome.Rating != 0 && (outcome.Rating < domain.MinRating || outcome.Rating > domain.MaxRating) {
		return apperror.ErrInvalidRating()
	}

	cred.TotalJobs++
	if outcome.Success {
		cred.SuccessfulJobs++
		earned, overflow := new(uint256.Int).AddOverflow(domain.AmountOrZero(cred.TotalEarned), domain.AmountOrZero(outcome.Amount))
		if overflow {
			return apperror.ErrInvalidAmount()
		}
		cred.TotalEarned = earned
		if outcome.Rating != 0 {
			cred.RatingSum += uint64(outcome.Rating)
			cred.RatingCount++
		}
	}
	if err := u.Credentials().Update(ctx, cred); err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	return nil
}

// Bootstrap seeds a fresh ledger: the configured fee and the genesis mint.
// It does nothing once the event log has entries.
func (c *Core) Bootstrap(ctx context.Context, feeBps uint32, initialSupply *uint256.Int) error {
	if feeBps > domain.BpsDenominator {
		return apperror.ErrInvalidFee()
	}
	return c.execute(ctx, "bootstrap", func(ctx context.Context, u *unit) error {
		last, err := u.Events().Last(ctx)
		if err != nil {
			return fmt.Errorf("load last event: %w", err)
		}
		if last != nil {
			return nil
		}

		st, err := u.loadSettings(ctx)
		if err != nil {
			return err
		}
		st.FeeBps = feeBps
		u.emit(domain.EventFeeUpdated, map[string]any{"fee_bps": feeBps})

		if initialSupply != nil && !initialSupply.IsZero() {
			if c.roles.Minter.IsZero() {
				return apperror.ErrNotMinter()
			}
			supply, overflow := new(uint256.Int).AddOverflow(st.TotalSupply, initialSupply)
			if overflow {
				return apperror.ErrInvalidAmount()
			}
			st.TotalSupply = supply
			if err := u.credit(ctx, c.roles.Minter, initialSupply); err != nil {
				return err
			}
			u.emit(domain.EventMinted, map[string]any{
				"to":     c.roles.Minter,
				"amount": initialSupply.Dec(),
			})
		}
		if err := u.saveSettings(ctx, st); err != nil {
			return err
		}
		c.log.Info().Uint32("fee_bps", feeBps).Str("initial_supply", domain.AmountString(initialSupply)).Msg("ledger bootstrapped")
		return nil
	})
}
