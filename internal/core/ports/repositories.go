package ports

import (
	"context"

	"gig-escrow/internal/core/domain"

	"github.com/holiman/uint256"
)

// Store runs units of work against the ledger state.
// WithinTx serializes writers; either every write in fn commits or none does.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error
}

// StoreTx exposes the repositories bound to one unit of work.
type StoreTx interface {
	Accounts() AccountRepository
	Credentials() CredentialRepository
	Gigs() GigRepository
	Orders() OrderRepository
	Settings() SettingsRepository
	Events() EventRepository
}

// AccountRepository holds balances and allowances. Missing entries read as zero.
type AccountRepository interface {
	Balance(ctx context.Context, owner domain.Address) (*uint256.Int, error)
	SetBalance(ctx context.Context, owner domain.Address, amount *uint256.Int) error
	Allowance(ctx context.Context, owner, spender domain.Address) (*uint256.Int, error)
	SetAllowance(ctx context.Context, owner, spender domain.Address, amount *uint256.Int) error
}

// CredentialRepository persists seller credentials. Getters return nil, nil when absent.
type CredentialRepository interface {
	Create(ctx context.Context, c *domain.Credential) error
	GetByID(ctx context.Context, id uint64) (*domain.Credential, error)
	GetByHolder(ctx context.Context, holder domain.Address) (*domain.Credential, error)
	Update(ctx context.Context, c *domain.Credential) error
}

// GigRepository persists gigs. Getters return nil, nil when absent.
type GigRepository interface {
	Create(ctx context.Context, g *domain.Gig) error
	GetByID(ctx context.Context, id uint64) (*domain.Gig, error)
	Update(ctx context.Context, g *domain.Gig) error
	List(ctx context.Context, filter domain.GigFilter, page domain.Page) ([]*domain.Gig, int64, error)
}

// OrderRepository persists orders. Getters return nil, nil when absent.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id uint64) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	List(ctx context.Context, filter domain.OrderFilter, page domain.Page) ([]*domain.Order, int64, error)
	SellerStats(ctx context.Context, seller domain.Address) (*OrderStats, error)
}

// OrderStats aggregates a seller's orders for analytics.
type OrderStats struct {
	Total     int64
	Pending   int64 // PENDING or DELIVERED
	Completed int64 // APPROVED or RESOLVED_FOR_SELLER
	Disputed  int64 // REJECTED
	Refunded  int64 // RESOLVED_FOR_BUYER
	Earnings  *uint256.Int
	FeesPaid  *uint256.Int
}

// SettingsRepository loads and saves the single LedgerSettings row.
type SettingsRepository interface {
	Load(ctx context.Context) (*domain.LedgerSettings, error)
	Save(ctx context.Context, s *domain.LedgerSettings) error
}

// EventRepository is the append-only event log.
type EventRepository interface {
	// Last returns the newest event or nil when the log is empty.
	Last(ctx context.Context) (*domain.Event, error)
	Append(ctx context.Context, e *domain.Event) error
	// List returns events with Seq > after in ascending order.
	List(ctx context.Context, after uint64, limit int) ([]*domain.Event, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// WebhookRepository persists webhook delivery attempts.
type WebhookRepository interface {
	Create(ctx context.Context, log *domain.WebhookDeliveryLog) error
	Update(ctx context.Context, log *domain.WebhookDeliveryLog) error
	GetByEventSeq(ctx context.Context, seq uint64) ([]domain.WebhookDeliveryLog, error)
}
