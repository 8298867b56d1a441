package ports

import (
	"context"
	"time"

	"gig-escrow/internal/core/domain"

	"github.com/holiman/uint256"
)

// DeliverySigner signs outbound event deliveries and checks them on receipt.
type DeliverySigner interface {
	Sign(secret string, timestamp int64, body []byte) string
	Verify(secret string, timestamp int64, body []byte, signature string, now time.Time) error
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(identity domain.Address, role string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Identity domain.Address
	Role     string
}

// IdempotencyCache stores finished responses keyed by Idempotency-Key.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ClaimStore grants one holder at a time for a key.
type ClaimStore interface {
	// Claim atomically takes key if free. Returns false if someone already holds it.
	Claim(ctx context.Context, scope string, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, scope string, key string) error
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// EventPublisher forwards committed events outside the process. Delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, events []*domain.Event) error
}

// AuditService records successful write requests.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// TokenLedger is the fungible token: balances, allowances, supply.
type TokenLedger interface {
	Mint(ctx context.Context, caller, to domain.Address, amount *uint256.Int) error
	Transfer(ctx context.Context, caller, to domain.Address, amount *uint256.Int) error
	Approve(ctx context.Context, caller, spender domain.Address, amount *uint256.Int) error
	TransferFrom(ctx context.Context, caller, owner, to domain.Address, amount *uint256.Int) error
	BalanceOf(ctx context.Context, owner domain.Address) (*uint256.Int, error)
	Allowance(ctx context.Context, owner, spender domain.Address) (*uint256.Int, error)
	TotalSupply(ctx context.Context) (*uint256.Int, error)
}

// ReputationRegistry manages non-transferable seller credentials.
type ReputationRegistry interface {
	MintCredential(ctx context.Context, caller domain.Address) (*domain.Credential, error)
	HasCredential(ctx context.Context, holder domain.Address) (bool, error)
	GetCredential(ctx context.Context, holder domain.Address) (*domain.Credential, error)
	GetCredentialByID(ctx context.Context, id uint64) (*domain.Credential, error)
	RecordOutcome(ctx context.Context, caller domain.Address, credentialID uint64, outcome Outcome) error
}

// Outcome is the result of one finalized order, as seen by the seller's credential.
type Outcome struct {
	Success bool
	Amount  *uint256.Int // seller payout, counted into TotalEarned on success
	Rating  uint8        // 0 means no rating contribution
}

// GigRegistry publishes and looks up gigs.
type GigRegistry interface {
	CreateGig(ctx context.Context, caller domain.Address, req CreateGigRequest) (*domain.Gig, error)
	GetGig(ctx context.Context, id uint64) (*domain.Gig, error)
	ToggleActive(ctx context.Context, caller domain.Address, id uint64) (*domain.Gig, error)
	ListGigs(ctx context.Context, filter domain.GigFilter, page domain.Page) ([]*domain.Gig, int64, error)
	GigCount(ctx context.Context) (uint64, error)
}

// CreateGigRequest holds validated input for gig creation.
type CreateGigRequest struct {
	Title             string
	Description       string
	AIModel           string
	Price             *uint256.Int
	DeliveryTimeHours uint32
}

// OrderEscrow drives the order lifecycle and every escrow transfer.
type OrderEscrow interface {
	PlaceOrder(ctx context.Context, caller domain.Address, gigID uint64, requirements string) (*domain.Order, error)
	DeliverWork(ctx context.Context, caller domain.Address, orderID uint64, deliverableRef string) (*domain.Order, error)
	ApproveOrder(ctx context.Context, caller domain.Address, orderID uint64, rating int) (*domain.Order, error)
	RejectOrder(ctx context.Context, caller domain.Address, orderID uint64, reason string) (*domain.Order, error)
	ResolveDispute(ctx context.Context, caller domain.Address, orderID uint64, favorSeller bool) (*domain.Order, error)
	GetOrder(ctx context.Context, id uint64) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter, page domain.Page) ([]*domain.Order, int64, error)
	OrderCount(ctx context.Context) (uint64, error)
}

// FeePolicy owns the platform fee rate.
type FeePolicy interface {
	PlatformFee(ctx context.Context) (uint32, error)
	SetPlatformFee(ctx context.Context, caller domain.Address, bps uint32) error
}

// ReportingService serves read-only analytics and the event log.
type ReportingService interface {
	SellerStats(ctx context.Context, seller domain.Address) (*SellerStats, error)
	ListEvents(ctx context.Context, after uint64, limit int) ([]*domain.Event, error)
	VerifyEventChain(ctx context.Context) (uint64, error)
}

// SellerStats is the analytics view of one seller.
type SellerStats struct {
	Seller     domain.Address
	Credential *domain.Credential // nil when the seller has none
	TotalGigs  int64
	ActiveGigs int64
	Orders     OrderStats
}
