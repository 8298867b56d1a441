package service

import (
	"context"
	"io"
	"testing"
	"time"

	"gig-escrow/internal/adapter/storage/memory"
	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	testAdmin    = domain.MustParseAddress("0x000000000000000000000000000000000000ad01")
	testMinter   = domain.MustParseAddress("0x000000000000000000000000000000000000a1e7")
	testEscrow   = domain.MustParseAddress("0x00000000000000000000000000000000000e5c70")
	testTreasury = domain.MustParseAddress("0x0000000000000000000000000000000000007ea5")
	testSeller   = domain.MustParseAddress("0x5e11e70000000000000000000000000000000001")
	testBuyer    = domain.MustParseAddress("0xb0e7000000000000000000000000000000000002")
	testStranger = domain.MustParseAddress("0x5a7a000000000000000000000000000000000003")

	testRoles = domain.Roles{
		Admin:    testAdmin,
		Minter:   testMinter,
		Escrow:   testEscrow,
		Treasury: testTreasury,
	}
	testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// market wires every ledger-backed service over one fresh memory store.
type market struct {
	store      *memory.Store
	core       *Core
	ledger     *LedgerServiceImpl
	reputation *ReputationServiceImpl
	gigs       *GigServiceImpl
	escrow     *EscrowServiceImpl
	fees       *FeePolicyImpl
	reporting  ports.ReportingService
}

func newMarket(t *testing.T) *market {
	t.Helper()
	return newMarketWithPublisher(t, nil)
}

func newMarketWithPublisher(t *testing.T, pub ports.EventPublisher) *market {
	t.Helper()
	store := memory.NewStore()
	log := newTestLogger()
	core := NewCore(store, testRoles, pub, log)
	core.SetNowFunc(func() time.Time { return testNow })
	return &market{
		store:      store,
		core:       core,
		ledger:     NewLedgerService(core, log),
		reputation: NewReputationService(core, log),
		gigs:       NewGigService(core, log),
		escrow:     NewEscrowService(core, log),
		fees:       NewFeePolicy(core, log),
		reporting:  NewReportingService(store),
	}
}

func tokens(n uint64) *uint256.Int {
	return uint256.NewInt(n)
}

func ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
}

func (m *market) fund(t *testing.T, who domain.Address, amount *uint256.Int) {
	t.Helper()
	require.NoError(t, m.ledger.Mint(context.Background(), testMinter, who, amount))
}

func (m *market) balance(t *testing.T, who domain.Address) *uint256.Int {
	t.Helper()
	bal, err := m.ledger.BalanceOf(context.Background(), who)
	require.NoError(t, err)
	return bal
}

// listedGig mints the seller's credential and publishes one active gig.
func (m *market) listedGig(t *testing.T, price *uint256.Int) *domain.Gig {
	t.Helper()
	ctx := context.Background()
	if _, err := m.reputation.GetCredential(ctx, testSeller); err != nil {
		_, err := m.reputation.MintCredential(ctx, testSeller)
		require.NoError(t, err)
	}
	gig, err := m.gigs.CreateGig(ctx, testSeller, ports.CreateGigRequest{
		Title:             "Logo generation",
		Description:       "Three SDXL logo variants",
		AIModel:           "sdxl",
		Price:             price,
		DeliveryTimeHours: 24,
	})
	require.NoError(t, err)
	return gig
}

// placedOrder funds the buyer, approves the escrow and places an order on gig.
func (m *market) placedOrder(t *testing.T, gig *domain.Gig) *domain.Order {
	t.Helper()
	ctx := context.Background()
	m.fund(t, testBuyer, gig.Price)
	require.NoError(t, m.ledger.Approve(ctx, testBuyer, testEscrow, gig.Price))
	order, err := m.escrow.PlaceOrder(ctx, testBuyer, gig.ID, "make it blue")
	require.NoError(t, err)
	return order
}

// deliveredOrder runs placedOrder then DeliverWork.
func (m *market) deliveredOrder(t *testing.T, gig *domain.Gig) *domain.Order {
	t.Helper()
	order := m.placedOrder(t, gig)
	order, err := m.escrow.DeliverWork(context.Background(), testSeller, order.ID, "ipfs://bafy-logo")
	require.NoError(t, err)
	return order
}

// assertConserved checks totalSupply == sum of balances of every known identity.
func (m *market) assertConserved(t *testing.T, extra ...domain.Address) {
	t.Helper()
	supply, err := m.ledger.TotalSupply(context.Background())
	require.NoError(t, err)

	sum := new(uint256.Int)
	seen := map[domain.Address]bool{}
	for _, a := range append([]domain.Address{testAdmin, testMinter, testEscrow, testTreasury, testSeller, testBuyer, testStranger}, extra...) {
		if seen[a] {
			continue
		}
		seen[a] = true
		sum.Add(sum, m.balance(t, a))
	}
	require.Equal(t, supply.Dec(), sum.Dec(), "total supply must equal the sum of balances")
}
