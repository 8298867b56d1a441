package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports/mocks"
	"gig-escrow/pkg/apperror"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEscrowService_HappyPath(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))

	order := m.placedOrder(t, gig)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "50", order.Price.Dec())
	assert.Equal(t, testSeller, order.Seller)
	assert.Equal(t, "50", m.balance(t, testEscrow).Dec(), "escrow holds the payment")
	assert.True(t, m.balance(t, testBuyer).IsZero())

	order, err := m.escrow.DeliverWork(ctx, testSeller, order.ID, "ipfs://bafy-logo")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, order.Status)
	assert.Equal(t, "ipfs://bafy-logo", order.DeliverableRef)

	order, err = m.escrow.ApproveOrder(ctx, testBuyer, order.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusApproved, order.Status)
	assert.Equal(t, uint8(5), order.Rating)

	// 50 * 250 / 10000 = 1.25 -> 1
	assert.Equal(t, "1", order.FeePaid.Dec())
	assert.Equal(t, "49", order.SellerPayout.Dec())
	assert.Equal(t, "49", m.balance(t, testSeller).Dec())
	assert.Equal(t, "1", m.balance(t, testTreasury).Dec())
	assert.True(t, m.balance(t, testEscrow).IsZero())

	cred, err := m.reputation.GetCredential(ctx, testSeller)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cred.TotalJobs)
	assert.Equal(t, uint64(1), cred.SuccessfulJobs)
	assert.Equal(t, uint64(5), cred.RatingSum)
	assert.Equal(t, uint64(1), cred.RatingCount)
	assert.Equal(t, "49", cred.TotalEarned.Dec())
	m.assertConserved(t)
}

func TestEscrowService_FeeCorrectness(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, ether(50))
	order := m.deliveredOrder(t, gig)

	order, err := m.escrow.ApproveOrder(ctx, testBuyer, order.ID, 4)
	require.NoError(t, err)

	price := ether(50)
	wantFee := new(uint256.Int).Div(new(uint256.Int).Mul(price, uint256.NewInt(25)), uint256.NewInt(1000))
	assert.Equal(t, "1250000000000000000", wantFee.Dec())
	assert.Equal(t, wantFee.Dec(), order.FeePaid.Dec())
	assert.Equal(t, wantFee.Dec(), m.balance(t, testTreasury).Dec())
	assert.Equal(t, new(uint256.Int).Sub(price, wantFee).Dec(), m.balance(t, testSeller).Dec())
	m.assertConserved(t)
}

func TestEscrowService_DisputeForBuyer(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))
	order := m.deliveredOrder(t, gig)

	order, err := m.escrow.RejectOrder(ctx, testBuyer, order.ID, "wrong colours")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRejected, order.Status)
	assert.Equal(t, "wrong colours", order.RejectReason)
	assert.Equal(t, "50", m.balance(t, testEscrow).Dec(), "funds stay escrowed during a dispute")

	order, err = m.escrow.ResolveDispute(ctx, testAdmin, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusResolvedForBuyer, order.Status)
	assert.Equal(t, "50", m.balance(t, testBuyer).Dec(), "full refund")
	assert.True(t, m.balance(t, testSeller).IsZero())
	assert.True(t, m.balance(t, testTreasury).IsZero())
	assert.True(t, order.FeePaid.IsZero())

	cred, err := m.reputation.GetCredential(ctx, testSeller)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cred.TotalJobs)
	assert.Zero(t, cred.SuccessfulJobs)
	assert.Zero(t, cred.RatingCount)
	m.assertConserved(t)
}

func TestEscrowService_DisputeForSeller_NoRating(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(400))
	order := m.deliveredOrder(t, gig)
	_, err := m.escrow.RejectOrder(ctx, testBuyer, order.ID, "late")
	require.NoError(t, err)

	order, err = m.escrow.ResolveDispute(ctx, testAdmin, order.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusResolvedForSeller, order.Status)
	assert.Equal(t, "10", m.balance(t, testTreasury).Dec())
	assert.Equal(t, "390", m.balance(t, testSeller).Dec())
	assert.Zero(t, order.Rating)

	cred, err := m.reputation.GetCredential(ctx, testSeller)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cred.SuccessfulJobs)
	assert.Zero(t, cred.RatingSum, "arbitration adds no rating")
	assert.Zero(t, cred.RatingCount)
	m.assertConserved(t)
}

func TestEscrowService_FeeChangeAppliesToOpenDispute(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(1000))
	order := m.deliveredOrder(t, gig)
	_, err := m.escrow.RejectOrder(ctx, testBuyer, order.ID, "")
	require.NoError(t, err)

	require.NoError(t, m.fees.SetPlatformFee(ctx, testAdmin, 1000))

	order, err = m.escrow.ResolveDispute(ctx, testAdmin, order.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "100", order.FeePaid.Dec())
	assert.Equal(t, "900", m.balance(t, testSeller).Dec())
}

func TestEscrowService_InsufficientAllowance(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))
	m.fund(t, testBuyer, tokens(50))
	require.NoError(t, m.ledger.Approve(ctx, testBuyer, testEscrow, tokens(10)))

	_, err := m.escrow.PlaceOrder(ctx, testBuyer, gig.ID, "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindInsufficientAllowance, apperror.KindOf(err))

	count, err := m.escrow.OrderCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "no order is created")
	assert.Equal(t, "50", m.balance(t, testBuyer).Dec())
	assert.True(t, m.balance(t, testEscrow).IsZero())
	left, err := m.ledger.Allowance(ctx, testBuyer, testEscrow)
	require.NoError(t, err)
	assert.Equal(t, "10", left.Dec())
}

func TestEscrowService_InsufficientBalance(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))
	m.fund(t, testBuyer, tokens(20))
	require.NoError(t, m.ledger.Approve(ctx, testBuyer, testEscrow, tokens(50)))

	_, err := m.escrow.PlaceOrder(ctx, testBuyer, gig.ID, "")
	assert.Equal(t, apperror.KindInsufficientFunds, apperror.KindOf(err))
	left, _ := m.ledger.Allowance(ctx, testBuyer, testEscrow)
	assert.Equal(t, "50", left.Dec(), "allowance is untouched on failure")
}

func TestEscrowService_PlaceOrder_Rejections(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))
	inactive := m.listedGig(t, tokens(50))
	_, err := m.gigs.ToggleActive(ctx, testSeller, inactive.ID)
	require.NoError(t, err)
	m.fund(t, testSeller, tokens(100))
	require.NoError(t, m.ledger.Approve(ctx, testSeller, testEscrow, tokens(100)))

	tests := []struct {
		name   string
		caller domain.Address
		gigID  uint64
		code   string
	}{
		{"unknown gig", testBuyer, 99, "GIG_001"},
		{"zero gig id", testBuyer, 0, "GIG_001"},
		{"inactive gig", testBuyer, inactive.ID, "GIG_004"},
		{"seller buys own gig", testSeller, gig.ID, "ORD_006"},
		{"escrow cannot buy", testEscrow, gig.ID, "ORD_006"},
		{"treasury cannot buy", testTreasury, gig.ID, "ORD_006"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.escrow.PlaceOrder(ctx, tt.caller, tt.gigID, "")
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}
	assert.Equal(t, "100", m.balance(t, testSeller).Dec())
}

func TestEscrowService_Authorization(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))
	order := m.placedOrder(t, gig)

	_, err := m.escrow.DeliverWork(ctx, testBuyer, order.ID, "ref")
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	_, err = m.escrow.DeliverWork(ctx, testStranger, order.ID, "ref")
	assert.True(t, apperror.Is(err, "ORD_003"))

	_, err = m.escrow.DeliverWork(ctx, testSeller, order.ID, "ref")
	require.NoError(t, err)

	for _, caller := range []domain.Address{testSeller, testStranger, testAdmin} {
		_, err = m.escrow.ApproveOrder(ctx, caller, order.ID, 5)
		assert.True(t, apperror.Is(err, "ORD_002"), "approve by %s", caller)
		_, err = m.escrow.RejectOrder(ctx, caller, order.ID, "no")
		assert.True(t, apperror.Is(err, "ORD_002"), "reject by %s", caller)
	}

	_, err = m.escrow.RejectOrder(ctx, testBuyer, order.ID, "no")
	require.NoError(t, err)
	for _, caller := range []domain.Address{testBuyer, testSeller, testEscrow} {
		_, err = m.escrow.ResolveDispute(ctx, caller, order.ID, true)
		assert.True(t, apperror.Is(err, "ADM_001"), "resolve by %s", caller)
	}

	got, err := m.escrow.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRejected, got.Status)
}

func TestEscrowService_NoDoubleRelease(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))

	approved := m.deliveredOrder(t, gig)
	_, err := m.escrow.ApproveOrder(ctx, testBuyer, approved.ID, 5)
	require.NoError(t, err)
	_, err = m.escrow.ApproveOrder(ctx, testBuyer, approved.ID, 5)
	assert.True(t, apperror.Is(err, "ORD_004"))
	_, err = m.escrow.RejectOrder(ctx, testBuyer, approved.ID, "")
	assert.True(t, apperror.Is(err, "ORD_004"))
	_, err = m.escrow.ResolveDispute(ctx, testAdmin, approved.ID, true)
	assert.True(t, apperror.Is(err, "ORD_004"))

	disputed := m.deliveredOrder(t, gig)
	_, err = m.escrow.RejectOrder(ctx, testBuyer, disputed.ID, "")
	require.NoError(t, err)
	_, err = m.escrow.ResolveDispute(ctx, testAdmin, disputed.ID, false)
	require.NoError(t, err)
	_, err = m.escrow.ResolveDispute(ctx, testAdmin, disputed.ID, true)
	assert.Equal(t, apperror.KindWrongState, apperror.KindOf(err))

	assert.Equal(t, "49", m.balance(t, testSeller).Dec())
	assert.Equal(t, "50", m.balance(t, testBuyer).Dec())
	assert.True(t, m.balance(t, testEscrow).IsZero())
	m.assertConserved(t)
}

func TestEscrowService_WrongStateTransitions(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))
	order := m.placedOrder(t, gig)

	_, err := m.escrow.ApproveOrder(ctx, testBuyer, order.ID, 5)
	assert.True(t, apperror.Is(err, "ORD_004"), "approve before delivery")
	_, err = m.escrow.RejectOrder(ctx, testBuyer, order.ID, "")
	assert.True(t, apperror.Is(err, "ORD_004"), "reject before delivery")
	_, err = m.escrow.ResolveDispute(ctx, testAdmin, order.ID, false)
	assert.True(t, apperror.Is(err, "ORD_004"), "resolve without dispute")

	_, err = m.escrow.DeliverWork(ctx, testSeller, order.ID, "ref")
	require.NoError(t, err)
	_, err = m.escrow.DeliverWork(ctx, testSeller, order.ID, "ref-2")
	assert.True(t, apperror.Is(err, "ORD_004"), "deliver twice")

	got, err := m.escrow.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ref", got.DeliverableRef)
}

func TestEscrowService_ArgumentValidation(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))
	order := m.placedOrder(t, gig)

	_, err := m.escrow.DeliverWork(ctx, testSeller, order.ID, "   ")
	assert.Equal(t, apperror.KindInvalidArgument, apperror.KindOf(err))

	_, err = m.escrow.DeliverWork(ctx, testSeller, order.ID, "ref")
	require.NoError(t, err)
	for _, rating := range []int{0, 6, -1} {
		_, err = m.escrow.ApproveOrder(ctx, testBuyer, order.ID, rating)
		assert.True(t, apperror.Is(err, "ORD_005"), "rating %d", rating)
	}

	_, err = m.escrow.GetOrder(ctx, 404)
	assert.True(t, apperror.Is(err, "ORD_001"))
	_, err = m.escrow.DeliverWork(ctx, testSeller, 404, "ref")
	assert.True(t, apperror.Is(err, "ORD_001"))
}

func TestEscrowService_PriceSnapshot(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))
	order := m.placedOrder(t, gig)

	// Deactivating the gig does not affect an open order.
	_, err := m.gigs.ToggleActive(ctx, testSeller, gig.ID)
	require.NoError(t, err)
	_, err = m.escrow.DeliverWork(ctx, testSeller, order.ID, "ref")
	require.NoError(t, err)
	order, err = m.escrow.ApproveOrder(ctx, testBuyer, order.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "50", order.Price.Dec())
}

func TestEscrowService_ListOrders(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(10))
	first := m.deliveredOrder(t, gig)
	m.placedOrder(t, gig)
	_, err := m.escrow.ApproveOrder(ctx, testBuyer, first.ID, 5)
	require.NoError(t, err)

	byBuyer, total, err := m.escrow.ListOrders(ctx, domain.OrderFilter{Buyer: testBuyer}, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, uint64(1), byBuyer[0].ID)

	pending, total, err := m.escrow.ListOrders(ctx, domain.OrderFilter{Seller: testSeller, Status: domain.OrderStatusPending}, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, uint64(2), pending[0].ID)

	_, _, err = m.escrow.ListOrders(ctx, domain.OrderFilter{Status: "CANCELLED"}, domain.Page{})
	assert.Equal(t, apperror.KindInvalidArgument, apperror.KindOf(err))

	n, err := m.escrow.OrderCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestEscrowService_ConcurrentApprovalsReleaseOnce(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(1000))
	order := m.deliveredOrder(t, gig)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.escrow.ApproveOrder(ctx, testBuyer, order.ID, 5); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, "975", m.balance(t, testSeller).Dec())
	m.assertConserved(t)
}

func TestEscrowService_EventsAndChain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := mocks.NewMockEventPublisher(ctrl)
	var published []domain.EventType
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(
		func(_ context.Context, events []*domain.Event) error {
			for _, e := range events {
				published = append(published, e.Type)
			}
			return errors.New("receiver down")
		})

	m := newMarketWithPublisher(t, pub)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))
	order := m.deliveredOrder(t, gig)
	_, err := m.escrow.ApproveOrder(ctx, testBuyer, order.ID, 5)
	require.NoError(t, err, "publish failures never fail the call")

	assert.Equal(t, []domain.EventType{
		domain.EventCredentialMinted,
		domain.EventGigCreated,
		domain.EventMinted,
		domain.EventApproval,
		domain.EventTransfer, // buyer -> escrow
		domain.EventOrderPlaced,
		domain.EventWorkDelivered,
		domain.EventTransfer, // escrow -> treasury
		domain.EventTransfer, // escrow -> seller
		domain.EventOrderApproved,
	}, published)

	n, err := m.reporting.VerifyEventChain(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(published)), n)
}

func TestEscrowService_ConcurrentCallsPublishInChainOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := mocks.NewMockEventPublisher(ctrl)
	var (
		mu   sync.Mutex
		seqs []uint64
	)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(
		func(_ context.Context, events []*domain.Event) error {
			mu.Lock()
			defer mu.Unlock()
			for _, e := range events {
				seqs = append(seqs, e.Seq)
			}
			return nil
		})

	m := newMarketWithPublisher(t, pub)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.ledger.Mint(ctx, testMinter, testBuyer, tokens(1)))
		}()
	}
	wg.Wait()

	require.Len(t, seqs, 20)
	for i := 1; i < len(seqs); i++ {
		assert.Equal(t, seqs[i-1]+1, seqs[i], "publish order must follow the event chain")
	}
}

func TestEscrowService_FailedCallAppendsNoEvents(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	gig := m.listedGig(t, tokens(50))
	m.fund(t, testBuyer, tokens(5))
	require.NoError(t, m.ledger.Approve(ctx, testBuyer, testEscrow, tokens(50)))

	before, err := m.reporting.ListEvents(ctx, 0, 0)
	require.NoError(t, err)

	_, err = m.escrow.PlaceOrder(ctx, testBuyer, gig.ID, "")
	require.Error(t, err)

	after, err := m.reporting.ListEvents(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}
