package service

import (
	"context"
	"fmt"
	"strings"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// EscrowServiceImpl implements ports.OrderEscrow.
//
// Funds for an open order sit on the escrow identity's balance. They leave it
// exactly once: on approval, on dispute resolution for the seller (fee split)
// or on dispute resolution for the buyer (full refund).
type EscrowServiceImpl struct {
	core *Core
	log  zerolog.Logger
}

// NewEscrowService creates a new EscrowServiceImpl.
func NewEscrowService(core *Core, log zerolog.Logger) *EscrowServiceImpl {
	return &EscrowServiceImpl{core: core, log: log}
}

// PlaceOrder pulls gig.Price from the buyer into escrow using the allowance
// the buyer granted the escrow identity.
func (s *EscrowServiceImpl) PlaceOrder(ctx context.Context, caller domain.Address, gigID uint64, requirements string) (*domain.Order, error) {
	if caller.IsZero() {
		return nil, apperror.ErrInvalidToken()
	}
	if s.core.roles.Privileged(caller) {
		return nil, apperror.ErrInvalidOrder("System accounts cannot place orders")
	}
	if gigID == 0 {
		return nil, apperror.ErrGigNotFound()
	}

	var order *domain.Order
	err := s.core.execute(ctx, "place_order", func(ctx context.Context, u *unit) error {
		gig, err := u.Gigs().GetByID(ctx, gigID)
		if err != nil {
			return fmt.Errorf("load gig: %w", err)
		}
		if gig == nil {
			return apperror.ErrGigNotFound()
		}
		if !gig.IsActive {
			return apperror.ErrGigInactive()
		}
		if gig.Seller == caller {
			return apperror.ErrInvalidOrder("Sellers cannot order their own gig")
		}

		if err := u.transferFrom(ctx, s.core.roles.Escrow, caller, s.core.roles.Escrow, gig.Price); err != nil {
			return err
		}

		st, err := u.loadSettings(ctx)
		if err != nil {
			return err
		}
		st.OrderSeq++
		order = &domain.Order{
			ID:           st.OrderSeq,
			GigID:        gig.ID,
			Buyer:        caller,
			Seller:       gig.Seller,
			Price:        gig.Price.Clone(),
			Requirements: requirements,
			Status:       domain.OrderStatusPending,
			FeePaid:      domain.Zero(),
			SellerPayout: domain.Zero(),
			CreatedAt:    u.now,
			UpdatedAt:    u.now,
		}
		if err := u.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := u.saveSettings(ctx, st); err != nil {
			return err
		}
		u.emit(domain.EventOrderPlaced, map[string]any{
			"order_id": order.ID,
			"gig_id":   gig.ID,
			"buyer":    caller,
			"seller":   gig.Seller,
			"price":    order.Price.Dec(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint64("order_id", order.ID).
		Uint64("gig_id", gigID).
		Str("buyer", caller.String()).
		Str("price", order.Price.Dec()).
		Msg("order placed")
	return order, nil
}

// DeliverWork records the deliverable reference. No funds move.
func (s *EscrowServiceImpl) DeliverWork(ctx context.Context, caller domain.Address, orderID uint64, deliverableRef string) (*domain.Order, error) {
	deliverableRef = strings.TrimSpace(deliverableRef)

	order, err := s.transition(ctx, "deliver_work", orderID, func(ctx context.Context, u *unit, o *domain.Order) error {
		if o.Seller != caller {
			return apperror.ErrNotOrderSeller()
		}
		if err := requireTransition(o, domain.OrderStatusDelivered); err != nil {
			return err
		}
		if deliverableRef == "" {
			return apperror.ErrInvalidOrder("Deliverable reference is required")
		}
		o.DeliverableRef = deliverableRef
		u.emit(domain.EventWorkDelivered, map[string]any{
			"order_id":        o.ID,
			"deliverable_ref": deliverableRef,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint64("order_id", orderID).Msg("work delivered")
	return order, nil
}

// ApproveOrder releases escrow to the seller minus the platform fee and
// records a rated success on the seller's credential.
func (s *EscrowServiceImpl) ApproveOrder(ctx context.Context, caller domain.Address, orderID uint64, rating int) (*domain.Order, error) {
	order, err := s.transition(ctx, "approve_order", orderID, func(ctx context.Context, u *unit, o *domain.Order) error {
		if o.Buyer != caller {
			return apperror.ErrNotOrderBuyer()
		}
		if err := requireTransition(o, domain.OrderStatusApproved); err != nil {
			return err
		}
		if rating < domain.MinRating || rating > domain.MaxRating {
			return apperror.ErrInvalidRating()
		}
		o.Rating = uint8(rating)
		if err := s.release(ctx, u, o, uint8(rating)); err != nil {
			return err
		}
		u.emit(domain.EventOrderApproved, map[string]any{
			"order_id":      o.ID,
			"rating":        rating,
			"fee":           o.FeePaid.Dec(),
			"seller_payout": o.SellerPayout.Dec(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint64("order_id", orderID).
		Int("rating", rating).
		Str("fee", order.FeePaid.Dec()).
		Str("seller_payout", order.SellerPayout.Dec()).
		Msg("order approved")
	return order, nil
}

// RejectOrder opens a dispute. Funds stay in escrow.
func (s *EscrowServiceImpl) RejectOrder(ctx context.Context, caller domain.Address, orderID uint64, reason string) (*domain.Order, error) {
	order, err := s.transition(ctx, "reject_order", orderID, func(ctx context.Context, u *unit, o *domain.Order) error {
		if o.Buyer != caller {
			return apperror.ErrNotOrderBuyer()
		}
		if err := requireTransition(o, domain.OrderStatusRejected); err != nil {
			return err
		}
		o.RejectReason = reason
		u.emit(domain.EventOrderRejected, map[string]any{
			"order_id": o.ID,
			"reason":   reason,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint64("order_id", orderID).Msg("order rejected, dispute opened")
	return order, nil
}

// ResolveDispute settles a rejected order. Admin only.
// favorSeller pays out like an approval but adds no rating; otherwise the
// buyer is refunded in full and the seller's credential records a failure.
func (s *EscrowServiceImpl) ResolveDispute(ctx context.Context, caller domain.Address, orderID uint64, favorSeller bool) (*domain.Order, error) {
	if caller.IsZero() || caller != s.core.roles.Admin {
		return nil, apperror.ErrNotAdmin()
	}

	next := domain.OrderStatusResolvedForBuyer
	if favorSeller {
		next = domain.OrderStatusResolvedForSeller
	}

	order, err := s.transition(ctx, "resolve_dispute", orderID, func(ctx context.Context, u *unit, o *domain.Order) error {
		if err := requireTransition(o, next); err != nil {
			return err
		}
		if favorSeller {
			if err := s.release(ctx, u, o, 0); err != nil {
				return err
			}
		} else {
			if err := u.transfer(ctx, s.core.roles.Escrow, o.Buyer, o.Price); err != nil {
				return err
			}
			if err := s.recordSellerOutcome(ctx, u, o, ports.Outcome{Success: false}); err != nil {
				return err
			}
		}
		u.emit(domain.EventDisputeResolved, map[string]any{
			"order_id":      o.ID,
			"favor_seller":  favorSeller,
			"fee":           o.FeePaid.Dec(),
			"seller_payout": o.SellerPayout.Dec(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint64("order_id", orderID).Bool("favor_seller", favorSeller).Msg("dispute resolved")
	return order, nil
}

// GetOrder returns the order with id or ORD_001.
func (s *EscrowServiceImpl) GetOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	if id == 0 {
		return nil, apperror.ErrOrderNotFound()
	}
	var order *domain.Order
	err := s.core.view(ctx, "get_order", func(ctx context.Context, tx ports.StoreTx) error {
		o, err := tx.Orders().GetByID(ctx, id)
		order = o
		return err
	})
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.ErrOrderNotFound()
	}
	return order, nil
}

// ListOrders returns orders in ascending id order plus the filtered total.
func (s *EscrowServiceImpl) ListOrders(ctx context.Context, filter domain.OrderFilter, page domain.Page) ([]*domain.Order, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperror.ErrInvalidOrder(fmt.Sprintf("Unknown status %s", filter.Status))
	}
	var (
		items []*domain.Order
		total int64
	)
	err := s.core.view(ctx, "list_orders", func(ctx context.Context, tx ports.StoreTx) error {
		var err error
		items, total, err = tx.Orders().List(ctx, filter, page.Normalize())
		return err
	})
	return items, total, err
}

// OrderCount returns the highest assigned order id.
func (s *EscrowServiceImpl) OrderCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.core.view(ctx, "order_count", func(ctx context.Context, tx ports.StoreTx) error {
		st, err := tx.Settings().Load(ctx)
		if err != nil {
			return err
		}
		n = st.OrderSeq
		return nil
	})
	return n, err
}

// transition loads an order, lets apply mutate it and moves it to the
// status apply validated via requireTransition.
func (s *EscrowServiceImpl) transition(
	ctx context.Context,
	op string,
	orderID uint64,
	apply func(ctx context.Context, u *unit, o *domain.Order) error,
) (*domain.Order, error) {
	if orderID == 0 {
		return nil, apperror.ErrOrderNotFound()
	}

	var order *domain.Order
	err := s.core.execute(ctx, op, func(ctx context.Context, u *unit) error {
		o, err := u.Orders().GetByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if o == nil {
			return apperror.ErrOrderNotFound()
		}
		from := o.Status
		if err := apply(ctx, u, o); err != nil {
			return err
		}
		if o.Status == from {
			return fmt.Errorf("order %d: transition from %s left status unchanged", o.ID, from)
		}
		o.UpdatedAt = u.now
		if err := u.Orders().Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		order = o
		return nil
	})
	return order, err
}

// requireTransition moves o to next or fails with ORD_004.
func requireTransition(o *domain.Order, next domain.OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return apperror.ErrWrongState(string(o.Status))
	}
	o.Status = next
	return nil
}

// release splits the escrowed price at the current fee rate, pays treasury
// and seller, and records a successful outcome. rating 0 adds no rating.
func (s *EscrowServiceImpl) release(ctx context.Context, u *unit, o *domain.Order, rating uint8) error {
	st, err := u.loadSettings(ctx)
	if err != nil {
		return err
	}
	fee, payout := domain.SplitFee(o.Price, st.FeeBps)

	if err := s.payout(ctx, u, s.core.roles.Treasury, fee); err != nil {
		return err
	}
	if err := s.payout(ctx, u, o.Seller, payout); err != nil {
		return err
	}
	o.FeePaid = fee
	o.SellerPayout = payout

	return s.recordSellerOutcome(ctx, u, o, ports.Outcome{Success: true, Amount: payout, Rating: rating})
}

func (s *EscrowServiceImpl) payout(ctx context.Context, u *unit, to domain.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	return u.transfer(ctx, s.core.roles.Escrow, to, amount)
}

func (s *EscrowServiceImpl) recordSellerOutcome(ctx context.Context, u *unit, o *domain.Order, outcome ports.Outcome) error {
	cred, err := u.Credentials().GetByHolder(ctx, o.Seller)
	if err != nil {
		return fmt.Errorf("lookup seller credential: %w", err)
	}
	if cred == nil {
		return apperror.ErrCredentialNotFound()
	}
	return u.recordOutcome(ctx, cred.ID, outcome)
}
