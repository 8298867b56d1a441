package service

import (
	"context"
	"fmt"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	store ports.Store
}

// NewReportingService creates a new reporting service.
func NewReportingService(store ports.Store) ports.ReportingService {
	return &reportingService{store: store}
}

// SellerStats aggregates a seller's credential, gigs and orders from one snapshot.
func (s *reportingService) SellerStats(ctx context.Context, seller domain.Address) (*ports.SellerStats, error) {
	if seller.IsZero() {
		return nil, apperror.Validation("seller must be a valid identity")
	}

	out := &ports.SellerStats{Seller: seller}
	err := s.store.View(ctx, func(ctx context.Context, tx ports.StoreTx) error {
		cred, err := tx.Credentials().GetByHolder(ctx, seller)
		if err != nil {
			return fmt.Errorf("lookup credential: %w", err)
		}
		out.Credential = cred

		probe := domain.Page{Limit: 1}
		if _, out.TotalGigs, err = tx.Gigs().List(ctx, domain.GigFilter{Seller: seller}, probe); err != nil {
			return fmt.Errorf("count gigs: %w", err)
		}
		if _, out.ActiveGigs, err = tx.Gigs().List(ctx, domain.GigFilter{Seller: seller, ActiveOnly: true}, probe); err != nil {
			return fmt.Errorf("count active gigs: %w", err)
		}

		stats, err := tx.Orders().SellerStats(ctx, seller)
		if err != nil {
			return fmt.Errorf("order stats: %w", err)
		}
		out.Orders = *stats
		return nil
	})
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return out, nil
}

// ListEvents returns events with Seq > after, ascending.
func (s *reportingService) ListEvents(ctx context.Context, after uint64, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	var events []*domain.Event
	err := s.store.View(ctx, func(ctx context.Context, tx ports.StoreTx) error {
		var err error
		events, err = tx.Events().List(ctx, after, limit)
		return err
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list events: %w", err))
	}
	return events, nil
}

// VerifyEventChain walks the whole log and checks seq continuity and every
// hash link. It returns the number of verified events.
func (s *reportingService) VerifyEventChain(ctx context.Context) (uint64, error) {
	var verified uint64
	err := s.store.View(ctx, func(ctx context.Context, tx ports.StoreTx) error {
		prev := domain.GenesisHash
		for {
			batch, err := tx.Events().List(ctx, verified, maxEventLimit)
			if err != nil {
				return fmt.Errorf("list events: %w", err)
			}
			for _, e := range batch {
				if e.Seq != verified+1 {
					return fmt.Errorf("event seq %d follows %d", e.Seq, verified)
				}
				if e.PrevHash != prev || !e.Verify() {
					return fmt.Errorf("event %d: hash chain broken", e.Seq)
				}
				prev = e.Hash
				verified++
			}
			if len(batch) < maxEventLimit {
				return nil
			}
		}
	})
	if err != nil {
		return verified, apperror.InternalError(err)
	}
	return verified, nil
}
