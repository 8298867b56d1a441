package service

import (
	"context"
	"fmt"
	"strings"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"

	"github.com/rs/zerolog"
)

// GigServiceImpl implements ports.GigRegistry.
type GigServiceImpl struct {
	core *Core
	log  zerolog.Logger
}

// NewGigService creates a new GigServiceImpl.
func NewGigService(core *Core, log zerolog.Logger) *GigServiceImpl {
	return &GigServiceImpl{core: core, log: log}
}

// CreateGig publishes a gig. The caller must already hold a credential;
// no credential is minted on its behalf.
func (s *GigServiceImpl) CreateGig(ctx context.Context, caller domain.Address, req ports.CreateGigRequest) (*domain.Gig, error) {
	if caller.IsZero() {
		return nil, apperror.ErrInvalidToken()
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.ErrInvalidGig("Title is required")
	}
	if req.Price == nil || req.Price.IsZero() {
		return nil, apperror.ErrInvalidGig("Price must be greater than zero")
	}
	if req.DeliveryTimeHours == 0 {
		return nil, apperror.ErrInvalidGig("Delivery time must be greater than zero")
	}
	if s.core.roles.Privileged(caller) {
		return nil, apperror.ErrInvalidGig("System accounts cannot sell")
	}

	var gig *domain.Gig
	err := s.core.execute(ctx, "create_gig", func(ctx context.Context, u *unit) error {
		cred, err := u.Credentials().GetByHolder(ctx, caller)
		if err != nil {
			return fmt.Errorf("lookup credential: %w", err)
		}
		if cred == nil {
			return apperror.ErrNoSellerCredential()
		}

		st, err := u.loadSettings(ctx)
		if err != nil {
			return err
		}
		st.GigSeq++
		gig = &domain.Gig{
			ID:                st.GigSeq,
			Seller:            caller,
			Title:             title,
			Description:       req.Description,
			AIModel:           req.AIModel,
			Price:             req.Price.Clone(),
			DeliveryTimeHours: req.DeliveryTimeHours,
			IsActive:          true,
			CreatedAt:         u.now,
			UpdatedAt:         u.now,
		}
		if err := u.Gigs().Create(ctx, gig); err != nil {
			return fmt.Errorf("create gig: %w", err)
		}
		if err := u.saveSettings(ctx, st); err != nil {
			return err
		}
		u.emit(domain.EventGigCreated, map[string]any{
			"gig_id": gig.ID,
			"seller": caller,
			"price":  gig.Price.Dec(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint64("gig_id", gig.ID).Str("seller", caller.String()).Msg("gig created")
	return gig, nil
}

// GetGig returns the gig with id or GIG_001.
func (s *GigServiceImpl) GetGig(ctx context.Context, id uint64) (*domain.Gig, error) {
	if id == 0 {
		return nil, apperror.ErrGigNotFound()
	}
	var gig *domain.Gig
	err := s.core.view(ctx, "get_gig", func(ctx context.Context, tx ports.StoreTx) error {
		g, err := tx.Gigs().GetByID(ctx, id)
		gig = g
		return err
	})
	if err != nil {
		return nil, err
	}
	if gig == nil {
		return nil, apperror.ErrGigNotFound()
	}
	return gig, nil
}

// ToggleActive flips isActive. Only the seller may toggle.
func (s *GigServiceImpl) ToggleActive(ctx context.Context, caller domain.Address, id uint64) (*domain.Gig, error) {
	if id == 0 {
		return nil, apperror.ErrGigNotFound()
	}

	var gig *domain.Gig
	err := s.core.execute(ctx, "toggle_gig", func(ctx context.Context, u *unit) error {
		g, err := u.Gigs().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load gig: %w", err)
		}
		if g == nil {
			return apperror.ErrGigNotFound()
		}
		if g.Seller != caller {
			return apperror.ErrNotGigOwner()
		}
		g.IsActive = !g.IsActive
		g.UpdatedAt = u.now
		if err := u.Gigs().Update(ctx, g); err != nil {
			return fmt.Errorf("update gig: %w", err)
		}
		u.emit(domain.EventGigStatusChanged, map[string]any{
			"gig_id":    g.ID,
			"is_active": g.IsActive,
		})
		gig = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint64("gig_id", gig.ID).Bool("is_active", gig.IsActive).Msg("gig status changed")
	return gig, nil
}

// ListGigs returns gigs in ascending id order plus the filtered total.
func (s *GigServiceImpl) ListGigs(ctx context.Context, filter domain.GigFilter, page domain.Page) ([]*domain.Gig, int64, error) {
	var (
		items []*domain.Gig
		total int64
	)
	err := s.core.view(ctx, "list_gigs", func(ctx context.Context, tx ports.StoreTx) error {
		var err error
		items, total, err = tx.Gigs().List(ctx, filter, page.Normalize())
		return err
	})
	return items, total, err
}

// GigCount returns the highest assigned gig id.
func (s *GigServiceImpl) GigCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.core.view(ctx, "gig_count", func(ctx context.Context, tx ports.StoreTx) error {
		st, err := tx.Settings().Load(ctx)
		if err != nil {
			return err
		}
		n = st.GigSeq
		return nil
	})
	return n, err
}
