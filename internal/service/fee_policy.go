package service

import (
	"context"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"

	"github.com/rs/zerolog"
)

// FeePolicyImpl implements ports.FeePolicy. The rate lives in LedgerSettings
// and is read at finalization time, so a change applies to orders already in dispute.
type FeePolicyImpl struct {
	core *Core
	log  zerolog.Logger
}

// NewFeePolicy creates a new FeePolicyImpl.
func NewFeePolicy(core *Core, log zerolog.Logger) *FeePolicyImpl {
	return &FeePolicyImpl{core: core, log: log}
}

// PlatformFee returns the current fee in basis points.
func (s *FeePolicyImpl) PlatformFee(ctx context.Context) (uint32, error) {
	var bps uint32
	err := s.core.view(ctx, "platform_fee", func(ctx context.Context, tx ports.StoreTx) error {
		st, err := tx.Settings().Load(ctx)
		if err != nil {
			return err
		}
		bps = st.FeeBps
		return nil
	})
	return bps, err
}

// SetPlatformFee changes the fee. Admin only; bps must not exceed 10000.
func (s *FeePolicyImpl) SetPlatformFee(ctx context.Context, caller domain.Address, bps uint32) error {
	if caller.IsZero() || caller != s.core.roles.Admin {
		return apperror.ErrNotAdmin()
	}
	if bps > domain.BpsDenominator {
		return apperror.ErrInvalidFee()
	}

	var previous uint32
	err := s.core.execute(ctx, "set_platform_fee", func(ctx context.Context, u *unit) error {
		st, err := u.loadSettings(ctx)
		if err != nil {
			return err
		}
		previous = st.FeeBps
		st.FeeBps = bps
		if err := u.saveSettings(ctx, st); err != nil {
			return err
		}
		u.emit(domain.EventFeeUpdated, map[string]any{"fee_bps": bps, "previous_bps": previous})
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Uint32("previous_bps", previous).Uint32("fee_bps", bps).Msg("platform fee updated")
	return nil
}
