package service

import (
	"context"
	"fmt"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.TokenLedger.
type LedgerServiceImpl struct {
	core *Core
	log  zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(core *Core, log zerolog.Logger) *LedgerServiceImpl {
	return &LedgerServiceImpl{core: core, log: log}
}

// Mint creates amount new tokens for to. Only the minter may call it.
func (s *LedgerServiceImpl) Mint(ctx context.Context, caller, to domain.Address, amount *uint256.Int) error {
	if caller.IsZero() || caller != s.core.roles.Minter {
		return apperror.ErrNotMinter()
	}
	if err := validateTransfer(to, amount); err != nil {
		return err
	}

	err := s.core.execute(ctx, "mint", func(ctx context.Context, u *unit) error {
		st, err := u.loadSettings(ctx)
		if err != nil {
			return err
		}
		supply, overflow := new(uint256.Int).AddOverflow(st.TotalSupply, amount)
		if overflow {
			return apperror.ErrInvalidAmount()
		}
		st.TotalSupply = supply
		if err := u.credit(ctx, to, amount); err != nil {
			return err
		}
		if err := u.saveSettings(ctx, st); err != nil {
			return err
		}
		u.emit(domain.EventMinted, map[string]any{"to": to, "amount": amount.Dec()})
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("to", to.String()).Str("amount", amount.Dec()).Msg("tokens minted")
	return nil
}

// Transfer moves amount from caller to to.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, caller, to domain.Address, amount *uint256.Int) error {
	if err := s.checkWriter(caller); err != nil {
		return err
	}
	if err := validateTransfer(to, amount); err != nil {
		return err
	}
	return s.core.execute(ctx, "transfer", func(ctx context.Context, u *unit) error {
		return u.transfer(ctx, caller, to, amount)
	})
}

// Approve sets spender's allowance over caller's balance, replacing any prior value.
func (s *LedgerServiceImpl) Approve(ctx context.Context, caller, spender domain.Address, amount *uint256.Int) error {
	if err := s.checkWriter(caller); err != nil {
		return err
	}
	if spender.IsZero() {
		return apperror.Validation("spender must not be the zero address")
	}
	if amount == nil {
		return apperror.ErrInvalidAmount()
	}
	return s.core.execute(ctx, "approve", func(ctx context.Context, u *unit) error {
		if err := u.Accounts().SetAllowance(ctx, caller, spender, amount); err != nil {
			return fmt.Errorf("set allowance: %w", err)
		}
		u.emit(domain.EventApproval, map[string]any{
			"owner":   caller,
			"spender": spender,
			"amount":  amount.Dec(),
		})
		return nil
	})
}

// TransferFrom moves amount from owner to to, spending caller's allowance.
func (s *LedgerServiceImpl) TransferFrom(ctx context.Context, caller, owner, to domain.Address, amount *uint256.Int) error {
	if err := s.checkWriter(caller); err != nil {
		return err
	}
	if owner.IsZero() {
		return apperror.Validation("owner must not be the zero address")
	}
	if err := validateTransfer(to, amount); err != nil {
		return err
	}
	return s.core.execute(ctx, "transfer_from", func(ctx context.Context, u *unit) error {
		return u.transferFrom(ctx, caller, owner, to, amount)
	})
}

// checkWriter admits any identified caller except the escrow identity, whose
// balance and allowances are moved only by order settlement.
func (s *LedgerServiceImpl) checkWriter(caller domain.Address) error {
	if caller.IsZero() {
		return apperror.ErrInvalidToken()
	}
	if caller == s.core.roles.Escrow {
		return apperror.ErrEscrowLocked()
	}
	return nil
}

// BalanceOf returns owner's balance; unknown identities hold zero.
func (s *LedgerServiceImpl) BalanceOf(ctx context.Context, owner domain.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := s.core.view(ctx, "balance_of", func(ctx context.Context, tx ports.StoreTx) error {
		bal, err := tx.Accounts().Balance(ctx, owner)
		out = bal
		return err
	})
	return out, err
}

// Allowance returns how much spender may still move from owner.
func (s *LedgerServiceImpl) Allowance(ctx context.Context, owner, spender domain.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := s.core.view(ctx, "allowance", func(ctx context.Context, tx ports.StoreTx) error {
		v, err := tx.Accounts().Allowance(ctx, owner, spender)
		out = v
		return err
	})
	return out, err
}

// TotalSupply returns the sum of all minted tokens.
func (s *LedgerServiceImpl) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	var out *uint256.Int
	err := s.core.view(ctx, "total_supply", func(ctx context.Context, tx ports.StoreTx) error {
		st, err := tx.Settings().Load(ctx)
		if err != nil {
			return err
		}
		out = domain.AmountOrZero(st.TotalSupply)
		return nil
	})
	return out, err
}

func validateTransfer(to domain.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return apperror.Validation("recipient must not be the zero address")
	}
	if amount == nil || amount.IsZero() {
		return apperror.ErrInvalidAmount()
	}
	return nil
}
