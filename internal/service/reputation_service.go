package service

import (
	"context"
	"fmt"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"

	"github.com/rs/zerolog"
)

// ReputationServiceImpl implements ports.ReputationRegistry.
type ReputationServiceImpl struct {
	core *Core
	log  zerolog.Logger
}

// NewReputationService creates a new ReputationServiceImpl.
func NewReputationService(core *Core, log zerolog.Logger) *ReputationServiceImpl {
	return &ReputationServiceImpl{core: core, log: log}
}

// MintCredential issues the caller's credential. A second mint fails with REP_001.
func (s *ReputationServiceImpl) MintCredential(ctx context.Context, caller domain.Address) (*domain.Credential, error) {
	if caller.IsZero() {
		return nil, apperror.ErrInvalidToken()
	}

	var cred *domain.Credential
	err := s.core.execute(ctx, "mint_credential", func(ctx context.Context, u *unit) error {
		existing, err := u.Credentials().GetByHolder(ctx, caller)
		if err != nil {
			return fmt.Errorf("lookup credential: %w", err)
		}
		if existing != nil {
			return apperror.ErrAlreadyHasCredential()
		}

		st, err := u.loadSettings(ctx)
		if err != nil {
			return err
		}
		st.CredentialSeq++
		cred = &domain.Credential{
			ID:          st.CredentialSeq,
			Holder:      caller,
			TotalEarned: domain.Zero(),
			CreatedAt:   u.now,
		}
		if err := u.Credentials().Create(ctx, cred); err != nil {
			return fmt.Errorf("create credential: %w", err)
		}
		if err := u.saveSettings(ctx, st); err != nil {
			return err
		}
		u.emit(domain.EventCredentialMinted, map[string]any{
			"credential_id": cred.ID,
			"holder":        caller,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint64("credential_id", cred.ID).Str("holder", caller.String()).Msg("credential minted")
	return cred, nil
}

// HasCredential reports whether holder has minted a credential.
func (s *ReputationServiceImpl) HasCredential(ctx context.Context, holder domain.Address) (bool, error) {
	if holder.IsZero() {
		return false, nil
	}
	var found bool
	err := s.core.view(ctx, "has_credential", func(ctx context.Context, tx ports.StoreTx) error {
		c, err := tx.Credentials().GetByHolder(ctx, holder)
		found = c != nil
		return err
	})
	return found, err
}

// GetCredential returns holder's credential or REP_002.
func (s *ReputationServiceImpl) GetCredential(ctx context.Context, holder domain.Address) (*domain.Credential, error) {
	var cred *domain.Credential
	err := s.core.view(ctx, "get_credential", func(ctx context.Context, tx ports.StoreTx) error {
		c, err := tx.Credentials().GetByHolder(ctx, holder)
		cred = c
		return err
	})
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, apperror.ErrCredentialNotFound()
	}
	return cred, nil
}

// GetCredentialByID returns the credential with id or REP_002.
func (s *ReputationServiceImpl) GetCredentialByID(ctx context.Context, id uint64) (*domain.Credential, error) {
	var cred *domain.Credential
	err := s.core.view(ctx, "get_credential_by_id", func(ctx context.Context, tx ports.StoreTx) error {
		c, err := tx.Credentials().GetByID(ctx, id)
		cred = c
		return err
	})
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, apperror.ErrCredentialNotFound()
	}
	return cred, nil
}

// RecordOutcome applies a finalized order to a credential. Only the escrow
// identity may call it; order finalization uses the same path in-transaction.
func (s *ReputationServiceImpl) RecordOutcome(ctx context.Context, caller domain.Address, credentialID uint64, outcome ports.Outcome) error {
	if caller.IsZero() || caller != s.core.roles.Escrow {
		return apperror.ErrNotOutcomeRecorder()
	}
	return s.core.execute(ctx, "record_outcome", func(ctx context.Context, u *unit) error {
		return u.recordOutcome(ctx, credentialID, outcome)
	})
}
