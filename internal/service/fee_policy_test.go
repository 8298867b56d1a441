package service

import (
	"context"
	"testing"

	"gig-escrow/internal/core/domain"
	"gig-escrow/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeePolicy_Default(t *testing.T) {
	m := newMarket(t)
	bps, err := m.fees.PlatformFee(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFeeBps, bps)
}

func TestFeePolicy_SetPlatformFee(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  domain.Address
		bps     uint32
		code    string
		wantBps uint32
	}{
		{"admin sets 5%", testAdmin, 500, "", 500},
		{"zero fee allowed", testAdmin, 0, "", 0},
		{"full fee allowed", testAdmin, 10_000, "", 10_000},
		{"above 100%", testAdmin, 10_001, "ADM_002", 10_000},
		{"non-admin", testSeller, 100, "ADM_001", 10_000},
		{"minter is not admin", testMinter, 100, "ADM_001", 10_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.fees.SetPlatformFee(ctx, tt.caller, tt.bps)
			if tt.code == "" {
				require.NoError(t, err)
			} else {
				assert.True(t, apperror.Is(err, tt.code), "got %v", err)
			}
			bps, err := m.fees.PlatformFee(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBps, bps)
		})
	}
}

func TestFeePolicy_EmitsFeeUpdated(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	require.NoError(t, m.fees.SetPlatformFee(ctx, testAdmin, 400))

	events, err := m.reporting.ListEvents(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventFeeUpdated, events[0].Type)
	assert.JSONEq(t, `{"fee_bps":400,"previous_bps":250}`, string(events[0].Payload))
}
