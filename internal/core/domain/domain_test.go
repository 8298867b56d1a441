package domain

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Address
		wantErr bool
	}{
		{"lowercase", "0x00000000000000000000000000000000000000b1", "0x00000000000000000000000000000000000000b1", false},
		{"mixed case normalized", "0xABCDEF0000000000000000000000000000000001", "0xabcdef0000000000000000000000000000000001", false},
		{"upper prefix", "0XABCDEF0000000000000000000000000000000001", "0xabcdef0000000000000000000000000000000001", false},
		{"zero address", "0x0000000000000000000000000000000000000000", "", true},
		{"too short", "0x1234", "", true},
		{"no prefix", "00000000000000000000000000000000000000b1ab", "", true},
		{"non hex", "0xzz000000000000000000000000000000000000b1", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddress_IsZero(t *testing.T) {
	assert.True(t, Address("").IsZero())
	assert.True(t, ZeroAddress.IsZero())
	assert.False(t, MustParseAddress("0x00000000000000000000000000000000000000b1").IsZero())
}

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		bps       uint32
		fee       string
		remainder string
	}{
		{"default fee on 50 tokens", "50000000000000000000", 250, "1250000000000000000", "48750000000000000000"},
		{"truncates toward seller", "399", 250, "9", "390"},
		{"zero fee", "1000", 0, "0", "1000"},
		{"full fee", "1000", 10_000, "1000", "0"},
		{"max price does not overflow", "115792089237316195423570985008687907853269984665640564039457584007913129639935", 10_000,
			"115792089237316195423570985008687907853269984665640564039457584007913129639935", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, rem := SplitFee(uint256.MustFromDecimal(tt.price), tt.bps)
			assert.Equal(t, tt.fee, fee.Dec())
			assert.Equal(t, tt.remainder, rem.Dec())
		})
	}
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", v.Dec())

	_, err = ParseAmount("-1")
	assert.Error(t, err)
	_, err = ParseAmount("1e18")
	assert.Error(t, err)
	assert.Equal(t, "0", AmountString(nil))
}

func TestOrderStatus_Transitions(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderStatusPending, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusApproved, false},
		{OrderStatusDelivered, OrderStatusApproved, true},
		{OrderStatusDelivered, OrderStatusRejected, true},
		{OrderStatusRejected, OrderStatusResolvedForSeller, true},
		{OrderStatusRejected, OrderStatusResolvedForBuyer, true},
		{OrderStatusRejected, OrderStatusApproved, false},
		{OrderStatusApproved, OrderStatusRejected, false},
		{OrderStatusResolvedForBuyer, OrderStatusResolvedForSeller, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusDelivered.IsTerminal())
	assert.False(t, OrderStatusRejected.IsTerminal())
	assert.True(t, OrderStatusApproved.IsTerminal())
	assert.True(t, OrderStatusResolvedForSeller.IsTerminal())
	assert.True(t, OrderStatusResolvedForBuyer.IsTerminal())
	assert.False(t, OrderStatus("BOGUS").Valid())
}

func TestCredential_Derived(t *testing.T) {
	c := &Credential{TotalJobs: 3, SuccessfulJobs: 2, RatingSum: 9, RatingCount: 2}
	assert.Equal(t, uint64(450), c.AverageRatingCenti())
	assert.Equal(t, uint64(6666), c.SuccessRateBps())

	empty := &Credential{}
	assert.Zero(t, empty.AverageRatingCenti())
	assert.Zero(t, empty.SuccessRateBps())
}

func TestOrder_CloneIsDeep(t *testing.T) {
	o := &Order{ID: 1, Price: uint256.NewInt(10)}
	c := o.Clone()
	c.Price.SetUint64(99)
	assert.Equal(t, uint64(10), o.Price.Uint64())
	assert.Equal(t, "0", c.FeePaid.Dec())
}

func TestFilters(t *testing.T) {
	seller := MustParseAddress("0x00000000000000000000000000000000000000b1")
	buyer := MustParseAddress("0x00000000000000000000000000000000000000c1")

	g := &Gig{Seller: seller, IsActive: false}
	assert.True(t, GigFilter{}.Matches(g))
	assert.True(t, GigFilter{Seller: seller}.Matches(g))
	assert.False(t, GigFilter{ActiveOnly: true}.Matches(g))

	o := &Order{Buyer: buyer, Seller: seller, Status: OrderStatusPending}
	assert.True(t, OrderFilter{Buyer: buyer, Status: OrderStatusPending}.Matches(o))
	assert.False(t, OrderFilter{Seller: buyer}.Matches(o))
}

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Offset: 0, Limit: DefaultPageLimit}, Page{Offset: -4}.Normalize())
	assert.Equal(t, Page{Offset: 3, Limit: DefaultPageLimit}, Page{Offset: 3, Limit: 1000}.Normalize())
	assert.Equal(t, Page{Offset: 3, Limit: 7}, Page{Offset: 3, Limit: 7}.Normalize())
}

func TestEvent_ChainHash(t *testing.T) {
	payload := json.RawMessage(`{"gig_id":"1"}`)
	h1 := ChainHash(GenesisHash, EventGigCreated, payload)
	assert.Len(t, h1, 66)
	assert.Equal(t, h1, ChainHash(GenesisHash, EventGigCreated, payload))
	assert.NotEqual(t, h1, ChainHash(h1, EventGigCreated, payload))

	e := &Event{Seq: 1, Type: EventGigCreated, Payload: payload, PrevHash: GenesisHash, Hash: h1}
	assert.True(t, e.Verify())
	e.Payload = json.RawMessage(`{"gig_id":"2"}`)
	assert.False(t, e.Verify())
}

func TestBuildIdempotencyKey(t *testing.T) {
	caller := MustParseAddress("0x00000000000000000000000000000000000000c1")
	key := BuildIdempotencyKey(caller, "POST", "/api/v1/orders", "abc")
	assert.Equal(t, "0x00000000000000000000000000000000000000c1:POST:/api/v1/orders:abc", key)
}

func TestRoles_Validate(t *testing.T) {
	admin := MustParseAddress("0x00000000000000000000000000000000000000a1")
	escrow := MustParseAddress("0x00000000000000000000000000000000000000e5")
	treasury := MustParseAddress("0x00000000000000000000000000000000000000f3")

	tests := []struct {
		name    string
		roles   Roles
		wantErr string
	}{
		{"distinct", Roles{Admin: admin, Minter: admin, Escrow: escrow, Treasury: treasury}, ""},
		{"no minter", Roles{Admin: admin, Escrow: escrow, Treasury: treasury}, ""},
		{"missing escrow", Roles{Admin: admin, Treasury: treasury}, "required"},
		{"escrow is admin", Roles{Admin: escrow, Escrow: escrow, Treasury: treasury}, "admin"},
		{"escrow is minter", Roles{Admin: admin, Minter: escrow, Escrow: escrow, Treasury: treasury}, "minter"},
		{"escrow is treasury", Roles{Admin: admin, Escrow: escrow, Treasury: escrow}, "treasury"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.roles.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRoles_Privileged(t *testing.T) {
	r := Roles{
		Escrow:   MustParseAddress("0x00000000000000000000000000000000000000e5"),
		Treasury: MustParseAddress("0x00000000000000000000000000000000000000f3"),
	}
	assert.True(t, r.Privileged(r.Escrow))
	assert.True(t, r.Privileged(r.Treasury))
	assert.False(t, r.Privileged(MustParseAddress("0x00000000000000000000000000000000000000c1")))
}
