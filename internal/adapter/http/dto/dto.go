package dto

// CreateGigRequest is the request body for publishing a gig.
type CreateGigRequest struct {
	Title             string `json:"title" binding:"required,max=200"`
	Description       string `json:"description" binding:"max=5000"`
	AIModel           string `json:"ai_model" binding:"omitempty,max=100,safe_id"`
	Price             string `json:"price" binding:"required,amount"`
	DeliveryTimeHours uint32 `json:"delivery_time_hours" binding:"required,gt=0"`
}

// PlaceOrderRequest is the request body for ordering a gig.
type PlaceOrderRequest struct {
	GigID        uint64 `json:"gig_id" binding:"required,gt=0"`
	Requirements string `json:"requirements" binding:"max=5000"`
}

// DeliverWorkRequest is the request body for a seller delivery.
type DeliverWorkRequest struct {
	DeliverableRef string `json:"deliverable_ref" binding:"required,max=512,safe_uri"`
}

// ApproveOrderRequest is the request body for buyer approval.
// The rating range is enforced by the escrow service.
type ApproveOrderRequest struct {
	Rating int `json:"rating"`
}

// RejectOrderRequest is the request body for a buyer rejection.
type RejectOrderRequest struct {
	Reason string `json:"reason" binding:"max=2000"`
}

// ResolveDisputeRequest is the request body for admin dispute resolution.
type ResolveDisputeRequest struct {
	FavorSeller *bool `json:"favor_seller" binding:"required"`
}

// SetFeeRequest is the request body for changing the platform fee.
type SetFeeRequest struct {
	FeeBps *uint32 `json:"fee_bps" binding:"required"`
}

// MintRequest is the request body for minting tokens.
type MintRequest struct {
	To     string `json:"to" binding:"required,identity"`
	Amount string `json:"amount" binding:"required,amount"`
}

// TransferRequest is the request body for a direct transfer.
type TransferRequest struct {
	To     string `json:"to" binding:"required,identity"`
	Amount string `json:"amount" binding:"required,amount"`
}

// ApproveRequest is the request body for setting an allowance.
type ApproveRequest struct {
	Spender string `json:"spender" binding:"required,identity"`
	Amount  string `json:"amount" binding:"required,amount"`
}

// TransferFromRequest is the request body for a delegated transfer.
type TransferFromRequest struct {
	From   string `json:"from" binding:"required,identity"`
	To     string `json:"to" binding:"required,identity"`
	Amount string `json:"amount" binding:"required,amount"`
}

// CredentialResponse is the response body for a seller credential.
type CredentialResponse struct {
	ID                 uint64 `json:"id"`
	Holder             string `json:"holder"`
	TotalJobs          uint64 `json:"total_jobs"`
	SuccessfulJobs     uint64 `json:"successful_jobs"`
	RatingSum          uint64 `json:"rating_sum"`
	RatingCount        uint64 `json:"rating_count"`
	AverageRatingCenti uint64 `json:"average_rating_centi"`
	SuccessRateBps     uint64 `json:"success_rate_bps"`
	TotalEarned        string `json:"total_earned"`
	CreatedAt          string `json:"created_at"`
}

// GigResponse is the response body for a gig.
type GigResponse struct {
	ID                uint64 `json:"id"`
	Seller            string `json:"seller"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	AIModel           string `json:"ai_model"`
	Price             string `json:"price"`
	DeliveryTimeHours uint32 `json:"delivery_time_hours"`
	IsActive          bool   `json:"is_active"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// OrderResponse is the response body for an order.
type OrderResponse struct {
	ID             uint64 `json:"id"`
	GigID          uint64 `json:"gig_id"`
	Buyer          string `json:"buyer"`
	Seller         string `json:"seller"`
	Price          string `json:"price"`
	Requirements   string `json:"requirements"`
	Status         string `json:"status"`
	DeliverableRef string `json:"deliverable_ref,omitempty"`
	Rating         uint8  `json:"rating,omitempty"`
	RejectReason   string `json:"reject_reason,omitempty"`
	FeePaid        string `json:"fee_paid"`
	SellerPayout   string `json:"seller_payout"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
}

// AllowanceResponse is the response for an allowance query.
type AllowanceResponse struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance string `json:"allowance"`
}

// SupplyResponse is the response for the total supply query.
type SupplyResponse struct {
	TotalSupply string `json:"total_supply"`
}

// FeeResponse is the response for the platform fee.
type FeeResponse struct {
	FeeBps uint32 `json:"fee_bps"`
}

// LedgerWriteResponse acknowledges a token write.
type LedgerWriteResponse struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Amount string `json:"amount"`
}

// SellerStatsResponse is the analytics view of one seller.
type SellerStatsResponse struct {
	Seller          string              `json:"seller"`
	Credential      *CredentialResponse `json:"credential"`
	TotalGigs       int64               `json:"total_gigs"`
	ActiveGigs      int64               `json:"active_gigs"`
	TotalOrders     int64               `json:"total_orders"`
	PendingOrders   int64               `json:"pending_orders"`
	CompletedOrders int64               `json:"completed_orders"`
	DisputedOrders  int64               `json:"disputed_orders"`
	RefundedOrders  int64               `json:"refunded_orders"`
	TotalEarnings   string              `json:"total_earnings"`
	TotalFeesPaid   string              `json:"total_fees_paid"`
}

// EventResponse is one entry of the event log.
type EventResponse struct {
	Seq       uint64      `json:"seq"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	PrevHash  string      `json:"prev_hash"`
	Hash      string      `json:"hash"`
	CreatedAt string      `json:"created_at"`
}

// EventListResponse wraps a slice of the event log.
type EventListResponse struct {
	Items     []EventResponse `json:"items"`
	NextAfter uint64          `json:"next_after"`
}

// ChainStatusResponse reports the result of an event chain verification.
type ChainStatusResponse struct {
	Valid    bool   `json:"valid"`
	Verified uint64 `json:"verified"`
	Error    string `json:"error,omitempty"`
}
