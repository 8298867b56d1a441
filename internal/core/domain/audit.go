package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionMintCredential AuditAction = "MINT_CREDENTIAL"
	AuditActionCreateGig      AuditAction = "CREATE_GIG"
	AuditActionToggleGig      AuditAction = "TOGGLE_GIG"
	AuditActionPlaceOrder     AuditAction = "PLACE_ORDER"
	AuditActionDeliverWork    AuditAction = "DELIVER_WORK"
	AuditActionApproveOrder   AuditAction = "APPROVE_ORDER"
	AuditActionRejectOrder    AuditAction = "REJECT_ORDER"
	AuditActionResolveDispute AuditAction = "RESOLVE_DISPUTE"
	AuditActionSetFee         AuditAction = "SET_FEE"
	AuditActionMint           AuditAction = "MINT"
	AuditActionTransfer       AuditAction = "TRANSFER"
	AuditActionApprove        AuditAction = "APPROVE"
	AuditActionTransferFrom   AuditAction = "TRANSFER_FROM"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	Actor        Address     `json:"actor,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
