package domain

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/crypto/sha3"
)

// EventType names a committed state change.
type EventType string

const (
	EventMinted           EventType = "Minted"
	EventTransfer         EventType = "Transfer"
	EventApproval         EventType = "Approval"
	EventCredentialMinted EventType = "CredentialMinted"
	EventGigCreated       EventType = "GigCreated"
	EventGigStatusChanged EventType = "GigStatusChanged"
	EventOrderPlaced      EventType = "OrderPlaced"
	EventWorkDelivered    EventType = "WorkDelivered"
	EventOrderApproved    EventType = "OrderApproved"
	EventOrderRejected    EventType = "OrderRejected"
	EventDisputeResolved  EventType = "DisputeResolved"
	EventFeeUpdated       EventType = "FeeUpdated"
)

// Event is one entry of the append-only, hash-chained event log.
type Event struct {
	Seq       uint64          `json:"seq"`
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  string          `json:"prev_hash"`
	Hash      string          `json:"hash"`
	CreatedAt time.Time       `json:"created_at"`
}

// GenesisHash is the PrevHash of the first event.
const GenesisHash = "0x0000000000000000000000000000000000000000000000000000000000000000"

// ChainHash computes keccak256(prevHash || type || payload) as 0x-hex.
func ChainHash(prevHash string, typ EventType, payload []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(prevHash))
	h.Write([]byte(typ))
	h.Write(payload)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether e's hash matches its contents and prevHash.
func (e *Event) Verify() bool {
	return e.Hash == ChainHash(e.PrevHash, e.Type, e.Payload)
}

// Clone returns a deep copy.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	out := *e
	out.Payload = append(json.RawMessage(nil), e.Payload...)
	return &out
}
