package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// signatureVersion prefixes every delivery signature so the scheme can rotate.
const signatureVersion = "v1="

// DefaultSignatureTolerance bounds how old a delivery timestamp may be.
const DefaultSignatureTolerance = 5 * time.Minute

var (
	ErrSignatureMalformed = errors.New("webhook signature malformed")
	ErrSignatureMismatch  = errors.New("webhook signature mismatch")
	ErrSignatureExpired   = errors.New("webhook timestamp outside tolerance")
)

// HMACDeliverySigner implements ports.DeliverySigner. A signature is
// "v1=" + hex(HMAC-SHA256(secret, timestamp + "." + body)).
type HMACDeliverySigner struct {
	tolerance time.Duration
}

// NewHMACDeliverySigner creates a signer. tolerance <= 0 disables the
// timestamp window check on Verify.
func NewHMACDeliverySigner(tolerance time.Duration) *HMACDeliverySigner {
	return &HMACDeliverySigner{tolerance: tolerance}
}

// Sign returns the versioned signature of one delivery.
func (s *HMACDeliverySigner) Sign(secret string, timestamp int64, body []byte) string {
	return signatureVersion + hex.EncodeToString(deliveryMAC(secret, timestamp, body))
}

// Verify checks signature against the delivery and rejects timestamps
// further than the tolerance from now in either direction.
func (s *HMACDeliverySigner) Verify(secret string, timestamp int64, body []byte, signature string, now time.Time) error {
	raw, ok := strings.CutPrefix(signature, signatureVersion)
	if !ok {
		return ErrSignatureMalformed
	}
	got, err := hex.DecodeString(raw)
	if err != nil || len(got) != sha256.Size {
		return ErrSignatureMalformed
	}
	if !hmac.Equal(got, deliveryMAC(secret, timestamp, body)) {
		return ErrSignatureMismatch
	}
	if s.tolerance > 0 {
		age := now.Sub(time.Unix(timestamp, 0))
		if age > s.tolerance || age < -s.tolerance {
			return ErrSignatureExpired
		}
	}
	return nil
}

func deliveryMAC(secret string, timestamp int64, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return mac.Sum(nil)
}
