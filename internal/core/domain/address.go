package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address identifies an account holder: "0x" followed by 40 lowercase hex characters.
type Address string

// ZeroAddress is never a valid caller or recipient.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

const addressHexLen = 40

// ParseAddress validates and normalizes s to lowercase.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) != addressHexLen+2 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return "", fmt.Errorf("address %q must be 0x followed by %d hex characters", s, addressHexLen)
	}
	body := strings.ToLower(s[2:])
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("address %q is not hex: %w", s, err)
	}
	addr := Address("0x" + body)
	if addr == ZeroAddress {
		return "", fmt.Errorf("zero address is not allowed")
	}
	return addr, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is empty or the zero address.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}
