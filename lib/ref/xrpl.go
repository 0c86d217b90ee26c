// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// xrplAlphabet is the base58 alphabet used by XRPL classic addresses.
// It excludes the visually ambiguous characters 0, O, I, and l.
var xrplAlphabet [256]bool

func init() {
	for _, c := range []byte("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz") {
		xrplAlphabet[c] = true
	}
}

// XRPLAccount is a validated XRPL classic account address (e.g.,
// "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH").
//
// Validation is structural: the 'r' prefix, a plausible length, and
// the base58 character set. Full checksum verification requires the
// ripple base58check algorithm and is left to the XRPL API — a
// mistyped address simply reports zero holdings, which fails closed.
//
// XRPLAccount is an immutable value type. The zero value is not valid;
// use IsZero to check.
type XRPLAccount struct {
	address string
}

// ParseXRPLAccount validates and wraps a raw XRPL classic address.
func ParseXRPLAccount(raw string) (XRPLAccount, error) {
	if raw == "" {
		return XRPLAccount{}, fmt.Errorf("empty XRPL account address")
	}
	if raw[0] != 'r' {
		return XRPLAccount{}, fmt.Errorf("XRPL account address must start with 'r': %q", raw)
	}
	if len(raw) < 25 || len(raw) > 35 {
		return XRPLAccount{}, fmt.Errorf("XRPL account address %q is %d characters, expected 25-35", raw, len(raw))
	}
	for i := 0; i < len(raw); i++ {
		if !xrplAlphabet[raw[i]] {
			return XRPLAccount{}, fmt.Errorf("XRPL account address %q: invalid character %q at position %d", raw, raw[i], i)
		}
	}
	return XRPLAccount{address: raw}, nil
}

// MustParseXRPLAccount is like ParseXRPLAccount but panics on error.
// Use in tests where the input is known-valid.
func MustParseXRPLAccount(raw string) XRPLAccount {
	a, err := ParseXRPLAccount(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseXRPLAccount(%q): %v", raw, err))
	}
	return a
}

// XRPLAccountFromUserID derives the XRPL account embedded in a Matrix
// user ID's localpart. Gated rooms use homeserver accounts whose
// localpart is the holder's XRPL address (e.g.,
// "@rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH:nftgate.local"), so membership
// identity and wallet identity are the same string.
//
// The localpart may carry a suffix after the address, separated by
// '.' (used for device-scoped accounts); everything from the first
// '.' is ignored.
func XRPLAccountFromUserID(userID UserID) (XRPLAccount, error) {
	localpart := userID.Localpart()
	if dot := strings.IndexByte(localpart, '.'); dot >= 0 {
		localpart = localpart[:dot]
	}
	account, err := ParseXRPLAccount(localpart)
	if err != nil {
		return XRPLAccount{}, fmt.Errorf("user %s has no XRPL account localpart: %w", userID, err)
	}
	return account, nil
}

// String returns the classic address string.
func (a XRPLAccount) String() string { return a.address }

// IsZero reports whether the XRPLAccount is the zero value.
func (a XRPLAccount) IsZero() bool { return a.address == "" }

// MarshalText implements encoding.TextMarshaler.
func (a XRPLAccount) MarshalText() ([]byte, error) {
	if a.address == "" {
		return []byte{}, nil
	}
	return []byte(a.address), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates the
// address format. An empty input produces the zero value.
func (a *XRPLAccount) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = XRPLAccount{}
		return nil
	}
	parsed, err := ParseXRPLAccount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
