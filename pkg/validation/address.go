// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are forwarded
// to upstream services. Using these validators prevents malformed or hostile
// input from ever reaching an outbound request.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// addressPattern matches a hex-encoded account address:
// an optional "0x" prefix followed by exactly 40 hex digits.
var addressPattern = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{40}$`)

// ValidateAddress validates an Ethereum-style account address.
//
// Valid addresses:
//   - Optional "0x" prefix
//   - Exactly 40 hex digits
//   - All-lowercase and all-uppercase hex are accepted as-is
//   - Mixed-case hex must match its own EIP-55 checksum casing
//
// Returns an error if the address is invalid.
//
// Example:
//
//	if err := validation.ValidateAddress(address); err != nil {
//	    return nil, fmt.Errorf("invalid address: %w", err)
//	}
//	// Safe to forward upstream
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if !addressPattern.MatchString(address) {
		return fmt.Errorf("invalid address format: %q (must be 40 hex digits with optional 0x prefix)", address)
	}

	hexPart := strings.TrimPrefix(address, "0x")
	lower := strings.ToLower(hexPart)

	// Uniform casing carries no checksum information and is accepted.
	if hexPart == lower || hexPart == strings.ToUpper(hexPart) {
		return nil
	}

	if hexPart != checksumCase(lower) {
		return fmt.Errorf("address checksum mismatch: %q", address)
	}
	return nil
}

// ChecksumAddress validates an address and returns its canonical
// EIP-55 checksum-cased form, always prefixed with "0x".
//
// The checksum casing is derived from the keccak-256 digest of the
// lowercase hex digits: a letter is uppercased when the corresponding
// digest nibble is >= 8. The returned value is the exact string that
// must be echoed to callers and sent to upstream model services.
//
//	checksum, err := validation.ChecksumAddress(userInput)
//	if err != nil {
//	    return err
//	}
//	// checksum is canonical, e.g. 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed
func ChecksumAddress(address string) (string, error) {
	if err := ValidateAddress(address); err != nil {
		return "", err
	}

	lower := strings.ToLower(strings.TrimPrefix(address, "0x"))
	return "0x" + checksumCase(lower), nil
}

// checksumCase applies EIP-55 casing to a 40-character lowercase hex string.
func checksumCase(lowerHex string) string {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(lowerHex))
	digest := hash.Sum(nil)

	out := []byte(lowerHex)
	for i, c := range out {
		if c < 'a' {
			// Digits have no case.
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - ('a' - 'A')
		}
	}
	return string(out)
}
