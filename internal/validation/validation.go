// Package validation provides input validation for veriforge.
package validation

import (
	"errors"
	"strings"

	"golang.org/x/mod/semver"
)

// ValidateAddress validates a hex contract address.
func ValidateAddress(addr string) error {
	if len(addr) != 42 {
		return errors.New("invalid address length: must be 42 characters (0x + 40 hex)")
	}
	if !strings.HasPrefix(addr, "0x") {
		return errors.New("invalid address: must start with 0x")
	}
	for _, c := range addr[2:] {
		isDigit := c >= '0' && c <= '9'
		isLowerHex := c >= 'a' && c <= 'f'
		isUpperHex := c >= 'A' && c <= 'F'
		if !isDigit && !isLowerHex && !isUpperHex {
			return errors.New("invalid address: contains non-hex characters")
		}
	}
	return nil
}

// NormalizeCompilerVersion reduces a full solc version string like
// "0.8.18+commit.87f61d96" or "v0.8.18" to its bare X.Y.Z form.
func NormalizeCompilerVersion(v string) string {
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "+-"); i >= 0 {
		v = v[:i]
	}
	return v
}

// ValidateCompilerVersion checks that a compiler version string carries a
// well-formed X.Y.Z core version.
func ValidateCompilerVersion(v string) error {
	normalized := NormalizeCompilerVersion(v)
	if normalized == "" {
		return errors.New("compiler version cannot be empty")
	}
	if !semver.IsValid("v" + normalized) {
		return errors.New("invalid compiler version: must be in format X.Y.Z")
	}
	if strings.Count(normalized, ".") < 2 {
		return errors.New("invalid compiler version: must be in format X.Y.Z (major.minor.patch)")
	}
	return nil
}
