package utils

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ToHumanAmount converts a raw integer balance to its human-readable amount
// using the token's decimal precision. A nil balance converts to 0.
func ToHumanAmount(raw *big.Int, decimals uint8) float64 {
	if raw == nil {
		return 0
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).InexactFloat64()
}

// FormatBigInt renders a raw integer balance as a decimal string, trimming
// trailing zeros. Example: 1234500000000000000 with 18 decimals => "1.2345".
func FormatBigInt(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	if decimals == 0 {
		return raw.String()
	}
	s := decimal.NewFromBigInt(raw, -int32(decimals)).StringFixed(int32(decimals))
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
