// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package chain

import (
	"math/big"
	"strings"
)

// negligibleMarker is rendered for non-zero amounts below 0.0001.
const negligibleMarker = "<0.0001"

// FormatAmount renders a raw integer amount with the given token decimals
// as a decimal string with at most four fractional digits. Exact zero is
// rendered as "0"; non-zero values below the display threshold are
// rendered as "<0.0001" rather than scientific notation.
func FormatAmount(amount *big.Int, decimals int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}

	negative := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, scale, new(big.Int))

	// Truncate the fractional part to four digits.
	fracStr := frac.Text(10)
	if pad := decimals - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	if len(fracStr) > 4 {
		fracStr = fracStr[:4]
	}
	fracStr = strings.TrimRight(fracStr, "0")

	if whole.Sign() == 0 && fracStr == "" {
		return negligibleMarker
	}

	out := whole.Text(10)
	if fracStr != "" {
		out += "." + fracStr
	}
	if negative {
		out = "-" + out
	}
	return out
}
