package pages

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var priceLabels = regexp.MustCompile(`(?i)item total:|tax:|total:`)

var priceNoise = strings.NewReplacer("$", "", ",", "")

// ParsePrice extracts the amount from texts like "$29.99" or "Item total: $39.98".
// Parsing is locale independent; empty or unparsable input yields zero.
func ParsePrice(text string) decimal.Decimal {
	cleaned := strings.TrimSpace(priceNoise.Replace(priceLabels.ReplaceAllString(text, "")))
	if cleaned == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
