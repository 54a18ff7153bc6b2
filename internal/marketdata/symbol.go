package marketdata

import (
	"strings"

	"github.com/wonny/idxscreen/internal/contracts"
)

var validRanges = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

var validIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true, "90m": true,
	"1h": true, "1d": true, "5d": true, "1wk": true, "1mo": true, "3mo": true,
}

// Normalize trims and upper-cases a ticker and appends the exchange suffix
// unless it is already present. Normalize(Normalize(s)) == Normalize(s).
func Normalize(symbol, suffix string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return ""
	}
	suffix = strings.ToUpper(suffix)
	if suffix == "" || strings.HasSuffix(s, suffix) {
		return s
	}
	return s + suffix
}

// Display strips the exchange suffix
func Display(symbol, suffix string) string {
	return strings.TrimSuffix(strings.ToUpper(symbol), strings.ToUpper(suffix))
}

// ValidateRange rejects range/interval values the provider does not accept
func ValidateRange(rng, interval string) error {
	if !validRanges[rng] {
		return contracts.NewValidationError("range", "unsupported range %q", rng)
	}
	if !validIntervals[interval] {
		return contracts.NewValidationError("interval", "unsupported interval %q", interval)
	}
	return nil
}
