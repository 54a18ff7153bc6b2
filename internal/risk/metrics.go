package risk

import "github.com/wonny/idxscreen/internal/contracts"

const (
	// DefaultConfidence is the confidence level reported by Measure
	DefaultConfidence = 0.95

	// MinSamples is the fewest daily returns Measure reports on
	MinSamples = 20
)

// Measure computes one-day VaR/CVaR and max drawdown from a close series.
// Returns nil when fewer than MinSamples returns exist.
func Measure(closes []float64, confidence float64) *contracts.RiskMetrics {
	returns := PercentReturns(closes)
	if len(returns) < MinSamples {
		return nil
	}

	hist := CalculateVaR(returns, confidence)
	return &contracts.RiskMetrics{
		Confidence:    confidence,
		VaR:           hist.VaR,
		CVaR:          hist.CVaR,
		ParametricVaR: CalculateParametricVaR(returns, confidence),
		MaxDrawdown:   MaxDrawdown(closes),
		Samples:       len(returns),
	}
}

// PercentReturns converts closes into simple % returns; zero closes are skipped
func PercentReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		out = append(out, (closes[i]-closes[i-1])/closes[i-1]*100)
	}
	return out
}

// MaxDrawdown is the largest peak-to-trough decline in percent
func MaxDrawdown(closes []float64) float64 {
	var peak, worst float64
	for _, c := range closes {
		if c > peak {
			peak = c
			continue
		}
		if peak > 0 {
			worst = max(worst, (peak-c)/peak*100)
		}
	}
	return worst
}
