package screening

import (
	"sort"

	"github.com/wonny/idxscreen/internal/contracts"
)

// Evaluate runs every enabled criterion against one instrument.
// Criteria whose inputs are missing are left out of Results and do not count
// toward TotalConditions. Score is 0 when nothing applied.
// ⭐ SSOT: 스크리닝 점수 계산은 여기서만
func Evaluate(in Input, criteria contracts.ScreeningCriteria) contracts.ScreeningResult {
	res := contracts.ScreeningResult{Results: make(map[contracts.Criterion]bool)}

	for _, def := range catalogue {
		if !criteria.Enabled(def.Name) {
			continue
		}
		ok, applicable := def.eval(&in)
		if !applicable {
			continue
		}
		res.Results[def.Name] = ok
		res.TotalConditions++
		if ok {
			res.ConditionsMet++
		}
	}

	if res.TotalConditions > 0 {
		res.Score = float64(res.ConditionsMet) / float64(res.TotalConditions) * 100
	}
	return res
}

// Validate rejects criterion names outside the catalogue
func Validate(criteria contracts.ScreeningCriteria) error {
	var unknown []string
	for c := range criteria {
		if !Known(c) {
			unknown = append(unknown, string(c))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return contracts.NewValidationError("criteria", "unknown criteria: %v", unknown)
}
