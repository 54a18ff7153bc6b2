package strategyconfig

import (
	"fmt"
	"regexp"

	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/internal/marketdata"
	"github.com/wonny/idxscreen/internal/screening"
)

var idPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidationError 검증 실패 (로드 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.Version == "" {
		return ValidationError{"meta.version", "required"}
	}

	// === Strategies ===
	if len(cfg.Strategies) == 0 {
		return ValidationError{"strategies", "must not be empty"}
	}

	seen := make(map[string]bool, len(cfg.Strategies))
	for i, s := range cfg.Strategies {
		field := fmt.Sprintf("strategies[%d]", i)

		if !idPattern.MatchString(s.ID) {
			return ValidationError{field + ".id", "must match " + idPattern.String()}
		}
		if seen[s.ID] {
			return ValidationError{field + ".id", fmt.Sprintf("duplicate id %q", s.ID)}
		}
		seen[s.ID] = true

		if len(s.Criteria) == 0 {
			return ValidationError{field + ".criteria", "must not be empty"}
		}
		for j, c := range s.Criteria {
			if !screening.Known(c) {
				return ValidationError{fmt.Sprintf("%s.criteria[%d]", field, j), fmt.Sprintf("unknown criterion %q", c)}
			}
		}

		// range/interval 은 둘 다 지정하거나 둘 다 생략
		if (s.Range == "") != (s.Interval == "") {
			return ValidationError{field, "range and interval must be set together"}
		}
		if s.Range != "" {
			if err := marketdata.ValidateRange(s.Range, s.Interval); err != nil {
				return ValidationError{field, err.Error()}
			}
		}

		if s.MinScore < 0 || s.MinScore > 100 {
			return ValidationError{field + ".min_score", "must be in range [0, 100]"}
		}
		if err := validateLevel(s.Thresholds.RSIOversold, field+".thresholds.rsi_oversold"); err != nil {
			return err
		}
		if err := validateLevel(s.Thresholds.RSIOverbought, field+".thresholds.rsi_overbought"); err != nil {
			return err
		}
		if s.Thresholds.RSIOversold > 0 && s.Thresholds.RSIOverbought > 0 &&
			s.Thresholds.RSIOversold >= s.Thresholds.RSIOverbought {
			return ValidationError{field + ".thresholds", "rsi_oversold must be below rsi_overbought"}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	for _, s := range cfg.Strategies {
		enabled := s.ScreeningCriteria()

		// 중복 조건은 점수 분모를 늘리지 않음
		if len(enabled) != len(s.Criteria) {
			warnings = append(warnings, Warning{
				Code:    "DUPLICATE_CRITERIA",
				Message: fmt.Sprintf("%s: duplicate criteria are counted once", s.ID),
			})
		}

		for _, pair := range opposites {
			if enabled[pair[0]] && enabled[pair[1]] {
				warnings = append(warnings, Warning{
					Code:    "OPPOSING_CRITERIA",
					Message: fmt.Sprintf("%s: %s and %s can never both pass", s.ID, pair[0], pair[1]),
				})
			}
		}
	}

	return warnings
}

// opposites are criteria pairs that exclude each other
var opposites = [][2]contracts.Criterion{
	{contracts.CriterionPriceGainToday, contracts.CriterionPriceDropToday},
	{contracts.CriterionRSIOversold, contracts.CriterionRSIOverbought},
	{contracts.CriterionGoldenCross, contracts.CriterionDeathCross},
	{contracts.CriterionMACDBullish, contracts.CriterionMACDBearish},
	{contracts.CriterionBullishSetup, contracts.CriterionBearishSetup},
	{contracts.CriterionBreakoutPattern, contracts.CriterionConsolidation},
}

// === Helper Functions ===

// validateLevel는 RSI 레벨이 0(기본값) 또는 (0, 100) 범위인지 검증
func validateLevel(level float64, field string) error {
	if level < 0 || level >= 100 {
		return ValidationError{field, "must be in range (0, 100)"}
	}
	return nil
}
