package strategyconfig

import (
	"github.com/guregu/null/v6"

	"github.com/wonny/idxscreen/internal/contracts"
)

// Config는 스크리닝 전략(프리셋) 묶음
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Strategies []Strategy `yaml:"strategies" json:"strategies"`
}

// Meta 메타 정보
type Meta struct {
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

// Strategy is a named set of screening criteria with threshold overrides.
// Range/Interval are optional chart defaults for the screen request.
type Strategy struct {
	ID          string                `yaml:"id" json:"id"`
	Description string                `yaml:"description" json:"description"`
	Criteria    []contracts.Criterion `yaml:"criteria" json:"criteria"`
	Range       string                `yaml:"range,omitempty" json:"range,omitempty"`
	Interval    string                `yaml:"interval,omitempty" json:"interval,omitempty"`
	MinScore    float64               `yaml:"min_score" json:"minScore"` // 0..100, lower scores are dropped
	Thresholds  Thresholds            `yaml:"thresholds" json:"thresholds"`
}

// Thresholds overrides catalogue levels; zero means catalogue default
type Thresholds struct {
	RSIOversold   float64 `yaml:"rsi_oversold" json:"rsiOversold,omitempty"`
	RSIOverbought float64 `yaml:"rsi_overbought" json:"rsiOverbought,omitempty"`
}

// ScreeningCriteria returns the strategy's criteria switched on
func (s Strategy) ScreeningCriteria() contracts.ScreeningCriteria {
	out := make(contracts.ScreeningCriteria, len(s.Criteria))
	for _, c := range s.Criteria {
		out[c] = true
	}
	return out
}

// ScreeningParams converts Thresholds into request params
func (s Strategy) ScreeningParams() contracts.ScreeningParams {
	var p contracts.ScreeningParams
	if s.Thresholds.RSIOversold > 0 {
		p.RSIOversoldLevel = null.FloatFrom(s.Thresholds.RSIOversold)
	}
	if s.Thresholds.RSIOverbought > 0 {
		p.RSIOverboughtLevel = null.FloatFrom(s.Thresholds.RSIOverbought)
	}
	return p
}

// Find returns the strategy with id
func (c *Config) Find(id string) (Strategy, bool) {
	for _, s := range c.Strategies {
		if s.ID == id {
			return s, true
		}
	}
	return Strategy{}, false
}
