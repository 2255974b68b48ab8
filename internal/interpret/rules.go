// Package interpret turns cluster centroids into qualitative regime labels.
package interpret

import (
	"fmt"
)

// Label names a behavioral regime
type Label string

const (
	LabelOverheat Label = "Overheat"
	LabelColdDark Label = "ColdDark"
	LabelComfort  Label = "Comfort"
	LabelAtypical Label = "Atypical"
)

// Metric names accepted in rule conditions
const (
	MetricTemperature  = "temperature"
	MetricIllumination = "illumination"
)

// Condition compares one centroid metric against a threshold
type Condition struct {
	Metric   string  `yaml:"metric"`
	Operator string  `yaml:"op"`
	Value    float64 `yaml:"value"`
}

// Rule matches when all of its conditions hold
type Rule struct {
	Label      Label       `yaml:"label"`
	Sentence   string      `yaml:"sentence"`
	Conditions []Condition `yaml:"when"`
}

// RuleSet is an ordered rule list with a catch-all default. The first
// matching rule wins.
type RuleSet struct {
	Rules   []Rule `yaml:"rules"`
	Default Rule   `yaml:"default"`
}

// DefaultRules returns the built-in regime table
func DefaultRules() RuleSet {
	return RuleSet{
		Rules: []Rule{
			{
				Label:    LabelOverheat,
				Sentence: "Overheating risk from intense exposure.",
				Conditions: []Condition{
					{Metric: MetricTemperature, Operator: ">", Value: 29},
					{Metric: MetricIllumination, Operator: ">", Value: 400},
				},
			},
			{
				Label:    LabelColdDark,
				Sentence: "Cold and dark environment, typical of night hours.",
				Conditions: []Condition{
					{Metric: MetricTemperature, Operator: "<", Value: 24},
					{Metric: MetricIllumination, Operator: "<", Value: 200},
				},
			},
			{
				Label:    LabelComfort,
				Sentence: "Ideal thermal comfort conditions.",
				Conditions: []Condition{
					{Metric: MetricTemperature, Operator: ">=", Value: 25},
					{Metric: MetricTemperature, Operator: "<=", Value: 28},
					{Metric: MetricIllumination, Operator: ">=", Value: 200},
					{Metric: MetricIllumination, Operator: "<=", Value: 350},
				},
			},
		},
		Default: Rule{
			Label:    LabelAtypical,
			Sentence: "Atypical combination, requires follow-up.",
		},
	}
}

// Validate checks labels, metrics and operators of every rule
func (rs RuleSet) Validate() error {
	for i, r := range rs.Rules {
		if r.Label == "" {
			return fmt.Errorf("rule %d: label is required", i)
		}
		if len(r.Conditions) == 0 {
			return fmt.Errorf("rule %d (%s): at least one condition is required", i, r.Label)
		}
		for j, c := range r.Conditions {
			if err := c.validate(); err != nil {
				return fmt.Errorf("rule %d (%s) condition %d: %w", i, r.Label, j, err)
			}
		}
	}
	if rs.Default.Label == "" {
		return fmt.Errorf("default rule label is required")
	}
	if len(rs.Default.Conditions) != 0 {
		return fmt.Errorf("default rule must not have conditions")
	}
	return nil
}

func (c Condition) validate() error {
	switch c.Metric {
	case MetricTemperature, MetricIllumination:
	default:
		return fmt.Errorf("unknown metric %q", c.Metric)
	}
	switch c.Operator {
	case ">", "<", ">=", "<=":
	default:
		return fmt.Errorf("unknown operator %q", c.Operator)
	}
	return nil
}

func (r Rule) matches(temperature, illumination float64) bool {
	for _, c := range r.Conditions {
		value := temperature
		if c.Metric == MetricIllumination {
			value = illumination
		}
		if !evaluateCondition(value, c.Operator, c.Value) {
			return false
		}
	}
	return true
}

func evaluateCondition(value float64, operator string, threshold float64) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	default:
		return false
	}
}
