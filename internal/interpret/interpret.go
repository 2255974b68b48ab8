package interpret

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Interpretation is the regime judgment for one cluster
type Interpretation struct {
	ClusterID int
	Label     Label
	Narrative string
}

// Match returns the first rule matching the centroid, or the default
func (rs RuleSet) Match(temperature, illumination float64) Rule {
	for _, r := range rs.Rules {
		if r.matches(temperature, illumination) {
			return r
		}
	}
	return rs.Default
}

// Interpret labels a centroid given in physical units. Pattern numbers in
// the narrative are one-based.
func (rs RuleSet) Interpret(clusterID int, temperature, illumination float64) Interpretation {
	rule := rs.Match(temperature, illumination)
	return Interpretation{
		ClusterID: clusterID,
		Label:     rule.Label,
		Narrative: fmt.Sprintf("Pattern %d: temperature ~%.1f°C, illumination ~%.0f lux. %s",
			clusterID+1, temperature, illumination, rule.Sentence),
	}
}

// LoadRules reads a YAML rule file. An empty path yields DefaultRules.
func LoadRules(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule document
func ParseRules(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return RuleSet{}, fmt.Errorf("invalid rules: %w", err)
	}
	return rs, nil
}
