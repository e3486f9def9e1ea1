package cut

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParsePIDScheme accepts the scheme names with or without the k prefix.
func ParsePIDScheme(s string) (PIDScheme, error) {
	for p := TOFreq; p <= PIDML; p++ {
		name := p.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[1:]) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown PID scheme %q", s)
}

func (s PIDScheme) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func (s *PIDScheme) UnmarshalYAML(node *yaml.Node) error {
	p, err := ParsePIDScheme(node.Value)
	if err != nil {
		return err
	}
	*s = p
	return nil
}

func ParseCentralityEstimator(s string) (CentralityEstimator, error) {
	for e := FT0M; e <= FT0C; e++ {
		if strings.EqualFold(s, e.String()) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown centrality estimator %q", s)
}

func (e CentralityEstimator) MarshalYAML() (interface{}, error) {
	return e.String(), nil
}

func (e *CentralityEstimator) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseCentralityEstimator(node.Value)
	if err != nil {
		return err
	}
	*e = v
	return nil
}
