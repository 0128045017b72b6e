package ranker

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Weights configures the composite-score and placement-probability blends.
type Weights struct {
	Premium  float64 `yaml:"premium"`
	Appetite float64 `yaml:"appetite"`
	Coverage float64 `yaml:"coverage"`

	Probability ProbabilityWeights `yaml:"probability"`
}

// ProbabilityWeights configures the placement-probability heuristic.
type ProbabilityWeights struct {
	Eligibility     float64 `yaml:"eligibility"`
	Appetite        float64 `yaml:"appetite"`
	Competitiveness float64 `yaml:"competitiveness"`
}

// DefaultWeights returns the standard ranking weights.
func DefaultWeights() Weights {
	return Weights{
		Premium:  0.60,
		Appetite: 0.30,
		Coverage: 0.10,
		Probability: ProbabilityWeights{
			Eligibility:     0.35,
			Appetite:        0.40,
			Competitiveness: 0.25,
		},
	}
}

// LoadWeights reads ranking weight overrides from a YAML file.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, eris.Wrapf(err, "ranker: read weights %s", path)
	}

	// The YAML has a top-level "ranking" key
	var wrapper struct {
		Ranking Weights `yaml:"ranking"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Weights{}, eris.Wrap(err, "ranker: parse weights")
	}

	w := wrapper.Ranking
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Validate checks that each weight group sums to 1.0.
func (w Weights) Validate() error {
	composite := w.Premium + w.Appetite + w.Coverage
	if math.Abs(composite-1.0) > 1e-9 {
		return eris.Errorf("ranker: composite weights sum to %.4f, want 1.0", composite)
	}
	prob := w.Probability.Eligibility + w.Probability.Appetite + w.Probability.Competitiveness
	if math.Abs(prob-1.0) > 1e-9 {
		return eris.Errorf("ranker: probability weights sum to %.4f, want 1.0", prob)
	}
	return nil
}
