package cygnss

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/earthsignals/cygnss-gridder/model"
)

//go:embed config.yaml
var defaultConfigYAML []byte

// FlagSpec names one bit of a packed quality-flag field. Bit position is the
// flag's index in its table. Screen marks the flag as disqualifying: any set
// screen flag drops the row.
type FlagSpec struct {
	Name   string `yaml:"name"`
	Screen bool   `yaml:"screen"`
}

// ProductConfig describes the variable and quality-flag layout of one data
// product level.
type ProductConfig struct {
	ProductVersion string `yaml:"product_version"`

	// PerSampleVariables are 1-D arrays with one value per sample,
	// broadcast across the four DDM channels at ingest.
	PerSampleVariables []string `yaml:"per_sample_variables"`

	// PerDDMVariables are 2-D (sample x ddm) arrays, flattened channel-major.
	PerDDMVariables []string `yaml:"per_ddm_variables"`

	// QualityFlags and QualityFlags2 map bit positions of the two packed
	// quality fields to named flags, in bit order.
	QualityFlags  []FlagSpec `yaml:"quality_flags"`
	QualityFlags2 []FlagSpec `yaml:"quality_flags_2"`
}

// Config is the full product configuration, keyed by product level.
type Config struct {
	L1 ProductConfig `yaml:"L1"`
}

// Product returns the configuration for the given product level.
func (c *Config) Product(level model.ProductLevel) (ProductConfig, error) {
	switch level {
	case model.ProductL1:
		return c.L1, nil
	default:
		return ProductConfig{}, &ConfigurationError{Reason: fmt.Sprintf("no product configuration for level %s", level)}
	}
}

// DefaultConfig returns the embedded product configuration.
func DefaultConfig() (*Config, error) {
	return ParseConfig(defaultConfigYAML)
}

// LoadConfig reads a product configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := ParseConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses and validates a YAML product configuration.
func ParseConfig(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.L1.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Variables the ingest pipeline itself depends on. They must be present in
// the per-DDM variable list so geometry derivation and screening can run.
var requiredPerDDMVariables = []string{
	"sp_lat", "sp_lon", "sp_inc_angle", "rx_to_sp_range", "tx_to_sp_range", "track_id",
}

func (p ProductConfig) validate() error {
	perDDM := make(map[string]bool, len(p.PerDDMVariables))
	for _, v := range p.PerDDMVariables {
		perDDM[v] = true
	}
	for _, v := range requiredPerDDMVariables {
		if !perDDM[v] {
			return &ConfigurationError{Reason: fmt.Sprintf("per_ddm_variables must include %q", v)}
		}
	}

	seen := make(map[string]bool)
	for _, spec := range append(append([]FlagSpec{}, p.QualityFlags...), p.QualityFlags2...) {
		if spec.Name == "" {
			return &ConfigurationError{Reason: "quality flag with empty name"}
		}
		if seen[spec.Name] {
			return &ConfigurationError{Reason: fmt.Sprintf("duplicate quality flag %q", spec.Name)}
		}
		seen[spec.Name] = true
	}
	return nil
}

// ScreenFlags returns the names of all flags configured as disqualifying,
// across both flag tables.
func (p ProductConfig) ScreenFlags() []string {
	var names []string
	for _, spec := range p.QualityFlags {
		if spec.Screen {
			names = append(names, spec.Name)
		}
	}
	for _, spec := range p.QualityFlags2 {
		if spec.Screen {
			names = append(names, spec.Name)
		}
	}
	return names
}
