// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
	yamlv3 "gopkg.in/yaml.v3"
)

// Zone defines a geographic area targets launch from or fly toward.
type Zone struct {
	Name      string  `yaml:"name"`
	CenterLat float64 `yaml:"center_lat"`
	CenterLon float64 `yaml:"center_lon"`
	RadiusKM  float64 `yaml:"radius_km"`
}

// Platform describes one tracking platform of the constellation.
type Platform struct {
	ID             string  `yaml:"id"`
	Lat            float64 `yaml:"lat"`
	Lon            float64 `yaml:"lon"`
	AltKM          float64 `yaml:"alt_km"`
	DriftDegPerMin float64 `yaml:"drift_deg_per_min"`
}

// Spawner controls synthetic target generation for the detection feed.
type Spawner struct {
	CountPerCycle   int     `yaml:"count_per_cycle"`
	FlightTimeMinS  float64 `yaml:"flight_time_min_s"`
	FlightTimeMaxS  float64 `yaml:"flight_time_max_s"`
	SampleIntervalS float64 `yaml:"sample_interval_s"`
	ApexAltKM       float64 `yaml:"apex_alt_km"`
}

// Distribution holds the task distributor policy.
type Distribution struct {
	VisibilityThresholdKM float64 `yaml:"visibility_threshold_km"`
	Workers               int     `yaml:"workers"`
	MaxPairs              int     `yaml:"max_pairs"`
}

// Discussion holds the session monitor wait policy.
type Discussion struct {
	PollIntervalS         float64 `yaml:"poll_interval_s"`
	BaseTimePerIterationS float64 `yaml:"base_time_per_iteration_s"`
	MaxIterations         int     `yaml:"max_iterations"`
	SafetyMargin          float64 `yaml:"safety_margin"`
	AbsoluteCapS          float64 `yaml:"absolute_cap_s"`
}

// Reporting configures the advisory report sink.
type Reporting struct {
	OutputDir string `yaml:"output_dir"`
}

// PlanningConfig is the root configuration for the rolling planner.
type PlanningConfig struct {
	LaunchZones  []Zone       `yaml:"launch_zones"`
	ImpactZones  []Zone       `yaml:"impact_zones"`
	Platforms    []Platform   `yaml:"platforms"`
	Spawner      Spawner      `yaml:"spawner"`
	Distribution Distribution `yaml:"distribution"`
	Discussion   Discussion   `yaml:"discussion"`
	Reporting    Reporting    `yaml:"reporting"`
	MaxCycles    int          `yaml:"max_cycles"`
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*PlanningConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg PlanningConfig
	if err := yamlv3.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateWithCue validates a YAML configuration file using a CUE schema file.
func ValidateWithCue(configFile, cueFile string) error {
	ctx := cuecontext.New()

	yamlBytes, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	yamlFile, err := yaml.Extract(configFile, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(yamlFile)

	schemaBytes, err := os.ReadFile(cueFile)
	if err != nil {
		return fmt.Errorf("cannot read CUE schema: %w", err)
	}
	schemaVal := ctx.CompileBytes(schemaBytes)

	final := configVal.Unify(schemaVal)
	if final.Err() != nil {
		return fmt.Errorf("schema unify failed: %w", final.Err())
	}
	if err := final.Validate(); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
