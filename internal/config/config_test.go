package config

import (
	"os"
	"testing"
)

func TestLoadConfig_Valid(t *testing.T) {
	tmpFile := "test-planning.yaml"
	defer os.Remove(tmpFile)
	yaml := `
launch_zones:
  - name: zone-a
    center_lat: 40.0
    center_lon: 120.0
    radius_km: 300
impact_zones:
  - name: zone-b
    center_lat: 35.0
    center_lon: -100.0
    radius_km: 300
platforms:
  - id: sat-01
    lat: 10.0
    lon: 50.0
    alt_km: 1800
spawner:
  count_per_cycle: 2
  flight_time_min_s: 900
  flight_time_max_s: 1800
  sample_interval_s: 10
  apex_alt_km: 400
distribution:
  visibility_threshold_km: 2000
discussion:
  poll_interval_s: 5
  base_time_per_iteration_s: 60
  max_iterations: 5
  safety_margin: 1.5
  absolute_cap_s: 600
max_cycles: 10
`
	if err := os.WriteFile(tmpFile, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile, "../../schemas/planning.cue")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.Platforms) != 1 || cfg.Platforms[0].ID != "sat-01" {
		t.Errorf("Unexpected platform data: %+v", cfg.Platforms)
	}
	if cfg.Discussion.MaxIterations != 5 {
		t.Errorf("MaxIterations = %d, want 5", cfg.Discussion.MaxIterations)
	}
	if cfg.MaxCycles != 10 {
		t.Errorf("MaxCycles = %d, want 10", cfg.MaxCycles)
	}
}

func TestLoadConfig_SchemaViolation(t *testing.T) {
	tmpFile := "test-planning-bad.yaml"
	defer os.Remove(tmpFile)
	yaml := `
platforms:
  - id: sat-01
    lat: 200.0
    lon: 50.0
    alt_km: 1800
`
	if err := os.WriteFile(tmpFile, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	if _, err := Load(tmpFile, "../../schemas/planning.cue"); err == nil {
		t.Error("expected schema validation error for lat=200, got nil")
	}
}
