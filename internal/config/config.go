// Package config loads and validates the retiming tuning parameters.
// path_tolerance, resample_dt and min_angle_change use the same JSON names
// as the /api/retime request options; the scaling factors are named
// max_*_scaling_factor here and *_scaling_factor in requests, and
// time_step, listen and db_path are startup-only settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the tunable retiming parameters. Fields omitted
// from a JSON file stay nil and fall back to the built-in defaults via the
// getters, so partial configs are safe.
type TuningConfig struct {
	PathTolerance  *float64 `json:"path_tolerance,omitempty"`
	ResampleDt     *float64 `json:"resample_dt,omitempty"`
	MinAngleChange *float64 `json:"min_angle_change,omitempty"`
	TimeStep       *float64 `json:"time_step,omitempty"`

	MaxVelocityScalingFactor     *float64 `json:"max_velocity_scaling_factor,omitempty"`
	MaxAccelerationScalingFactor *float64 `json:"max_acceleration_scaling_factor,omitempty"`

	// Server settings
	Listen *string `json:"listen,omitempty"`
	DBPath *string `json:"db_path,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// DefaultTuningConfig returns the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		PathTolerance:                ptrFloat64(0.1),
		ResampleDt:                   ptrFloat64(0.1),
		MinAngleChange:               ptrFloat64(0.001),
		TimeStep:                     ptrFloat64(0.001),
		MaxVelocityScalingFactor:     ptrFloat64(1.0),
		MaxAccelerationScalingFactor: ptrFloat64(1.0),
		Listen:                       ptrString(":8080"),
		DBPath:                       ptrString("pathtime.db"),
	}
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must
// have a .json extension and the file must stay under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cleanPath, err)
	}
	return cfg, nil
}

// Validate rejects values that can never work regardless of context.
func (c *TuningConfig) Validate() error {
	check := func(name string, v *float64) error {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %g", name, *v)
		}
		return nil
	}
	if err := check("path_tolerance", c.PathTolerance); err != nil {
		return err
	}
	if err := check("resample_dt", c.ResampleDt); err != nil {
		return err
	}
	if err := check("min_angle_change", c.MinAngleChange); err != nil {
		return err
	}
	if err := check("time_step", c.TimeStep); err != nil {
		return err
	}
	return nil
}

// Getters fall back to the built-in defaults for unset fields.

func (c *TuningConfig) GetPathTolerance() float64 {
	if c.PathTolerance != nil {
		return *c.PathTolerance
	}
	return *DefaultTuningConfig().PathTolerance
}

func (c *TuningConfig) GetResampleDt() float64 {
	if c.ResampleDt != nil {
		return *c.ResampleDt
	}
	return *DefaultTuningConfig().ResampleDt
}

func (c *TuningConfig) GetMinAngleChange() float64 {
	if c.MinAngleChange != nil {
		return *c.MinAngleChange
	}
	return *DefaultTuningConfig().MinAngleChange
}

func (c *TuningConfig) GetTimeStep() float64 {
	if c.TimeStep != nil {
		return *c.TimeStep
	}
	return *DefaultTuningConfig().TimeStep
}

func (c *TuningConfig) GetMaxVelocityScalingFactor() float64 {
	if c.MaxVelocityScalingFactor != nil {
		return *c.MaxVelocityScalingFactor
	}
	return *DefaultTuningConfig().MaxVelocityScalingFactor
}

func (c *TuningConfig) GetMaxAccelerationScalingFactor() float64 {
	if c.MaxAccelerationScalingFactor != nil {
		return *c.MaxAccelerationScalingFactor
	}
	return *DefaultTuningConfig().MaxAccelerationScalingFactor
}

func (c *TuningConfig) GetListen() string {
	if c.Listen != nil {
		return *c.Listen
	}
	return *DefaultTuningConfig().Listen
}

func (c *TuningConfig) GetDBPath() string {
	if c.DBPath != nil {
		return *c.DBPath
	}
	return *DefaultTuningConfig().DBPath
}
