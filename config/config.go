// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package config loads startup configuration and resolves it into a
// dispatch engine and gamma cache once, at initialization.
//
// Backend and scalar-type selection happen here and nowhere else: hot
// paths never branch on platform or configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/causalml/substrate/backend/reference"
	"github.com/causalml/substrate/backend/webgpu"
	"github.com/causalml/substrate/clifford"
	"github.com/causalml/substrate/dispatch"
	"github.com/causalml/substrate/tensor"
)

// Backend selection values.
const (
	BackendReference   = "reference"
	BackendAccelerated = "accelerated"
	BackendAuto        = "auto"
)

// Config is the full startup configuration.
type Config struct {
	// Backend selects the compute path: reference, accelerated, or auto.
	// auto uses the accelerated backend when a GPU is available and
	// falls back to reference otherwise; accelerated fails hard when no
	// GPU can be initialized.
	Backend string `yaml:"backend"`

	// ScalarType is the default scalar type: f32, f64, complex32 or
	// complex64. Complex names follow component precision, so complex32
	// has float32 components; the Go type names c64 and c128 are
	// accepted as aliases.
	ScalarType string `yaml:"scalar_type"`

	Dispatch DispatchConfig `yaml:"dispatch"`
	Gamma    GammaConfig    `yaml:"gamma"`
}

// DispatchConfig holds the routing thresholds.
type DispatchConfig struct {
	DimensionThreshold int `yaml:"dimension_threshold"`
	BatchThreshold     int `yaml:"batch_threshold"`
}

// GammaConfig holds the gamma-table cache limits.
type GammaConfig struct {
	MaxDimension  int   `yaml:"max_dimension"`
	ByteBudgetMiB int64 `yaml:"byte_budget_mib"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:    BackendAuto,
		ScalarType: "f64",
		Dispatch: DispatchConfig{
			DimensionThreshold: dispatch.DimensionThreshold,
			BatchThreshold:     dispatch.BatchThreshold,
		},
		Gamma: GammaConfig{
			MaxDimension:  clifford.DefaultMaxDimension,
			ByteBudgetMiB: clifford.DefaultByteBudget >> 20,
		},
	}
}

// Load reads a YAML configuration file. Missing keys keep their default
// values; the result is validated before being returned.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendReference, BackendAccelerated, BackendAuto:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if _, err := c.DataType(); err != nil {
		return err
	}
	if c.Dispatch.DimensionThreshold < 1 || c.Dispatch.BatchThreshold < 1 {
		return fmt.Errorf("config: dispatch thresholds must be positive, got dim=%d batch=%d",
			c.Dispatch.DimensionThreshold, c.Dispatch.BatchThreshold)
	}
	if c.Gamma.MaxDimension < 1 {
		return fmt.Errorf("config: gamma max_dimension must be positive, got %d", c.Gamma.MaxDimension)
	}
	if c.Gamma.ByteBudgetMiB < 1 {
		return fmt.Errorf("config: gamma byte_budget_mib must be positive, got %d", c.Gamma.ByteBudgetMiB)
	}
	return nil
}

// DataType resolves the configured scalar type.
func (c Config) DataType() (tensor.DataType, error) {
	switch c.ScalarType {
	case "f32":
		return tensor.Float32, nil
	case "f64":
		return tensor.Float64, nil
	case "complex32", "c64":
		return tensor.Complex64, nil
	case "complex64", "c128":
		return tensor.Complex128, nil
	default:
		return 0, fmt.Errorf("config: unknown scalar_type %q (want f32, f64, complex32 or complex64)", c.ScalarType)
	}
}

// NewEngine builds the dispatch engine the configuration describes.
//
// With Backend=accelerated an initialization failure is an error; with
// auto it degrades silently to reference-only.
func NewEngine(c Config) (*dispatch.Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ref := reference.New()

	var accel tensor.Backend
	switch c.Backend {
	case BackendAccelerated:
		gpu, err := webgpu.New()
		if err != nil {
			return nil, fmt.Errorf("config: accelerated backend requested: %w", err)
		}
		accel = gpu
	case BackendAuto:
		if webgpu.IsAvailable() {
			if gpu, err := webgpu.New(); err == nil {
				accel = gpu
			}
		}
	}
	return dispatch.NewWithThresholds(ref, accel,
		c.Dispatch.DimensionThreshold, c.Dispatch.BatchThreshold), nil
}

// NewGammaCache builds a gamma cache with the configured limits.
func NewGammaCache(c Config) *clifford.Cache {
	return clifford.NewCacheWithLimits(c.Gamma.MaxDimension, c.Gamma.ByteBudgetMiB<<20)
}
