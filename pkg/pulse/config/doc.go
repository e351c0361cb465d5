/*
Package config provides type-safe configuration extraction from map[string]any.

# Overview

config wraps a map[string]any and provides typed accessor methods that
handle missing keys and type mismatches gracefully by returning default
values. pulse uses it to translate YAML/JSON settings into producer options
(see pulse.FromConfig) without verbose type assertions.

# Basic Usage

	cfg := config.New(map[string]any{
	    "name":            "telemetry",
	    "metrics_enabled": true,
	})

	name := cfg.String("name", "sink")            // "telemetry"
	metrics := cfg.Bool("metrics_enabled", false) // true
	missing := cfg.Int("buffer", 64)              // 64

# File Loading

Load configuration from YAML or JSON files:

	cfg, err := config.FromFile("pulse.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	sink := pulse.NewSink[int](pulse.FromConfig(cfg)...)

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config
