// Package config loads, normalizes, and validates micrec configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// MICREC_FFMPEG and MICREC_DEVICE. The Config type centralizes every knob the
// recorder and CLI need so that capture parameters, directories, and log
// settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
