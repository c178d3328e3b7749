// Package config loads, normalizes, and validates catalog configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts),
// reads TOML files, and honours the CATALOG_DATA_DIR environment override.
// The catalog section holds the policy flags that decide which integrity
// checks run on save; Flags converts them into the value the save pipeline
// takes explicitly, so no check ever reads configuration on its own.
package config
