// Package config loads and merges shieldscan configuration from multiple
// sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (SHIELDSCAN_API_KEY, SHIELDSCAN_EXIT_ZERO, etc.),
//     after an optional .env file is loaded
//  3. Local config file (.shieldscan.yaml in the working directory)
//  4. User config file ($XDG_CONFIG_HOME/shieldscan/config.yaml)
//  5. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config
