// Package cli wires together the Cobra command tree for the shieldscan
// binary.
//
// It defines the root command and all subcommands (scan, cache, ignore,
// config, hook, version), binds flags, reads configuration, runs the
// scanner, and returns deterministic exit codes for CI gating and git hooks.
package cli
