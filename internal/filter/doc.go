// Package filter holds the user-configured suppression rules: excluded
// paths, ignored matches and ignored detectors.
package filter
