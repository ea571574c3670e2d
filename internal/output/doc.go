// Package output formats scan reports for display or machine consumption.
//
// Two formats are supported:
//   - text: human-readable terminal output (default)
//   - json: structured JSON, with added_vulns, persisting_vulns and
//     removed_vulns for differential scans
//
// Matched secret values are always censored. Use [GetWriter] to obtain a
// [Writer] for a format string, or [WriteScanReport] and [WriteDiffReport]
// to write to a file or stdout.
package output
