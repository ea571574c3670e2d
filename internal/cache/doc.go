// Package cache records the findings reported by the last scan.
//
// The cache is a single JSON file at a fixed local path (by default
// .cache_shieldscan in the working directory). Each scan starts with
// [Cache.Purge], registers every surfaced finding with
// [Cache.AddFoundPolicyBreak], and ends with one [Cache.Save]. Entries are
// keyed by the finding fingerprint and filename; they never expire.
//
// The cache only records. It never filters findings: `shieldscan ignore
// --last-found` turns the recorded fingerprints into ignore rules.
//
// Read and write failures are logged and otherwise ignored, so a missing or
// corrupt cache file never prevents a scan.
package cache
