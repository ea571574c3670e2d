// Package reconcile compares the findings of two scans.
//
// [Reconcile] partitions the union of a baseline scan (an older point in
// history) and a current scan into findings that are new, unchanged or
// deleted. Findings are compared by identity: filename, detector and the
// fingerprint of the matched secret. A missing baseline, such as the first
// push of a branch, counts as empty, so every current finding is new.
package reconcile
