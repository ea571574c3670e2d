// Shieldscan is a CLI that scans git commits, staged changes and files for
// leaked secrets using a remote detection API.
//
// It reports findings with deterministic exit codes suitable for CI gating
// and git hooks.
//
// Usage:
//
//	shieldscan scan commit <sha>              # scan one commit
//	shieldscan scan range origin/main..HEAD   # scan every commit of a range
//	shieldscan scan pre-commit                # scan staged changes
//	shieldscan scan pre-push                  # report secrets a push adds
//	shieldscan scan path ./deploy             # scan the files of a directory
//	shieldscan scan diff --ref main           # compare the working tree to a ref
//	shieldscan ignore --last-found            # ignore the last findings
package main
