// Package gitctx runs git to collect the raw material of a scan.
//
// A [Repo] shells out to the git binary inside one working tree. It returns
// raw patches in the `--raw -z --patch` format understood by package patch,
// commit lists for range scans, and the contents of tracked files at a ref
// for differential scans. [ParsePrePush] reads the lines git passes on the
// standard input of a pre-push hook.
package gitctx
