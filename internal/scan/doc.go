// Package scan turns content into scannable units and submits them to the
// detection API.
//
// A [Unit] is one document (a file, or the diff of one file in a commit). A
// [Collection] keeps units ordered and unique by filename; [Commit] builds
// one lazily from a commit's raw patch. [Scanner.Scan] splits a collection
// into chunks of at most client.MultiDocumentLimit documents, scans them
// with up to four concurrent workers, applies ignore rules, records findings
// in the cache and returns an [Outcome].
//
// A chunk that fails is reported in Outcome.Errors; the other chunks are
// still scanned. Results are returned in submission order regardless of the
// order in which chunks complete.
package scan
