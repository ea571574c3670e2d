// Package patch parses the output of `git show|diff --raw -z --patch` into
// per-file documents.
//
// The raw header (one NUL-separated record per changed file) gives each file's
// name and [Filemode]; the patch body gives its content. [Split] pairs the two
// positionally, drops excluded, contentless and oversized files, and returns
// the remaining [Document] values. Any failure is reported as a single
// [*ParseError] naming the commit.
package patch
