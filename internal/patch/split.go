package patch

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxFileSize is the largest document the scanning API accepts, in bytes.
const MaxFileSize = 1 << 20

// bodySeparator splits the patch body into per-file diffs.
var bodySeparator = regexp.MustCompile(`(?m)^diff `)

// Matcher reports whether a path is excluded from scanning.
type Matcher interface {
	Match(path string) bool
}

// Document is the scannable content extracted for one file of a patch.
type Document struct {
	Filename string
	Content  string
	Mode     Filemode
}

// Split parses a raw patch and returns one Document per file with textual
// content. Files matched by exclude, files without a hunk and files whose
// content exceeds 90% of MaxFileSize are dropped. commit only labels errors.
//
// On failure no documents are returned and the error is a *ParseError.
func Split(commit, raw string, exclude Matcher) ([]Document, error) {
	docs, err := split(raw, exclude)
	if err != nil {
		return nil, &ParseError{Commit: commit, Err: err}
	}
	return docs, nil
}

func split(raw string, exclude Matcher) ([]Document, error) {
	header, rest, found := strings.Cut(raw, "\x00diff ")
	if !found {
		return nil, nil
	}

	var entries []Entry
	for e, err := range ParseHeader(header) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	bodies := bodySeparator.Split(rest, -1)
	if len(bodies) != len(entries) {
		return nil, fmt.Errorf("header lists %d files but patch has %d diffs", len(entries), len(bodies))
	}

	var docs []Document
	for i, e := range entries {
		if exclude != nil && exclude.Match(e.Filename) {
			continue
		}
		content, ok := documentContent(bodies[i])
		if !ok {
			continue
		}
		if exceedsSizeLimit(content) {
			continue
		}
		docs = append(docs, Document{
			Filename: strings.ToValidUTF8(e.Filename, "�"),
			Content:  content,
			Mode:     e.Mode,
		})
	}
	return docs, nil
}

// documentContent skips the extended diff headers ("old mode", "--- a/",
// "+++ b/", ...) and returns everything from the first hunk marker on.
func documentContent(diff string) (string, bool) {
	i := strings.Index(diff, "\n@@")
	if i < 0 {
		return "", false
	}
	content := strings.ToValidUTF8(diff[i+1:], "�")
	return content, content != ""
}

// exceedsSizeLimit reserves 10% of MaxFileSize for the request envelope.
func exceedsSizeLimit(content string) bool {
	return len(content)*10 > MaxFileSize*9
}
