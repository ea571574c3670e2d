package patch

import (
	"fmt"
	"iter"
	"regexp"
	"strings"
)

// recordSeparator splits raw header records: each starts with ':' at the
// beginning of a line or right after a NUL terminator.
var recordSeparator = regexp.MustCompile("[\n\x00]:")

// Entry is one file record from a raw patch header.
type Entry struct {
	Filename string
	Mode     Filemode
}

// ParseHeader lazily yields one Entry per file record of a raw header, in
// header order. Iteration stops at the first malformed record, which is
// yielded as an error.
//
// The header is the text preceding the first "\x00diff " marker of a patch
// produced with --raw -z --patch. Any leading commit information is skipped.
func ParseHeader(header string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		// Prefixing a newline makes the first record separable when the
		// header has no commit information (git diff output).
		records := recordSeparator.Split("\n"+header, -1)
		for _, rec := range records[1:] {
			e, err := parseHeaderLine(":" + rec)
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// parseHeaderLine parses one raw record. For a non-merge commit the prefix is
//
//	:old_perm new_perm old_sha new_sha status_and_score
//
// and for a merge commit there is one colon, permission, sha and status
// letter per parent. Only the status letters matter here.
func parseHeaderLine(line string) (Entry, error) {
	parts := strings.Split(strings.TrimRight(line, "\x00"), "\x00")
	if len(parts) < 2 {
		return Entry{}, fmt.Errorf("can't parse header line %q: missing filename", line)
	}
	prefix, name := parts[0], parts[1]
	if len(parts) > 2 {
		// Renames and copies carry the new name last.
		name = parts[2]
	}

	status := prefix
	if i := strings.LastIndexByte(prefix, ' '); i >= 0 {
		status = prefix[i+1:]
	}
	status = strings.TrimRight(status, "0123456789")

	mode, ok := modeFromStatus(status)
	if !ok {
		return Entry{}, &HeaderError{Line: line, Status: status}
	}
	return Entry{Filename: name, Mode: mode}, nil
}
