package patch

import "fmt"

// HeaderError reports a raw header record whose status letters are unknown.
type HeaderError struct {
	Line   string
	Status string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("can't parse header line %q: unknown status %q", e.Line, e.Status)
}

// ParseError is returned when a commit's patch cannot be parsed. No files are
// returned alongside it.
type ParseError struct {
	Commit string
	Err    error
}

func (e *ParseError) Error() string {
	commit := e.Commit
	if commit == "" {
		commit = "staged"
	}
	return fmt.Sprintf("could not parse patch (sha: %s): %v", commit, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
