package scan

import (
	"github.com/dshills/shieldscan/internal/client"
	"github.com/dshills/shieldscan/internal/patch"
)

// Result pairs a scanned unit with the findings surfaced for it.
type Result struct {
	Unit Unit
	Scan client.ScanResult
}

// FileRef identifies a file in an Error.
type FileRef struct {
	Filename string         `json:"filename"`
	Mode     patch.Filemode `json:"mode"`
}

// Error records a batch of files that could not be scanned.
type Error struct {
	Files       []FileRef `json:"files"`
	Description string    `json:"description"`
	// Auth is set when the API refused the credentials.
	Auth bool `json:"-"`
}

// Outcome is the aggregate of a scan.
type Outcome struct {
	Results []Result
	Errors  []Error
}

// OutcomeFromError returns an Outcome describing a scan that failed before
// any file was scanned.
func OutcomeFromError(err error) *Outcome {
	return &Outcome{Errors: []Error{{Description: err.Error()}}}
}

// HasResults reports whether any finding was surfaced.
func (o *Outcome) HasResults() bool {
	return o != nil && len(o.Results) > 0
}

// PolicyBreakCount returns the total number of findings.
func (o *Outcome) PolicyBreakCount() int {
	if o == nil {
		return 0
	}
	n := 0
	for _, r := range o.Results {
		n += len(r.Scan.PolicyBreaks)
	}
	return n
}

// AuthFailed reports whether any batch was refused for bad credentials.
func (o *Outcome) AuthFailed() bool {
	if o == nil {
		return false
	}
	for _, e := range o.Errors {
		if e.Auth {
			return true
		}
	}
	return false
}

// Merge appends other's results and errors to o.
func (o *Outcome) Merge(other *Outcome) {
	if other == nil {
		return
	}
	o.Results = append(o.Results, other.Results...)
	o.Errors = append(o.Errors, other.Errors...)
}
