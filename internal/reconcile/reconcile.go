package reconcile

import (
	"github.com/dshills/shieldscan/internal/client"
	"github.com/dshills/shieldscan/internal/scan"
)

// Key identifies a finding across scans.
type Key struct {
	Filename    string `json:"filename"`
	Detector    string `json:"detector"`
	Fingerprint string `json:"fingerprint"`
}

// Finding is one finding of a scan with its identity.
type Finding struct {
	Key
	Break client.PolicyBreak `json:"policy_break"`
}

// Result partitions the findings of two scans. The three slices are
// disjoint and together hold every identity seen in either scan.
type Result struct {
	New       []Finding `json:"new"`
	Unchanged []Finding `json:"unchanged"`
	Deleted   []Finding `json:"deleted"`
}

// Findings flattens an outcome into findings, in result order, without
// duplicate identities.
func Findings(o *scan.Outcome) []Finding {
	if o == nil {
		return nil
	}
	var out []Finding
	seen := make(map[Key]bool)
	for _, r := range o.Results {
		for _, pb := range r.Scan.PolicyBreaks {
			k := Key{Filename: r.Unit.Filename(), Detector: pb.Type, Fingerprint: pb.Fingerprint()}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, Finding{Key: k, Break: pb})
		}
	}
	return out
}

// Reconcile classifies the findings of current against baseline. baseline
// may be nil.
func Reconcile(baseline, current *scan.Outcome) Result {
	base := Findings(baseline)
	cur := Findings(current)

	inBase := make(map[Key]bool, len(base))
	for _, f := range base {
		inBase[f.Key] = true
	}
	inCur := make(map[Key]bool, len(cur))
	for _, f := range cur {
		inCur[f.Key] = true
	}

	var r Result
	for _, f := range cur {
		if inBase[f.Key] {
			r.Unchanged = append(r.Unchanged, f)
		} else {
			r.New = append(r.New, f)
		}
	}
	for _, f := range base {
		if !inCur[f.Key] {
			r.Deleted = append(r.Deleted, f)
		}
	}
	return r
}

// HasNew reports whether the current scan introduced findings.
func (r Result) HasNew() bool {
	return len(r.New) > 0
}
