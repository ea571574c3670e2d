package filter

import (
	"github.com/dshills/shieldscan/internal/client"
)

// IgnoredMatch is a finding the user chose to ignore. Match is either a
// fingerprint or the raw matched value.
type IgnoredMatch struct {
	Name  string `yaml:"name" json:"name"`
	Match string `yaml:"match" json:"match"`
}

// RemoveIgnored returns r without the policy breaks matched by ignored.
func RemoveIgnored(r client.ScanResult, ignored []IgnoredMatch) client.ScanResult {
	if len(ignored) == 0 {
		return r
	}
	set := make(map[string]struct{}, len(ignored))
	for _, m := range ignored {
		set[m.Match] = struct{}{}
	}
	return keep(r, func(pb client.PolicyBreak) bool {
		if _, ok := set[pb.Fingerprint()]; ok {
			return false
		}
		for _, m := range pb.Matches {
			if _, ok := set[m.Match]; ok {
				return false
			}
		}
		return true
	})
}

// RemoveIgnoredDetectors returns r without the policy breaks reported by
// one of the given detectors.
func RemoveIgnoredDetectors(r client.ScanResult, detectors map[string]struct{}) client.ScanResult {
	if len(detectors) == 0 {
		return r
	}
	return keep(r, func(pb client.PolicyBreak) bool {
		_, ignored := detectors[pb.Type]
		return !ignored
	})
}

func keep(r client.ScanResult, pred func(client.PolicyBreak) bool) client.ScanResult {
	out := r
	out.PolicyBreaks = nil
	for _, pb := range r.PolicyBreaks {
		if pred(pb) {
			out.PolicyBreaks = append(out.PolicyBreaks, pb)
		}
	}
	out.PolicyBreakCount = len(out.PolicyBreaks)
	return out
}

// DetectorSet builds a lookup set from detector names.
func DetectorSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
