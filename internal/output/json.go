package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/shieldscan/internal/client"
	"github.com/dshills/shieldscan/internal/patch"
	"github.com/dshills/shieldscan/internal/reconcile"
	"github.com/dshills/shieldscan/internal/redact"
	"github.com/dshills/shieldscan/internal/scan"
)

// JSONWriter outputs reports as JSON.
type JSONWriter struct{}

type jsonScan struct {
	Info
	TotalIncidents int          `json:"total_incidents"`
	Entities       []jsonEntity `json:"entities_with_incidents"`
	Errors         []scan.Error `json:"errors"`
}

type jsonEntity struct {
	Filename       string         `json:"filename"`
	Mode           patch.Filemode `json:"mode"`
	TotalIncidents int            `json:"total_incidents"`
	Incidents      []jsonIncident `json:"incidents"`
}

type jsonIncident struct {
	Filename    string           `json:"filename,omitempty"`
	Detector    string           `json:"type"`
	Policy      string           `json:"policy"`
	Validity    string           `json:"validity,omitempty"`
	Fingerprint string           `json:"fingerprint"`
	Occurrences []jsonOccurrence `json:"occurrences"`
}

type jsonOccurrence struct {
	Match      string `json:"match"`
	Type       string `json:"type"`
	LineStart  *int   `json:"line_start,omitempty"`
	LineEnd    *int   `json:"line_end,omitempty"`
	IndexStart *int   `json:"index_start,omitempty"`
	IndexEnd   *int   `json:"index_end,omitempty"`
}

type jsonDiff struct {
	Info
	Baseline   string         `json:"baseline,omitempty"`
	Added      []jsonIncident `json:"added_vulns"`
	Persisting []jsonIncident `json:"persisting_vulns"`
	Removed    []jsonIncident `json:"removed_vulns"`
	Errors     []scan.Error   `json:"errors"`
}

func (j *JSONWriter) WriteScan(w io.Writer, r *ScanReport) error {
	out := jsonScan{Info: r.Info, Entities: []jsonEntity{}, Errors: []scan.Error{}}
	if r.Outcome != nil {
		for _, res := range r.Outcome.Results {
			e := jsonEntity{
				Filename:       res.Unit.Filename(),
				Mode:           res.Unit.Mode(),
				TotalIncidents: len(res.Scan.PolicyBreaks),
				Incidents:      make([]jsonIncident, 0, len(res.Scan.PolicyBreaks)),
			}
			for _, pb := range res.Scan.PolicyBreaks {
				e.Incidents = append(e.Incidents, incident("", pb))
			}
			out.TotalIncidents += e.TotalIncidents
			out.Entities = append(out.Entities, e)
		}
		out.Errors = append(out.Errors, censorErrors(r.Outcome.Errors)...)
	}
	return encode(w, out)
}

func (j *JSONWriter) WriteDiff(w io.Writer, r *DiffReport) error {
	out := jsonDiff{
		Info:       r.Info,
		Baseline:   r.Baseline,
		Added:      incidents(r.Result.New),
		Persisting: incidents(r.Result.Unchanged),
		Removed:    incidents(r.Result.Deleted),
		Errors:     append([]scan.Error{}, censorErrors(r.Errors)...),
	}
	return encode(w, out)
}

func incidents(fs []reconcile.Finding) []jsonIncident {
	out := make([]jsonIncident, 0, len(fs))
	for _, f := range fs {
		out = append(out, incident(f.Filename, f.Break))
	}
	return out
}

func incident(filename string, pb client.PolicyBreak) jsonIncident {
	inc := jsonIncident{
		Filename:    filename,
		Detector:    pb.Type,
		Policy:      pb.Policy,
		Validity:    pb.Validity,
		Fingerprint: pb.Fingerprint(),
		Occurrences: make([]jsonOccurrence, 0, len(pb.Matches)),
	}
	for _, m := range pb.Matches {
		inc.Occurrences = append(inc.Occurrences, jsonOccurrence{
			Match:      redact.Match(m.Match),
			Type:       m.Type,
			LineStart:  m.LineStart,
			LineEnd:    m.LineEnd,
			IndexStart: m.IndexStart,
			IndexEnd:   m.IndexEnd,
		})
	}
	return inc
}

func censorErrors(errs []scan.Error) []scan.Error {
	out := make([]scan.Error, len(errs))
	for i, e := range errs {
		out[i] = scan.Error{Files: e.Files, Description: redact.Secrets(e.Description)}
	}
	return out
}

func encode(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
