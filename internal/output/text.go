package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/shieldscan/internal/client"
	"github.com/dshills/shieldscan/internal/reconcile"
	"github.com/dshills/shieldscan/internal/redact"
	"github.com/dshills/shieldscan/internal/scan"
)

const rule = 60

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) WriteScan(w io.Writer, r *ScanReport) error {
	ew := &errWriter{w: w}
	header(ew, "secret scan", r.Info)

	total := r.Outcome.PolicyBreakCount()
	if total == 0 {
		ew.println("No secrets have been found")
	} else {
		files := 0
		if r.Outcome != nil {
			files = len(r.Outcome.Results)
		}
		ew.printf("%s found in %s\n", plural(total, "incident"), plural(files, "file"))
	}

	if r.Outcome != nil {
		for _, res := range r.Outcome.Results {
			ew.printf("\n%s (%s): %s\n", res.Unit.Filename(), res.Unit.Mode(), plural(len(res.Scan.PolicyBreaks), "incident"))
			for i, pb := range res.Scan.PolicyBreaks {
				writeBreak(ew, i+1, pb)
			}
		}
		writeErrors(ew, r.Outcome.Errors)
	}
	return ew.err
}

func (t *TextWriter) WriteDiff(w io.Writer, r *DiffReport) error {
	ew := &errWriter{w: w}
	header(ew, "diff scan", r.Info)
	if r.Baseline == "" {
		ew.println("No baseline: every incident is new")
	} else {
		ew.printf("Baseline: %s\n", r.Baseline)
	}
	ew.printf("%s, %d unchanged, %d removed\n",
		plural(len(r.Result.New), "new incident"), len(r.Result.Unchanged), len(r.Result.Deleted))

	sections := []struct {
		title    string
		findings []reconcile.Finding
	}{
		{"NEW", r.Result.New},
		{"UNCHANGED", r.Result.Unchanged},
		{"REMOVED", r.Result.Deleted},
	}
	for _, s := range sections {
		if len(s.findings) == 0 {
			continue
		}
		ew.printf("\n%s\n%s\n", s.title, strings.Repeat("─", 40))
		for _, f := range s.findings {
			ew.printf("  %s  %s  %s\n", f.Filename, f.Detector, shortFingerprint(f.Fingerprint))
			for _, m := range f.Break.Matches {
				writeMatch(ew, "    ", m)
			}
		}
	}
	writeErrors(ew, r.Errors)
	return ew.err
}

func header(ew *errWriter, kind string, info Info) {
	title := fmt.Sprintf("%s %s", info.Tool, kind)
	if info.Type != "" {
		title += ": " + info.Type
	}
	if info.Target != "" {
		title += " " + info.Target
	}
	ew.println(title)
	if info.Repo != "" {
		ew.printf("Repository: %s (branch: %s)\n", info.Repo, info.Branch)
	}
	ew.println(strings.Repeat("─", rule))
}

func writeBreak(ew *errWriter, n int, pb client.PolicyBreak) {
	ew.printf("  >> Incident %d (%s): %s", n, pb.Policy, pb.Type)
	if pb.IsSecret() && pb.Validity != "" {
		ew.printf(" (Validity: %s)", pb.Validity)
	}
	ew.printf("\n     Fingerprint: %s\n", shortFingerprint(pb.Fingerprint()))
	for _, m := range pb.Matches {
		writeMatch(ew, "     ", m)
	}
}

func writeMatch(ew *errWriter, indent string, m client.Match) {
	ew.printf("%s%s: %s", indent, m.Type, redact.Match(m.Match))
	if m.LineStart != nil {
		ew.printf("  line %d", *m.LineStart)
	}
	ew.println("")
}

func writeErrors(ew *errWriter, errs []scan.Error) {
	if len(errs) == 0 {
		return
	}
	files := 0
	for _, e := range errs {
		files += len(e.Files)
	}
	ew.printf("\n%s\n", strings.Repeat("─", rule))
	ew.printf("%s could not be scanned:\n", plural(files, "file"))
	for _, e := range errs {
		names := make([]string, len(e.Files))
		for i, f := range e.Files {
			names[i] = f.Filename
		}
		if len(names) == 0 {
			ew.printf("  - %s\n", redact.Secrets(e.Description))
			continue
		}
		ew.printf("  - %s: %s\n", strings.Join(names, ", "), redact.Secrets(e.Description))
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
