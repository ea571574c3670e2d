package output

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/dshills/shieldscan/internal/reconcile"
	"github.com/dshills/shieldscan/internal/scan"
)

// Info describes the run a report belongs to.
type Info struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
	RunID   string `json:"id"`
	Type    string `json:"type"`
	Target  string `json:"target,omitempty"`
	Repo    string `json:"repository,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// NewInfo returns an Info with a fresh run ID.
func NewInfo(tool, version, scanType, target string) Info {
	return Info{
		Tool:    tool,
		Version: version,
		RunID:   uuid.NewString(),
		Type:    scanType,
		Target:  target,
	}
}

// ScanReport is the result of a plain scan.
type ScanReport struct {
	Info
	Outcome *scan.Outcome
}

// DiffReport is the result of a differential scan. Baseline is empty when
// there was nothing to compare against.
type DiffReport struct {
	Info
	Baseline string
	Result   reconcile.Result
	Errors   []scan.Error
}

// Writer writes reports in a specific format.
type Writer interface {
	WriteScan(w io.Writer, r *ScanReport) error
	WriteDiff(w io.Writer, r *DiffReport) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteScanReport writes r to outPath, or to stdout when outPath is empty.
func WriteScanReport(r *ScanReport, format, outPath string) error {
	return write(format, outPath, func(wr Writer, w io.Writer) error {
		return wr.WriteScan(w, r)
	})
}

// WriteDiffReport writes r to outPath, or to stdout when outPath is empty.
func WriteDiffReport(r *DiffReport, format, outPath string) error {
	return write(format, outPath, func(wr Writer, w io.Writer) error {
		return wr.WriteDiff(w, r)
	})
}

func write(format, outPath string, fn func(Writer, io.Writer) error) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	if outPath == "" {
		return fn(writer, os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := fn(writer, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
