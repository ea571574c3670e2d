package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/dshills/shieldscan/internal/patch"
)

// MultiDocumentLimit is the maximum number of documents per multiscan request.
const MultiDocumentLimit = 20

// SecretsPolicy is the policy name the API uses for secret findings.
const SecretsPolicy = "Secrets detection"

// Payload is one document as submitted to the API.
type Payload struct {
	Filename string         `json:"filename"`
	Document string         `json:"document"`
	Filemode patch.Filemode `json:"filemode"`
}

// Match is one matched value inside a policy break.
type Match struct {
	Match      string `json:"match"`
	Type       string `json:"type"`
	IndexStart *int   `json:"index_start,omitempty"`
	IndexEnd   *int   `json:"index_end,omitempty"`
	LineStart  *int   `json:"line_start,omitempty"`
	LineEnd    *int   `json:"line_end,omitempty"`
}

// PolicyBreak is a finding returned by the API for a document.
type PolicyBreak struct {
	Type     string  `json:"type"`
	Policy   string  `json:"policy"`
	Validity string  `json:"validity,omitempty"`
	Matches  []Match `json:"matches"`
}

// IsSecret reports whether the finding comes from secret detection.
func (pb PolicyBreak) IsSecret() bool {
	return pb.Policy == SecretsPolicy
}

// Fingerprint returns a stable identity for the matched secret. It depends
// only on the matched values and their types, not on filename or position.
func (pb PolicyBreak) Fingerprint() string {
	matches := make([]Match, len(pb.Matches))
	copy(matches, pb.Matches)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Type < matches[j].Type
	})
	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m.Match)
		b.WriteByte(',')
		b.WriteString(m.Type)
	}
	h := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(h[:])
}

// ScanResult holds the findings for one document.
type ScanResult struct {
	PolicyBreakCount int           `json:"policy_break_count"`
	Policies         []string      `json:"policies"`
	PolicyBreaks     []PolicyBreak `json:"policy_breaks"`
}

// HasPolicyBreaks reports whether any finding remains.
func (r ScanResult) HasPolicyBreaks() bool {
	return len(r.PolicyBreaks) > 0
}

// Response is the outcome of a multiscan call: *Success or *Failure.
type Response interface {
	isResponse()
}

// Success carries one result per submitted document, in submission order.
type Success struct {
	Results []ScanResult
}

// Failure describes a batch the API did not scan.
type Failure struct {
	Status int
	Detail string
}

func (*Success) isResponse() {}
func (*Failure) isResponse() {}

// Scanner submits a batch of documents for scanning.
type Scanner interface {
	MultiContentScan(ctx context.Context, docs []Payload, headers map[string]string) Response
}
