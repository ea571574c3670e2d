// Package redact hides secret values before they are printed.
//
// [Match] censors a matched secret, keeping a few characters at each end so
// the user can recognise it. [Secrets] scrubs common secret shapes from
// free text such as API error details.
package redact
