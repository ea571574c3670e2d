// Package client talks to the remote secret detection API.
//
// [HTTPClient] implements [Scanner] by posting batches of documents to the
// multiscan endpoint. A call never returns a Go error: the outcome is a
// [Response], either [Success] with one [ScanResult] per submitted document
// or [Failure] with the service's detail message.
//
// Requests are rate limited with golang.org/x/time/rate and retried with
// exponential back-off (github.com/cenkalti/backoff) on 429 and 5xx
// responses. Authentication failures are never retried.
package client
