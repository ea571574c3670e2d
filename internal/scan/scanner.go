package scan

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/shieldscan/internal/client"
	"github.com/dshills/shieldscan/internal/filter"
)

// maxConcurrency caps parallel API calls. The bottleneck is network latency
// and the API rate limit, not CPU.
const maxConcurrency = 4

// Cache records the findings of a scan.
type Cache interface {
	Purge()
	AddFoundPolicyBreak(pb client.PolicyBreak, filename string)
	Save() error
}

// Config configures a Scanner.
type Config struct {
	Client client.Scanner
	Cache  Cache

	// Version and CommandPath identify the caller to the API.
	Version     string
	CommandPath string
	// ExtraHeaders are sent with every request.
	ExtraHeaders map[string]string

	// Workers overrides the worker count. Zero means
	// min(GOMAXPROCS, 4).
	Workers int
	// ChunkSize overrides client.MultiDocumentLimit.
	ChunkSize int

	Logger *slog.Logger
}

// Scanner submits collections to the detection API.
type Scanner struct {
	client    client.Scanner
	cache     Cache
	headers   map[string]string
	workers   int
	chunkSize int
	log       *slog.Logger
}

// ScanOptions controls one scan.
type ScanOptions struct {
	// Mode labels the scan for the API ("commit", "pre_commit", ...).
	Mode             string
	IgnoredMatches   []filter.IgnoredMatch
	IgnoredDetectors map[string]struct{}
	// OnChunkScanned is called once per chunk, in completion order, whether
	// the chunk succeeded or not.
	OnChunkScanned func(chunk []client.Payload)
}

// NewScanner creates a Scanner.
func NewScanner(cfg Config) *Scanner {
	commandPath := cfg.CommandPath
	if commandPath == "" {
		commandPath = "external"
	}
	headers := map[string]string{
		"Shieldscan-Version":      cfg.Version,
		"Shieldscan-Command-Path": commandPath,
	}
	maps.Copy(headers, cfg.ExtraHeaders)

	workers := cfg.Workers
	if workers <= 0 {
		workers = min(runtime.GOMAXPROCS(0), maxConcurrency)
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = client.MultiDocumentLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{
		client:    cfg.Client,
		cache:     cfg.Cache,
		headers:   headers,
		workers:   workers,
		chunkSize: chunkSize,
		log:       logger,
	}
}

// Scan scans the collection through c.
func (c *Collection) Scan(ctx context.Context, s *Scanner, opts ScanOptions) (*Outcome, error) {
	return s.Scan(ctx, c, opts)
}

type chunk struct {
	index    int
	units    []Unit
	payloads []client.Payload
}

type chunkResult struct {
	chunk    chunk
	response client.Response
}

// Scan submits every unit of coll and returns the findings. Per-chunk
// failures are reported in Outcome.Errors; an error is returned only when
// the scan cannot start.
func (s *Scanner) Scan(ctx context.Context, coll *Collection, opts ScanOptions) (*Outcome, error) {
	if s.client == nil {
		return nil, fmt.Errorf("scan: no API client")
	}
	if s.cache == nil {
		return nil, fmt.Errorf("scan: no cache")
	}
	if coll == nil {
		return nil, fmt.Errorf("scan: no collection")
	}

	s.log.Debug("starting scan", "mode", opts.Mode, "files", coll.Len())
	s.cache.Purge()

	chunks := splitChunks(coll.Units(), s.chunkSize)
	headers := s.requestHeaders(opts.Mode)

	results := make([][]Result, len(chunks))
	errs := make([]*Error, len(chunks))

	for r := range s.dispatch(ctx, chunks, headers) {
		if opts.OnChunkScanned != nil {
			opts.OnChunkScanned(r.chunk.payloads)
		}
		switch resp := r.response.(type) {
		case *client.Success:
			results[r.chunk.index], errs[r.chunk.index] = s.collect(r.chunk, resp, opts)
		case *client.Failure:
			errs[r.chunk.index] = chunkError(r.chunk, resp.Detail)
			errs[r.chunk.index].Auth = client.IsAuthFailure(resp)
		default:
			errs[r.chunk.index] = chunkError(r.chunk, "no response from API")
		}
	}

	if err := s.cache.Save(); err != nil {
		s.log.Warn("cannot save cache", "error", err)
	}

	out := &Outcome{}
	for i := range chunks {
		out.Results = append(out.Results, results[i]...)
		if errs[i] != nil {
			out.Errors = append(out.Errors, *errs[i])
		}
	}
	s.log.Debug("scan done", "mode", opts.Mode, "results", len(out.Results), "errors", len(out.Errors))
	return out, nil
}

// dispatch runs the worker pool. Workers pull chunks from a queue and push
// their results on the returned channel, which is closed once every chunk
// has completed.
func (s *Scanner) dispatch(ctx context.Context, chunks []chunk, headers map[string]string) <-chan chunkResult {
	queue := make(chan chunk)
	done := make(chan chunkResult)

	var g errgroup.Group
	for w := 0; w < min(s.workers, len(chunks)); w++ {
		g.Go(func() error {
			for ch := range queue {
				resp := s.client.MultiContentScan(ctx, ch.payloads, headers)
				done <- chunkResult{chunk: ch, response: resp}
			}
			return nil
		})
	}

	go func() {
		for _, ch := range chunks {
			queue <- ch
		}
		close(queue)
	}()
	go func() {
		_ = g.Wait()
		close(done)
	}()
	return done
}

// collect applies ignore rules to a successful chunk and records the
// remaining findings in the cache. Units the response has no result for are
// returned as an Error.
func (s *Scanner) collect(ch chunk, resp *client.Success, opts ScanOptions) ([]Result, *Error) {
	var missing *Error
	if n := len(resp.Results); n != len(ch.units) {
		s.log.Warn("result count mismatch", "chunk", ch.index, "want", len(ch.units), "got", n)
		if n < len(ch.units) {
			missing = payloadError(ch.payloads[n:], fmt.Sprintf("expected %d results, got %d", len(ch.units), n))
		}
	}
	var out []Result
	for i, scanned := range resp.Results {
		if i >= len(ch.units) {
			break
		}
		scanned = filter.RemoveIgnored(scanned, opts.IgnoredMatches)
		scanned = filter.RemoveIgnoredDetectors(scanned, opts.IgnoredDetectors)
		if !scanned.HasPolicyBreaks() {
			continue
		}
		unit := ch.units[i]
		for _, pb := range scanned.PolicyBreaks {
			s.cache.AddFoundPolicyBreak(pb, unit.Filename())
		}
		out = append(out, Result{Unit: unit, Scan: scanned})
	}
	return out, missing
}

func (s *Scanner) requestHeaders(mode string) map[string]string {
	h := make(map[string]string, len(s.headers)+1)
	maps.Copy(h, s.headers)
	h["mode"] = mode
	return h
}

// splitChunks partitions units into contiguous chunks of at most size units.
func splitChunks(units []Unit, size int) []chunk {
	var chunks []chunk
	for start := 0; start < len(units); start += size {
		end := min(start+size, len(units))
		part := units[start:end]
		payloads := make([]client.Payload, len(part))
		for i, u := range part {
			payloads[i] = u.Payload()
		}
		chunks = append(chunks, chunk{index: len(chunks), units: part, payloads: payloads})
	}
	return chunks
}

func chunkError(ch chunk, description string) *Error {
	return payloadError(ch.payloads, description)
}

func payloadError(payloads []client.Payload, description string) *Error {
	files := make([]FileRef, len(payloads))
	for i, p := range payloads {
		files[i] = FileRef{Filename: p.Filename, Mode: p.Filemode}
	}
	return &Error{Files: files, Description: description}
}
