package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/rq/packages/core/env"
	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/http"
)

const (
	// DefaultConcurrency is the default number of concurrent requests in parallel mode
	DefaultConcurrency = 5
)

// Transport sends a resolved request. *http.Client satisfies it.
type Transport interface {
	Do(ctx context.Context, req *parser.Request) (*http.Response, error)
}

// WarnFunc is a function type for handling warnings
type WarnFunc = env.WarnFunc

// ResultFunc receives every finished request, in completion order. It is
// never called concurrently.
type ResultFunc func(*RequestResult)

type Runner struct {
	transport Transport
	config    *Config
	limiter   *rate.Limiter
	warnFunc  WarnFunc
	onResult  ResultFunc
	resultMu  sync.Mutex
}

type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
	MaxRedirects   int
	ValidateSSL    bool
	Proxy          string
	Headers        map[string]string

	// Variables layered over the file's own definitions. Sources.File is
	// replaced by each file's variables.
	Sources env.Sources

	// Indexes selects requests by 0-based position; NameFilter by name
	// pattern (see matchesPattern). Both empty selects everything.
	Indexes    []int
	NameFilter string

	Parallel    bool
	Concurrency int
	Rate        float64 // requests per second, 0 is unlimited
	Bail        bool
	WaitFor     *WaitFor
}

type Option func(*Runner)

// WithTransport replaces the HTTP client built from Config.
func WithTransport(t Transport) Option {
	return func(r *Runner) {
		r.transport = t
	}
}

func WithWarnFunc(fn WarnFunc) Option {
	return func(r *Runner) {
		r.warnFunc = fn
	}
}

func WithResultFunc(fn ResultFunc) Option {
	return func(r *Runner) {
		r.onResult = fn
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{FollowRedirect: true, ValidateSSL: true}
	}

	r := &Runner{config: cfg}
	for _, opt := range opts {
		opt(r)
	}

	if r.transport == nil {
		clientOpts := []http.ClientOption{
			http.WithFollowRedirects(cfg.FollowRedirect),
			http.WithValidateSSL(cfg.ValidateSSL),
			http.WithDefaultHeaders(cfg.Headers),
		}
		if cfg.Timeout > 0 {
			clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
		}
		if cfg.MaxRedirects > 0 {
			clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
		}
		if cfg.Proxy != "" {
			clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
		}
		r.transport = http.NewClient(clientOpts...)
	}

	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	return r
}

type RunResult struct {
	File     string
	Results  []*RequestResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

// RequestResult is the outcome of one request. Error is a fill error when
// Request is nil and a transport error otherwise.
type RequestResult struct {
	Index      int
	Name       string
	Passed     bool
	Skipped    bool
	SkipReason string
	Duration   time.Duration
	Template   *parser.TemplateRequest
	Request    *parser.Request
	Response   *http.Response
	Error      error
}

// Label names the request for display: its name, or its method and URL.
func (rr *RequestResult) Label() string {
	if rr.Name != "" {
		return rr.Name
	}
	if rr.Template != nil {
		return rr.Template.Method + " " + rr.Template.URL.String()
	}
	return fmt.Sprintf("request #%d", rr.Index+1)
}

func (r *Runner) warn(format string, args ...any) {
	if r.warnFunc != nil {
		r.warnFunc(format, args...)
	}
}

func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	file, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	return r.Run(ctx, file)
}

// Run executes the selected requests of an already parsed file. Errors of
// individual requests are recorded in their results; the returned error is
// reserved for problems that stop the whole run.
func (r *Runner) Run(ctx context.Context, file *parser.File) (*RunResult, error) {
	sources := r.config.Sources
	sources.File = file.Variables
	vars, err := sources.Merge()
	if err != nil {
		return nil, fmt.Errorf("loading variables: %w", err)
	}

	resolver := env.NewResolver(vars)
	resolver.SetWarnFunc(r.warn)
	resolver.CheckFile(file)

	if err := r.waitFor(ctx, resolver); err != nil {
		return nil, err
	}

	selected, err := r.selectRequests(file)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &RunResult{File: file.Path}

	var toRun []int
	for i, req := range file.Requests {
		if !selected[i] {
			result.Results = append(result.Results, &RequestResult{
				Index:      i,
				Name:       req.Name,
				Template:   req,
				Skipped:    true,
				SkipReason: "filtered out",
			})
			result.Skipped++
			continue
		}
		toRun = append(toRun, i)
	}

	var executed []*RequestResult
	if r.config.Parallel {
		executed = r.runParallel(ctx, file, toRun, resolver)
	} else {
		executed = r.runSequential(ctx, file, toRun, resolver)
	}

	for _, reqResult := range executed {
		result.Results = append(result.Results, reqResult)
		switch {
		case reqResult.Skipped:
			result.Skipped++
		case reqResult.Passed:
			result.Passed++
		default:
			result.Failed++
		}
	}
	sortByIndex(result.Results)

	result.Duration = time.Since(start)
	return result, nil
}

func (r *Runner) runSequential(ctx context.Context, file *parser.File, indexes []int, resolver *env.Resolver) []*RequestResult {
	results := make([]*RequestResult, 0, len(indexes))
	bailed := false
	for _, idx := range indexes {
		req := file.Requests[idx]
		if bailed {
			results = append(results, &RequestResult{
				Index:      idx,
				Name:       req.Name,
				Template:   req,
				Skipped:    true,
				SkipReason: "previous request failed",
			})
			continue
		}

		reqResult := r.runRequest(ctx, idx, req, resolver)
		results = append(results, reqResult)
		if !reqResult.Passed && r.config.Bail {
			bailed = true
		}
	}
	return results
}

func (r *Runner) runParallel(ctx context.Context, file *parser.File, indexes []int, resolver *env.Resolver) []*RequestResult {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*RequestResult, len(indexes))
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, idx := range indexes {
		wg.Add(1)
		sem <- struct{}{} // acquire semaphore

		go func(slot, idx int) {
			defer wg.Done()
			defer func() { <-sem }() // release semaphore

			results[slot] = r.runRequest(ctx, idx, file.Requests[idx], resolver)
		}(i, idx)
	}

	wg.Wait()
	return results
}

// runRequest fills and sends one request. A fill error fails this request
// only.
func (r *Runner) runRequest(ctx context.Context, idx int, tmpl *parser.TemplateRequest, resolver *env.Resolver) *RequestResult {
	result := &RequestResult{
		Index:    idx,
		Name:     tmpl.Name,
		Template: tmpl,
	}
	defer r.report(result)

	req, err := resolver.Resolve(tmpl)
	if err != nil {
		result.Error = err
		return result
	}
	result.Request = req

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			result.Error = err
			return result
		}
	}
	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	start := time.Now()
	resp, err := r.transport.Do(ctx, req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}

	result.Response = resp
	result.Passed = true
	return result
}

func (r *Runner) report(result *RequestResult) {
	if r.onResult == nil {
		return
	}
	r.resultMu.Lock()
	defer r.resultMu.Unlock()
	r.onResult(result)
}

// ErrNoMatch is returned when the selection matches no request.
var ErrNoMatch = errors.New("no request matches the selection")

func (r *Runner) selectRequests(file *parser.File) (map[int]bool, error) {
	selected := make(map[int]bool)
	if len(r.config.Indexes) == 0 && r.config.NameFilter == "" {
		for i := range file.Requests {
			selected[i] = true
		}
		return selected, nil
	}

	for _, idx := range r.config.Indexes {
		if idx < 0 || idx >= len(file.Requests) {
			return nil, fmt.Errorf("request index %d out of range (file has %d requests)", idx+1, len(file.Requests))
		}
		selected[idx] = true
	}

	if r.config.NameFilter != "" {
		for i, req := range file.Requests {
			if req.Name != "" && matchesPattern(req.Name, r.config.NameFilter) {
				selected[i] = true
			}
		}
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, r.config.NameFilter)
	}
	return selected, nil
}

func sortByIndex(results []*RequestResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if len(pattern) > 1 && pattern[0] == '*' && pattern[len(pattern)-1] == '*' {
		substr := pattern[1 : len(pattern)-1]
		for i := 0; i <= len(name)-len(substr); i++ {
			if name[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	}

	if pattern[0] == '*' {
		suffix := pattern[1:]
		return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
	}

	if pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(name) >= len(prefix) && name[:len(prefix)] == prefix
	}

	return name == pattern
}
