package runner

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/abdul-hamid-achik/rq/packages/core/env"
	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/core/template"
)

const (
	DefaultWaitTimeout  = 30 * time.Second
	DefaultWaitInterval = 500 * time.Millisecond
)

// WaitFor delays a run until URL answers with Status. The URL may use the
// file's variables.
type WaitFor struct {
	URL      string
	Status   int
	Timeout  time.Duration
	Interval time.Duration
}

// waitFor polls the configured URL until it returns the expected status code or times out
func (r *Runner) waitFor(ctx context.Context, resolver *env.Resolver) error {
	cfg := r.config.WaitFor
	if cfg == nil || cfg.URL == "" {
		return nil
	}

	tmpl, err := template.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("wait-for URL: %w", err)
	}
	url, err := tmpl.Fill(resolver.Vars())
	if err != nil {
		return fmt.Errorf("wait-for URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultWaitInterval
	}
	expectedStatus := cfg.Status
	if expectedStatus == 0 {
		expectedStatus = nethttp.StatusOK
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	probe := &parser.Request{Method: nethttp.MethodGet, URL: url, Version: parser.DefaultVersion}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	var lastStatus int

	for {
		resp, err := r.transport.Do(ctx, probe)
		if err != nil {
			lastErr = err
		} else {
			lastStatus = resp.StatusCode
			if resp.StatusCode == expectedStatus {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if lastStatus != 0 {
				return fmt.Errorf("service %s not ready after %v: got status %d, expected %d",
					url, timeout, lastStatus, expectedStatus)
			}
			return fmt.Errorf("service %s not ready after %v: %v", url, timeout, lastErr)
		case <-ticker.C:
		}
	}
}
