// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package jolokia is the protocol adapter for a Jolokia HTTP agent: request
// encoding, bulk reads, retry-with-backoff, and response parsing into the
// shared MBeanValue/AttributeValue model (spec.md §4.3, §4.4).
package jolokia

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/jpillora/backoff"
)

// ClientOptions configures a shared Client instance.
type ClientOptions struct {
	// URL is the Jolokia agent base URL, e.g. "http://localhost:8778/jolokia".
	URL string
	// Username/Password apply HTTP basic auth to every request if Username
	// is non-empty.
	Username, Password string
	// Timeout bounds each individual HTTP request. Default 5000ms.
	Timeout time.Duration
	// MaxIdleConnsPerHost sizes the per-host idle connection pool. Default 10.
	MaxIdleConnsPerHost int
	// IdleConnTimeout is the pooled connection idle TTL. Default 30s.
	IdleConnTimeout time.Duration
	// MaxRetries is the number of retries after the first attempt. Default 3
	// (4 attempts total); a negative value disables retries.
	MaxRetries int
	// BackoffMin/BackoffMax/BackoffFactor parameterize the geometric retry
	// delay. Defaults: 100ms, 2s, 2.0. A non-finite or non-positive factor
	// falls back to 2.0 per spec.md §4.3.
	BackoffMin, BackoffMax time.Duration
	BackoffFactor          float64
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.Timeout <= 0 {
		o.Timeout = 5000 * time.Millisecond
	}
	if o.MaxIdleConnsPerHost <= 0 {
		o.MaxIdleConnsPerHost = 10
	}
	if o.IdleConnTimeout <= 0 {
		o.IdleConnTimeout = 30 * time.Second
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BackoffMin <= 0 {
		o.BackoffMin = 100 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 2 * time.Second
	}
	if math.IsNaN(o.BackoffFactor) || math.IsInf(o.BackoffFactor, 0) || o.BackoffFactor <= 0 {
		o.BackoffFactor = 2.0
	}
	return o
}

// Client is a shared, concurrency-safe Jolokia HTTP client. One instance is
// created per exporter process (spec.md §4.3) and reused across all scrape
// handlers; the underlying *http.Client and its pooled Transport are safe
// for concurrent use.
type Client struct {
	opts ClientOptions
	http *http.Client
}

// NewClient builds a Client with a pooled, process-wide transport. Mirrors
// the teacher's reach for github.com/hashicorp/go-cleanhttp wherever a
// pooled HTTP client is constructed.
func NewClient(opts ClientOptions) *Client {
	opts = opts.withDefaults()

	transport := cleanhttp.DefaultPooledTransport()
	transport.MaxIdleConnsPerHost = opts.MaxIdleConnsPerHost
	transport.IdleConnTimeout = opts.IdleConnTimeout

	return &Client{
		opts: opts,
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
	}
}

// Read issues a single (possibly wildcard) read request, no retry.
func (c *Client) Read(ctx context.Context, mbean string, attr AttributeSelector) (Response, error) {
	req := ReadRequest(mbean, attr)
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, newError(ErrHTTPRequest, 0, fmt.Sprintf("encoding request: %v", err), err)
	}
	respBody, err := c.post(ctx, body)
	if err != nil {
		return Response{}, err
	}
	return ParseResponse(respBody)
}

// BulkRead issues a single HTTP POST carrying a JSON array of read requests,
// returning responses in request order.
func (c *Client) BulkRead(ctx context.Context, reqs []Request) ([]Response, error) {
	body, err := json.Marshal(reqs)
	if err != nil {
		return nil, newError(ErrHTTPRequest, 0, fmt.Sprintf("encoding bulk request: %v", err), err)
	}
	respBody, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	return ParseBulkResponse(respBody)
}

// ReadWithRetry retries Read according to spec.md §4.3's retry policy:
// retryable errors back off geometrically (delay0=min, delay_{n+1} =
// min(delay_n*factor, max)) and are retried up to MaxRetries times: a total
// of MaxRetries+1 attempts. On exhaustion the result is a
// MaxRetriesExceeded error wrapping the last error; when that last error
// was a Jolokia-level 5xx inside an HTTP-200 envelope, the
// MaxRetriesExceeded error also carries its status and message.
func (c *Client) ReadWithRetry(ctx context.Context, mbean string, attr AttributeSelector) (Response, error) {
	b := &backoff.Backoff{
		Min:    c.opts.BackoffMin,
		Max:    c.opts.BackoffMax,
		Factor: c.opts.BackoffFactor,
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		resp, err := c.Read(ctx, mbean, attr)
		if err == nil {
			if jerr := protocolError(resp); jerr != nil {
				if !jerr.IsRetryable() {
					return resp, nil
				}
				lastErr = jerr
			} else {
				return resp, nil
			}
		} else {
			var jerr *Error
			if errors.As(err, &jerr) && !jerr.IsRetryable() {
				return Response{}, err
			}
			lastErr = err
		}

		if attempt == c.opts.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(b.Duration()):
		}
	}

	var jerr *Error
	if errors.As(lastErr, &jerr) && jerr.Kind == ErrJolokiaError {
		return Response{}, newError(ErrMaxRetriesExceeded, jerr.Status, jerr.Message, jerr)
	}
	return Response{}, newError(ErrMaxRetriesExceeded, 0, "retries exhausted", lastErr)
}

// protocolError classifies a structurally-successful HTTP response whose
// Jolokia-level status is itself in the 5xx range as a retryable
// JolokiaError, per spec.md §4.3 ("Jolokia protocol status 500-599 inside
// an otherwise-HTTP-200 response").
func protocolError(resp Response) *Error {
	if resp.Status >= 500 && resp.Status <= 599 {
		return newError(ErrJolokiaError, resp.Status, resp.ErrorMsg, nil)
	}
	return nil
}

// FallbackResult pairs an MBean pattern with its read outcome.
type FallbackResult struct {
	MBean    string
	Response Response
	Err      error
}

// CollectWithFallback sequentially reads each MBean in mbeans and NEVER
// propagates a per-MBean failure (spec.md §4.3): a network/protocol error
// is carried in Err, and a per-MBean status != 200 is returned as a
// successful Response with its error fields populated. The caller decides
// policy.
func (c *Client) CollectWithFallback(ctx context.Context, mbeans []string, attr AttributeSelector) []FallbackResult {
	out := make([]FallbackResult, 0, len(mbeans))
	for _, mbean := range mbeans {
		resp, err := c.ReadWithRetry(ctx, mbean, attr)
		out = append(out, FallbackResult{MBean: mbean, Response: resp, Err: err})
	}
	return out
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
	if err != nil {
		return nil, newError(ErrHTTPRequest, 0, fmt.Sprintf("building request: %v", err), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.opts.Username != "" {
		httpReq.SetBasicAuth(c.opts.Username, c.opts.Password)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newError(ErrTimeout, 0, ctxErr.Error(), ctxErr)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(ErrTimeout, 0, err.Error(), err)
		}
		return nil, newError(ErrConnectionFailed, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrHTTPResponse, 0, fmt.Sprintf("reading body: %v", err), err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, newError(ErrAuthenticationFailed, resp.StatusCode, string(respBody), nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(ErrHTTPStatus, resp.StatusCode, string(respBody), nil)
	}
	return respBody, nil
}
