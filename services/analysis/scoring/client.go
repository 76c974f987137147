// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// clientTracer is the OpenTelemetry tracer for ModelClient operations.
var clientTracer = otel.Tracer("passport.analysis.scoring.client")

// DefaultUpstreamTimeout bounds a single upstream scoring call.
// A timed-out call surfaces as an *UpstreamError like any other
// transport failure.
const DefaultUpstreamTimeout = 30 * time.Second

// HTTPClient interface allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// =============================================================================
// Upstream Error
// =============================================================================

// UpstreamError reports a failed upstream scoring call: a non-2xx status,
// a transport failure, or an undecodable body. It never crosses the HTTP
// boundary; the Analyzer converts it to a generic *datatypes.AnalysisError
// and the cause is recorded only in logs.
type UpstreamError struct {
	Model      string
	StatusCode int // 0 when the failure happened before a status was read
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model %q upstream returned status %d", e.Model, e.StatusCode)
	}
	return fmt.Sprintf("model %q upstream call failed: %v", e.Model, e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// Upstream Wire Types
// =============================================================================

// scoreRequest is the JSON body POSTed to a model endpoint.
type scoreRequest struct {
	Address string `json:"address"`
}

// upstreamResponse mirrors the expected success body
// {"data": {"human_probability": <number>}}. Both levels are pointers so a
// missing field at either level is distinguishable from a present zero.
type upstreamResponse struct {
	Data *struct {
		HumanProbability *float64 `json:"human_probability"`
	} `json:"data"`
}

// =============================================================================
// Model Client
// =============================================================================

// ModelClient performs the outbound scoring call to a single upstream
// model endpoint.
//
// # Thread Safety
//
// ModelClient holds no mutable state and is safe for concurrent use.
type ModelClient struct {
	http    HTTPClient
	timeout time.Duration
}

// NewModelClient creates a ModelClient.
//
// # Inputs
//
//   - httpClient: HTTP client for outbound calls. nil selects
//     http.DefaultClient.
//   - timeout: Per-call deadline. Zero or negative selects
//     DefaultUpstreamTimeout.
func NewModelClient(httpClient HTTPClient, timeout time.Duration) *ModelClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	return &ModelClient{http: httpClient, timeout: timeout}
}

// Score POSTs the checksum address to the model endpoint and returns the
// extracted human-probability score.
//
// # Description
//
// Issues a single synchronous POST with body {"address": <checksum>} and
// JSON content-type/accept headers. Any non-2xx status is a failure
// regardless of body content. On 2xx the body is decoded and
// data.human_probability extracted; if the path is absent at any level the
// score defaults to 0 rather than failing, so a malformed-but-200 upstream
// still yields a usable zero score. No retries: every failure is terminal
// for the request.
//
// # Inputs
//
//   - ctx: Context for cancellation and tracing. A per-call timeout is
//     layered on top.
//   - modelName: Resolved model name, used for error context and tracing.
//   - endpointURL: Upstream endpoint to POST to.
//   - checksumAddress: Canonical checksum-cased address.
//
// # Outputs
//
//   - float64: The score (expected range 0-100, not enforced).
//   - error: *UpstreamError on any HTTP, transport, or decode failure.
func (c *ModelClient) Score(ctx context.Context, modelName, endpointURL, checksumAddress string) (float64, error) {
	ctx, span := clientTracer.Start(ctx, "ModelClient.Score")
	defer span.End()
	span.SetAttributes(
		attribute.String("model.name", modelName),
		attribute.String("model.endpoint", endpointURL),
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(scoreRequest{Address: checksumAddress})
	if err != nil {
		span.RecordError(err)
		return 0, &UpstreamError{Model: modelName, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return 0, &UpstreamError{Model: modelName, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream call failed")
		return 0, &UpstreamError{Model: modelName, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the body is never surfaced.
		_, _ = io.Copy(io.Discard, resp.Body)
		upstreamErr := &UpstreamError{Model: modelName, StatusCode: resp.StatusCode}
		span.RecordError(upstreamErr)
		span.SetStatus(codes.Error, "upstream returned error status")
		return 0, upstreamErr
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return 0, &UpstreamError{Model: modelName, Cause: err}
	}

	var parsed upstreamResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream body not decodable")
		return 0, &UpstreamError{Model: modelName, Cause: err}
	}

	// Permissive default: a 200 without data.human_probability scores 0.
	if parsed.Data == nil || parsed.Data.HumanProbability == nil {
		return 0, nil
	}
	return *parsed.Data.HumanProbability, nil
}
