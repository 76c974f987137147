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
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/passport-analysis/pkg/validation"
	"github.com/AleutianAI/passport-analysis/services/analysis/datatypes"
	"github.com/AleutianAI/passport-analysis/services/analysis/observability"
)

// analyzerTracer is the OpenTelemetry tracer for Analyzer operations.
var analyzerTracer = otel.Tracer("passport.analysis.scoring.analyzer")

// Compile-time interface implementation check.
var _ Scorer = (*ModelClient)(nil)

// Scorer is the contract the Analyzer needs from a model client.
//
// Implementations must be safe for concurrent use.
type Scorer interface {
	// Score returns the upstream score for the address, or an error if the
	// upstream call failed in any way.
	Score(ctx context.Context, modelName, endpointURL, checksumAddress string) (float64, error)
}

// Analyzer composes the analysis pipeline.
//
// # Description
//
// A request moves through four sequential stages, each a possible exit
// point with a typed error:
//
//  1. Validate the address and canonicalize it to checksum casing
//     (*datatypes.InvalidAddressError)
//  2. Resolve the model list against the registry
//     (*datatypes.BadModelNameError)
//  3. Dispatch to the model client; any failure is converted to a generic
//     *datatypes.AnalysisError and the cause is logged, never returned
//  4. Assemble the response, with null entries for models not analyzed
//
// Validation failures exit before any upstream call is attempted. There is
// no partial-success mode: if the requested model fails, the request fails.
//
// # Thread Safety
//
// Analyzer holds only read-only state and is safe for concurrent use.
type Analyzer struct {
	registry *Registry
	scorer   Scorer
	metrics  *observability.AnalysisMetrics
}

// NewAnalyzer creates an Analyzer.
//
// # Inputs
//
//   - registry: Read-only model-name -> endpoint registry. Must not be nil.
//   - scorer: Upstream model client. Must not be nil.
//   - metrics: Pipeline metrics. May be nil (e.g. in tests); recording is
//     skipped.
func NewAnalyzer(registry *Registry, scorer Scorer, metrics *observability.AnalysisMetrics) *Analyzer {
	return &Analyzer{
		registry: registry,
		scorer:   scorer,
		metrics:  metrics,
	}
}

// KnownModels exposes the registry's model names for health reporting.
func (a *Analyzer) KnownModels() []string {
	return a.registry.KnownModels()
}

// Analyze runs the full pipeline for one request.
//
// # Inputs
//
//   - ctx: Context for cancellation and tracing.
//   - req: Raw request inputs as received from the route.
//
// # Outputs
//
//   - *datatypes.AnalysisResponse: Assembled response on success.
//   - error: *datatypes.InvalidAddressError, *datatypes.BadModelNameError,
//     or *datatypes.AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, req *datatypes.AnalysisRequest) (*datatypes.AnalysisResponse, error) {
	ctx, span := analyzerTracer.Start(ctx, "Analyzer.Analyze")
	defer span.End()

	// Stage 1: address validation and checksum canonicalization.
	checksumAddress, err := validation.ChecksumAddress(req.Address)
	if err != nil {
		a.countRequest(observability.ModelNone, observability.StatusInvalidAddress)
		span.SetStatus(codes.Error, "invalid address")
		return nil, &datatypes.InvalidAddressError{Address: req.Address}
	}
	span.SetAttributes(attribute.String("analysis.address", checksumAddress))

	// Stage 2: model-name resolution.
	model, endpointURL, err := a.registry.Resolve(req.ModelList)
	if err != nil {
		a.countRequest(observability.ModelNone, observability.StatusBadModelName)
		span.SetStatus(codes.Error, "bad model name")
		return nil, err
	}
	span.SetAttributes(attribute.String("analysis.model", model))

	// Stage 3: dispatch. The upstream cause stays in the logs; callers see
	// only a generic failure.
	start := time.Now()
	score, err := a.scorer.Score(ctx, model, endpointURL, checksumAddress)
	a.observeUpstream(model, time.Since(start))
	if err != nil {
		slog.Error("model scoring failed",
			"model", model,
			"address", checksumAddress,
			"error", err,
		)
		a.countUpstreamError(model, err)
		a.countRequest(model, observability.StatusUpstreamError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream scoring failed")
		return nil, &datatypes.AnalysisError{Cause: err}
	}

	// Stage 4: assemble.
	slog.Info("analysis complete", "model", model, "address", checksumAddress, "score", score)
	a.countRequest(model, observability.StatusSuccess)
	return datatypes.NewAnalysisResponse(
		checksumAddress,
		a.registry.KnownModels(),
		map[string]float64{model: score},
	), nil
}

func (a *Analyzer) countRequest(model, status string) {
	if a.metrics == nil {
		return
	}
	a.metrics.RequestsTotal.WithLabelValues(model, status).Inc()
}

func (a *Analyzer) observeUpstream(model string, elapsed time.Duration) {
	if a.metrics == nil {
		return
	}
	a.metrics.UpstreamLatencySeconds.WithLabelValues(model).Observe(elapsed.Seconds())
}

func (a *Analyzer) countUpstreamError(model string, err error) {
	if a.metrics == nil {
		return
	}
	reason := observability.ReasonTransport
	if upstreamErr, ok := err.(*UpstreamError); ok && upstreamErr.StatusCode != 0 {
		reason = observability.ReasonHTTPStatus
	}
	a.metrics.UpstreamErrorsTotal.WithLabelValues(model, reason).Inc()
}
