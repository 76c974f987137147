// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/passport-analysis/services/analysis/middleware"
	"github.com/AleutianAI/passport-analysis/services/analysis/observability"
	"github.com/AleutianAI/passport-analysis/services/analysis/routes"
	"github.com/AleutianAI/passport-analysis/services/analysis/scoring"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// modelEndpointEnvVars maps each known model name to the env var holding
// its upstream endpoint URL. The set of model names is fixed; the URLs are
// deployment configuration.
var modelEndpointEnvVars = map[string]string{
	"ethereum": "ETHEREUM_MODEL_ENDPOINT",
	"nft":      "NFT_MODEL_ENDPOINT",
	"zksync":   "ZKSYNC_MODEL_ENDPOINT",
}

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("analysis-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// loadModelEndpoints resolves the model endpoint map from the environment.
// Models without a configured endpoint are skipped with a warning.
func loadModelEndpoints() map[string]string {
	endpoints := make(map[string]string, len(modelEndpointEnvVars))
	for model, envVar := range modelEndpointEnvVars {
		// Trim quotes and whitespace in case the container runtime passes
		// them literally.
		url := strings.Trim(os.Getenv(envVar), "\"' ")
		if url == "" {
			slog.Warn("model endpoint not configured, model disabled",
				"model", model, "env_var", envVar)
			continue
		}
		endpoints[model] = url
	}
	return endpoints
}

// loadKeyProvider builds the API-key provider from ANALYSIS_API_KEYS
// (comma-separated). Falls back to accept-all when no keys are set.
func loadKeyProvider() middleware.KeyProvider {
	raw := strings.TrimSpace(os.Getenv("ANALYSIS_API_KEYS"))
	if raw == "" {
		slog.Warn("ANALYSIS_API_KEYS not set, accepting all requests")
		return &middleware.NopKeyProvider{}
	}
	keys := strings.Split(raw, ",")
	for i, k := range keys {
		keys[i] = strings.TrimSpace(k)
	}
	return middleware.NewStaticKeyProvider(keys)
}

// loadUpstreamTimeout reads the upstream call timeout from
// MODEL_REQUEST_TIMEOUT_SECONDS, defaulting when unset or invalid.
func loadUpstreamTimeout() time.Duration {
	raw := os.Getenv("MODEL_REQUEST_TIMEOUT_SECONDS")
	if raw == "" {
		return scoring.DefaultUpstreamTimeout
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		slog.Warn("invalid MODEL_REQUEST_TIMEOUT_SECONDS, using default",
			"value", raw, "default", scoring.DefaultUpstreamTimeout)
		return scoring.DefaultUpstreamTimeout
	}
	return time.Duration(seconds) * time.Second
}

func main() {
	port := os.Getenv("ANALYSIS_PORT")
	if port == "" {
		port = "12250"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	endpoints := loadModelEndpoints()
	if len(endpoints) == 0 {
		log.Fatalf("FATAL: no model endpoints configured, set at least one of " +
			"ETHEREUM_MODEL_ENDPOINT, NFT_MODEL_ENDPOINT, ZKSYNC_MODEL_ENDPOINT")
	}

	metrics := observability.InitMetrics()
	registry := scoring.NewRegistry(endpoints)
	client := scoring.NewModelClient(nil, loadUpstreamTimeout())
	analyzer := scoring.NewAnalyzer(registry, client, metrics)

	slog.Info("starting analysis service",
		"port", port,
		"models", registry.KnownModels(),
	)

	router := gin.Default()
	router.Use(otelgin.Middleware("analysis-service"))

	routes.SetupRoutes(router, analyzer, loadKeyProvider())

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
