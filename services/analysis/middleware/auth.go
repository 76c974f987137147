// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the analysis service.
//
// # Authentication Flow
//
// The auth middleware extracts the API key from the X-API-Key header,
// validates it using the configured KeyProvider, and aborts with 401 on
// failure. Handlers behind the middleware can assume the request carries
// a valid key.
//
//	Request
//	   │
//	   ▼
//	APIKeyAuth
//	   │
//	   ├─► Extract key from "X-API-Key: <key>"
//	   │
//	   ├─► provider.Validate(ctx, key)
//	   │
//	   └─► 401 on failure, c.Next() on success
//
// # Open Behavior
//
// When using NopKeyProvider, all requests are accepted. This enables local
// development without any key infrastructure; main logs a warning when it
// falls back to it.
package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/passport-analysis/services/analysis/datatypes"
)

// APIKeyHeader is the request header carrying the caller's API key.
const APIKeyHeader = "X-API-Key"

// ErrUnauthorized is returned when API key validation fails.
// Provider implementations should wrap this error with additional context.
var ErrUnauthorized = errors.New("unauthorized")

// =============================================================================
// Key Providers
// =============================================================================

// KeyProvider validates API keys.
//
// Implementations must be safe for concurrent use by multiple goroutines.
// Key issuance and storage are out of scope; this service only verifies
// that a presented key is acceptable.
type KeyProvider interface {
	// Validate checks the presented key.
	//
	// Returns nil if the key is valid, ErrUnauthorized (or wrapped) if not.
	Validate(ctx context.Context, key string) error
}

// StaticKeyProvider accepts any key from a fixed set loaded at startup.
//
// Thread-safe: the key set is never mutated after construction.
type StaticKeyProvider struct {
	keys []string
}

// NewStaticKeyProvider creates a provider from the configured key set.
// Empty strings in the input are dropped.
func NewStaticKeyProvider(keys []string) *StaticKeyProvider {
	kept := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			kept = append(kept, k)
		}
	}
	return &StaticKeyProvider{keys: kept}
}

// Validate compares the presented key against the configured set in
// constant time per candidate.
func (p *StaticKeyProvider) Validate(_ context.Context, key string) error {
	if key == "" {
		return ErrUnauthorized
	}
	for _, candidate := range p.keys {
		if len(candidate) == len(key) &&
			subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			return nil
		}
	}
	return ErrUnauthorized
}

// NopKeyProvider accepts every request, including ones with no key at all.
// Intended for local development only.
//
// Thread-safe: this implementation has no mutable state.
type NopKeyProvider struct{}

// Validate always returns nil.
func (p *NopKeyProvider) Validate(_ context.Context, _ string) error {
	return nil
}

// Compile-time interface compliance checks.
var (
	_ KeyProvider = (*StaticKeyProvider)(nil)
	_ KeyProvider = (*NopKeyProvider)(nil)
)

// =============================================================================
// Auth Middleware
// =============================================================================

// APIKeyAuth creates a Gin middleware that authenticates requests by API key.
//
// # Description
//
// Extracts the X-API-Key header and validates it with the provider. On
// failure the request is aborted with 401 and a detail body matching the
// service's error shape; the presented key is never echoed or logged.
//
// # Inputs
//
//   - provider: KeyProvider to validate keys. Must not be nil.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin.
//
// # Examples
//
//	analysis := router.Group("/")
//	analysis.Use(middleware.APIKeyAuth(provider))
//	analysis.GET("/analysis/:address", handlers.GetAnalysis(analyzer))
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func APIKeyAuth(provider KeyProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)

		if err := provider.Validate(c.Request.Context(), key); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, datatypes.ErrorMessageResponse{
				Detail: "Invalid API Key.",
			})
			return
		}

		c.Next()
	}
}
