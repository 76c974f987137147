// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the analysis service.
//
// This file contains the request and response types for the
// GET /analysis/:address endpoint.
package datatypes

import (
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/passport-analysis/pkg/validation"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// analysisValidate is the validator instance for analysis datatypes.
// Initialized in init() with custom validators.
var analysisValidate *validator.Validate

func init() {
	analysisValidate = validator.New()

	// Register custom validator for hex account addresses.
	_ = analysisValidate.RegisterValidation("eth_address", validateEthAddress)
}

// validateEthAddress validates that a string field is a well-formed account
// address (40 hex digits, optional 0x prefix, EIP-55 casing if mixed case).
func validateEthAddress(fl validator.FieldLevel) bool {
	return validation.ValidateAddress(fl.Field().String()) == nil
}

// =============================================================================
// Request Types
// =============================================================================

// AnalysisRequest represents a single analysis request.
//
// # Description
//
// AnalysisRequest carries the raw inputs of GET /analysis/:address:
// the address path parameter and the comma-separated model_list query
// parameter. The handler constructs it from the route; the analyzer
// parses and validates both fields.
//
// # Fields
//
//   - Address: Required. Hex account address, optional 0x prefix.
//     Mixed-case input must carry a valid EIP-55 checksum.
//   - ModelList: Comma-separated model names as received from the caller.
//     Whitespace around each name is ignored. Emptiness and cardinality
//     are checked by the model registry, not here, so the registry can
//     produce its specific error details.
//
// # Validation
//
// Uses go-playground/validator:
//   - Address: required, must pass the custom eth_address validator
type AnalysisRequest struct {
	Address   string `json:"address" validate:"required,eth_address"`
	ModelList string `json:"model_list"`
}

// Validate validates the AnalysisRequest fields.
//
// Returns a non-nil error if the address is missing or malformed.
// Model-list structure is intentionally not validated here; the
// registry owns those checks and their error messages.
func (r *AnalysisRequest) Validate() error {
	return analysisValidate.Struct(r)
}

// =============================================================================
// Response Types
// =============================================================================

// ModelScore is the score reported by a single analysis model.
type ModelScore struct {
	Score float64 `json:"score"`
}

// AnalysisDetails groups per-model results in the response body.
//
// Models contains an entry for every model name known to the registry.
// Models that were not requested map to null, so callers can always
// distinguish "not analyzed" from "scored zero".
type AnalysisDetails struct {
	Models map[string]*ModelScore `json:"models"`
}

// AnalysisResponse is the success body of GET /analysis/:address.
//
// # Fields
//
//   - Address: The canonical checksum-cased address that was analyzed.
//     This is the exact value that was sent to the upstream model, not
//     the raw caller input.
//   - Details: Per-model scores keyed by model name.
//
// # Examples
//
//	Response JSON:
//	{
//	    "address": "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
//	    "details": {
//	        "models": {
//	            "ethereum": {"score": 42},
//	            "nft": null,
//	            "zksync": null
//	        }
//	    }
//	}
type AnalysisResponse struct {
	Address string          `json:"address"`
	Details AnalysisDetails `json:"details"`
}

// NewAnalysisResponse assembles a response from the scored models.
//
// Every name in knownModels gets an entry in details.models; names
// absent from scores report null. The response is built fresh per
// request and owned by the caller.
func NewAnalysisResponse(checksumAddress string, knownModels []string, scores map[string]float64) *AnalysisResponse {
	models := make(map[string]*ModelScore, len(knownModels))
	for _, name := range knownModels {
		models[name] = nil
	}
	for name, score := range scores {
		models[name] = &ModelScore{Score: score}
	}
	return &AnalysisResponse{
		Address: checksumAddress,
		Details: AnalysisDetails{Models: models},
	}
}

// ErrorMessageResponse is the body of every 4xx/5xx response.
type ErrorMessageResponse struct {
	Detail string `json:"detail"`
}
