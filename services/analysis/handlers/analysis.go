// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the Gin handlers for the analysis service.
//
// Handlers are thin: they bind route inputs, delegate to the scoring
// pipeline, and map its typed errors to HTTP statuses. No raw error or
// upstream body ever reaches the caller.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/passport-analysis/services/analysis/datatypes"
	"github.com/AleutianAI/passport-analysis/services/analysis/middleware"
	"github.com/AleutianAI/passport-analysis/services/analysis/scoring"
)

// GetAnalysis handles GET /analysis/:address?model_list=<names>.
//
// # Description
//
// Builds an AnalysisRequest from the route, validates the address shape,
// and runs the scoring pipeline. Error mapping:
//
//   - invalid address        -> 400, fixed detail
//   - bad model-name list    -> 400, detail naming offending/known models
//   - anything upstream      -> 500, generic detail (cause logged only)
//
// # Inputs
//
//   - analyzer: The scoring pipeline. Must not be nil.
//
// # Outputs
//
//   - gin.HandlerFunc: Handler ready for route registration.
func GetAnalysis(analyzer *scoring.Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &datatypes.AnalysisRequest{
			Address:   c.Param("address"),
			ModelList: c.Query("model_list"),
		}

		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorMessageResponse{
				Detail: datatypes.InvalidAddressDetail,
			})
			return
		}

		resp, err := analyzer.Analyze(c.Request.Context(), req)
		if err != nil {
			respondAnalysisError(c, req, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// respondAnalysisError maps pipeline errors to HTTP responses.
func respondAnalysisError(c *gin.Context, req *datatypes.AnalysisRequest, err error) {
	var invalidAddress *datatypes.InvalidAddressError
	var badModelName *datatypes.BadModelNameError

	switch {
	case errors.As(err, &invalidAddress):
		c.JSON(http.StatusBadRequest, datatypes.ErrorMessageResponse{
			Detail: invalidAddress.Detail(),
		})
	case errors.As(err, &badModelName):
		c.JSON(http.StatusBadRequest, datatypes.ErrorMessageResponse{
			Detail: badModelName.Detail,
		})
	default:
		slog.Error("error retrieving analysis",
			"address", req.Address,
			"model_list", req.ModelList,
			"request_id", middleware.GetRequestID(c),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, datatypes.ErrorMessageResponse{
			Detail: datatypes.AnalysisFailureDetail,
		})
	}
}
