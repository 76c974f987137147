// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/passport-analysis/services/analysis/handlers"
	"github.com/AleutianAI/passport-analysis/services/analysis/middleware"
	"github.com/AleutianAI/passport-analysis/services/analysis/scoring"
)

// SetupRoutes registers all routes of the analysis service.
//
// /health and /metrics are unauthenticated; the analysis endpoint sits
// behind the API-key middleware and carries a request id for log
// correlation.
func SetupRoutes(router *gin.Engine, analyzer *scoring.Analyzer, keys middleware.KeyProvider) {
	router.GET("/health", handlers.HealthCheck(analyzer.KnownModels()))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	analysis := router.Group("/")
	analysis.Use(middleware.RequestID(), middleware.APIKeyAuth(keys))
	{
		analysis.GET("/analysis/:address", handlers.GetAnalysis(analyzer))
	}
}
