// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var captured string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		captured = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if captured == "" {
		t.Fatal("Expected a generated request id, got empty string")
	}
	if _, err := uuid.Parse(captured); err != nil {
		t.Errorf("Expected a UUID request id, got %q: %v", captured, err)
	}
	if got := w.Header().Get(RequestIDHeader); got != captured {
		t.Errorf("Expected response header %q, got %q", captured, got)
	}
}

func TestRequestID_HonorsCallerSupplied(t *testing.T) {
	var captured string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		captured = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if captured != "caller-supplied-id" {
		t.Errorf("Expected caller-supplied id preserved, got %q", captured)
	}
	if got := w.Header().Get(RequestIDHeader); got != "caller-supplied-id" {
		t.Errorf("Expected response header echoed, got %q", got)
	}
}

func TestGetRequestID_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := GetRequestID(c); got != "" {
		t.Errorf("Expected empty request id without middleware, got %q", got)
	}
}
