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
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/passport-analysis/services/analysis/datatypes"
)

// newTestAnalyzer wires an Analyzer against a stub upstream that serves
// every model. Returns the analyzer and a counter of upstream hits.
func newTestAnalyzer(t *testing.T, handler http.HandlerFunc) (*Analyzer, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	registry := NewRegistry(map[string]string{
		"ethereum": server.URL,
		"nft":      server.URL,
		"zksync":   server.URL,
	})
	return NewAnalyzer(registry, NewModelClient(nil, 0), nil), &hits
}

func scoreHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestAnalyzer_Analyze_Success(t *testing.T) {
	analyzer, hits := newTestAnalyzer(t, scoreHandler(`{"data":{"human_probability":42}}`))

	resp, err := analyzer.Analyze(context.Background(), &datatypes.AnalysisRequest{
		Address:   strings.ToLower(testChecksumAddress),
		ModelList: "ethereum",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())

	// The echoed address is the canonical checksum form, not the input.
	assert.Equal(t, testChecksumAddress, resp.Address)

	require.Contains(t, resp.Details.Models, "ethereum")
	require.NotNil(t, resp.Details.Models["ethereum"])
	assert.Equal(t, 42.0, resp.Details.Models["ethereum"].Score)

	// Models that were not requested report "not analyzed".
	assert.Nil(t, resp.Details.Models["nft"])
	assert.Nil(t, resp.Details.Models["zksync"])
}

func TestAnalyzer_Analyze_InvalidAddress_NoUpstreamCall(t *testing.T) {
	analyzer, hits := newTestAnalyzer(t, scoreHandler(`{"data":{"human_probability":42}}`))

	testCases := []string{
		"",
		"0x123",
		"not-an-address",
		"0xZZZeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	}

	for _, address := range testCases {
		_, err := analyzer.Analyze(context.Background(), &datatypes.AnalysisRequest{
			Address:   address,
			ModelList: "ethereum",
		})
		require.Error(t, err, "address %q", address)

		var invalidAddr *datatypes.InvalidAddressError
		require.ErrorAs(t, err, &invalidAddr, "address %q", address)
	}

	assert.Equal(t, int64(0), hits.Load(), "invalid addresses must not reach upstream")
}

func TestAnalyzer_Analyze_BadModelName_NoUpstreamCall(t *testing.T) {
	analyzer, hits := newTestAnalyzer(t, scoreHandler(`{"data":{"human_probability":42}}`))

	testCases := []string{"", " ", "ethereum,nft", "bogus"}

	for _, modelList := range testCases {
		_, err := analyzer.Analyze(context.Background(), &datatypes.AnalysisRequest{
			Address:   testChecksumAddress,
			ModelList: modelList,
		})
		require.Error(t, err, "model_list %q", modelList)

		var badModel *datatypes.BadModelNameError
		require.ErrorAs(t, err, &badModel, "model_list %q", modelList)
	}

	assert.Equal(t, int64(0), hits.Load(), "bad model lists must not reach upstream")
}

func TestAnalyzer_Analyze_UpstreamFailure(t *testing.T) {
	analyzer, hits := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model backend down", http.StatusServiceUnavailable)
	})

	_, err := analyzer.Analyze(context.Background(), &datatypes.AnalysisRequest{
		Address:   testChecksumAddress,
		ModelList: "ethereum",
	})
	require.Error(t, err)
	assert.Equal(t, int64(1), hits.Load())

	// Upstream failures surface as the generic analysis error with the
	// upstream cause preserved for logging only.
	var analysisErr *datatypes.AnalysisError
	require.ErrorAs(t, err, &analysisErr)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusServiceUnavailable, upstreamErr.StatusCode)
}

func TestAnalyzer_Analyze_PermissiveZeroDefault(t *testing.T) {
	analyzer, _ := newTestAnalyzer(t, scoreHandler(`{"status":"ok"}`))

	resp, err := analyzer.Analyze(context.Background(), &datatypes.AnalysisRequest{
		Address:   testChecksumAddress,
		ModelList: "ethereum",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Details.Models["ethereum"])
	assert.Equal(t, 0.0, resp.Details.Models["ethereum"].Score)
}

func TestAnalyzer_Analyze_Idempotent(t *testing.T) {
	analyzer, hits := newTestAnalyzer(t, scoreHandler(`{"data":{"human_probability":73.5}}`))

	req := &datatypes.AnalysisRequest{
		Address:   testChecksumAddress,
		ModelList: "ethereum",
	}

	first, err := analyzer.Analyze(context.Background(), req)
	require.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical requests against a deterministic upstream must match")
	assert.Equal(t, int64(2), hits.Load(), "no hidden caching across calls")
}
