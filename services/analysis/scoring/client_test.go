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
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChecksumAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestModelClient_Score_Success(t *testing.T) {
	var gotBody map[string]string
	var gotContentType, gotAccept string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"human_probability":42}}`))
	}))
	defer server.Close()

	client := NewModelClient(nil, 0)
	score, err := client.Score(context.Background(), "ethereum", server.URL, testChecksumAddress)
	require.NoError(t, err)
	assert.Equal(t, 42.0, score)

	// Outbound contract: checksum address in the body, JSON headers.
	assert.Equal(t, testChecksumAddress, gotBody["address"])
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "application/json", gotAccept)
}

func TestModelClient_Score_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded with secrets", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewModelClient(nil, 0)
	_, err := client.Score(context.Background(), "ethereum", server.URL, testChecksumAddress)
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusServiceUnavailable, upstreamErr.StatusCode)
	assert.Equal(t, "ethereum", upstreamErr.Model)
	// The upstream body must never surface in the error.
	assert.NotContains(t, err.Error(), "secrets")
}

func TestModelClient_Score_MissingScoreField(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"data without field", `{"data":{}}`},
		{"data null", `{"data":null}`},
		{"unrelated fields", `{"status":"ok","data":{"other":1}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewModelClient(nil, 0)
			score, err := client.Score(context.Background(), "ethereum", server.URL, testChecksumAddress)
			require.NoError(t, err, "permissive default must not error")
			assert.Equal(t, 0.0, score)
		})
	}
}

func TestModelClient_Score_ZeroIsAScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"human_probability":0}}`))
	}))
	defer server.Close()

	client := NewModelClient(nil, 0)
	score, err := client.Score(context.Background(), "ethereum", server.URL, testChecksumAddress)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestModelClient_Score_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer server.Close()

	client := NewModelClient(nil, 0)
	_, err := client.Score(context.Background(), "ethereum", server.URL, testChecksumAddress)
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
}

func TestModelClient_Score_ConnectionRefused(t *testing.T) {
	// Grab a port that nothing is listening on.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewModelClient(nil, 0)
	_, err := client.Score(context.Background(), "ethereum", url, testChecksumAddress)
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, 0, upstreamErr.StatusCode)
}

func TestModelClient_Score_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	client := NewModelClient(nil, 50*time.Millisecond)
	_, err := client.Score(context.Background(), "ethereum", server.URL, testChecksumAddress)
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
}

func TestNewModelClient_Defaults(t *testing.T) {
	client := NewModelClient(nil, 0)
	assert.Equal(t, http.DefaultClient, client.http)
	assert.Equal(t, DefaultUpstreamTimeout, client.timeout)
}
