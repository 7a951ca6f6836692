// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
)

// dummyRoundTripper records the last request and answers with a fixed body.
type dummyRoundTripper struct {
	body        string
	lastRequest *http.Request
}

func (d *dummyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req

	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     http.Header{"Set-Cookie": []string{"session=secret"}},
		Body:       io.NopCloser(strings.NewReader(d.body)),
	}, nil
}

// TestLoggingRoundTripper verifies that the LoggingRoundTripper logs both the request and
// the response (including timing information).
func TestLoggingRoundTripper(t *testing.T) {
	var logBuffer bytes.Buffer

	lt := &LoggingRoundTripper{
		Transport: &dummyRoundTripper{body: `{"type":"FeatureCollection"}`},
		Writer:    &logBuffer,
		DumpBody:  true,
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/communes.geojson", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer secret")

	resp, err := lt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	// The dump must not consume the body.
	got, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}

	if string(got) != `{"type":"FeatureCollection"}` {
		t.Errorf("body was altered by the dump: %q", got)
	}

	logContent := logBuffer.String()
	for _, want := range []string{
		"> GET /communes.geojson",
		"< RESPONSE: [",
		`< {"type":"FeatureCollection"}`,
		"Authorization: <redacted>",
		"Set-Cookie: <redacted>",
	} {
		if !strings.Contains(logContent, want) {
			t.Errorf("log does not contain %q. Got: %s", want, logContent)
		}
	}

	if strings.Contains(logContent, "secret") {
		t.Errorf("log leaks a secret. Got: %s", logContent)
	}
}

func TestLoggingRoundTripperDisabled(t *testing.T) {
	dummy := &dummyRoundTripper{}
	lt := &LoggingRoundTripper{Transport: dummy}

	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err := lt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if dummy.lastRequest != req {
		t.Error("request was not forwarded as is")
	}
}

func TestAbbreviate(t *testing.T) {
	lines := make([]string, 3000)
	lines[0] = strings.Repeat("x", 1000)

	got := abbreviate(lines, '>')

	if len(got) != 2049 {
		t.Errorf("expected 2049 lines, got %d", len(got))
	}

	if !strings.HasSuffix(got[0], "…") || len(got[0]) > 520 {
		t.Errorf("long line was not trimmed: %d chars", len(got[0]))
	}

	if got[len(got)-1] != "> …" {
		t.Errorf("expected an ellipsis line, got %q", got[len(got)-1])
	}
}

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	dummy := &dummyRoundTripper{}

	atr := &AppendRequestHeadersRoundTripper{
		Transport: dummy,
		Headers: map[string]string{
			"User-Agent": "cartelec/test",
		},
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.org", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err = atr.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if dummy.lastRequest == nil {
		t.Fatalf("dummy transport did not receive any request")
	}

	if got := dummy.lastRequest.Header.Get("User-Agent"); got != "cartelec/test" {
		t.Errorf("expected header User-Agent to have value 'cartelec/test', but got '%s'", got)
	}

	if req.Header.Get("User-Agent") != "" {
		t.Error("the caller's request was modified")
	}
}
