// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

//go:build integration

/*
To run these tests, specify `-tags=integration` when running `go test`.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// Server configuration constants.
	host      = "127.0.0.1:8282"
	authority = "http://127.0.0.1:8282"
	base      = "/tools"

	// Polling constants.
	retryCount  = 10
	dialTimeout = 250 * time.Millisecond
)

// httpTestCase defines a test case.
type httpTestCase struct {
	URL                string
	Method             string
	Fragment           bool
	ExpectedStatusCode int
}

// setDefault sets the default values for the test case.
func (c *httpTestCase) setDefault() {
	if c.Method == "" {
		c.Method = http.MethodGet
	}

	if c.ExpectedStatusCode == 0 {
		c.ExpectedStatusCode = http.StatusOK
	}
}

// TestMain is used for global setup and teardown.
//
// It starts the server and waits for it to be available before running tests.
func TestMain(m *testing.M) {
	for key, value := range map[string]string{
		"FILEKIT_HOST":      "127.0.0.1",
		"FILEKIT_PORT":      "8282",
		"FILEKIT_BASE_PATH": base,
		"FILEKIT_METRICS":   "true",
	} {
		if err := os.Setenv(key, value); err != nil {
			log.Fatalf("Failed to set %s: %v", key, err)
		}
	}

	go func() {
		if err := run(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for the server.
	if !waitForServerReady() {
		log.Fatalf("Server did not start in time")
	}

	os.Exit(m.Run())
}

// waitForServerReady polls the server until it's available or the retries are exhausted.
func waitForServerReady() bool {
	for range retryCount {
		conn, err := net.DialTimeout("tcp", host, dialTimeout)
		if err == nil {
			_ = conn.Close()

			return true // Server is up.
		}

		time.Sleep(dialTimeout)
	}

	return false
}

// TestBasicAllRoutes tests all basic routes of the server.
func TestBasicAllRoutes(t *testing.T) {
	t.Parallel()

	testCases := []httpTestCase{
		// View pages
		{URL: base},
		{URL: base + "/pdf-compress"},
		{URL: base + "/image-compress"},
		{URL: base + "/image-png-to-jpg"},
		{URL: base + "/image-png-to-icon"},
		{URL: base + "/image-watermark"},
		{URL: base + "/p-score-edit"},
		{URL: base + "/audio-visualization"},
		{URL: base + "/does-not-exist", ExpectedStatusCode: http.StatusNotFound},
		{URL: "/image-compress", ExpectedStatusCode: http.StatusNotFound},

		// Navigation API
		{URL: base + "/nav?to=/image-watermark", Fragment: true},
		{URL: base + "/nav?to=/nope", Fragment: true, ExpectedStatusCode: http.StatusNotFound},
		{URL: base + "/nav/back", Method: http.MethodPost, Fragment: true, ExpectedStatusCode: http.StatusNoContent},

		// Static files
		{URL: base + "/css/site.css"},
		{URL: base + "/js/nav.js"},

		// Other pages
		{URL: base + "/about"},
		{URL: base + "/healthz"},
		{URL: "/metrics"},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s %s", tc.Method, tc.URL), func(t *testing.T) {
			t.Parallel()
			tc.setDefault()

			resp := makeRequest(t, buildRequest(t, authority+tc.URL, tc.Method, tc.Fragment))
			defer resp.Body.Close()

			if resp.StatusCode != tc.ExpectedStatusCode {
				t.Errorf("expected status %d, got %d", tc.ExpectedStatusCode, resp.StatusCode)
			}
		})
	}
}

// TestSessionFlow navigates within one session and checks the state it reports.
func TestSessionFlow(t *testing.T) {
	t.Parallel()

	resp := makeRequest(t, buildRequest(t, authority+base+"/audio-visualization", http.MethodGet, false))
	resp.Body.Close()

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie issued")
	}

	for _, path := range []string{"/p-score-edit", "/image-compress"} {
		req := buildRequest(t, authority+base+"/nav?to="+path, http.MethodGet, true)
		addCookies(req, cookies)

		resp := makeRequest(t, req)
		resp.Body.Close()

		if got := resp.Header.Get("HX-Push-Url"); got != base+path {
			t.Errorf("expected HX-Push-Url %q, got %q", base+path, got)
		}
	}

	req := buildRequest(t, authority+base+"/nav/state", http.MethodGet, false)
	addCookies(req, cookies)

	resp = makeRequest(t, req)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read state: %v", err)
	}

	state := gjson.ParseBytes(body)
	if route := state.Get("route").String(); route != "image-compress" {
		t.Errorf("expected route image-compress, got %q", route)
	}

	if history := state.Get("history").Int(); history != 3 {
		t.Errorf("expected 3 history entries, got %d", history)
	}
}

func buildRequest(t *testing.T, link, method string, fragment bool) *http.Request {
	t.Helper()

	req, err := http.NewRequestWithContext(context.TODO(), method, link, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if fragment {
		req.Header.Set("HX-Request", "true")
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0")

	return req
}

func addCookies(req *http.Request, cookies []*http.Cookie) {
	for _, v := range cookies {
		req.AddCookie(v)
	}
}

func makeRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}

	return resp
}
