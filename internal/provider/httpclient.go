// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// maxResponseBytes bounds how much of an upstream body is read. Chat
// completions are small; anything beyond this is a misbehaving upstream.
const maxResponseBytes = 4 << 20

// NewHTTPClient returns the shared client used by all adapters. Per-attempt
// deadlines come from the request context, so the client itself carries only
// a generous safety-net timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			// Compression is negotiated and decoded manually in readBody
			// so brotli-only upstreams are handled too.
			DisableCompression:  true,
			MaxIdleConnsPerHost: 8,
		},
	}
}

// acceptEncoding is sent with every upstream request.
const acceptEncoding = "gzip, br"

// readBody drains and decodes an upstream response body according to its
// Content-Encoding header.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = io.LimitReader(resp.Body, maxResponseBytes)

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	case "br":
		reader = brotli.NewReader(reader)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
