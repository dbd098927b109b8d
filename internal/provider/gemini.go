// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/xmrtdao/eliza-gateway/internal/config"
	"github.com/xmrtdao/eliza-gateway/internal/creds"
	"github.com/xmrtdao/eliza-gateway/internal/prompt"
)

// geminiAdapter speaks the Gemini generateContent wire format.
type geminiAdapter struct {
	name    string
	baseURL string
	model   string
	client  *http.Client

	temperature float64
	maxTokens   int
}

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

func newGeminiAdapter(tier config.TierConfig, client *http.Client) *geminiAdapter {
	baseURL := defaultGeminiBaseURL
	if tier.BaseURL != "" {
		baseURL = strings.TrimSuffix(tier.BaseURL, "/")
	}
	return &geminiAdapter{
		name:        tier.Name,
		baseURL:     baseURL,
		model:       tier.Model,
		client:      client,
		temperature: tier.Temperature,
		maxTokens:   tier.MaxTokens,
	}
}

func (a *geminiAdapter) Name() string { return a.name }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

func (a *geminiAdapter) Invoke(ctx context.Context, cred creds.Credential, p *prompt.Payload) (string, error) {
	body, err := a.buildRequest(p)
	if err != nil {
		return "", NewError(KindUnexpected, a.name, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, a.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", NewError(KindUnexpected, a.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept-Encoding", acceptEncoding)
	httpReq.Header.Set("x-goog-api-key", cred.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", ClassifyErr(a.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := readBody(resp)
	if err != nil {
		return "", NewError(KindTransport, a.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", ClassifyStatus(a.name, resp.StatusCode, respBody)
	}

	text := gjson.GetBytes(respBody, "candidates.0.content.parts.0.text").String()
	if strings.TrimSpace(text) == "" {
		return "", NewError(KindEmptyResponse, a.name, fmt.Errorf("no text in candidates"))
	}

	log.Debugf("gemini response from %s: content_len=%d", a.name, len(text))
	return text, nil
}

func (a *geminiAdapter) buildRequest(p *prompt.Payload) ([]byte, error) {
	contents := make([]geminiContent, 0, len(p.Messages))
	for _, m := range p.Messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	req := map[string]any{"contents": contents}
	if p.System != "" {
		req["systemInstruction"] = geminiContent{Parts: []geminiPart{{Text: p.System}}}
	}

	genCfg := map[string]any{}
	if a.temperature > 0 {
		genCfg["temperature"] = a.temperature
	}
	if a.maxTokens > 0 {
		genCfg["maxOutputTokens"] = a.maxTokens
	}
	if len(genCfg) > 0 {
		req["generationConfig"] = genCfg
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}
