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

// ollamaAdapter talks to a locally running Ollama instance. No credential
// is required; the tier resolves with an empty one.
type ollamaAdapter struct {
	name    string
	baseURL string
	model   string
	client  *http.Client

	temperature float64
}

const defaultOllamaBaseURL = "http://localhost:11434"

func newOllamaAdapter(tier config.TierConfig, client *http.Client) *ollamaAdapter {
	baseURL := defaultOllamaBaseURL
	if tier.BaseURL != "" {
		baseURL = strings.TrimSuffix(tier.BaseURL, "/")
	}
	return &ollamaAdapter{
		name:        tier.Name,
		baseURL:     baseURL,
		model:       tier.Model,
		client:      client,
		temperature: tier.Temperature,
	}
}

func (a *ollamaAdapter) Name() string { return a.name }

func (a *ollamaAdapter) Invoke(ctx context.Context, _ creds.Credential, p *prompt.Payload) (string, error) {
	messages := make([]prompt.Message, 0, len(p.Messages)+1)
	if p.System != "" {
		messages = append(messages, prompt.Message{Role: "system", Content: p.System})
	}
	messages = append(messages, p.Messages...)

	req := map[string]any{
		"model":    a.model,
		"messages": messages,
		"stream":   false,
	}
	if a.temperature > 0 {
		req["options"] = map[string]any{"temperature": a.temperature}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", NewError(KindUnexpected, a.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", NewError(KindUnexpected, a.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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

	text := gjson.GetBytes(respBody, "message.content").String()
	if strings.TrimSpace(text) == "" {
		return "", NewError(KindEmptyResponse, a.name, fmt.Errorf("no text in message"))
	}

	log.Debugf("ollama response from %s: content_len=%d", a.name, len(text))
	return text, nil
}
