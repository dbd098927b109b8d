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
	"github.com/tidwall/sjson"

	"github.com/xmrtdao/eliza-gateway/internal/config"
	"github.com/xmrtdao/eliza-gateway/internal/creds"
	"github.com/xmrtdao/eliza-gateway/internal/prompt"
)

// openAIAdapter speaks the OpenAI chat-completions wire format. It also
// covers OpenAI-compatible vendors (DeepSeek and friends) through a
// base-URL override in the tier configuration.
type openAIAdapter struct {
	name        string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

func newOpenAIAdapter(tier config.TierConfig, client *http.Client) *openAIAdapter {
	baseURL := defaultOpenAIBaseURL
	if tier.BaseURL != "" {
		baseURL = strings.TrimSuffix(tier.BaseURL, "/")
	}
	return &openAIAdapter{
		name:        tier.Name,
		baseURL:     baseURL,
		model:       tier.Model,
		temperature: tier.Temperature,
		maxTokens:   tier.MaxTokens,
		client:      client,
	}
}

func (a *openAIAdapter) Name() string { return a.name }

func (a *openAIAdapter) Invoke(ctx context.Context, cred creds.Credential, p *prompt.Payload) (string, error) {
	body, err := a.buildRequest(p)
	if err != nil {
		return "", NewError(KindUnexpected, a.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", NewError(KindUnexpected, a.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept-Encoding", acceptEncoding)
	httpReq.Header.Set("Authorization", "Bearer "+cred.APIKey)

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

	text := gjson.GetBytes(respBody, "choices.0.message.content").String()
	if strings.TrimSpace(text) == "" {
		return "", NewError(KindEmptyResponse, a.name, fmt.Errorf("no text in completion"))
	}

	log.Debugf("openai-compatible response from %s: content_len=%d", a.name, len(text))
	return text, nil
}

func (a *openAIAdapter) buildRequest(p *prompt.Payload) ([]byte, error) {
	messages := make([]prompt.Message, 0, len(p.Messages)+1)
	if p.System != "" {
		messages = append(messages, prompt.Message{Role: "system", Content: p.System})
	}
	messages = append(messages, p.Messages...)

	body, err := json.Marshal(map[string]any{
		"model":    a.model,
		"messages": messages,
		"stream":   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Optional parameters are spliced in only when configured so vendor
	// defaults stay in effect otherwise.
	if a.temperature > 0 {
		if body, err = sjson.SetBytes(body, "temperature", a.temperature); err != nil {
			return nil, err
		}
	}
	if a.maxTokens > 0 {
		if body, err = sjson.SetBytes(body, "max_tokens", a.maxTokens); err != nil {
			return nil, err
		}
	}
	return body, nil
}
