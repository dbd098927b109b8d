// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xmrtdao/eliza-gateway/internal/cascade"
	"github.com/xmrtdao/eliza-gateway/internal/intent"
	"github.com/xmrtdao/eliza-gateway/internal/logging"
	"github.com/xmrtdao/eliza-gateway/internal/prompt"
)

// chatRequest is the inbound chat body. History is optional: clients that
// keep their own transcript may send it, otherwise the session manager's
// record is used.
type chatRequest struct {
	Message   string            `json:"message" binding:"required"`
	SessionID string            `json:"session_id"`
	History   []prompt.Message  `json:"history"`
	Facts     map[string]string `json:"facts"`
}

type chatResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	ServedBy  string `json:"served_by"`
	Intent    string `json:"intent"`
	SessionID string `json:"session_id"`
	Attempts  int    `json:"attempts"`
}

// knowledgeSnippetLimit caps how many snippets ground one response.
const knowledgeSnippetLimit = 3

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	ctx := c.Request.Context()
	entry := logging.EntryFor(ctx)
	state := s.state.Load()

	for k, v := range req.Facts {
		s.sessions.SetFact(req.SessionID, k, v)
	}

	msgIntent := state.classifier.Classify(req.Message)

	input := prompt.Input{
		Message: req.Message,
		History: req.History,
		Facts:   s.sessions.Facts(req.SessionID),
	}
	if input.History == nil {
		input.History = s.sessions.History(req.SessionID)
	}

	// Mining questions are grounded in the cached pool snapshot; anything
	// else draws on the knowledge store.
	if snap := s.poller.Latest(); snap != nil {
		input.Metrics = snap.Metrics()
	}
	if msgIntent != intent.IntentMiningStats && s.store != nil {
		snippets, err := s.store.Search(ctx, req.Message, knowledgeSnippetLimit)
		if err != nil {
			entry.Warnf("knowledge search failed: %v", err)
		}
		for _, snip := range snippets {
			input.Snippets = append(input.Snippets, snip.Content)
		}
	}

	payload := prompt.Assemble(input, prompt.Options{
		MaxTokens:    state.cfg.Context.MaxTokens,
		HistoryLimit: state.cfg.Context.HistoryLimit,
		Counter:      state.counter,
	})

	result := state.controller.Run(ctx, cascade.Request{Input: input, Payload: &payload})

	s.sessions.Append(req.SessionID, req.Message, result.Text)
	s.activity.Record(req.SessionID, time.Now())
	s.events.Broadcast("chat", gin.H{
		"session_id": req.SessionID,
		"served_by":  result.ServedBy,
		"intent":     string(msgIntent),
		"attempts":   len(result.Attempts),
	})

	c.JSON(http.StatusOK, chatResponse{
		Success:   true,
		Response:  result.Text,
		ServedBy:  result.ServedBy,
		Intent:    string(msgIntent),
		SessionID: req.SessionID,
		Attempts:  len(result.Attempts),
	})
}
