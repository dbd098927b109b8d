// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xmrtdao/eliza-gateway/internal/analytics"
	"github.com/xmrtdao/eliza-gateway/internal/knowledge"
	"github.com/xmrtdao/eliza-gateway/internal/logging"
)

// handleMiningStats reports the cached pool snapshot together with the
// analytics derived from the hash-rate window.
func (s *Server) handleMiningStats(c *gin.Context) {
	snap := s.poller.Latest()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no pool snapshot yet"})
		return
	}

	resp := gin.H{"snapshot": snap}

	if s.window != nil && s.window.Len() > 0 {
		if summary, ok := s.window.Summary(); ok {
			resp["summary"] = summary
		}
		resp["trend"] = s.window.Trend()
		resp["forecast"] = s.window.Forecast(12, time.Minute)
		if s.detector != nil {
			resp["anomaly"] = s.detector.DetectZScore(snap.MinerHashRate, s.window.Values())
		}
	}

	c.JSON(http.StatusOK, resp)
}

type simulateRequest struct {
	Scenario string                   `json:"scenario" binding:"required"`
	Params   analytics.ScenarioParams `json:"parameters"`
}

// handleSimulate runs a what-if simulation. The rig hash rate defaults
// to the configured wallet's live rate when the caller omits it.
func (s *Server) handleSimulate(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Params.HardwareHashRate == 0 {
		if snap := s.poller.Latest(); snap != nil {
			req.Params.HardwareHashRate = snap.MinerHashRate
		}
	}

	result, err := analytics.RunScenario(req.Scenario, req.Params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

type snippetRequest struct {
	Topic   string `json:"topic" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// handleAddSnippet stores a knowledge snippet.
func (s *Server) handleAddSnippet(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "knowledge store disabled"})
		return
	}

	var req snippetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snip, err := s.store.Put(c.Request.Context(), knowledge.Snippet{
		Topic:   req.Topic,
		Content: req.Content,
	})
	if err != nil {
		logging.EntryFor(c.Request.Context()).Errorf("failed to store snippet: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store snippet"})
		return
	}

	c.JSON(http.StatusCreated, snip)
}

// handleArchiveSession uploads the session transcript to object storage.
func (s *Server) handleArchiveSession(c *gin.Context) {
	if s.archiver == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archiving disabled"})
		return
	}

	sessionID := c.Param("id")
	transcript, ok := s.sessions.Transcript(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	if err := s.archiver.Store(c.Request.Context(), transcript); err != nil {
		logging.EntryFor(c.Request.Context()).Errorf("transcript archive failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "archive upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"archived": sessionID, "turns": len(transcript.Turns)})
}
