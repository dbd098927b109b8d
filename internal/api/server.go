// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes the gateway's HTTP surface: the chat endpoint backed
// by the response cascade, mining statistics, knowledge management, cascade
// metrics and a websocket event stream.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/xmrtdao/eliza-gateway/internal/analytics"
	"github.com/xmrtdao/eliza-gateway/internal/archive"
	"github.com/xmrtdao/eliza-gateway/internal/buildinfo"
	"github.com/xmrtdao/eliza-gateway/internal/cascade"
	"github.com/xmrtdao/eliza-gateway/internal/config"
	"github.com/xmrtdao/eliza-gateway/internal/creds"
	"github.com/xmrtdao/eliza-gateway/internal/fallback"
	"github.com/xmrtdao/eliza-gateway/internal/intent"
	"github.com/xmrtdao/eliza-gateway/internal/knowledge"
	"github.com/xmrtdao/eliza-gateway/internal/logging"
	"github.com/xmrtdao/eliza-gateway/internal/memory"
	"github.com/xmrtdao/eliza-gateway/internal/mining"
	"github.com/xmrtdao/eliza-gateway/internal/prompt"
	"github.com/xmrtdao/eliza-gateway/internal/provider"
)

// runtimeState bundles everything derived from one configuration so a hot
// reload swaps it atomically under in-flight requests.
type runtimeState struct {
	cfg        *config.Config
	controller *cascade.Controller
	counter    prompt.TokenCounter
	classifier intent.Classifier
}

// Server wires the gateway's components behind a Gin engine.
type Server struct {
	state atomic.Pointer[runtimeState]

	resolver creds.Resolver
	fb       *fallback.Responder
	client   *http.Client
	metrics  *cascade.Metrics

	sessions *memory.Manager
	store    knowledge.Store
	poller   *mining.Poller
	window   *analytics.Window
	detector *analytics.Detector
	activity *analytics.EventLog
	archiver *archive.Archiver
	events   *EventHub

	httpServer *http.Server
}

// Deps carries the collaborators the server does not construct itself.
type Deps struct {
	Resolver creds.Resolver
	Sessions *memory.Manager
	Store    knowledge.Store
	Poller   *mining.Poller
	Window   *analytics.Window
	Archiver *archive.Archiver
}

// NewServer builds a server for the given configuration.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	s := &Server{
		resolver: deps.Resolver,
		fb:       fallback.NewResponder(),
		client:   provider.NewHTTPClient(),
		metrics:  cascade.NewMetrics(),
		sessions: deps.Sessions,
		store:    deps.Store,
		poller:   deps.Poller,
		window:   deps.Window,
		detector: analytics.NewDetector(),
		activity: analytics.NewEventLog(512),
		archiver: deps.Archiver,
		events:   NewEventHub(),
	}
	if err := s.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyConfig rebuilds the config-derived runtime. Safe to call while
// serving; in-flight requests keep the state they started with.
func (s *Server) ApplyConfig(cfg *config.Config) error {
	tiers := make([]cascade.Tier, 0, len(cfg.Tiers))
	for _, tc := range cfg.SortedTiers() {
		adapter, err := provider.New(tc, s.client)
		if err != nil {
			return err
		}
		tiers = append(tiers, cascade.Tier{
			Name:     tc.Name,
			Priority: tc.Priority,
			Timeout:  cfg.TierTimeout(tc),
			Config:   tc,
			Adapter:  adapter,
		})
	}

	rules := intent.DefaultRules()
	if cfg.Intent.RulesFile != "" {
		loaded, err := intent.LoadRules(cfg.Intent.RulesFile)
		if err != nil {
			return err
		}
		rules = loaded
	}
	classifier, err := intent.NewRuleClassifier(rules)
	if err != nil {
		return err
	}

	controller := cascade.NewController(tiers, s.resolver, s.fb, cascade.Options{
		Health:  cfg.Cascade.Health,
		Metrics: s.metrics,
	})

	s.state.Store(&runtimeState{
		cfg:        cfg,
		controller: controller,
		counter:    prompt.NewTokenCounter(cfg.Context.Tokenizer),
		classifier: classifier,
	})
	return nil
}

// Events exposes the hub so collaborators (mining poller) can publish.
func (s *Server) Events() *EventHub { return s.events }

// BuildRouter assembles the Gin engine with all routes and middleware.
func (s *Server) BuildRouter() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), logging.RequestLogger())

	engine.GET("/health", s.handleHealth)

	v1 := engine.Group("/v1")
	{
		v1.POST("/chat", s.handleChat)
		v1.POST("/simulate", s.handleSimulate)
		v1.GET("/mining/stats", s.handleMiningStats)
		v1.GET("/events", s.events.Handle)

		protected := v1.Group("", s.managementAuth())
		protected.GET("/metrics", s.handleMetrics)
		protected.POST("/knowledge", s.handleAddSnippet)
		protected.POST("/sessions/:id/archive", s.handleArchiveSession)
	}

	return engine
}

// Run serves HTTP until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.state.Load().cfg
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.BuildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("eliza gateway %s listening on %s", buildinfo.Version, addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api: shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// managementAuth guards management endpoints with the configured key.
func (s *Server) managementAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := s.state.Load().cfg
		if !cfg.CheckManagementKey(c.GetHeader("X-Management-Key")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid management key"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	snap := s.metrics.Snapshot()

	var rec analytics.Recognizer
	snap["load_patterns"] = rec.DetectLoadImbalance(s.metrics.ServedCounts())
	snap["traffic_patterns"] = rec.DetectBurst(s.activity.Events())

	c.JSON(http.StatusOK, snap)
}
