// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cascade drives the ordered provider fallback that produces every
// Eliza response. Tiers are tried in ascending priority order, each at most
// once per run; the first success wins. When every tier fails or is skipped
// the local knowledge fallback synthesizes the response, so a cascade run
// never returns an error to its caller.
package cascade

import (
	"context"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xmrtdao/eliza-gateway/internal/config"
	"github.com/xmrtdao/eliza-gateway/internal/creds"
	"github.com/xmrtdao/eliza-gateway/internal/logging"
	"github.com/xmrtdao/eliza-gateway/internal/prompt"
	"github.com/xmrtdao/eliza-gateway/internal/provider"
)

// ServedByFallback is the ServedBy value when no tier produced text.
const ServedByFallback = "fallback"

// Tier binds one provider adapter into the cascade order.
type Tier struct {
	// Name identifies the tier in logs, metrics and results.
	Name string

	// Priority orders the tier within the cascade; lower runs first.
	// Unique within a controller.
	Priority int

	// Timeout bounds one invocation of this tier.
	Timeout time.Duration

	// Config is the tier's full configuration, passed to the resolver.
	Config config.TierConfig

	// Adapter performs the upstream call.
	Adapter provider.Adapter
}

// Attempt is the audit record of one tier invocation within a run. The
// attempt list exists for diagnostics only and is never persisted.
type Attempt struct {
	Tier       string             `json:"tier"`
	Priority   int                `json:"priority"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Success    bool               `json:"success"`
	Kind       provider.ErrorKind `json:"kind,omitempty"`
	Message    string             `json:"message,omitempty"`
}

// Result is the terminal value of a cascade run. Text is always non-empty.
type Result struct {
	Text     string    `json:"text"`
	ServedBy string    `json:"served_by"`
	Attempts []Attempt `json:"attempts"`
}

// Fallback is the deterministic terminal responder.
type Fallback interface {
	Respond(in prompt.Input) string
}

// Request carries one assembled payload through a cascade run together
// with the raw input the fallback may draw on.
type Request struct {
	Input   prompt.Input
	Payload *prompt.Payload
}

// Controller runs the cascade. It holds no per-request state; a single
// controller serves concurrent requests.
type Controller struct {
	tiers    []Tier
	resolver creds.Resolver
	fallback Fallback
	health   *healthTracker
	metrics  *Metrics
}

// Options configures controller construction.
type Options struct {
	// Health enables proactive tier skipping after repeated failures.
	Health config.HealthConfig

	// Metrics reuses an existing metrics set so counters survive config
	// reloads. Nil allocates a fresh one.
	Metrics *Metrics
}

// NewController builds a controller over the given tiers. The tier slice
// is copied and sorted by ascending priority; the caller's slice is not
// retained.
func NewController(tiers []Tier, resolver creds.Resolver, fb Fallback, opts Options) *Controller {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	var health *healthTracker
	if opts.Health.Enabled {
		health = newHealthTracker(
			opts.Health.FailureThreshold,
			time.Duration(opts.Health.CooldownSeconds)*time.Second,
		)
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	return &Controller{
		tiers:    sorted,
		resolver: resolver,
		fallback: fb,
		health:   health,
		metrics:  metrics,
	}
}

// Metrics exposes the controller's counters.
func (c *Controller) Metrics() *Metrics { return c.metrics }

// Run executes one cascade. Each tier is invoked at most once, in strictly
// increasing priority order, and the run stops at the first success. Total
// exhaustion is not an error: the fallback responder supplies the text and
// the result reports ServedBy == "fallback".
func (c *Controller) Run(ctx context.Context, req Request) *Result {
	entry := logging.EntryFor(ctx)
	c.metrics.recordRequest()

	attempts := make([]Attempt, 0, len(c.tiers))

	for _, tier := range c.tiers {
		if ctx.Err() != nil {
			// Client went away; stop burning tiers and serve the fallback.
			entry.Warnf("cascade aborted before tier %s: %v", tier.Name, ctx.Err())
			break
		}

		attempt, text := c.tryTier(ctx, tier, req.Payload, entry)
		attempts = append(attempts, attempt)
		c.metrics.recordAttempt(attempt)

		if attempt.Success {
			c.metrics.recordServed(tier.Name)
			return &Result{Text: text, ServedBy: tier.Name, Attempts: attempts}
		}
	}

	text := c.fallback.Respond(req.Input)
	entry.WithField("attempts", len(attempts)).Info("cascade exhausted, serving local fallback")
	c.metrics.recordServed(ServedByFallback)
	return &Result{Text: text, ServedBy: ServedByFallback, Attempts: attempts}
}

// tryTier performs the single permitted invocation of one tier.
func (c *Controller) tryTier(ctx context.Context, tier Tier, payload *prompt.Payload, entry *log.Entry) (Attempt, string) {
	attempt := Attempt{
		Tier:      tier.Name,
		Priority:  tier.Priority,
		StartedAt: time.Now(),
	}

	if c.health != nil {
		if reason, skipped := c.health.shouldSkip(tier.Name, attempt.StartedAt); skipped {
			attempt.FinishedAt = attempt.StartedAt
			attempt.Kind = provider.KindTransport
			attempt.Message = reason
			entry.Warnf("tier %s skipped: %s", tier.Name, reason)
			return attempt, ""
		}
	}

	cred, ok := c.resolver.Resolve(tier.Config)
	if !ok {
		// No credential: record the failure without spending a round trip.
		attempt.FinishedAt = time.Now()
		attempt.Kind = provider.KindMissingCredential
		attempt.Message = "no credential available"
		entry.Debugf("tier %s skipped: no credential", tier.Name)
		return attempt, ""
	}

	tierCtx := ctx
	var cancel context.CancelFunc
	if tier.Timeout > 0 {
		tierCtx, cancel = context.WithTimeout(ctx, tier.Timeout)
		defer cancel()
	}

	text, err := tier.Adapter.Invoke(tierCtx, cred, payload)
	attempt.FinishedAt = time.Now()

	if err != nil {
		kind := provider.KindOf(err)
		attempt.Kind = kind
		attempt.Message = err.Error()

		if kind == provider.KindUnexpected {
			// Contract violation in the adapter; this is a bug, not weather.
			entry.Errorf("tier %s returned unexpected error: %v", tier.Name, err)
		} else {
			entry.Infof("tier %s failed (%s), trying next", tier.Name, kind)
		}

		if c.health != nil {
			c.health.recordFailure(tier.Name, attempt.FinishedAt)
		}
		return attempt, ""
	}

	attempt.Success = true
	if c.health != nil {
		c.health.recordSuccess(tier.Name)
	}
	entry.WithField("latency_ms", attempt.FinishedAt.Sub(attempt.StartedAt).Milliseconds()).
		Infof("tier %s served request", tier.Name)
	return attempt, text
}
