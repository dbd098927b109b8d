// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mining polls a SupportXMR-style pool API in the background and
// caches the latest snapshot for the context assembler and the fallback
// responder. The cascade itself never performs pool I/O; it only reads the
// cached snapshot.
package mining

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/xmrtdao/eliza-gateway/internal/config"
)

// Snapshot is one observation of pool and miner state.
type Snapshot struct {
	// PoolHashRate is the pool-wide hash rate in H/s.
	PoolHashRate float64 `json:"pool_hash_rate"`

	// Miners is the number of currently connected miners.
	Miners int64 `json:"miners"`

	// MinerHashRate is the configured wallet's hash rate in H/s.
	MinerHashRate float64 `json:"miner_hash_rate"`

	// TotalHashes is the wallet's lifetime submitted hashes.
	TotalHashes int64 `json:"total_hashes"`

	// AmountDue and AmountPaid are in XMR.
	AmountDue  float64 `json:"amount_due"`
	AmountPaid float64 `json:"amount_paid"`

	// FetchedAt records when the snapshot was taken.
	FetchedAt time.Time `json:"fetched_at"`
}

// piconero per XMR.
const piconero = 1e12

// Poller fetches pool statistics on a fixed cadence.
type Poller struct {
	cfg    config.MiningConfig
	client *http.Client

	mu       sync.RWMutex
	latest   *Snapshot
	onUpdate []func(Snapshot)
}

// NewPoller creates a poller. It does not start polling; call Run.
func NewPoller(cfg config.MiningConfig, client *http.Client) *Poller {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Poller{cfg: cfg, client: client}
}

// OnUpdate registers a callback invoked with every fresh snapshot.
// Callbacks must not block; they run on the polling goroutine.
func (p *Poller) OnUpdate(fn func(Snapshot)) {
	p.mu.Lock()
	p.onUpdate = append(p.onUpdate, fn)
	p.mu.Unlock()
}

// Latest returns the most recent snapshot, or nil before the first fetch.
func (p *Poller) Latest() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return nil
	}
	snap := *p.latest
	return &snap
}

// Run polls until the context is cancelled. The first fetch happens
// immediately so a snapshot is available soon after startup.
func (p *Poller) Run(ctx context.Context) {
	interval := time.Duration(p.cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	p.poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	snap, err := p.fetch(ctx)
	if err != nil {
		log.Warnf("mining poll failed: %v", err)
		return
	}

	p.mu.Lock()
	p.latest = snap
	callbacks := make([]func(Snapshot), len(p.onUpdate))
	copy(callbacks, p.onUpdate)
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn(*snap)
	}
}

func (p *Poller) fetch(ctx context.Context) (*Snapshot, error) {
	base := strings.TrimSuffix(p.cfg.PoolURL, "/")
	snap := &Snapshot{FetchedAt: time.Now()}

	poolBody, err := p.get(ctx, base+"/pool/stats")
	if err != nil {
		return nil, err
	}
	stats := gjson.GetBytes(poolBody, "pool_statistics")
	snap.PoolHashRate = stats.Get("hashRate").Float()
	snap.Miners = stats.Get("miners").Int()

	if p.cfg.Wallet != "" {
		minerBody, err := p.get(ctx, base+"/miner/"+p.cfg.Wallet+"/stats")
		if err != nil {
			return nil, err
		}
		snap.MinerHashRate = gjson.GetBytes(minerBody, "hash").Float()
		snap.TotalHashes = gjson.GetBytes(minerBody, "totalHashes").Int()
		snap.AmountDue = gjson.GetBytes(minerBody, "amtDue").Float() / piconero
		snap.AmountPaid = gjson.GetBytes(minerBody, "amtPaid").Float() / piconero
	}

	return snap, nil
}

func (p *Poller) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("mining: failed to build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mining: pool request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mining: pool returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("mining: failed to read pool response: %w", err)
	}
	return body, nil
}

// Metrics renders a snapshot as flat key/value facts for prompt assembly
// and the fallback responder.
func (s *Snapshot) Metrics() map[string]string {
	if s == nil {
		return nil
	}
	m := map[string]string{
		"pool_hashrate": formatHashRate(s.PoolHashRate),
		"miners":        fmt.Sprintf("%d", s.Miners),
	}
	if s.MinerHashRate > 0 || s.TotalHashes > 0 {
		m["hashrate"] = formatHashRate(s.MinerHashRate)
		m["total_hashes"] = fmt.Sprintf("%d", s.TotalHashes)
		m["amount_due"] = fmt.Sprintf("%.6f XMR", s.AmountDue)
		m["amount_paid"] = fmt.Sprintf("%.6f XMR", s.AmountPaid)
	}
	return m
}

func formatHashRate(hs float64) string {
	switch {
	case hs >= 1e9:
		return fmt.Sprintf("%.2f GH/s", hs/1e9)
	case hs >= 1e6:
		return fmt.Sprintf("%.2f MH/s", hs/1e6)
	case hs >= 1e3:
		return fmt.Sprintf("%.2f KH/s", hs/1e3)
	default:
		return fmt.Sprintf("%.0f H/s", hs)
	}
}
