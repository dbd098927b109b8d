// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mining

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xmrtdao/eliza-gateway/internal/config"
)

const testWallet = "4TESTWALLET"

func poolServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/pool/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pool_statistics":{"hashRate":123456789,"miners":321}}`))
	})
	mux.HandleFunc("/miner/"+testWallet+"/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hash":2500,"totalHashes":987654321,"amtDue":15000000000,"amtPaid":2000000000000}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPoller_Fetch(t *testing.T) {
	srv := poolServer(t)

	p := NewPoller(config.MiningConfig{PoolURL: srv.URL, Wallet: testWallet}, srv.Client())
	snap, err := p.fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if snap.PoolHashRate != 123456789 {
		t.Errorf("pool hash rate: want 123456789, got %v", snap.PoolHashRate)
	}
	if snap.Miners != 321 {
		t.Errorf("miners: want 321, got %d", snap.Miners)
	}
	if snap.MinerHashRate != 2500 {
		t.Errorf("miner hash rate: want 2500, got %v", snap.MinerHashRate)
	}
	if snap.TotalHashes != 987654321 {
		t.Errorf("total hashes: want 987654321, got %d", snap.TotalHashes)
	}
	// amtDue is piconero; 15e9 piconero is 0.015 XMR.
	if math.Abs(snap.AmountDue-0.015) > 1e-9 {
		t.Errorf("amount due: want 0.015, got %v", snap.AmountDue)
	}
	if math.Abs(snap.AmountPaid-2.0) > 1e-9 {
		t.Errorf("amount paid: want 2.0, got %v", snap.AmountPaid)
	}
	if snap.FetchedAt.IsZero() {
		t.Error("snapshot must be timestamped")
	}
}

func TestPoller_FetchWithoutWallet(t *testing.T) {
	srv := poolServer(t)

	p := NewPoller(config.MiningConfig{PoolURL: srv.URL}, srv.Client())
	snap, err := p.fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if snap.MinerHashRate != 0 || snap.TotalHashes != 0 {
		t.Error("wallet stats must be skipped when no wallet is configured")
	}
}

func TestPoller_PollUpdatesLatestAndNotifies(t *testing.T) {
	srv := poolServer(t)

	p := NewPoller(config.MiningConfig{PoolURL: srv.URL, Wallet: testWallet}, srv.Client())
	if p.Latest() != nil {
		t.Fatal("Latest must be nil before the first poll")
	}

	var notified []Snapshot
	p.OnUpdate(func(s Snapshot) { notified = append(notified, s) })

	p.poll(context.Background())

	snap := p.Latest()
	if snap == nil {
		t.Fatal("Latest must return a snapshot after polling")
	}
	if len(notified) != 1 || notified[0].Miners != 321 {
		t.Errorf("expected one callback with the snapshot, got %+v", notified)
	}

	// Latest returns a copy; mutating it must not affect the cached snapshot.
	snap.Miners = 0
	if p.Latest().Miners != 321 {
		t.Error("Latest must return a copy of the snapshot")
	}
}

func TestPoller_PollKeepsPreviousOnError(t *testing.T) {
	srv := poolServer(t)

	p := NewPoller(config.MiningConfig{PoolURL: srv.URL, Wallet: testWallet}, srv.Client())
	p.poll(context.Background())
	if p.Latest() == nil {
		t.Fatal("first poll should succeed")
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	p.cfg.PoolURL = failing.URL
	p.poll(context.Background())

	if p.Latest() == nil || p.Latest().Miners != 321 {
		t.Error("failed poll must keep the previous snapshot")
	}
}

func TestSnapshot_Metrics(t *testing.T) {
	snap := &Snapshot{
		PoolHashRate:  123456789,
		Miners:        321,
		MinerHashRate: 2500,
		TotalHashes:   1000,
		AmountDue:     0.015,
		AmountPaid:    2,
	}

	m := snap.Metrics()
	cases := map[string]string{
		"pool_hashrate": "123.46 MH/s",
		"miners":        "321",
		"hashrate":      "2.50 KH/s",
		"total_hashes":  "1000",
		"amount_due":    "0.015000 XMR",
		"amount_paid":   "2.000000 XMR",
	}
	for key, want := range cases {
		if m[key] != want {
			t.Errorf("metrics[%s]: want %q, got %q", key, want, m[key])
		}
	}

	var nilSnap *Snapshot
	if nilSnap.Metrics() != nil {
		t.Error("nil snapshot must render nil metrics")
	}

	poolOnly := &Snapshot{PoolHashRate: 500, Miners: 2}
	if _, ok := poolOnly.Metrics()["hashrate"]; ok {
		t.Error("wallet metrics must be omitted when no wallet stats were fetched")
	}
}

func TestFormatHashRate(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{950, "950 H/s"},
		{2500, "2.50 KH/s"},
		{3_200_000, "3.20 MH/s"},
		{7_100_000_000, "7.10 GH/s"},
	}
	for _, tc := range cases {
		if got := formatHashRate(tc.in); got != tc.want {
			t.Errorf("formatHashRate(%v): want %q, got %q", tc.in, tc.want, got)
		}
	}
}
