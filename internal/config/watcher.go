// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads the configuration file when it changes on disk and
// notifies a callback with the freshly parsed Config.
type Watcher struct {
	path     string
	onChange func(*Config)
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given config path. onChange is
// invoked with every successfully reloaded configuration; parse or
// validation failures keep the previous configuration and are logged.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to create fs watcher: %w", err)
	}

	// Watch the directory rather than the file: editors and atomic
	// writers replace the file, which drops a direct file watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("config: failed to watch %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{path: path, onChange: onChange, watcher: fw}, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.watcher.Close() }()

	var debounce *time.Timer
	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Coalesce bursts of events from a single save.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		log.Errorf("config reload rejected: %v", err)
		return
	}
	log.Infof("config reloaded from %s", w.path)
	w.onChange(cfg)
}
