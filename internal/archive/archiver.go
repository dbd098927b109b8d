// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package archive uploads completed-session transcripts to S3-compatible
// object storage. Archiving is best-effort: failures are logged and never
// affect request handling.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"

	"github.com/xmrtdao/eliza-gateway/internal/config"
	"github.com/xmrtdao/eliza-gateway/internal/memory"
)

// Archiver writes transcripts to a bucket.
type Archiver struct {
	client *minio.Client
	bucket string
}

// New connects to the configured endpoint. Returns nil without error when
// archiving is disabled.
func New(cfg config.ArchiveConfig) (*Archiver, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: failed to create client: %w", err)
	}

	return &Archiver{client: client, bucket: cfg.Bucket}, nil
}

// ObjectName renders the bucket key for a transcript. Transcripts are
// partitioned by day so retention policies can prune whole prefixes.
func ObjectName(t memory.Transcript) string {
	day := t.UpdatedAt.UTC().Format("2006-01-02")
	return fmt.Sprintf("transcripts/%s/%s.json", day, t.SessionID)
}

// Store uploads one transcript.
func (a *Archiver) Store(ctx context.Context, t memory.Transcript) error {
	if a == nil {
		return nil
	}

	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("archive: failed to encode transcript: %w", err)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err = a.client.PutObject(uploadCtx, a.bucket, ObjectName(t),
		bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("archive: upload failed: %w", err)
	}

	log.Debugf("archived transcript %s (%d bytes)", t.SessionID, len(body))
	return nil
}
