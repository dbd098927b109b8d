// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prompt

import (
	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter estimates token counts in text content. Implementations
// trade accuracy for speed.
type TokenCounter interface {
	Count(content string) int
}

// NewTokenCounter returns a counter for the configured method. Valid
// methods are "tiktoken" (BPE-accurate) and "simple" (word-count
// approximation). Unknown methods and tokenizer init failures fall back
// to simple counting.
func NewTokenCounter(method string) TokenCounter {
	if method == "tiktoken" {
		if codec, err := tokenizer.Get(tokenizer.Cl100kBase); err == nil {
			return &tiktokenCounter{codec: codec}
		}
	}
	return simpleCounter{}
}

type tiktokenCounter struct {
	codec tokenizer.Codec
}

func (t *tiktokenCounter) Count(content string) int {
	ids, _, err := t.codec.Encode(content)
	if err != nil {
		return simpleCounter{}.Count(content)
	}
	return len(ids)
}

// simpleCounter approximates tokens as words * 1.3, which matches the
// average subword expansion of common BPE vocabularies.
type simpleCounter struct{}

func (simpleCounter) Count(content string) int {
	if len(content) == 0 {
		return 0
	}

	words := 0
	inWord := false
	for _, r := range content {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if isSpace {
			inWord = false
		} else if !inWord {
			words++
			inWord = true
		}
	}
	return int(float64(words) * 1.3)
}
