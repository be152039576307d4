package parser

import (
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 1024

// CachedExtractor memoizes one-shot extraction by output text. Batch inputs
// often repeat the same completion (retries, n>1 sampling with identical
// output), and extraction is a pure function of the text.
type CachedExtractor struct {
	parser *Parser
	cache  *lru.Cache[[sha256.Size]byte, ExtractionResult]
}

// NewCachedExtractor wraps p with an LRU cache of the given size (1024 when
// size <= 0).
func NewCachedExtractor(p *Parser, size int) (*CachedExtractor, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[[sha256.Size]byte, ExtractionResult](size)
	if err != nil {
		return nil, fmt.Errorf("create extraction cache: %w", err)
	}
	return &CachedExtractor{parser: p, cache: cache}, nil
}

// Extract returns a copy of the cached result, extracting on a miss.
func (c *CachedExtractor) Extract(text string, req Request) ExtractionResult {
	result, _ := c.Lookup(text, req)
	return result
}

// Lookup is Extract that also reports whether the result came from the cache.
func (c *CachedExtractor) Lookup(text string, req Request) (ExtractionResult, bool) {
	key := sha256.Sum256([]byte(text))
	if cached, ok := c.cache.Get(key); ok {
		return cloneResult(cached), true
	}
	result := c.parser.ExtractToolCalls(text, req)
	c.cache.Add(key, cloneResult(result))
	return result, false
}

// Len returns the number of cached results.
func (c *CachedExtractor) Len() int {
	return c.cache.Len()
}

func cloneResult(r ExtractionResult) ExtractionResult {
	out := ExtractionResult{Called: r.Called}
	if r.Calls != nil {
		out.Calls = append([]ToolCall(nil), r.Calls...)
	}
	if r.Content != nil {
		content := *r.Content
		out.Content = &content
	}
	return out
}
