// Package tokenutil wraps tiktoken-go for the two things the parser pipeline
// needs from a tokenizer: looking up the id of a marker literal and cutting
// generated text into token-sized deltas. Both degrade gracefully when the
// encoding cannot be loaded.
package tokenutil

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	jsonx "trinity/internal/shared/json"
)

const DefaultEncoding = "cl100k_base"

// Vocabulary maps a text literal to its token id.
type Vocabulary interface {
	TokenID(literal string) (int, bool)
}

// MapVocabulary is a static literal -> id table, typically loaded from a
// model's vocab.json.
type MapVocabulary map[string]int

func (m MapVocabulary) TokenID(literal string) (int, bool) {
	id, ok := m[literal]
	return id, ok
}

// LoadMapVocabulary reads a JSON object of literal -> id pairs.
func LoadMapVocabulary(path string) (MapVocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	var vocab MapVocabulary
	if err := jsonx.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	return vocab, nil
}

// TiktokenVocabulary resolves literals that encode to exactly one token.
type TiktokenVocabulary struct {
	enc *tiktoken.Tiktoken
}

var (
	encMu     sync.Mutex
	encodings = map[string]*tiktoken.Tiktoken{}
)

func getEncoding(name string) (*tiktoken.Tiktoken, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultEncoding
	}
	encMu.Lock()
	defer encMu.Unlock()
	if enc, ok := encodings[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	encodings[name] = enc
	return enc, nil
}

// NewTiktokenVocabulary loads the named encoding (cl100k_base when empty).
func NewTiktokenVocabulary(encoding string) (*TiktokenVocabulary, error) {
	enc, err := getEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}
	return &TiktokenVocabulary{enc: enc}, nil
}

func (v *TiktokenVocabulary) TokenID(literal string) (int, bool) {
	if v == nil || v.enc == nil || literal == "" {
		return 0, false
	}
	ids := v.enc.Encode(literal, []string{"all"}, nil)
	if len(ids) != 1 {
		return 0, false
	}
	return ids[0], true
}

// Split cuts text into one fragment per token. Fragment ids are returned
// alongside so callers can hand both to a streaming consumer. A token that
// ends inside a multi-byte rune yields a fragment that is not valid UTF-8 on
// its own; the concatenation of all fragments always equals text.
func (v *TiktokenVocabulary) Split(text string) ([]string, [][]int) {
	if v == nil || v.enc == nil {
		return ChunkRunes(text, 4), nil
	}
	ids := v.enc.Encode(text, []string{"all"}, nil)
	fragments := make([]string, 0, len(ids))
	idGroups := make([][]int, 0, len(ids))
	for _, id := range ids {
		fragments = append(fragments, v.enc.Decode([]int{id}))
		idGroups = append(idGroups, []int{id})
	}
	return fragments, idGroups
}

// CountTokens returns the token count of text, falling back to EstimateFast.
func (v *TiktokenVocabulary) CountTokens(text string) int {
	if v == nil || v.enc == nil {
		return EstimateFast(text)
	}
	return len(v.enc.Encode(text, nil, nil))
}

// ChunkRunes cuts text into fragments of at most size runes.
func ChunkRunes(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// EstimateFast returns a heuristic token estimate: max(runes/4, word_count).
func EstimateFast(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	estimate := len([]rune(trimmed)) / 4
	if words := len(strings.Fields(trimmed)); estimate < words {
		estimate = words
	}
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}
