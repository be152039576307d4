package tokenutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkRunesPreservesText(t *testing.T) {
	text := "héllo <tool_call>{\"a\":1}</tool_call> wörld"
	for size := 1; size <= len(text)+1; size++ {
		chunks := ChunkRunes(text, size)
		require.Equal(t, text, strings.Join(chunks, ""), "size=%d", size)
		for _, c := range chunks[:len(chunks)-1] {
			require.Len(t, []rune(c), size)
		}
	}
	require.Nil(t, ChunkRunes("", 3))
	require.Equal(t, []string{"abc"}, ChunkRunes("abc", 0))
}

func TestMapVocabulary(t *testing.T) {
	vocab := MapVocabulary{"<tool_call>": 1, "</tool_call>": 2}
	id, ok := vocab.TokenID("<tool_call>")
	require.True(t, ok)
	require.Equal(t, 1, id)
	_, ok = vocab.TokenID("<think>")
	require.False(t, ok)
}

func TestLoadMapVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"<tool_call>": 151657, "</tool_call>": 151658}`), 0o600))

	vocab, err := LoadMapVocabulary(path)
	require.NoError(t, err)
	id, ok := vocab.TokenID("</tool_call>")
	require.True(t, ok)
	require.Equal(t, 151658, id)

	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o600))
	_, err = LoadMapVocabulary(path)
	require.Error(t, err)
}

func TestEstimateFast(t *testing.T) {
	require.Equal(t, 0, EstimateFast("   \n\t  "))
	// "a b c d" has 4 words, 7 runes → runes/4=1, but word count=4 → max is 4
	require.Equal(t, 4, EstimateFast("a b c d"))
}

func TestNilTiktokenVocabularyFallsBack(t *testing.T) {
	var vocab *TiktokenVocabulary
	_, ok := vocab.TokenID("<tool_call>")
	require.False(t, ok)

	fragments, ids := vocab.Split("abcdefgh")
	require.Equal(t, []string{"abcd", "efgh"}, fragments)
	require.Nil(t, ids)
}

func TestTiktokenSplitRoundTrips(t *testing.T) {
	vocab, err := NewTiktokenVocabulary(DefaultEncoding)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	text := "hello <think>thought</think>\n<tool_call>\n{\"name\": \"get_weather\"}\n</tool_call>"
	fragments, ids := vocab.Split(text)
	require.Equal(t, text, strings.Join(fragments, ""))
	require.Len(t, ids, len(fragments))
	require.Greater(t, vocab.CountTokens(text), 1)
}
