package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// hashEmbedder is a deterministic, model-free stand-in: it hashes tokens
// into a fixed-dimension vector and L2-normalizes the result so cosine
// distance behaves sensibly in tests and in the absence of a downloaded
// model. It is not a semantic embedder — the real neural runtime is an
// external collaborator out of scope for this implementation.
type hashEmbedder struct {
	dim       int
	tokenizer *wordTokenizer
}

func newHashEmbedder(dim int) *hashEmbedder {
	return &hashEmbedder{dim: dim, tokenizer: newWordTokenizer()}
}

func (h *hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.embedOne(t)
	}
	return out, nil
}

func (h *hashEmbedder) embedOne(text string) []float32 {
	v := make([]float64, h.dim)
	for _, tok := range strings.Fields(text) {
		hsh := fnv.New32a()
		_, _ = hsh.Write([]byte(tok))
		bucket := int(hsh.Sum32()) % h.dim
		if bucket < 0 {
			bucket += h.dim
		}
		v[bucket]++
	}
	var norm float64
	for _, f := range v {
		norm += f * f
	}
	norm = math.Sqrt(norm)
	result := make([]float32, h.dim)
	if norm == 0 {
		return result
	}
	for i, f := range v {
		result[i] = float32(f / norm)
	}
	return result
}

func (h *hashEmbedder) Dimension() int { return h.dim }

func (h *hashEmbedder) Tokenizer() Tokenizer { return h.tokenizer }

func (h *hashEmbedder) Close() error { return nil }

// wordTokenizer implements a whitespace-split tokenizer whose vocabulary
// grows as text is encoded, so decode can reconstruct it. This stands in
// for the real model's subword tokenizer — the chunker only depends on
// encode producing stable ids and decode reversing them over the
// overlap window.
type wordTokenizer struct {
	mu       sync.Mutex
	idToWord []string
	wordToID map[string]int
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{wordToID: map[string]int{}}
}

func (t *wordTokenizer) Encode(text string) []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	words := strings.Fields(text)
	ids := make([]int, len(words))
	for i, w := range words {
		id, ok := t.wordToID[w]
		if !ok {
			id = len(t.idToWord)
			t.wordToID[w] = id
			t.idToWord = append(t.idToWord, w)
		}
		ids[i] = id
	}
	return ids
}

func (t *wordTokenizer) Decode(ids []int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	words := make([]string, 0, len(ids))
	for _, id := range ids {
		if id >= 0 && id < len(t.idToWord) {
			words = append(words, t.idToWord[id])
		}
	}
	return strings.Join(words, " ")
}
