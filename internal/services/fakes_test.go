package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
)

// bagOfWordsEmbedder assigns each distinct lowercase token its own dimension,
// so cosine similarity is the normalized count of shared words.
type bagOfWordsEmbedder struct {
	mu    sync.Mutex
	vocab map[string]int
	dim   int
	calls atomic.Int32
	fail  func(text string) bool
}

func newBagOfWordsEmbedder() *bagOfWordsEmbedder {
	return &bagOfWordsEmbedder{vocab: map[string]int{}, dim: 64}
}

func (b *bagOfWordsEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	b.calls.Add(1)
	if b.fail != nil && b.fail(text) {
		return nil, errors.New("inference failed")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vec := make([]float32, b.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		idx, ok := b.vocab[w]
		if !ok {
			idx = len(b.vocab)
			if idx >= b.dim {
				return nil, fmt.Errorf("vocabulary exceeds %d words", b.dim)
			}
			b.vocab[w] = idx
		}
		vec[idx]++
	}
	return vec, nil
}

func (b *bagOfWordsEmbedder) Model() string { return "bag-of-words" }

func (b *bagOfWordsEmbedder) Close() error { return nil }

type staticEmbedder struct {
	vec   []float32
	err   error
	calls atomic.Int32
}

func (s *staticEmbedder) Embed(context.Context, string) ([]float32, error) {
	s.calls.Add(1)
	return s.vec, s.err
}

func (s *staticEmbedder) Model() string { return "static" }

func (s *staticEmbedder) Close() error { return nil }

type fakeSummarizer struct {
	calls  atomic.Int32
	result func(text string) SummaryResult
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) SummaryResult {
	f.calls.Add(1)
	if f.result != nil {
		return f.result(text)
	}
	return SummaryResult{Text: "- Python\n- SQL"}
}
