package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// StaticSource serves fixed quotes from memory. Used in tests and in dev
// environments without a feed service.
type StaticSource struct {
	mu     sync.RWMutex
	quotes map[string]Quote
	now    func() time.Time
}

func NewStaticSource() *StaticSource {
	return &StaticSource{
		quotes: make(map[string]Quote),
		now:    time.Now,
	}
}

// Set stores a quote for ref. The AsOf timestamp is taken at call time unless
// already set on the quote.
func (s *StaticSource) Set(ref string, value int64, scale uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[ref] = Quote{
		Value:  big.NewInt(value),
		Scale:  scale,
		AsOf:   s.now(),
		Source: "static",
	}
}

// SetQuote stores a fully specified quote for ref.
func (s *StaticSource) SetQuote(ref string, q Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[ref] = q
}

func (s *StaticSource) Latest(_ context.Context, ref string) (Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[ref]
	if !ok {
		return Quote{}, fmt.Errorf("no quote for feed %q", ref)
	}
	return q, nil
}
