package infra

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"admission-gateway/middleware/admission/domain"
)

// BucketStore é a alternativa token-bucket (x/time/rate) ao contador de
// janela fixa: o reabastecimento contínuo fecha a brecha de rajada na virada
// de janela, ao custo de se afastar do comportamento legado byte a byte.
//
// A taxa derivada é MaxAttempts/Window com burst igual a MaxAttempts.
type BucketStore struct {
	mu           sync.Mutex
	entries      map[string]*bucketEntry
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

var _ domain.CounterStore = (*BucketStore)(nil)

type BucketOption func(*BucketStore)

func WithBucketIdleTTL(d time.Duration) BucketOption {
	return func(s *BucketStore) { s.idleTTL = d }
}

func WithBucketCleanupEvery(d time.Duration) BucketOption {
	return func(s *BucketStore) { s.cleanupEvery = d }
}

func NewBucketStore(opts ...BucketOption) *BucketStore {
	s := &BucketStore{
		entries:      make(map[string]*bucketEntry),
		idleTTL:      30 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implementa domain.CounterStore.
func (s *BucketStore) Hit(_ context.Context, policy domain.Policy, key domain.Key) (domain.Verdict, error) {
	lim := s.limiter(policy, key)

	if lim.Allow() {
		return domain.Verdict{
			Allowed:   true,
			Limit:     policy.MaxAttempts,
			Remaining: int(lim.Tokens()),
		}, nil
	}

	// tempo aproximado até repor um token.
	retry := time.Duration(float64(policy.Window) / float64(policy.MaxAttempts))
	return domain.Verdict{
		Allowed:    false,
		Limit:      policy.MaxAttempts,
		Remaining:  0,
		RetryAfter: retry,
	}, nil
}

func (s *BucketStore) limiter(policy domain.Policy, key domain.Key) *rate.Limiter {
	entryKey := policy.Name + ":" + string(key)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[entryKey]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	rps := rate.Limit(float64(policy.MaxAttempts) / policy.Window.Seconds())
	lim := rate.NewLimiter(rps, policy.MaxAttempts)
	s.entries[entryKey] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *BucketStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia a limpeza periódica de entradas ociosas.
func (s *BucketStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
