package infra

import (
	"context"
	"sync"
	"time"

	"admission-gateway/middleware/admission/domain"
)

// MemoryCounterStore é a implementação de referência: janela fixa por
// (política, chave), em memória, com limpeza periódica de entradas ociosas.
//
// A comparação de virada de janela é estrita (`>`), herdada do sistema
// legado: uma rajada por borda de janela é comportamento aceito aqui; para
// fechar essa brecha use o BucketStore.
type MemoryCounterStore struct {
	mu           sync.Mutex
	buckets      map[string]*windowBucket
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type windowBucket struct {
	windowStart time.Time
	count       int
	lastSeen    time.Time
}

type CounterOption func(*MemoryCounterStore)

// WithIdleTTL define por quanto tempo um bucket ocioso sobrevive. Deve ser
// maior ou igual à maior janela configurada, senão buckets ativos podem ser
// descartados no meio da janela.
func WithIdleTTL(d time.Duration) CounterOption {
	return func(s *MemoryCounterStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) CounterOption {
	return func(s *MemoryCounterStore) { s.cleanupEvery = d }
}

// WithCounterClock troca o relógio (testes de janela).
func WithCounterClock(now func() time.Time) CounterOption {
	return func(s *MemoryCounterStore) { s.now = now }
}

func NewMemoryCounterStore(opts ...CounterOption) *MemoryCounterStore {
	s := &MemoryCounterStore{
		buckets:      make(map[string]*windowBucket),
		idleTTL:      30 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implementa domain.CounterStore. Decide e atualiza o bucket sob o mesmo
// lock: duas requisições concorrentes da mesma chave nunca observam o mesmo
// contador pré-incremento.
func (s *MemoryCounterStore) Hit(_ context.Context, policy domain.Policy, key domain.Key) (domain.Verdict, error) {
	bucketKey := policy.Name + ":" + string(key)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketKey]
	if !ok || now.Sub(b.windowStart) > policy.Window {
		s.buckets[bucketKey] = &windowBucket{windowStart: now, count: 1, lastSeen: now}
		return domain.Verdict{
			Allowed:   true,
			Limit:     policy.MaxAttempts,
			Remaining: policy.MaxAttempts - 1,
			ResetAt:   now.Add(policy.Window),
		}, nil
	}

	b.lastSeen = now
	resetAt := b.windowStart.Add(policy.Window)

	if b.count >= policy.MaxAttempts {
		retry := resetAt.Sub(now)
		if retry < 0 {
			retry = 0
		}
		return domain.Verdict{
			Allowed:    false,
			Limit:      policy.MaxAttempts,
			Remaining:  0,
			RetryAfter: retry,
			ResetAt:    resetAt,
		}, nil
	}

	b.count++
	remaining := policy.MaxAttempts - b.count
	if remaining < 0 {
		remaining = 0
	}
	return domain.Verdict{
		Allowed:   true,
		Limit:     policy.MaxAttempts,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Cleanup remove buckets sem atividade além do idleTTL.
func (s *MemoryCounterStore) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa buckets ociosos periodicamente.
// Pare cancelando o contexto.
func (s *MemoryCounterStore) StartJanitor(ctx DoneContext) {
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

// DoneContext é o mínimo necessário para aceitar context.Context sem importar
// context nas assinaturas públicas do janitor. (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}
