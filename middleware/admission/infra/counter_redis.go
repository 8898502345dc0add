package infra

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"admission-gateway/middleware/admission/domain"
)

// hitScript faz INCR + PEXPIRE na primeira tentativa da janela e devolve
// {contagem, ttl} em uma única execução atômica do lado do servidor.
var hitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisCounterStore implementa o mesmo contrato do MemoryCounterStore sobre
// Redis, para implantação multi-processo.
//
// Diferença aceita em relação à referência: tentativas rejeitadas também
// incrementam o contador. Dentro de uma mesma janela o número de admissões é
// idêntico, já que a expiração é fixada na primeira tentativa.
type RedisCounterStore struct {
	rdb    *redis.Client
	prefix string
}

var _ domain.CounterStore = (*RedisCounterStore)(nil)

type RedisCounterOption func(*RedisCounterStore)

func WithCounterPrefix(prefix string) RedisCounterOption {
	return func(s *RedisCounterStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisCounterStore(rdb *redis.Client, opts ...RedisCounterOption) *RedisCounterStore {
	s := &RedisCounterStore{
		rdb:    rdb,
		prefix: "admission:counter",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implementa domain.CounterStore. Erros de I/O sobem para o chamador:
// são falha de gateway (500), nunca um motivo do contrato.
func (s *RedisCounterStore) Hit(ctx context.Context, policy domain.Policy, key domain.Key) (domain.Verdict, error) {
	redisKey := s.prefix + ":" + policy.Name + ":" + string(key)

	res, err := hitScript.Run(ctx, s.rdb, []string{redisKey}, policy.Window.Milliseconds()).Result()
	if err != nil {
		return domain.Verdict{}, err
	}

	vals, _ := res.([]interface{})
	var count, ttlMs int64
	if len(vals) == 2 {
		count, _ = vals[0].(int64)
		ttlMs, _ = vals[1].(int64)
	}
	if ttlMs < 0 {
		ttlMs = policy.Window.Milliseconds()
	}

	ttl := time.Duration(ttlMs) * time.Millisecond
	allowed := count <= int64(policy.MaxAttempts)
	remaining := policy.MaxAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}

	v := domain.Verdict{
		Allowed:   allowed,
		Limit:     policy.MaxAttempts,
		Remaining: remaining,
		ResetAt:   time.Now().Add(ttl),
	}
	if !allowed {
		v.RetryAfter = ttl
	}
	return v, nil
}
