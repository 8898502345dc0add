package domain

import (
	"context"
	"time"
)

// Verdict é o resultado de uma consulta ao contador de uma política.
type Verdict struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter é a recomendação para o header Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
	ResetAt    time.Time
}

// CounterStore mantém os contadores por (política, chave de cliente).
//
// Hit registra uma tentativa e decide em uma única operação: implementações
// precisam ser atômicas por chave — ler e depois escrever em dois passos é
// bug de corretude sob concorrência, não otimização em falta.
//
// Implementações podem ser janela fixa em memória, Redis, token bucket, etc.
type CounterStore interface {
	Hit(ctx context.Context, policy Policy, key Key) (Verdict, error)
}
