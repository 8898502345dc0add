package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão de admissão.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings genéricas.
//
// Observação: cuidado com cardinalidade (salvar Key/Path sem controle pode
// explodir o número de chaves em uma base como Redis).
type StatsEvent struct {
	Key     Key
	Allowed bool
	// Reason fica vazio quando a requisição foi admitida.
	Reason Reason
	Policy string

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência das estatísticas de admissão.
//
// O guard trata erro como best-effort: nunca derruba a requisição por causa
// de estatística.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
