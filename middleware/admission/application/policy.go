package application

import (
	"context"
	"fmt"

	"admission-gateway/middleware/admission/domain"
)

// PolicyService consulta o orçamento de uma política para uma chave de cliente.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna um Verdict.
type PolicyService struct {
	Policies domain.PolicySet
	Store    domain.CounterStore
}

// Check decide para (política, chave). A política "unlimited" (MaxAttempts=0)
// admite sem contar nada. Sem Store configurado, admite — útil em testes e
// em ambientes onde o limitador está desligado.
func (s PolicyService) Check(ctx context.Context, policyName string, key domain.Key) (domain.Verdict, error) {
	pol, ok := s.Policies.Get(policyName)
	if !ok {
		return domain.Verdict{}, fmt.Errorf("%w: %q", domain.ErrUnknownPolicy, policyName)
	}
	if pol.Unlimited() {
		return domain.Verdict{Allowed: true}, nil
	}
	if s.Store == nil {
		return domain.Verdict{Allowed: true, Limit: pol.MaxAttempts, Remaining: pol.MaxAttempts}, nil
	}
	return s.Store.Hit(ctx, pol, key)
}
