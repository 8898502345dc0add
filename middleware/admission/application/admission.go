package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"admission-gateway/middleware/admission/domain"
)

// AdmissionService orquestra a máquina de estados da admissão, um passe por
// requisição: sinal -> [identidade] -> política -> admitida/rejeitada.
//
// Não há retry interno: rejeição é sempre devolvida imediatamente ao chamador.
type AdmissionService struct {
	Identity IdentityService
	Policy   PolicyService
}

// Admit decide o destino de uma tentativa sob as anotações da rota.
//
// Erro de retorno é falha de infraestrutura (store indisponível, política
// inexistente), nunca um motivo de rejeição do contrato — esses chegam em
// Result.Reason.
func (s AdmissionService) Admit(ctx context.Context, route domain.Route, att domain.Attempt) (domain.Result, error) {
	pol, ok := s.Policy.Policies.Get(route.Policy)
	if !ok {
		return domain.Result{}, fmt.Errorf("%w: %q", domain.ErrUnknownPolicy, route.Policy)
	}

	// 1) sinal de estado: presença de cookie/credencial, não identidade.
	if (route.RequireSignal || pol.RequireSignal) && !att.HasSignal {
		return domain.Result{Reason: domain.ReasonSignalMissing}, nil
	}

	// 2) identidade, quando a rota exige.
	var principal *domain.Principal
	key := att.ClientKey
	if route.RequireAuth {
		p, err := s.Identity.ResolveRequired(att.Credential)
		if err != nil {
			return domain.Result{Reason: authReason(err)}, nil
		}
		principal = &p
		key = PrincipalKey(p)
	} else if p, resolved := s.Identity.ResolveOptional(att.Credential); resolved {
		// rota anônima com credencial válida: ainda preferimos a identidade
		// como unidade de limitação (evita falso positivo atrás de NAT).
		principal = &p
		key = PrincipalKey(p)
	}

	// 3) orçamento da política.
	verdict, err := s.Policy.Check(ctx, pol.Name, key)
	if err != nil {
		return domain.Result{}, err
	}
	if !verdict.Allowed {
		return domain.Result{Reason: domain.ReasonRateLimited, Verdict: verdict}, nil
	}

	return domain.Result{Admitted: true, Principal: principal, Verdict: verdict}, nil
}

// PrincipalKey é a chave de limitação derivada da identidade resolvida.
func PrincipalKey(p domain.Principal) domain.Key {
	return domain.Key("user:" + strconv.FormatInt(p.ID, 10))
}

func authReason(err error) domain.Reason {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return domain.ReasonUnauthenticated
	case errors.Is(err, domain.ErrTokenExpired):
		return domain.ReasonTokenExpired
	default:
		return domain.ReasonTokenInvalid
	}
}
