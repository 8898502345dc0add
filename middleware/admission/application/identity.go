package application

import (
	"strings"

	"admission-gateway/middleware/admission/domain"
)

// IdentityService resolve "quem está chamando" a partir da credencial crua.
//
// É o único lugar onde isso é computado: tudo que roda depois da admissão
// recebe um Principal já resolvido, nunca a credencial.
type IdentityService struct {
	Codec domain.TokenCodec
}

// ResolveRequired falha com ErrUnauthenticated quando nenhuma credencial foi
// apresentada; caso contrário delega ao codec e propaga
// ErrTokenInvalid/ErrTokenExpired sem tradução.
func (s IdentityService) ResolveRequired(raw string) (domain.Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return s.Codec.Decode(raw)
}

// ResolveOptional nunca falha: credencial ausente ou inválida vira (zero, false).
// Só faz sentido em rotas que funcionam para chamadores anônimos e autenticados.
func (s IdentityService) ResolveOptional(raw string) (domain.Principal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Principal{}, false
	}
	p, err := s.Codec.Decode(raw)
	if err != nil {
		return domain.Principal{}, false
	}
	return p, true
}
