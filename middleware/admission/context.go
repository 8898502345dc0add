package admission

import (
	"context"

	"admission-gateway/middleware/admission/domain"
)

type contextKey string

const principalContextKey contextKey = "admission.principal"

// WithPrincipal injeta a identidade resolvida no contexto da requisição.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFrom recupera a identidade resolvida pelo guard, se houver.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	v := ctx.Value(principalContextKey)
	if v == nil {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}
