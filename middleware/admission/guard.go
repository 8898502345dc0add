package admission

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/domain"
)

// KeyFunc extrai a chave de cliente anônima de uma requisição. Quando a
// admissão resolve uma identidade, a chave passa a ser derivada do Principal
// e esta função vira apenas o fallback para chamadores anônimos.
type KeyFunc func(r *http.Request) string

// Options configura o guard de uma rota.
type Options struct {
	Service application.AdmissionService
	Route   domain.Route

	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool

	// SignalFn decide se a requisição carrega o sinal de estado do cliente.
	// Nulo usa CookieOrAuthHeader.
	SignalFn SignalFunc

	Stats               domain.StatsStore
	AddRateLimitHeaders bool

	// Logger é opcional; rejeições saem em debug, falhas de infra em error.
	Logger *zerolog.Logger
}

// DefaultKeyFunc resolve a chave na ordem: header configurado, primeiro IP do
// X-Forwarded-For (quando confiável), host do RemoteAddr.
func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if len(parts) > 0 {
					ip := strings.TrimSpace(parts[0])
					if ip != "" {
						return ip
					}
				}
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// BearerToken extrai a credencial do header Authorization ("Bearer <token>").
// Retorna vazio quando o header está ausente ou em outro esquema.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("bearer "):])
}

// Guard devolve o middleware de admissão para uma rota anotada.
func Guard(opts Options) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.SignalFn == nil {
		opts.SignalFn = CookieOrAuthHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			att := domain.Attempt{
				Credential: BearerToken(r),
				HasSignal:  opts.SignalFn(r),
				ClientKey:  domain.Key(opts.KeyFn(r)),
			}

			res, err := opts.Service.Admit(r.Context(), opts.Route, att)
			if err != nil {
				// falha de infraestrutura (store fora do ar, política
				// desconhecida): nunca vira um motivo do contrato.
				if opts.Logger != nil {
					opts.Logger.Error().Err(err).Str("policy", opts.Route.Policy).Msg("admission check failed")
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:     att.ClientKey,
					Allowed: res.Admitted,
					Reason:  res.Reason,
					Policy:  opts.Route.Policy,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      time.Now(),
				})
			}

			if !res.Admitted {
				if opts.Logger != nil {
					opts.Logger.Debug().
						Str("policy", opts.Route.Policy).
						Str("reason", string(res.Reason)).
						Str("path", r.URL.Path).
						Msg("request rejected")
				}
				if res.Reason == domain.ReasonRateLimited {
					w.Header().Set("Retry-After", formatInt(retryAfterSeconds(res.Verdict.RetryAfter)))
				}
				WriteReason(w, res.Reason)
				return
			}

			if opts.AddRateLimitHeaders && res.Verdict.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", formatInt(res.Verdict.Limit))
				w.Header().Set("X-RateLimit-Remaining", formatInt(res.Verdict.Remaining))
				if !res.Verdict.ResetAt.IsZero() {
					w.Header().Set("X-RateLimit-Reset", formatInt64(res.Verdict.ResetAt.Unix()))
				}
			}

			if res.Principal != nil {
				r = r.WithContext(WithPrincipal(r.Context(), *res.Principal))
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(d time.Duration) int {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
