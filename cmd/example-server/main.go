package main

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"admission-gateway/middleware/admission"
	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/domain"
	"admission-gateway/middleware/admission/infra"
)

// Exemplo: injetando o guard diretamente no seu webserver (sem proxy).
// As rotas reproduzem o agrupamento típico de uma API de autenticação:
// login aberto sob "otp", rotas de conta sob "strict" exigindo credencial.
func main() {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "example-server").Logger()

	secret := os.Getenv("AUTH_SECRET")
	if strings.TrimSpace(secret) == "" {
		logger.Fatal().Msg("AUTH_SECRET is required")
	}

	codec, err := infra.NewJWTCodec([]byte(secret))
	if err != nil {
		logger.Fatal().Err(err).Msg("token codec error")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := infra.NewMemoryCounterStore()
	store.StartJanitor(ctx)

	svc := application.AdmissionService{
		Identity: application.IdentityService{Codec: codec},
		Policy:   application.PolicyService{Policies: domain.DefaultPolicies(), Store: store},
	}

	guard := func(route domain.Route) func(http.Handler) http.Handler {
		return admission.Guard(admission.Options{
			Service:             svc,
			Route:               route,
			AddRateLimitHeaders: true,
			Logger:              &logger,
		})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// login: aberto, mas sob o orçamento mais apertado
		r.Group(func(r chi.Router) {
			r.Use(guard(domain.Route{Policy: domain.PolicyOTP}))
			r.Post("/auth/login", loginHandler(codec))
		})

		// rotas de conta: credencial obrigatória
		r.Group(func(r chi.Router) {
			r.Use(guard(domain.Route{Policy: domain.PolicyStrict, RequireAuth: true}))
			r.Get("/me", meHandler)
		})

		// leitura geral: orçamento folgado, identidade opcional
		r.Group(func(r chi.Router) {
			r.Use(guard(domain.Route{Policy: domain.PolicyLenient}))
			r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "pong"})
			})
		})
	})

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("listen", addr).Msg("example server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}

type loginRequest struct {
	Email string `json:"email"`
}

// loginHandler emite uma credencial para qualquer e-mail bem formado. Num
// sistema real a senha seria conferida aqui; o exemplo só demonstra o fluxo
// de emissão e o envelope de validação.
func loginHandler(codec domain.TokenCodec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			req = loginRequest{}
		}

		fields := domain.FieldErrors{}
		if strings.TrimSpace(req.Email) == "" {
			fields["email"] = append(fields["email"], "The email field is required.")
		} else if _, err := mail.ParseAddress(req.Email); err != nil {
			fields["email"] = append(fields["email"], "The email field must be a valid email address.")
		}
		if len(fields) > 0 {
			admission.WriteValidation(w, &domain.ValidationError{Fields: fields})
			return
		}

		// no exemplo o id do usuário é sintético e estável por e-mail
		token, err := codec.Mint(subjectFor(req.Email), 0)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status": "success",
			"token":  token,
		})
	}
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := admission.PrincipalFrom(r.Context())
	if !ok {
		// o guard com RequireAuth garante o principal; chegar aqui sem ele
		// indica rota mal montada
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"id":     p.ID,
	})
}

// subjectFor deriva um id numérico determinístico do e-mail (hash FNV-1a
// truncado para ficar positivo).
func subjectFor(email string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(email))
	return strconv.FormatUint(h.Sum64()&(1<<62-1), 10)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
