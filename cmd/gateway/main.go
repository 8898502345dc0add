package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"admission-gateway/middleware/admission"
	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/domain"
	"admission-gateway/middleware/admission/infra"
)

func main() {
	// .env local é conveniência de desenvolvimento; em produção as variáveis
	// vêm do ambiente mesmo.
	_ = godotenv.Load()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "gateway").Logger()

	cfg, err := readConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}
	if lvl, lerr := zerolog.ParseLevel(cfg.logLevel); lerr == nil {
		logger = logger.Level(lvl)
	}

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid UPSTREAM_URL")
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("proxy error")
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	codec, err := infra.NewJWTCodec([]byte(cfg.authSecret), infra.WithTTL(cfg.tokenTTL))
	if err != nil {
		logger.Fatal().Err(err).Msg("token codec error")
	}

	policies, err := buildPolicies()
	if err != nil {
		logger.Fatal().Err(err).Msg("policy table error")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rdb *redis.Client
	if cfg.redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		_, perr := rdb.Ping(pingCtx).Result()
		cancelPing()
		if perr != nil {
			logger.Fatal().Err(perr).Msg("redis ping error")
		}
	}

	var store domain.CounterStore
	switch cfg.limiter {
	case "memory":
		mem := infra.NewMemoryCounterStore(
			infra.WithIdleTTL(cfg.counterIdleTTL),
			infra.WithCleanupEvery(cfg.counterCleanupEvery),
		)
		mem.StartJanitor(ctx)
		store = mem
	case "redis":
		store = infra.NewRedisCounterStore(rdb)
	case "bucket":
		b := infra.NewBucketStore(
			infra.WithBucketIdleTTL(cfg.counterIdleTTL),
			infra.WithBucketCleanupEvery(cfg.counterCleanupEvery),
		)
		b.StartJanitor(ctx)
		store = b
	}

	var stats domain.StatsStore
	if cfg.statsEnabled {
		stats = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
			infra.WithStatsTrackKeys(cfg.statsTrackKeys),
		)
	}

	svc := application.AdmissionService{
		Identity: application.IdentityService{Codec: codec},
		Policy:   application.PolicyService{Policies: policies, Store: store},
	}

	rules, err := parseRouteRules(cfg.routes)
	if err != nil {
		logger.Fatal().Err(err).Msg("route config error")
	}
	fallback := domain.Route{Policy: cfg.defaultPolicy, RequireAuth: cfg.defaultRequireAuth}
	if err := validateRules(rules, fallback, policies); err != nil {
		logger.Fatal().Err(err).Msg("route config error")
	}

	guard := func(route domain.Route) func(http.Handler) http.Handler {
		return admission.Guard(admission.Options{
			Service:             svc,
			Route:               route,
			KeyHeader:           cfg.keyHeader,
			TrustXForwardedFor:  cfg.trustXFF,
			Stats:               stats,
			AddRateLimitHeaders: cfg.addHeaders,
			Logger:              &logger,
		})
	}

	table, err := newRouteTable(rules, guard, forwardPrincipal(proxy), fallback)
	if err != nil {
		logger.Fatal().Err(err).Msg("route table error")
	}

	h := http.Handler(table)
	h = admission.InFlightMiddleware(admission.InFlightOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
	})(h)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().
		Str("listen", cfg.listenAddr).
		Str("upstream", target.String()).
		Str("limiter", cfg.limiter).
		Str("default_policy", cfg.defaultPolicy).
		Int("routes", len(rules)).
		Msg("gateway listening")
	logger.Info().
		Bool("stats", cfg.statsEnabled).
		Bool("trust_xff", cfg.trustXFF).
		Str("key_header", cfg.keyHeader).
		Int("concurrency_max", cfg.concurrencyMax).
		Msg("gateway options")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// forwardPrincipal repassa a identidade resolvida ao upstream via header.
// O header vindo do cliente é sempre descartado antes.
func forwardPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del("X-Principal-Id")
		if p, ok := admission.PrincipalFrom(r.Context()); ok {
			r.Header.Set("X-Principal-Id", strconv.FormatInt(p.ID, 10))
		}
		next.ServeHTTP(w, r)
	})
}

type config struct {
	listenAddr  string
	upstreamURL string
	logLevel    string

	authSecret string
	tokenTTL   time.Duration

	limiter             string
	counterIdleTTL      time.Duration
	counterCleanupEvery time.Duration

	redisAddr     string
	redisPassword string
	redisDB       int

	routes             string
	defaultPolicy      string
	defaultRequireAuth bool

	keyHeader  string
	trustXFF   bool
	addHeaders bool

	statsEnabled   bool
	statsPrefix    string
	statsTTL       time.Duration
	statsBucket    string
	statsTrackKeys bool

	concurrencyMax     int
	concurrencyTimeout time.Duration
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")

	cfg.authSecret = os.Getenv("AUTH_SECRET")
	cfg.tokenTTL = getenvDurationDefault("TOKEN_TTL", 24*time.Hour)

	cfg.limiter = strings.ToLower(getenvDefault("LIMITER", "memory"))
	cfg.counterIdleTTL = getenvDurationDefault("COUNTER_IDLE_TTL", 30*time.Minute)
	cfg.counterCleanupEvery = getenvDurationDefault("COUNTER_CLEANUP_EVERY", 2*time.Minute)

	cfg.redisAddr = getenvDefault("REDIS_ADDR", "")
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB = getenvIntDefault("REDIS_DB", 0)

	cfg.routes = os.Getenv("ROUTES")
	cfg.defaultPolicy = getenvDefault("DEFAULT_POLICY", domain.PolicyLenient)
	cfg.defaultRequireAuth = getenvBoolDefault("DEFAULT_REQUIRE_AUTH", false)

	cfg.keyHeader = os.Getenv("KEY_HEADER")
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "admission:stats")
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("STATS_BUCKET", "minute")
	cfg.statsTrackKeys = getenvBoolDefault("STATS_TRACK_KEYS", false)

	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	// Subir sem segredo seria aceitar qualquer token; melhor não subir.
	if strings.TrimSpace(cfg.authSecret) == "" {
		return config{}, errors.New("AUTH_SECRET is required")
	}
	switch cfg.limiter {
	case "memory", "redis", "bucket":
	default:
		return config{}, errors.New("LIMITER must be one of: memory, redis, bucket")
	}
	if cfg.limiter == "redis" && strings.TrimSpace(cfg.redisAddr) == "" {
		return config{}, errors.New("REDIS_ADDR is required when LIMITER=redis")
	}
	if cfg.statsEnabled && strings.TrimSpace(cfg.redisAddr) == "" {
		return config{}, errors.New("REDIS_ADDR is required when STATS_ENABLED=true")
	}
	if cfg.tokenTTL <= 0 {
		return config{}, errors.New("TOKEN_TTL must be > 0")
	}
	if cfg.counterIdleTTL <= 0 {
		return config{}, errors.New("COUNTER_IDLE_TTL must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

// buildPolicies parte da tabela de referência e aplica overrides de ambiente
// no formato "tentativas/janela" (ex: POLICY_STRICT="20/2m").
func buildPolicies() (domain.PolicySet, error) {
	base := []domain.Policy{
		{Name: domain.PolicyStrict, MaxAttempts: 10, Window: time.Minute, RequireSignal: true},
		{Name: domain.PolicyLenient, MaxAttempts: 120, Window: time.Minute, RequireSignal: true},
		{Name: domain.PolicyOTP, MaxAttempts: 5, Window: 15 * time.Minute, RequireSignal: true},
		{Name: domain.PolicyUnlimited, MaxAttempts: 0, RequireSignal: true},
	}

	for i := range base {
		env := "POLICY_" + strings.ToUpper(base[i].Name)
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" {
			continue
		}
		max, window, err := parseBudget(raw)
		if err != nil {
			return domain.PolicySet{}, errors.New(env + ": " + err.Error())
		}
		base[i].MaxAttempts = max
		base[i].Window = window
	}

	return domain.NewPolicySet(base...)
}

func parseBudget(raw string) (int, time.Duration, error) {
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) != 2 {
		return 0, 0, errors.New("budget must follow MAX/WINDOW (ex: 10/1m)")
	}
	max, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, errors.New("invalid max attempts: " + parts[0])
	}
	window, err := time.ParseDuration(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, errors.New("invalid window: " + parts[1])
	}
	return max, window, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
