package main

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"admission-gateway/middleware/admission/domain"
)

// routeRule liga um prefixo de caminho às anotações de admissão da rota.
//
// Sintaxe do env ROUTES: entradas separadas por ";", cada uma
// "prefixo=política[,auth][,signal]". Ex.:
//
//	ROUTES="/api/auth/otp=otp,auth;/api/auth/=lenient;/api/=strict,auth"
//
// O prefixo mais longo vence. Caminhos sem regra caem na rota padrão.
type routeRule struct {
	prefix string
	route  domain.Route
}

func parseRouteRules(raw string) ([]routeRule, error) {
	var rules []routeRule
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("route rule must follow PREFIX=POLICY[,auth][,signal]: %q", entry)
		}

		prefix := strings.TrimSpace(parts[0])
		if !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("route prefix must start with /: %q", prefix)
		}

		spec := strings.Split(parts[1], ",")
		policy := strings.TrimSpace(spec[0])
		if policy == "" {
			return nil, fmt.Errorf("route rule %q has empty policy", entry)
		}

		rule := routeRule{prefix: prefix, route: domain.Route{Policy: policy}}
		for _, flag := range spec[1:] {
			switch strings.TrimSpace(flag) {
			case "auth":
				rule.route.RequireAuth = true
			case "signal":
				rule.route.RequireSignal = true
			case "":
				// vírgula sobrando, ignora
			default:
				return nil, fmt.Errorf("unknown route flag %q in %q", flag, entry)
			}
		}
		rules = append(rules, rule)
	}

	// prefixo mais longo primeiro; empate resolve por ordem lexicográfica
	// para manter o casamento determinístico.
	sort.SliceStable(rules, func(i, j int) bool {
		if len(rules[i].prefix) != len(rules[j].prefix) {
			return len(rules[i].prefix) > len(rules[j].prefix)
		}
		return rules[i].prefix < rules[j].prefix
	})
	return rules, nil
}

// validateRules garante na subida que toda regra aponta para política
// conhecida — erro aqui é falha de configuração, não de requisição.
func validateRules(rules []routeRule, fallback domain.Route, policies domain.PolicySet) error {
	for _, r := range rules {
		if _, ok := policies.Get(r.route.Policy); !ok {
			return fmt.Errorf("route %q: %w: %q", r.prefix, domain.ErrUnknownPolicy, r.route.Policy)
		}
	}
	if _, ok := policies.Get(fallback.Policy); !ok {
		return fmt.Errorf("default route: %w: %q", domain.ErrUnknownPolicy, fallback.Policy)
	}
	return nil
}

// routeTable despacha cada requisição para o guard da regra que casou.
type routeTable struct {
	rules    []routeRule
	handlers []http.Handler
	fallback http.Handler
}

func newRouteTable(rules []routeRule, guard func(domain.Route) func(http.Handler) http.Handler, next http.Handler, fallback domain.Route) (*routeTable, error) {
	if next == nil {
		return nil, errors.New("next handler is required")
	}
	t := &routeTable{rules: rules, fallback: guard(fallback)(next)}
	for _, r := range rules {
		t.handlers = append(t.handlers, guard(r.route)(next))
	}
	return t, nil
}

func (t *routeTable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for i, rule := range t.rules {
		if strings.HasPrefix(r.URL.Path, rule.prefix) {
			t.handlers[i].ServeHTTP(w, r)
			return
		}
	}
	t.fallback.ServeHTTP(w, r)
}
