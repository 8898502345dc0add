package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Key identifica a unidade de limitação de um cliente (ex: IP, "user:42").
type Key string

// Policy é um orçamento de taxa nomeado: MaxAttempts dentro de Window.
//
// MaxAttempts == 0 significa "sem contagem": a política não consulta contador
// nenhum e serve apenas para exigir o sinal de estado do cliente.
type Policy struct {
	Name          string
	MaxAttempts   int
	Window        time.Duration
	RequireSignal bool
}

// Unlimited informa se a política admite sem consultar contadores.
func (p Policy) Unlimited() bool { return p.MaxAttempts <= 0 }

// Nomes das políticas de referência.
const (
	PolicyStrict    = "strict"
	PolicyLenient   = "lenient"
	PolicyOTP       = "otp"
	PolicyUnlimited = "unlimited"
)

var ErrUnknownPolicy = errors.New("unknown policy")

// PolicySet é o conjunto de políticas, definido na subida do processo e
// imutável depois disso.
type PolicySet struct {
	policies map[string]Policy
}

// NewPolicySet valida e congela o conjunto de políticas. Tabela inválida é
// falha de configuração: o chamador deve recusar a subida do processo.
func NewPolicySet(policies ...Policy) (PolicySet, error) {
	set := PolicySet{policies: make(map[string]Policy, len(policies))}
	for _, p := range policies {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return PolicySet{}, errors.New("policy name must not be empty")
		}
		if _, dup := set.policies[name]; dup {
			return PolicySet{}, fmt.Errorf("duplicate policy %q", name)
		}
		if p.MaxAttempts < 0 {
			return PolicySet{}, fmt.Errorf("policy %q: MaxAttempts must be >= 0", name)
		}
		if p.MaxAttempts > 0 && p.Window <= 0 {
			return PolicySet{}, fmt.Errorf("policy %q: Window must be > 0 when counting", name)
		}
		p.Name = name
		set.policies[name] = p
	}
	return set, nil
}

// Get retorna a política pelo nome.
func (s PolicySet) Get(name string) (Policy, bool) {
	p, ok := s.policies[name]
	return p, ok
}

// Names retorna os nomes conhecidos (sem ordem definida).
func (s PolicySet) Names() []string {
	out := make([]string, 0, len(s.policies))
	for name := range s.policies {
		out = append(out, name)
	}
	return out
}

// DefaultPolicies é o conjunto de referência do sistema legado:
// strict 10/60s, lenient 120/60s, otp 5/900s e unlimited (apenas sinal).
// Todas exigem o sinal de estado antes de qualquer contagem.
func DefaultPolicies() PolicySet {
	set, err := NewPolicySet(
		Policy{Name: PolicyStrict, MaxAttempts: 10, Window: time.Minute, RequireSignal: true},
		Policy{Name: PolicyLenient, MaxAttempts: 120, Window: time.Minute, RequireSignal: true},
		Policy{Name: PolicyOTP, MaxAttempts: 5, Window: 15 * time.Minute, RequireSignal: true},
		Policy{Name: PolicyUnlimited, MaxAttempts: 0, RequireSignal: true},
	)
	if err != nil {
		// tabela compilada; só falha se alguém quebrar as constantes acima
		panic(err)
	}
	return set
}
