package domain

// Reason identifica por que uma requisição foi rejeitada na admissão.
// Cada motivo novo precisa de status e mensagem no tradutor de contrato
// antes de existir aqui — não há fallback genérico.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonTokenInvalid    Reason = "token_invalid"
	ReasonTokenExpired    Reason = "token_expired"
	ReasonRateLimited     Reason = "rate_limited"
	ReasonSignalMissing   Reason = "signal_missing"
)

// Route são as anotações estáticas da rota que está sendo guardada.
type Route struct {
	// Policy é o nome da política de taxa aplicada à rota. Obrigatório.
	Policy string
	// RequireAuth exige credencial válida; o Principal resolvido segue adiante.
	RequireAuth bool
	// RequireSignal exige o sinal de estado mesmo que a política não exija.
	RequireSignal bool
}

// Attempt é o que a borda extraiu de uma requisição: a credencial crua (se
// houver), a presença do sinal de estado e a chave de cliente anônima.
type Attempt struct {
	Credential string
	HasSignal  bool
	ClientKey  Key
}

// Result é o desfecho da admissão, transitório por requisição.
// Admitted=true => Principal preenchido quando a rota exige auth.
// Admitted=false => Reason preenchido; Verdict acompanha quando o motivo
// veio do limitador.
type Result struct {
	Admitted  bool
	Principal *Principal
	Reason    Reason
	Verdict   Verdict
}
