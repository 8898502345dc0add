package admission

import (
	"encoding/json"
	"net/http"

	"admission-gateway/middleware/admission/domain"
)

// Envelope é o corpo de erro do contrato legado. A forma, os nomes dos campos
// e o status HTTP precisam bater byte a byte com o sistema antigo — isso é
// requisito externo, não detalhe de implementação.
type Envelope struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Fields  domain.FieldErrors `json:"fields,omitempty"`
}

// Mensagens fixadas pelo contrato.
const (
	msgUnauthenticated = "Unauthenticated."
	msgTokenInvalid    = "Invalid token."
	msgTokenExpired    = "Token has expired."
	msgTooManyAttempts = "Too Many Attempts."
)

// Translate mapeia um motivo interno para (status HTTP, envelope).
// Não existe mensagem genérica: um motivo novo precisa ganhar status e
// mensagem aqui antes de entrar em produção.
func Translate(reason domain.Reason) (int, Envelope) {
	switch reason {
	case domain.ReasonUnauthenticated, domain.ReasonSignalMissing:
		return http.StatusUnauthorized, Envelope{Status: "error", Message: msgUnauthenticated}
	case domain.ReasonTokenInvalid:
		return http.StatusUnauthorized, Envelope{Status: "error", Message: msgTokenInvalid}
	case domain.ReasonTokenExpired:
		return http.StatusUnauthorized, Envelope{Status: "error", Message: msgTokenExpired}
	case domain.ReasonRateLimited:
		return http.StatusTooManyRequests, Envelope{Status: "error", Message: msgTooManyAttempts}
	}
	// motivo sem mapeamento é bug de programação; 500 evita inventar uma
	// mensagem nova dentro do contrato.
	return http.StatusInternalServerError, Envelope{Status: "error", Message: http.StatusText(http.StatusInternalServerError)}
}

// TranslateValidation monta o envelope 400 de entrada malformada, com as
// mensagens juntadas e o mapa por campo.
func TranslateValidation(verr *domain.ValidationError) (int, Envelope) {
	return http.StatusBadRequest, Envelope{
		Status:  "error",
		Message: verr.Message(),
		Fields:  verr.Fields,
	}
}

// WriteReason escreve a resposta de rejeição para o motivo.
func WriteReason(w http.ResponseWriter, reason domain.Reason) {
	status, env := Translate(reason)
	writeJSON(w, status, env)
}

// WriteValidation escreve a resposta 400 de um erro de validação de domínio.
func WriteValidation(w http.ResponseWriter, verr *domain.ValidationError) {
	status, env := TranslateValidation(verr)
	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
