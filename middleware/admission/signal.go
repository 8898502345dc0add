package admission

import "net/http"

// SignalFunc é o predicado trocável do "sinal de estado": algum marcador de
// que o cliente carrega estado de sessão, independente de identidade
// verificada. O propósito exato no sistema legado é ambíguo; por isso o
// predicado é nomeado e injetável em vez de fixo no guard.
type SignalFunc func(r *http.Request) bool

// CookieOrAuthHeader é o predicado de referência: qualquer cookie ou qualquer
// header Authorization presente conta como sinal.
func CookieOrAuthHeader(r *http.Request) bool {
	if len(r.Cookies()) > 0 {
		return true
	}
	return r.Header.Get("Authorization") != ""
}
