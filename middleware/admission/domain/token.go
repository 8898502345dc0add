package domain

import (
	"errors"
	"time"
)

// Principal é a identidade resolvida a partir de uma credencial válida.
// É derivada por requisição e nunca persistida por este núcleo.
type Principal struct {
	ID int64
}

// Erros de autenticação. A tradução para o envelope externo (status + corpo)
// acontece apenas na borda HTTP; aqui os motivos ficam como erros sentinela.
var (
	// ErrUnauthenticated: nenhuma credencial foi apresentada.
	ErrUnauthenticated = errors.New("no credential presented")
	// ErrTokenInvalid: assinatura, estrutura ou subject inválidos.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired: assinatura ok, mas o prazo já passou.
	ErrTokenExpired = errors.New("token has expired")
)

// TokenCodec emite e verifica credenciais assinadas e com prazo de validade.
//
// Mint e Decode são funções puras da entrada, do segredo do servidor e do
// relógio — nada é persistido do lado do servidor.
type TokenCodec interface {
	// Mint emite uma credencial para o subject com o ttl informado.
	// ttl <= 0 usa o padrão do codec.
	Mint(subject string, ttl time.Duration) (string, error)

	// Decode verifica a assinatura primeiro (falha fechada => ErrTokenInvalid),
	// depois o prazo (ErrTokenExpired) e por fim converte o subject para o
	// identificador numérico do Principal (não numérico => ErrTokenInvalid).
	Decode(raw string) (Principal, error)
}
