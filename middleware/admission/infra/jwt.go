package infra

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"admission-gateway/middleware/admission/domain"
)

// JWTCodec emite e verifica credenciais no formato JWS compacto (HS256) com
// claims {sub, iat, exp, jti}. A assinatura cobre o conjunto inteiro de
// claims: alterar subject ou prazo invalida a credencial.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ domain.TokenCodec = (*JWTCodec)(nil)

type JWTOption func(*JWTCodec)

// WithTTL define o prazo padrão usado quando Mint recebe ttl <= 0.
func WithTTL(d time.Duration) JWTOption {
	return func(c *JWTCodec) { c.ttl = d }
}

// WithClock troca o relógio (testes de expiração).
func WithClock(now func() time.Time) JWTOption {
	return func(c *JWTCodec) { c.now = now }
}

// NewJWTCodec cria o codec. Segredo vazio é falha de configuração: quem chama
// deve recusar a subida do processo, nunca rodar sem segredo definido.
func NewJWTCodec(secret []byte, opts ...JWTOption) (*JWTCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	c := &JWTCodec{
		secret: secret,
		ttl:    24 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl <= 0 {
		return nil, errors.New("default ttl must be > 0")
	}
	return c, nil
}

// Mint emite uma credencial para o subject. O subject precisa ser o id do
// usuário em base 10; isso não é validado aqui porque Decode rejeita
// subjects não numéricos de qualquer forma.
func (c *JWTCodec) Mint(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifica e resolve a credencial. Qualquer problema estrutural ou
// criptográfico falha fechado em ErrTokenInvalid; só depois da assinatura
// conferir é que expiração vira ErrTokenExpired.
func (c *JWTCodec) Decode(raw string) (domain.Principal, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, domain.ErrTokenExpired
		}
		return domain.Principal{}, domain.ErrTokenInvalid
	}

	// subject é o id do usuário como inteiro base 10, sem parsing dependente
	// de locale.
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return domain.Principal{}, domain.ErrTokenInvalid
	}
	return domain.Principal{ID: id}, nil
}
