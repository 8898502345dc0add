package infra

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admission-gateway/middleware/admission/domain"
)

func TestNewJWTCodec_RequiresSecret(t *testing.T) {
	_, err := NewJWTCodec(nil)
	require.Error(t, err)
}

func TestJWTCodec_MintDecodeRoundTrip(t *testing.T) {
	codec, err := NewJWTCodec([]byte("segredo-de-teste"))
	require.NoError(t, err)

	raw, err := codec.Mint("42", 0)
	require.NoError(t, err)

	p, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ID)
}

func TestJWTCodec_DecodeIsIdempotent(t *testing.T) {
	codec, err := NewJWTCodec([]byte("segredo-de-teste"))
	require.NoError(t, err)

	raw, err := codec.Mint("7", 0)
	require.NoError(t, err)

	// mesmo token, mesmo resultado, sem efeito colateral
	for i := 0; i < 3; i++ {
		p, derr := codec.Decode(raw)
		require.NoError(t, derr)
		assert.Equal(t, int64(7), p.ID)
	}
}

func TestJWTCodec_ExpiredToken(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now

	codec, err := NewJWTCodec([]byte("segredo-de-teste"),
		WithTTL(time.Hour),
		WithClock(func() time.Time { return *clock }),
	)
	require.NoError(t, err)

	raw, err := codec.Mint("42", 0)
	require.NoError(t, err)

	// dentro do prazo
	_, err = codec.Decode(raw)
	require.NoError(t, err)

	// um segundo depois do prazo
	later := now.Add(time.Hour + time.Second)
	clock = &later
	_, err = codec.Decode(raw)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestJWTCodec_TamperedSignature(t *testing.T) {
	codec, err := NewJWTCodec([]byte("segredo-de-teste"))
	require.NoError(t, err)

	raw, err := codec.Mint("42", 0)
	require.NoError(t, err)

	// troca o último byte da assinatura
	last := raw[len(raw)-1]
	flip := byte('A')
	if last == flip {
		flip = 'B'
	}
	tampered := raw[:len(raw)-1] + string(flip)

	_, err = codec.Decode(tampered)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestJWTCodec_WrongSecret(t *testing.T) {
	minter, err := NewJWTCodec([]byte("segredo-a"))
	require.NoError(t, err)
	verifier, err := NewJWTCodec([]byte("segredo-b"))
	require.NoError(t, err)

	raw, err := minter.Mint("42", 0)
	require.NoError(t, err)

	_, err = verifier.Decode(raw)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestJWTCodec_NonNumericSubject(t *testing.T) {
	codec, err := NewJWTCodec([]byte("segredo-de-teste"))
	require.NoError(t, err)

	// assinatura válida, subject inválido: falha como inválido, não como
	// não-autenticado
	raw, err := codec.Mint("nao-numerico", 0)
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestJWTCodec_GarbageInput(t *testing.T) {
	codec, err := NewJWTCodec([]byte("segredo-de-teste"))
	require.NoError(t, err)

	for _, raw := range []string{"", "lixo", "a.b", strings.Repeat("x", 500)} {
		_, derr := codec.Decode(raw)
		assert.ErrorIs(t, derr, domain.ErrTokenInvalid, "input %q", raw)
	}
}
