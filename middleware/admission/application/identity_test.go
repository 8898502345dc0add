package application

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"admission-gateway/middleware/admission/domain"
)

// fakeCodec decodifica "ok:<id>" e devolve erros fixos para o resto.
type fakeCodec struct {
	err error
}

func (c fakeCodec) Mint(subject string, _ time.Duration) (string, error) {
	return "ok:" + subject, nil
}

func (c fakeCodec) Decode(raw string) (domain.Principal, error) {
	if c.err != nil {
		return domain.Principal{}, c.err
	}
	if len(raw) > 3 && raw[:3] == "ok:" {
		id, err := strconv.ParseInt(raw[3:], 10, 64)
		if err != nil {
			return domain.Principal{}, domain.ErrTokenInvalid
		}
		return domain.Principal{ID: id}, nil
	}
	return domain.Principal{}, domain.ErrTokenInvalid
}

func TestIdentityService_ResolveRequired_EmptyCredential(t *testing.T) {
	svc := IdentityService{Codec: fakeCodec{}}

	_, err := svc.ResolveRequired("   ")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestIdentityService_ResolveRequired_PropagatesCodecError(t *testing.T) {
	svc := IdentityService{Codec: fakeCodec{err: domain.ErrTokenExpired}}

	_, err := svc.ResolveRequired("ok:42")
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestIdentityService_ResolveRequired_ValidCredential(t *testing.T) {
	svc := IdentityService{Codec: fakeCodec{}}

	p, err := svc.ResolveRequired("ok:42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 42 {
		t.Fatalf("expected principal 42, got %d", p.ID)
	}
}

func TestIdentityService_ResolveOptional_NeverFails(t *testing.T) {
	svc := IdentityService{Codec: fakeCodec{}}

	if _, ok := svc.ResolveOptional(""); ok {
		t.Fatalf("expected ok=false for empty credential")
	}
	if _, ok := svc.ResolveOptional("lixo"); ok {
		t.Fatalf("expected ok=false for invalid credential")
	}
	p, ok := svc.ResolveOptional("ok:7")
	if !ok {
		t.Fatalf("expected ok=true for valid credential")
	}
	if p.ID != 7 {
		t.Fatalf("expected principal 7, got %d", p.ID)
	}
}
