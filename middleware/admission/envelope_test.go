package admission

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"admission-gateway/middleware/admission/domain"
)

func TestTranslate_ContractTable(t *testing.T) {
	cases := []struct {
		reason  domain.Reason
		status  int
		message string
	}{
		{domain.ReasonUnauthenticated, http.StatusUnauthorized, "Unauthenticated."},
		{domain.ReasonSignalMissing, http.StatusUnauthorized, "Unauthenticated."},
		{domain.ReasonTokenInvalid, http.StatusUnauthorized, "Invalid token."},
		{domain.ReasonTokenExpired, http.StatusUnauthorized, "Token has expired."},
		{domain.ReasonRateLimited, http.StatusTooManyRequests, "Too Many Attempts."},
	}
	for _, c := range cases {
		status, env := Translate(c.reason)
		if status != c.status {
			t.Fatalf("reason %q: expected status %d, got %d", c.reason, c.status, status)
		}
		if env.Status != "error" {
			t.Fatalf("reason %q: expected status field \"error\", got %q", c.reason, env.Status)
		}
		if env.Message != c.message {
			t.Fatalf("reason %q: expected message %q, got %q", c.reason, c.message, env.Message)
		}
	}
}

func TestTranslate_UnmappedReasonIs500(t *testing.T) {
	// motivo novo sem entrada na tabela: nunca inventa mensagem do contrato
	status, env := Translate(domain.Reason("novo_motivo"))
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if env.Message == "Unauthenticated." || env.Message == "Too Many Attempts." {
		t.Fatalf("unmapped reason must not reuse a contract message, got %q", env.Message)
	}
}

func TestWriteReason_ExactBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteReason(w, domain.ReasonRateLimited)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
	if got := w.Body.String(); got != `{"status":"error","message":"Too Many Attempts."}`+"\n" {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestWriteValidation_FieldsAndJoinedMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteValidation(w, &domain.ValidationError{Fields: domain.FieldErrors{
		"email": {"The email field is required."},
	}})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	want := `{"status":"error","message":"The email field is required.","fields":{"email":["The email field is required."]}}` + "\n"
	if got := w.Body.String(); got != want {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestEnvelope_OmitsEmptyFields(t *testing.T) {
	w := httptest.NewRecorder()
	WriteReason(w, domain.ReasonUnauthenticated)

	// rejeições de admissão não têm "fields" no corpo
	if got := w.Body.String(); got != `{"status":"error","message":"Unauthenticated."}`+"\n" {
		t.Fatalf("unexpected body: %q", got)
	}
}
