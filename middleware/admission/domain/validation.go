package domain

import (
	"sort"
	"strings"
)

// FieldErrors agrupa mensagens de validação por campo, na forma que o
// contrato legado expõe em "fields".
type FieldErrors map[string][]string

// ValidationError representa entrada malformada detectada por um validador
// de domínio. O núcleo não interpreta o conteúdo; apenas o tradutor de
// contrato o transforma em 400 com mensagens por campo.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string { return e.Message() }

// Message junta todas as mensagens em uma única string, na ordem alfabética
// dos campos para manter o resultado determinístico.
func (e *ValidationError) Message() string {
	if e == nil || len(e.Fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var msgs []string
	for _, name := range names {
		msgs = append(msgs, e.Fields[name]...)
	}
	return strings.Join(msgs, " ")
}
