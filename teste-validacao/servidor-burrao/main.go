package main

import (
	"fmt"
	"net/http"
)

// Upstream burro para testar o gateway na frente: ecoa método, caminho e o
// header de identidade que o proxy injeta.
func main() {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		principal := r.Header.Get("X-Principal-Id")
		if principal == "" {
			principal = "(anônimo)"
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "%s %s principal=%s\n", r.Method, r.URL.Path, principal)
		fmt.Printf("Log: %s %s principal=%s\n", r.Method, r.URL.Path, principal)
	})
	fmt.Println("Upstream rodando em http://localhost:9000")
	err := http.ListenAndServe(":9000", nil)
	if err != nil {
		fmt.Printf("Erro ao subir o servidor: %s\n", err)
	}
}
