// Package domain define contratos e tipos de domínio da admissão de requisições:
// credencial, identidade resolvida, políticas de taxa e o resultado da decisão.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar as regras de
// admissão de detalhes de infraestrutura (JWT, Redis, etc).
package domain
