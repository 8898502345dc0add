// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - JWTCodec: credencial HS256 via github.com/golang-jwt/jwt/v5
//   - MemoryCounterStore: janela fixa por (política, chave), em memória
//   - RedisCounterStore: mesmo contrato sobre INCR/PEXPIRE atômicos (Lua)
//   - BucketStore: token bucket usando golang.org/x/time/rate
//   - ChanPool: semáforo simples para limite de requisições em andamento
package infra
