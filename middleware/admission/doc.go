// Package admission fornece os adapters HTTP (net/http) do caminho de
// admissão: autenticação por credencial assinada, limite de taxa por política
// nomeada e o envelope de erro exigido pelo contrato legado.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (identidade, política, máquina de admissão) sem net/http
//   - infra: implementações concretas (codec JWT, contadores em memória/Redis,
//     token bucket), detalhes de infraestrutura
//   - admission (este pacote): middleware HTTP + extração de credencial/chave/sinal
//     + tradução do motivo para status/corpo do contrato
//
// Fluxo em cada rota guardada:
//
//  1. Extrai a credencial bearer, o sinal de estado e a chave do cliente
//  2. Chama a camada application para obter o Result
//  3. Se rejeitada, responde com o envelope byte a byte do sistema legado
//  4. Se admitida, injeta o Principal no contexto e chama o próximo handler
//
// O binário cmd/gateway aplica o guard por prefixo de rota na frente de um
// reverse proxy; cmd/example-server mostra o uso direto em um servidor chi.
package admission
