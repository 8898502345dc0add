// Package application contém os casos de uso da admissão: resolução de
// identidade, consulta de política e a máquina de estados que decide
// admitir ou rejeitar uma tentativa.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: AdmissionService.Admit(route, attempt) retorna um Result.
package application
