package faturamento

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"faturamento-service/internal/domain"
)

// ---------------------- varredura de abas ----------------------

// ultimaLinha devolve a última linha com pelo menos uma célula não vazia,
// varrendo da extensão declarada da aba para cima. Aba totalmente vazia
// devolve 0; quem chama trata 0 como "sem dados", nunca como índice válido.
func ultimaLinha(f *excelize.File, aba string) int {
	linhas, err := f.GetRows(aba)
	if err != nil {
		return 0
	}
	for i := len(linhas) - 1; i >= 0; i-- {
		for _, celula := range linhas[i] {
			if strings.TrimSpace(celula) != "" {
				return i + 1
			}
		}
	}
	return 0
}

// ultimaLinhaColunaA localiza a última linha preenchida considerando apenas a
// coluna A. A BASE pode carregar linhas finais só com fórmulas residuais em
// colunas derivadas; a âncora do ledger é o id na coluna A.
func ultimaLinhaColunaA(f *excelize.File, aba string) int {
	linhas, err := f.GetRows(aba)
	if err != nil {
		return 0
	}
	for i := len(linhas) - 1; i >= 0; i-- {
		if len(linhas[i]) > 0 && strings.TrimSpace(linhas[i][0]) != "" {
			return i + 1
		}
	}
	return 0
}

// colunaPorCabecalho varre a linha 1 procurando o texto exato (sensível a
// maiúsculas). Devolve 0 quando ausente; o chamador decide entre erro fatal
// (coluna DATA da BASE) e fallback suave (detecção de colunas mensais).
func colunaPorCabecalho(f *excelize.File, aba, cabecalho string) int {
	linhas, err := f.GetRows(aba)
	if err != nil || len(linhas) == 0 {
		return 0
	}
	for i, celula := range linhas[0] {
		if strings.TrimSpace(celula) == cabecalho {
			return i + 1
		}
	}
	return 0
}

// primeiraColunaMensal é a coluna imediatamente após o bloco estático A–P da
// BASE (Q), onde começa o bloco de colunas de presença mensal.
const primeiraColunaMensal = 17

// colunasDeMes lista as colunas mensais da BASE: toda coluna com cabeçalho não
// vazio estritamente entre o bloco estático e a coluna DATA, na ordem da
// esquerda para a direita (cronológica). Sem coluna DATA, o bloco é assumido
// até a borda da aba.
func colunasDeMes(f *excelize.File, abaBase string) []domain.ColunaMes {
	linhas, err := f.GetRows(abaBase)
	if err != nil || len(linhas) == 0 {
		return nil
	}
	cabecalhos := linhas[0]

	limite := colunaPorCabecalho(f, abaBase, domain.CabecalhoData)
	if limite == 0 {
		limite = len(cabecalhos) + 1
	}

	var colunas []domain.ColunaMes
	for col := primeiraColunaMensal; col < limite; col++ {
		if col-1 >= len(cabecalhos) {
			break
		}
		nome := strings.TrimSpace(cabecalhos[col-1])
		if nome == "" {
			continue
		}
		colunas = append(colunas, domain.ColunaMes{Nome: nome, Indice: col})
	}
	return colunas
}
