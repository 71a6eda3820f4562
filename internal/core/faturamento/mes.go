package faturamento

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"faturamento-service/internal/domain"
)

// Layout da aba mensal: A–M recebem as colunas do parceiro na íntegra, N–P os
// campos derivados por linha e Q–T o bloco de CCBs únicos.
const (
	colParcelasFim   = 13 // M
	colMesFaturado   = 14 // N — rótulo do mês faturado
	colDataDesemb    = 15 // O — lookup da data de desembolso na BASE
	colEspacador     = 16 // P
	colCCBUnico      = 17 // Q
	colTotalPago     = 18 // R
	colQtdePagas     = 19 // S
	colDataPagamento = 20 // T
)

// Colunas de staging do ciclo de cobrança (eco de id, eco de data, checagem de
// presença), preenchidas pelo processamento de inadimplência.
const (
	colStagingCCB      = 22 // V
	colStagingData     = 23 // W
	colStagingPresenca = 24 // X
)

// preencherAbaDoMes copia as linhas de "Parcelas Pagas" do parceiro para a aba
// do mês (A–M na íntegra), escreve os campos derivados N–P e monta o bloco
// Q–T com uma linha por CCB único, na ordem da primeira ocorrência.
//
// Uma linha de origem com coluna A vazia encerra a cópia (sentinela de fim de
// dados). Aba do parceiro vazia é uma execução válida de zero linhas.
func preencherAbaDoMes(f *excelize.File, parceiro *excelize.File, abaMes, rotuloMes string) (parcelas int, unicos int, err error) {
	origem, err := parceiro.GetRows(domain.AbaParcelasPagas)
	if err != nil {
		return 0, 0, fmt.Errorf("erro ao ler aba %q do parceiro: %w", domain.AbaParcelasPagas, err)
	}

	// o clone pode carregar dados residuais do modelo
	limparLinhasDeDados(f, abaMes, true)

	destino := 2
	var ordemCCB []string
	vistos := make(map[string]bool)

	for i := 1; i < len(origem); i++ {
		linha := origem[i]
		if len(linha) == 0 || strings.TrimSpace(linha[0]) == "" {
			break
		}

		for c := 0; c < colParcelasFim; c++ {
			valor := ""
			if c < len(linha) {
				valor = strings.TrimSpace(linha[c])
			}
			if valor == "" {
				continue
			}
			if num, ok := tentarNumero(valor); ok {
				if err := f.SetCellValue(abaMes, cel(c+1, destino), num); err != nil {
					return 0, 0, fmt.Errorf("erro ao copiar parcela para %s: %w", abaMes, err)
				}
				continue
			}
			if err := f.SetCellValue(abaMes, cel(c+1, destino), valor); err != nil {
				return 0, 0, fmt.Errorf("erro ao copiar parcela para %s: %w", abaMes, err)
			}
		}

		_ = f.SetCellValue(abaMes, cel(colMesFaturado, destino), rotuloMes)
		_ = f.SetCellFormula(abaMes, cel(colDataDesemb, destino),
			reancorarFormula(`IFERROR(VLOOKUP(A2,BASE!A:J,10,0),"")`, destino))

		ccb := normalizarID(linha[0])
		if ccb != "" && !vistos[ccb] {
			vistos[ccb] = true
			ordemCCB = append(ordemCCB, strings.TrimSpace(linha[0]))
		}
		parcelas++
		destino++
	}

	if err := escreverBlocoCCBUnico(f, abaMes, ordemCCB); err != nil {
		return 0, 0, err
	}
	return parcelas, len(ordemCCB), nil
}

// escreverBlocoCCBUnico grava Q–T: id, total recebido (SUMIF sobre o valor
// pago em D), quantidade de parcelas (COUNTIF) e data do pagamento (VLOOKUP na
// coluna C da primeira ocorrência).
func escreverBlocoCCBUnico(f *excelize.File, abaMes string, ccbs []string) error {
	linha := 2
	for _, ccb := range ccbs {
		if num, ok := tentarNumero(ccb); ok {
			_ = f.SetCellValue(abaMes, cel(colCCBUnico, linha), num)
		} else {
			_ = f.SetCellValue(abaMes, cel(colCCBUnico, linha), ccb)
		}
		if err := f.SetCellFormula(abaMes, cel(colTotalPago, linha),
			reancorarFormula("SUMIF(A:A,Q2,D:D)", linha)); err != nil {
			return fmt.Errorf("erro ao escrever bloco de CCBs únicos: %w", err)
		}
		_ = f.SetCellFormula(abaMes, cel(colQtdePagas, linha),
			reancorarFormula("COUNTIF(A:A,Q2)", linha))
		_ = f.SetCellFormula(abaMes, cel(colDataPagamento, linha),
			reancorarFormula(`IFERROR(VLOOKUP(Q2,A:C,3,0),"")`, linha))
		linha++
	}
	return nil
}
