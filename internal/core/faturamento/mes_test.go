package faturamento

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"faturamento-service/internal/domain"
)

func novoParceiro(t *testing.T, parcelas [][]interface{}, producao [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), domain.AbaParcelasPagas))
	_, err := f.NewSheet(domain.AbaProducao)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	escrever := func(aba string, linhas [][]interface{}) {
		for li, linha := range linhas {
			for ci, v := range linha {
				require.NoError(t, f.SetCellValue(aba, cel(ci+1, li+1), v))
			}
		}
	}
	escrever(domain.AbaParcelasPagas, parcelas)
	escrever(domain.AbaProducao, producao)
	return f
}

func TestPreencherAbaDoMes(t *testing.T) {
	parceiro := novoParceiro(t, [][]interface{}{
		{"CCB", "NOME", "DATA PGTO", "VALOR PAGO"},
		{"555", "FULANO", "10/02/2026", "150,00"},
		{"555", "FULANO", "11/02/2026", "150,00"},
		{"333", "BELTRANO", "12/02/2026", "90,00"},
		{"", "LINHA APÓS SENTINELA", "", ""},
		{"999", "NUNCA COPIADO", "", ""},
	}, nil)

	f := novaPlanilha(t, "FEV.26")
	require.NoError(t, f.SetCellValue("FEV.26", "A1", "CCB"))

	parcelas, unicos, err := preencherAbaDoMes(f, parceiro, "FEV.26", "FEV.26")
	require.NoError(t, err)
	assert.Equal(t, 3, parcelas)
	assert.Equal(t, 2, unicos)

	// A–M copiados na íntegra, com coerção numérica
	ccb, _ := f.GetCellValue("FEV.26", "A2")
	assert.Equal(t, "555", ccb)
	valor, _ := f.GetCellValue("FEV.26", "D4")
	assert.Equal(t, "90", valor)

	// derivados: rótulo do mês em N e lookup de desembolso em O
	rotulo, _ := f.GetCellValue("FEV.26", "N3")
	assert.Equal(t, "FEV.26", rotulo)
	formula, _ := f.GetCellFormula("FEV.26", "O4")
	assert.Equal(t, `IFERROR(VLOOKUP(A4,BASE!A:J,10,0),"")`, formula)

	// bloco Q–T: um por CCB único, na ordem da primeira ocorrência
	q2, _ := f.GetCellValue("FEV.26", "Q2")
	assert.Equal(t, "555", q2)
	q3, _ := f.GetCellValue("FEV.26", "Q3")
	assert.Equal(t, "333", q3)
	q4, _ := f.GetCellValue("FEV.26", "Q4")
	assert.Equal(t, "", q4)

	r3, _ := f.GetCellFormula("FEV.26", "R3")
	assert.Equal(t, "SUMIF(A:A,Q3,D:D)", r3)
	s3, _ := f.GetCellFormula("FEV.26", "S3")
	assert.Equal(t, "COUNTIF(A:A,Q3)", s3)
	t3, _ := f.GetCellFormula("FEV.26", "T3")
	assert.Equal(t, `IFERROR(VLOOKUP(Q3,A:C,3,0),"")`, t3)
}

func TestPreencherAbaDoMesDeduplicaComArtefatoDecimal(t *testing.T) {
	parceiro := novoParceiro(t, [][]interface{}{
		{"CCB", "NOME"},
		{"555.0", "FULANO"},
		{"555", "FULANO"},
	}, nil)

	f := novaPlanilha(t, "FEV.26")

	parcelas, unicos, err := preencherAbaDoMes(f, parceiro, "FEV.26", "FEV.26")
	require.NoError(t, err)
	assert.Equal(t, 2, parcelas)
	assert.Equal(t, 1, unicos, "555.0 e 555 são o mesmo CCB")
}

func TestPreencherAbaDoMesParceiroVazio(t *testing.T) {
	parceiro := novoParceiro(t, [][]interface{}{{"CCB", "NOME"}}, nil)
	f := novaPlanilha(t, "FEV.26")

	parcelas, unicos, err := preencherAbaDoMes(f, parceiro, "FEV.26", "FEV.26")
	require.NoError(t, err)
	assert.Zero(t, parcelas)
	assert.Zero(t, unicos)
}

func TestPreencherAbaDoMesLimpaResiduoDoModelo(t *testing.T) {
	parceiro := novoParceiro(t, [][]interface{}{
		{"CCB"},
		{"111"},
	}, nil)

	f := novaPlanilha(t, "FEV.26")
	require.NoError(t, f.SetCellValue("FEV.26", "A1", "CCB"))
	require.NoError(t, f.SetCellValue("FEV.26", "B7", "resíduo do modelo"))

	_, _, err := preencherAbaDoMes(f, parceiro, "FEV.26", "FEV.26")
	require.NoError(t, err)

	residuo, _ := f.GetCellValue("FEV.26", "B7")
	assert.Equal(t, "", residuo)
	cabecalho, _ := f.GetCellValue("FEV.26", "A1")
	assert.Equal(t, "CCB", cabecalho)
}
