package faturamento

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faturamento-service/internal/domain"
)

func TestAbrirParceiroXLSX(t *testing.T) {
	f, err := abrirParceiro(bytes.NewReader(bytesDoParceiro(t)), "parceiro.xlsx")
	require.NoError(t, err)
	defer f.Close()

	for _, aba := range []string{domain.AbaParcelasPagas, domain.AbaProducao} {
		idx, err := f.GetSheetIndex(aba)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, idx, 0, "aba %q", aba)
	}

	ccb, _ := f.GetCellValue(domain.AbaParcelasPagas, "A2")
	assert.Equal(t, "100", ccb)
}

func TestAbrirParceiroXLSComConteudoXLSX(t *testing.T) {
	// planilha moderna salva com extensão .xls: o leitor legado falha e o
	// fallback abre o conteúdo como xlsx
	f, err := abrirParceiro(bytes.NewReader(bytesDoParceiro(t)), "parceiro.xls")
	require.NoError(t, err)
	defer f.Close()

	idx, err := f.GetSheetIndex(domain.AbaParcelasPagas)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, idx, 0)
}

func TestAbrirParceiroBytesIlegiveis(t *testing.T) {
	lixo := []byte("isto não é uma planilha")

	_, err := abrirParceiro(bytes.NewReader(lixo), "parceiro.xls")
	assert.Error(t, err, "nem xls legado nem xlsx")

	_, err = abrirParceiro(bytes.NewReader(lixo), "parceiro.xlsx")
	assert.Error(t, err)
}

func TestAbrirSnapshotAvaliado(t *testing.T) {
	snap, err := abrirSnapshotAvaliado(bytesDaBase(t))
	require.NoError(t, err)

	assert.Equal(t, "100", snap.celula(2, 1))
	assert.Equal(t, "05/01/2026", snap.celula(2, 10))
	assert.Equal(t, "", snap.celula(2, 99), "fora da extensão devolve vazio")
	assert.Equal(t, "", snap.celula(99, 1))
}

func TestAbrirSnapshotSemAbaBase(t *testing.T) {
	f := novaPlanilha(t, "Outra")
	require.NoError(t, f.SetCellValue("Outra", "A1", "x"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = abrirSnapshotAvaliado(buf.Bytes())
	assert.Error(t, err)
}
