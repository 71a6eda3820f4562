package faturamento

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"faturamento-service/internal/domain"
)

func paramsCiclo(inicio, fim string) domain.ParametrosProcessamento {
	di, _ := time.Parse("02/01/2006", inicio)
	df, _ := time.Parse("02/01/2006", fim)
	return domain.ParametrosProcessamento{MesAlvo: "FEV.26", DataInicio: di, DataFim: df}
}

func linhaSnapshot(ccb, dataDesembolso string) []string {
	return []string{ccb, "NOME", "CPF", "CONTRATO", "12", "150", "1500", "150", "T1", dataDesembolso}
}

func TestMontarCoorte(t *testing.T) {
	snap := &snapshotBase{linhas: [][]string{
		{"CCB"},
		linhaSnapshot("100", "05/01/2026"),
		linhaSnapshot("200", "20/01/2026"),
		linhaSnapshot("300", "15/02/2026"), // fora da janela
		linhaSnapshot("400", "pendente"),   // data ilegível: excluído, sem erro
		linhaSnapshot("", "10/01/2026"),    // sem id: ignorado
	}}

	coorte := montarCoorte(snap, 10, paramsCiclo("01/01/2026", "31/01/2026"))
	require.Len(t, coorte, 2)
	assert.Equal(t, "100", coorte[0].CCB)
	assert.Equal(t, "200", coorte[1].CCB)
}

func TestMontarCoorteJanelaInclusiva(t *testing.T) {
	snap := &snapshotBase{linhas: [][]string{
		{"CCB"},
		linhaSnapshot("100", "01/01/2026"),
		linhaSnapshot("200", "31/01/2026"),
	}}

	coorte := montarCoorte(snap, 10, paramsCiclo("01/01/2026", "31/01/2026"))
	assert.Len(t, coorte, 2, "as bordas da janela pertencem ao ciclo")
}

func TestMontarCoorteDeduplicaPrimeiraOcorrencia(t *testing.T) {
	snap := &snapshotBase{linhas: [][]string{
		{"CCB"},
		linhaSnapshot("500.0", "05/01/2026"),
		linhaSnapshot("500", "10/01/2026"),
	}}

	coorte := montarCoorte(snap, 10, paramsCiclo("01/01/2026", "31/01/2026"))
	require.Len(t, coorte, 1)
	assert.Equal(t, "500", coorte[0].CCB)
	assert.Equal(t, "500.0", coorte[0].CCBOriginal)
	assert.Equal(t, 5, coorte[0].DataDesembolso.Day(), "prevalece a primeira ocorrência")
}

func TestProcessarCicloInadimplencia(t *testing.T) {
	f := novaBase(t)
	_, err := f.NewSheet("FEV.26")
	require.NoError(t, err)
	_, err = f.NewSheet(domain.AbaInadimplentes)
	require.NoError(t, err)

	// o mês registrou pagamento só do CCB 100 (e de um estranho 300)
	require.NoError(t, f.SetCellValue("FEV.26", "Q1", "CCB"))
	require.NoError(t, f.SetCellValue("FEV.26", "Q2", "100"))
	require.NoError(t, f.SetCellValue("FEV.26", "Q3", "300"))
	require.NoError(t, f.SetCellValue("FEV.26", "Q4", "300"))

	snap := &snapshotBase{linhas: [][]string{
		{"CCB"},
		linhaSnapshot("100", "05/01/2026"),
		linhaSnapshot("200", "20/01/2026"),
	}}

	svc := &service{logger: zap.NewNop()}
	coorte, inadimplentes, err := svc.processarCicloInadimplencia(f, snap, "FEV.26", paramsCiclo("01/01/2026", "31/01/2026"))
	require.NoError(t, err)
	assert.Equal(t, 2, coorte)
	assert.Equal(t, 1, inadimplentes, "só o 200 está na coorte e fora da lista de pagos")

	// staging ecoa a coorte na aba do mês
	v2, _ := f.GetCellValue("FEV.26", "V2")
	assert.Equal(t, "100", v2)
	x2, _ := f.GetCellFormula("FEV.26", "X2")
	assert.Equal(t, `IF(ISNUMBER(MATCH(V2,Q:Q,0)),"Sim","Não")`, x2)

	// relatório recebe o devedor com os derivados recalculados
	id, _ := f.GetCellValue(domain.AbaInadimplentes, "A2")
	assert.Equal(t, "200", id)
	saldo, _ := f.GetCellValue(domain.AbaInadimplentes, "P2")
	assert.Equal(t, "12", saldo, "12 parcelas contratadas, nenhuma recebida")
	taxa, _ := f.GetCellValue(domain.AbaInadimplentes, "Q2")
	assert.Equal(t, "4.5", taxa, "3% sobre o valor da parcela de 150")
}

func TestProcessarCicloSemInadimplentes(t *testing.T) {
	// sem aba INADIMPLENTES: só é fatal quando há devedor a registrar
	f := novaBase(t)
	_, err := f.NewSheet("FEV.26")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("FEV.26", "Q2", "100"))

	snap := &snapshotBase{linhas: [][]string{
		{"CCB"},
		linhaSnapshot("100", "05/01/2026"),
	}}

	svc := &service{logger: zap.NewNop()}
	coorte, inadimplentes, err := svc.processarCicloInadimplencia(f, snap, "FEV.26", paramsCiclo("01/01/2026", "31/01/2026"))
	require.NoError(t, err)
	assert.Equal(t, 1, coorte)
	assert.Zero(t, inadimplentes)
}

func TestProcessarCicloSemAbaDeRelatorio(t *testing.T) {
	f := novaBase(t)
	_, err := f.NewSheet("FEV.26")
	require.NoError(t, err)

	snap := &snapshotBase{linhas: [][]string{
		{"CCB"},
		linhaSnapshot("200", "20/01/2026"),
	}}

	svc := &service{logger: zap.NewNop()}
	_, _, err = svc.processarCicloInadimplencia(f, snap, "FEV.26", paramsCiclo("01/01/2026", "31/01/2026"))
	assert.Error(t, err)
}

func TestProcessarCicloColunaInvalida(t *testing.T) {
	f := novaBase(t)
	svc := &service{logger: zap.NewNop()}
	params := paramsCiclo("01/01/2026", "31/01/2026")
	params.ColunaDataCiclo = "7"

	_, _, err := svc.processarCicloInadimplencia(f, &snapshotBase{}, "FEV.26", params)
	assert.Error(t, err)
}
