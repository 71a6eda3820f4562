package faturamento

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"faturamento-service/internal/domain"
)

// Coluna padrão da data de desembolso na BASE, usada como filtro do ciclo
// quando o chamador não indica outra letra.
const colunaCicloPadrao = "J"

// Colunas do relatório de inadimplentes: espelham A–P da BASE mais a taxa.
const (
	colRelatorioFim  = 16 // P
	colRelatorioTaxa = 17 // Q — produto comissão × 3%
)

// montarCoorte filtra o snapshot avaliado da BASE pela janela [inicio, fim]
// (inclusiva) sobre a coluna de data do ciclo. Datas ilegíveis excluem a
// linha do filtro, sem erro. A coorte volta já deduplicada por id normalizado,
// mantendo a primeira ocorrência.
func montarCoorte(snap *snapshotBase, colCiclo int, params domain.ParametrosProcessamento) []domain.MembroCoorte {
	inicio := semHora(params.DataInicio)
	fim := semHora(params.DataFim)

	var coorte []domain.MembroCoorte
	vistos := make(map[string]bool)

	for l := 2; l <= len(snap.linhas); l++ {
		original := strings.TrimSpace(snap.celula(l, 1))
		if original == "" {
			continue
		}
		data, ok := parseDataBR(snap.celula(l, colCiclo))
		if !ok {
			continue
		}
		data = semHora(data)
		if data.Before(inicio) || data.After(fim) {
			continue
		}

		id := normalizarID(original)
		if vistos[id] {
			continue
		}
		vistos[id] = true

		coorte = append(coorte, domain.MembroCoorte{
			CCB:            id,
			CCBOriginal:    original,
			DataDesembolso: data,
			Linha:          snap.linhas[l-1],
		})
	}
	return coorte
}

// escreverStaging limpa as três colunas de staging da aba do mês (de baixo
// para cima) e grava uma linha por membro da coorte: id, data do ciclo e a
// fórmula de checagem de presença contra a lista de CCBs únicos em Q.
func escreverStaging(f *excelize.File, abaMes string, coorte []domain.MembroCoorte) error {
	ultima := ultimaLinha(f, abaMes)
	for l := ultima; l >= 2; l-- {
		for _, c := range []int{colStagingCCB, colStagingData, colStagingPresenca} {
			_ = f.SetCellValue(abaMes, cel(c, l), nil)
		}
	}

	linha := 2
	for _, m := range coorte {
		if num, ok := tentarNumero(m.CCBOriginal); ok {
			_ = f.SetCellValue(abaMes, cel(colStagingCCB, linha), num)
		} else {
			_ = f.SetCellValue(abaMes, cel(colStagingCCB, linha), m.CCBOriginal)
		}
		_ = f.SetCellValue(abaMes, cel(colStagingData, linha), m.DataDesembolso.Format("02/01/2006"))
		formula := fmt.Sprintf(`IF(ISNUMBER(MATCH(V%d,Q:Q,0)),"Sim","Não")`, linha)
		if err := f.SetCellFormula(abaMes, cel(colStagingPresenca, linha), formula); err != nil {
			return fmt.Errorf("erro ao escrever staging do ciclo na aba %s: %w", abaMes, err)
		}
		linha++
	}
	return nil
}

// ccbsPresentesNoMes coleta os ids da coluna Q da aba do mês, normalizados
// para comparação.
func ccbsPresentesNoMes(f *excelize.File, abaMes string) map[string]bool {
	presentes := make(map[string]bool)
	linhas, err := f.GetRows(abaMes)
	if err != nil {
		return presentes
	}
	for i := 1; i < len(linhas); i++ {
		if colCCBUnico-1 < len(linhas[i]) {
			if id := normalizarID(linhas[i][colCCBUnico-1]); id != "" {
				presentes[id] = true
			}
		}
	}
	return presentes
}

// processarCicloInadimplencia executa o ciclo completo: filtra a coorte no
// snapshot avaliado, escreve o staging na aba do mês e extrai por diferença
// de conjuntos os CCBs do ciclo ausentes da lista de pagamentos (coluna Q),
// gravando-os no relatório de inadimplentes.
//
// A aba INADIMPLENTES ausente só é fatal quando há inadimplentes a gravar.
func (s *service) processarCicloInadimplencia(f *excelize.File, snap *snapshotBase, abaMes string, params domain.ParametrosProcessamento) (coorte int, inadimplentes int, err error) {
	letra := params.ColunaDataCiclo
	if letra == "" {
		letra = colunaCicloPadrao
	}
	colCiclo, err := excelize.ColumnNameToNumber(letra)
	if err != nil {
		return 0, 0, fmt.Errorf("coluna de data do ciclo inválida %q: %w", letra, err)
	}

	membros := montarCoorte(snap, colCiclo, params)
	if err := escreverStaging(f, abaMes, membros); err != nil {
		return 0, 0, err
	}

	presentes := ccbsPresentesNoMes(f, abaMes)
	var devedores []domain.MembroCoorte
	for _, m := range membros {
		if !presentes[m.CCB] {
			devedores = append(devedores, m)
		}
	}

	if len(devedores) == 0 {
		s.logger.Info("nenhum inadimplente no ciclo",
			zap.Int("coorte", len(membros)),
			zap.Time("inicio", params.DataInicio),
			zap.Time("fim", params.DataFim))
		return len(membros), 0, nil
	}

	if idx, _ := f.GetSheetIndex(domain.AbaInadimplentes); idx < 0 {
		return 0, 0, fmt.Errorf("aba %q não encontrada e há %d inadimplentes a registrar", domain.AbaInadimplentes, len(devedores))
	}

	if err := escreverRelatorioInadimplentes(f, devedores); err != nil {
		return 0, 0, err
	}
	return len(membros), len(devedores), nil
}

// escreverRelatorioInadimplentes acrescenta uma linha por inadimplente ao
// relatório. Os campos derivados são recalculados a partir do registro de
// origem em vez de copiados — os resultados de fórmula da linha original
// podem estar defasados ou só fazer sentido dentro da BASE. As colunas de
// quitação e data de pagamento recebem as fórmulas vivas da BASE reancoradas
// à linha do relatório, para que o relatório continue se atualizando quando
// reaberto; qualquer outro valor de origem com cara de fórmula é esvaziado em
// vez de copiado (copiar sem reancorar calcularia contra a linha errada).
func escreverRelatorioInadimplentes(f *excelize.File, devedores []domain.MembroCoorte) error {
	aba := domain.AbaInadimplentes

	templateQuit, _ := f.GetCellFormula(domain.AbaBase, cel(colQuitacao, 2))
	templateData, _ := f.GetCellFormula(domain.AbaBase, cel(colDataPgtoBase, 2))
	templateQuit = normalizarSeparadores(templateQuit)
	templateData = normalizarSeparadores(templateData)

	estiloData, estiloMoeda, estiloPercentual := estilosRelatorio(f)

	linha := ultimaLinhaColunaA(f, aba) + 1
	if linha < 2 {
		linha = 2
	}

	valorOrigem := func(m domain.MembroCoorte, c int) string {
		if c-1 < len(m.Linha) {
			v := strings.TrimSpace(m.Linha[c-1])
			if strings.HasPrefix(v, "=") {
				return ""
			}
			return v
		}
		return ""
	}

	for _, m := range devedores {
		parcelas := numeroOuZero(valorOrigem(m, 5))     // E — qtd contratada
		valorParcela := numeroOuZero(valorOrigem(m, 6)) // F — valor da parcela
		recebidas := numeroOuZero(valorOrigem(m, 14))   // N — parcelas recebidas

		for c := 1; c <= 11; c++ {
			v := valorOrigem(m, c)
			if v == "" {
				continue
			}
			if num, ok := tentarNumero(v); ok {
				_ = f.SetCellValue(aba, cel(c, linha), num)
			} else {
				_ = f.SetCellValue(aba, cel(c, linha), v)
			}
		}

		// derivações frescas por cima dos campos copiados
		_ = f.SetCellValue(aba, cel(8, linha), valorParcela) // base de comissão
		_ = f.SetCellValue(aba, cel(10, linha), m.DataDesembolso.Format("02/01/2006"))

		if templateQuit != "" {
			_ = f.SetCellFormula(aba, cel(colQuitacao, linha), reancorarFormula(templateQuit, linha))
		}
		if templateData != "" {
			_ = f.SetCellFormula(aba, cel(colDataPgtoBase, linha), reancorarFormula(templateData, linha))
		}

		_ = f.SetCellValue(aba, cel(colParcelasRec, linha), recebidas)
		percentual := 0.0
		if parcelas != 0 {
			percentual = recebidas / parcelas
		}
		_ = f.SetCellValue(aba, cel(colPercentual, linha), percentual)
		_ = f.SetCellValue(aba, cel(colSaldo, linha), parcelas-recebidas)
		_ = f.SetCellValue(aba, cel(colRelatorioTaxa, linha), valorParcela*0.03)

		// formatação numérica por coluna, convenção fixa do relatório
		aplicarEstilo(f, aba, cel(10, linha), estiloData)
		aplicarEstilo(f, aba, cel(colDataPgtoBase, linha), estiloData)
		for _, c := range []int{6, 7, 8, colSaldo, colRelatorioTaxa} {
			aplicarEstilo(f, aba, cel(c, linha), estiloMoeda)
		}
		aplicarEstilo(f, aba, cel(colPercentual, linha), estiloPercentual)

		linha++
	}

	// o filtro cobre o intervalo completo e é refeito a cada lote
	ultima := linha - 1
	if err := f.AutoFilter(aba, fmt.Sprintf("A1:Q%d", ultima), nil); err != nil {
		return fmt.Errorf("erro ao reaplicar filtro do relatório de inadimplentes: %w", err)
	}
	return nil
}

func estilosRelatorio(f *excelize.File) (data, moeda, percentual int) {
	fmtData := "dd/mm/yyyy"
	fmtMoeda := `R$ #,##0.00`
	data, _ = f.NewStyle(&excelize.Style{CustomNumFmt: &fmtData})
	moeda, _ = f.NewStyle(&excelize.Style{CustomNumFmt: &fmtMoeda})
	percentual, _ = f.NewStyle(&excelize.Style{NumFmt: 10})
	return data, moeda, percentual
}

func aplicarEstilo(f *excelize.File, aba, celula string, estilo int) {
	if estilo == 0 {
		return
	}
	_ = f.SetCellStyle(aba, celula, celula, estilo)
}
