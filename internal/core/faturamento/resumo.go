package faturamento

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"faturamento-service/internal/domain"
)

// Linhas fixas do RESUMO: bloco de comissão (2–6), bloco do ciclo de
// faturamento (9–18) e consolidado (20–23).
const (
	linhaRotulo         = 2
	linhaMesReferencia  = 3
	linhaBaseComissao   = 4
	linhaQuantidade     = 5
	linhaTaxa           = 6
	linhaCicloInicio    = 9
	linhaCicloFim       = 18
	linhaConsolidado    = 20
	linhaConsolidadoFim = 23
)

// Âncora textual dos cabeçalhos que a inserção de coluna pode deslocar, e os
// rótulos restaurados em offsets fixos abaixo dela.
const ancoraRegra = "REGRA PARA PARCELAMENTO"

var rotulosRegra = []string{"INÍCIO DO CICLO", "FIM DO CICLO", "TOTAL DO CICLO"}

var espacosRegex = regexp.MustCompile(`\s+`)

// normalizarTexto remove acentuação e caixa para comparação de rótulos — a
// âncora pode ter sido redigitada à mão com variações de acento.
func normalizarTexto(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(result)
	return strings.TrimSpace(espacosRegex.ReplaceAllString(result, " "))
}

func letraColuna(indice int) string {
	nome, _ := excelize.ColumnNumberToName(indice)
	return nome
}

// atualizarResumo executa os quatro sub-estágios contra a aba RESUMO. A
// coluna alvo é calculada UMA vez pelo bloco de comissão e repassada aos
// demais — recomputá-la é erro de programação do chamador, porque a lógica
// reusar-ou-inserir não é idempotente se rodada duas vezes.
func (s *service) atualizarResumo(f *excelize.File, rotuloMes, abaMes string) error {
	colAlvo, err := escreverBlocoComissao(f, rotuloMes)
	if err != nil {
		return err
	}
	if err := escreverBlocoCiclo(f, rotuloMes, abaMes); err != nil {
		return err
	}
	s.restaurarCabecalhosRegra(f)
	return escreverBlocoConsolidado(f, rotuloMes, colAlvo)
}

// colunaVizinhaEsquerda localiza a coluna não vazia mais próxima à esquerda,
// usando a linha indicada como sinal de ocupação (pulando lacunas).
func colunaVizinhaEsquerda(f *excelize.File, coluna, linhaOcupacao int) int {
	for c := coluna - 1; c >= 1; c-- {
		v, _ := f.GetCellValue(domain.AbaResumo, cel(c, linhaOcupacao))
		if strings.TrimSpace(v) != "" {
			return c
		}
	}
	return 0
}

func copiarEstiloColuna(f *excelize.File, origem, destino, linhaInicio, linhaFim int) {
	if origem == 0 {
		return
	}
	for l := linhaInicio; l <= linhaFim; l++ {
		copiarEstilo(f, domain.AbaResumo, cel(origem, l), domain.AbaResumo, cel(destino, l))
	}
}

// escreverBlocoComissao grava o bloco das linhas 2–6: rótulo do mês, mês de
// referência (um mês de calendário atrás, com virada de ano) e as fórmulas de
// base de comissão, quantidade e taxa de 3%, todas chaveadas pelo rótulo do
// mês de referência contra a coluna mensal correspondente da BASE.
//
// A posição de inserção vem da última célula ocupada da linha 2: o slot
// seguinte está vazio na linha 2 por construção e é reaproveitado quando a
// linha 9 também está vazia ali. Qualquer conteúdo na linha 9 — um cabeçalho
// do bloco de regra, um resto de ciclo antigo — força a inserção de uma coluna
// nova, para não sobrescrever o que já existe.
func escreverBlocoComissao(f *excelize.File, rotuloMes string) (int, error) {
	aba := domain.AbaResumo

	linhas, err := f.GetRows(aba)
	if err != nil {
		return 0, fmt.Errorf("erro ao ler aba %s: %w", aba, err)
	}

	ultimaOcupada := 1
	if len(linhas) >= linhaRotulo {
		for i, v := range linhas[linhaRotulo-1] {
			if strings.TrimSpace(v) != "" {
				ultimaOcupada = i + 1
			}
		}
	}
	colAlvo := ultimaOcupada + 1

	linha9, _ := f.GetCellValue(aba, cel(colAlvo, linhaCicloInicio))
	if strings.TrimSpace(linha9) != "" {
		if err := f.InsertCols(aba, letraColuna(colAlvo), 1); err != nil {
			return 0, fmt.Errorf("erro ao inserir coluna no %s: %w", aba, err)
		}
	}

	mesAnterior, err := rotuloMesesAtras(rotuloMes, 1)
	if err != nil {
		return 0, err
	}

	c := letraColuna(colAlvo)
	_ = f.SetCellValue(aba, c+"2", rotuloMes)
	_ = f.SetCellValue(aba, c+"3", mesAnterior)
	_ = f.SetCellFormula(aba, c+"4",
		fmt.Sprintf(`SUMIF(INDEX(BASE!$A:$AZ,0,MATCH(%s3,BASE!$1:$1,0)),">0",BASE!$H:$H)`, c))
	_ = f.SetCellFormula(aba, c+"5",
		fmt.Sprintf(`COUNTIF(INDEX(BASE!$A:$AZ,0,MATCH(%s3,BASE!$1:$1,0)),">0")`, c))
	_ = f.SetCellFormula(aba, c+"6", fmt.Sprintf("%s4*0.03", c))

	copiarEstiloColuna(f, colunaVizinhaEsquerda(f, colAlvo, linhaRotulo), colAlvo, linhaRotulo, linhaTaxa)

	return colAlvo, nil
}

// escreverBlocoCiclo grava o bloco das linhas 9–18. A coluna alvo é
// re-localizada casando o rótulo da linha 2 com o que o bloco de comissão
// escreveu — nunca recomputada por índice — para garantir alinhamento. Vale a
// ÚLTIMA ocorrência do rótulo: reprocessar o mesmo mês deixa colunas homônimas
// antigas à esquerda, e os três blocos precisam aterrissar juntos na coluna
// recém-escrita.
//
// A janela do ciclo é fixa: quatro meses de calendário antes do mês alvo, do
// dia 23 desse mês ao dia 20 do mês seguinte.
func escreverBlocoCiclo(f *excelize.File, rotuloMes, abaMes string) error {
	aba := domain.AbaResumo

	colAlvo := 0
	linhas, err := f.GetRows(aba)
	if err != nil {
		return fmt.Errorf("erro ao ler aba %s: %w", aba, err)
	}
	if len(linhas) >= linhaRotulo {
		for i, v := range linhas[linhaRotulo-1] {
			if strings.TrimSpace(v) == rotuloMes {
				colAlvo = i + 1
			}
		}
	}
	if colAlvo == 0 {
		return fmt.Errorf("coluna do mês %s não encontrada na linha 2 do %s; o bloco de comissão precisa rodar antes", rotuloMes, aba)
	}

	mesCiclo, err := rotuloMesesAtras(rotuloMes, 4)
	if err != nil {
		return err
	}
	base, err := parseRotuloMes(mesCiclo)
	if err != nil {
		return err
	}
	inicio := base.AddDate(0, 0, 22)               // dia 23
	fim := base.AddDate(0, 1, 0).AddDate(0, 0, 19) // dia 20 do mês seguinte

	c := letraColuna(colAlvo)
	dataInicio := fmt.Sprintf("DATE(%d,%d,%d)", inicio.Year(), int(inicio.Month()), inicio.Day())
	dataFim := fmt.Sprintf("DATE(%d,%d,%d)", fim.Year(), int(fim.Month()), fim.Day())

	garantirEscrita(f, aba, c+"9")
	_ = f.SetCellValue(aba, c+"9",
		fmt.Sprintf("CICLO %s A %s", inicio.Format("02/01/2006"), fim.Format("02/01/2006")))

	_ = f.SetCellFormula(aba, c+"10",
		fmt.Sprintf(`COUNTIFS(BASE!$J:$J,">="&%s,BASE!$J:$J,"<="&%s)`, dataInicio, dataFim))
	_ = f.SetCellFormula(aba, c+"11",
		fmt.Sprintf(`SUMIFS(BASE!$H:$H,BASE!$J:$J,">="&%s,BASE!$J:$J,"<="&%s)`, dataInicio, dataFim))
	_ = f.SetCellFormula(aba, c+"12", fmt.Sprintf(`SUM('%s'!D:D)`, abaMes))
	_ = f.SetCellFormula(aba, c+"13", fmt.Sprintf(`COUNTA('%s'!Q2:Q5000)`, abaMes))
	_ = f.SetCellFormula(aba, c+"14", fmt.Sprintf(`COUNTIF('%s'!X:X,"Não")`, abaMes))
	_ = f.SetCellFormula(aba, c+"15", fmt.Sprintf(`COUNTIF('%s'!X:X,"Sim")`, abaMes))
	_ = f.SetCellFormula(aba, c+"16", fmt.Sprintf("IFERROR(%s15/(%s14+%s15),0)", c, c, c))
	_ = f.SetCellFormula(aba, c+"17", fmt.Sprintf("IFERROR(%s12/%s13,0)", c, c))

	// linha 18 é carregada da coluna imediatamente à esquerda, se populada
	if colAlvo > 1 {
		esquerda := cel(colAlvo-1, linhaCicloFim)
		if formula, _ := f.GetCellFormula(aba, esquerda); strings.TrimSpace(formula) != "" {
			_ = f.SetCellFormula(aba, cel(colAlvo, linhaCicloFim), formula)
		} else if v, _ := f.GetCellValue(aba, esquerda); strings.TrimSpace(v) != "" {
			_ = f.SetCellValue(aba, cel(colAlvo, linhaCicloFim), v)
		}
	}

	copiarEstiloColuna(f, colunaVizinhaEsquerda(f, colAlvo, linhaCicloInicio), colAlvo, linhaCicloInicio, linhaCicloFim)
	return nil
}

// restaurarCabecalhosRegra reposiciona os três rótulos fixos que seguem a
// âncora "REGRA PARA PARCELAMENTO" — inserções de coluna a montante podem
// deslocá-los. A âncora é achada por busca textual insensível a acentos; cada
// rótulo é reescrito no offset fixo abaixo dela, desfazendo mesclagem e
// descartando estado de célula defasado antes, com o estilo da âncora.
func (s *service) restaurarCabecalhosRegra(f *excelize.File) {
	aba := domain.AbaResumo

	linhas, err := f.GetRows(aba)
	if err != nil {
		return
	}

	ancoraCol, ancoraLinha := 0, 0
	alvo := normalizarTexto(ancoraRegra)
	for li, linha := range linhas {
		for ci, v := range linha {
			if normalizarTexto(v) == alvo {
				ancoraCol, ancoraLinha = ci+1, li+1
				break
			}
		}
		if ancoraCol != 0 {
			break
		}
	}
	if ancoraCol == 0 {
		s.logger.Warn("âncora de cabeçalho não encontrada no RESUMO; rótulos não restaurados",
			zap.String("ancora", ancoraRegra))
		return
	}

	ancora := cel(ancoraCol, ancoraLinha)
	for i, rotulo := range rotulosRegra {
		celula := cel(ancoraCol, ancoraLinha+i+1)
		garantirEscrita(f, aba, celula)
		_ = f.SetCellValue(aba, celula, nil)
		_ = f.SetCellValue(aba, celula, rotulo)
		copiarEstilo(f, aba, ancora, aba, celula)
	}
}

// escreverBlocoConsolidado grava as linhas 20–23: o rótulo do mês (relido da
// linha 2 da coluna alvo, com fallback para o rótulo recém-formatado) e as
// fórmulas que referenciam as linhas 6 e 12 da própria coluna e as somam.
// Largura de coluna e estilos vêm do vizinho populado mais próximo à
// esquerda, com a linha 20 como sinal de ocupação.
func escreverBlocoConsolidado(f *excelize.File, rotuloMes string, colAlvo int) error {
	aba := domain.AbaResumo

	rotulo, _ := f.GetCellValue(aba, cel(colAlvo, linhaRotulo))
	rotulo = strings.TrimSpace(rotulo)
	if rotulo == "" {
		rotulo = rotuloMes
	}

	for l := linhaConsolidado; l <= linhaConsolidadoFim; l++ {
		garantirEscrita(f, aba, cel(colAlvo, l))
	}

	c := letraColuna(colAlvo)
	_ = f.SetCellValue(aba, c+"20", rotulo)
	_ = f.SetCellFormula(aba, c+"21", fmt.Sprintf("%s6", c))
	_ = f.SetCellFormula(aba, c+"22", fmt.Sprintf("%s12", c))
	_ = f.SetCellFormula(aba, c+"23", fmt.Sprintf("%s21+%s22", c, c))

	vizinho := colunaVizinhaEsquerda(f, colAlvo, linhaConsolidado)
	if vizinho != 0 {
		if largura, err := f.GetColWidth(aba, letraColuna(vizinho)); err == nil {
			_ = f.SetColWidth(aba, c, c, largura)
		}
		copiarEstiloColuna(f, vizinho, colAlvo, linhaConsolidado, linhaConsolidadoFim)
	}
	return nil
}
