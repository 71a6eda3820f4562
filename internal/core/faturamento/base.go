package faturamento

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"faturamento-service/internal/domain"
)

// Layout da aba BASE: A–K campos transacionais brutos, L–N fórmulas dinâmicas
// entre abas (recalculadas para TODAS as linhas a cada execução), O–P fórmulas
// estáticas por linha (só linhas novas), Q em diante colunas mensais até a
// coluna DATA.
const (
	colQuitacao     = 12 // L — PAGO?
	colDataPgtoBase = 13 // M — data do pagamento
	colParcelasRec  = 14 // N — parcelas recebidas
	colPercentual   = 15 // O — % recebido
	colSaldo        = 16 // P — saldo pendente
)

// anexarProducao copia as linhas de produção do parceiro para o fim da BASE.
//
// Mapeamento fixo de colunas: origem 1–7 na íntegra para destino 1–7; destino
// 8 recebe SEMPRE a fórmula =F{linha} (nunca copiado da origem); origem 8–10
// desloca para destino 9–11. Linha de origem com coluna A vazia encerra a
// cópia. O estilo de cada célula escrita vem da coluna correspondente da
// última linha pré-existente da BASE — a formatação da origem é descartada.
func anexarProducao(f *excelize.File, parceiro *excelize.File) (anexadas int, primeiraNova int, err error) {
	origem, err := parceiro.GetRows(domain.AbaProducao)
	if err != nil {
		return 0, 0, fmt.Errorf("erro ao ler aba %q do parceiro: %w", domain.AbaProducao, err)
	}

	ultimaExistente := ultimaLinhaColunaA(f, domain.AbaBase)
	destino := ultimaExistente + 1
	if destino < 2 {
		destino = 2
	}
	primeiraNova = destino
	linhaEstilo := ultimaExistente // 0 ou 1 = sem linha de referência de estilo

	escrever := func(coluna, linha int, valor string) error {
		celula := cel(coluna, linha)
		if num, ok := tentarNumero(valor); ok {
			if err := f.SetCellValue(domain.AbaBase, celula, num); err != nil {
				return err
			}
		} else if err := f.SetCellValue(domain.AbaBase, celula, valor); err != nil {
			return err
		}
		if linhaEstilo >= 2 {
			copiarEstilo(f, domain.AbaBase, cel(coluna, linhaEstilo), domain.AbaBase, celula)
		}
		return nil
	}

	for i := 1; i < len(origem); i++ {
		linha := origem[i]
		if len(linha) == 0 || strings.TrimSpace(linha[0]) == "" {
			break
		}

		valor := func(c int) string {
			if c-1 < len(linha) {
				return strings.TrimSpace(linha[c-1])
			}
			return ""
		}

		for c := 1; c <= 7; c++ {
			if v := valor(c); v != "" {
				if err := escrever(c, destino, v); err != nil {
					return 0, 0, fmt.Errorf("erro ao anexar produção à BASE: %w", err)
				}
			}
		}

		// coluna 8 é sintética: espelha o valor da parcela
		if err := f.SetCellFormula(domain.AbaBase, cel(8, destino), fmt.Sprintf("F%d", destino)); err != nil {
			return 0, 0, fmt.Errorf("erro ao anexar produção à BASE: %w", err)
		}
		if linhaEstilo >= 2 {
			copiarEstilo(f, domain.AbaBase, cel(8, linhaEstilo), domain.AbaBase, cel(8, destino))
		}

		for c := 8; c <= 10; c++ {
			if v := valor(c); v != "" {
				if err := escrever(c+1, destino, v); err != nil {
					return 0, 0, fmt.Errorf("erro ao anexar produção à BASE: %w", err)
				}
			}
		}

		anexadas++
		destino++
	}

	return anexadas, primeiraNova, nil
}

// inserirColunaDoMes insere a coluna de presença do novo mês logo após a
// última coluna mensal existente (ou na posição padrão, se for o primeiro
// mês), escreve o rótulo no cabeçalho e uma fórmula COUNTIF contra a aba do
// mês em cada linha de dados. A inserção estrutural desloca as colunas à
// direita e confia no ajuste de referências do engine de planilha.
//
// Uma coluna homônima pré-existente é reaproveitada no lugar, para que o
// reprocessamento do mesmo mês não acumule colunas duplicadas.
func inserirColunaDoMes(f *excelize.File, rotuloMes string, existentes []domain.ColunaMes) (domain.ColunaMes, error) {
	indice := primeiraColunaMensal
	reutilizar := false
	for _, c := range existentes {
		if c.Nome == rotuloMes {
			indice = c.Indice
			reutilizar = true
			break
		}
	}
	if !reutilizar {
		if n := len(existentes); n > 0 {
			indice = existentes[n-1].Indice + 1
		}
	}

	nomeColuna, err := excelize.ColumnNumberToName(indice)
	if err != nil {
		return domain.ColunaMes{}, fmt.Errorf("índice de coluna mensal inválido %d: %w", indice, err)
	}
	if !reutilizar {
		if err := f.InsertCols(domain.AbaBase, nomeColuna, 1); err != nil {
			return domain.ColunaMes{}, fmt.Errorf("erro ao inserir coluna do mês %s: %w", rotuloMes, err)
		}
	}
	if err := f.SetCellValue(domain.AbaBase, cel(indice, 1), rotuloMes); err != nil {
		return domain.ColunaMes{}, fmt.Errorf("erro ao escrever cabeçalho da coluna %s: %w", rotuloMes, err)
	}

	ultima := ultimaLinhaColunaA(f, domain.AbaBase)
	for l := 2; l <= ultima; l++ {
		formula := fmt.Sprintf("COUNTIF('%s'!A:A,BASE!A%d)", rotuloMes, l)
		if err := f.SetCellFormula(domain.AbaBase, cel(indice, l), formula); err != nil {
			return domain.ColunaMes{}, fmt.Errorf("erro ao escrever COUNTIF do mês %s: %w", rotuloMes, err)
		}
	}

	return domain.ColunaMes{Nome: rotuloMes, Indice: indice}, nil
}

// estenderEReaplicarFormulas lê o template da linha 2 de cada coluna dinâmica
// (quitação, data de pagamento, parcelas recebidas), estende a cadeia para
// incluir a aba do mês recém-criado e reescreve TODAS as linhas de dados —
// um registro marcado não pago num mês anterior pode ter sido quitado agora,
// então o escopo de consulta das linhas históricas precisa acompanhar.
//
// Sem nenhuma aba mensal detectável o erro é fatal: as fórmulas seriam
// vazias de significado sem alvo de consulta.
func (s *service) estenderEReaplicarFormulas(f *excelize.File, rotuloMes string) (int, error) {
	colunas := colunasDeMes(f, domain.AbaBase)
	if len(colunas) == 0 {
		return 0, fmt.Errorf("nenhuma coluna mensal detectada na BASE; fórmulas dinâmicas ficariam sem alvo")
	}
	meses := make([]string, 0, len(colunas))
	for _, c := range colunas {
		meses = append(meses, c.Nome)
	}

	ultima := ultimaLinhaColunaA(f, domain.AbaBase)
	if ultima < 2 {
		return 0, nil
	}

	templates := []struct {
		coluna   int
		nome     string
		estender func(string, string) (string, bool)
		padrao   func([]string) string
	}{
		{colQuitacao, "quitação", estenderCadeiaOR, templateQuitacao},
		{colDataPgtoBase, "data de pagamento", estenderCadeiaIFERROR, templateDataPagamento},
		{colParcelasRec, "parcelas recebidas", estenderCadeiaSoma, templateParcelasRecebidas},
	}

	for _, t := range templates {
		template, err := f.GetCellFormula(domain.AbaBase, cel(t.coluna, 2))
		if err != nil {
			return 0, fmt.Errorf("erro ao ler template da coluna de %s: %w", t.nome, err)
		}
		template = normalizarSeparadores(strings.TrimSpace(template))

		if template == "" {
			template = t.padrao(meses)
		} else if estendido, ok := t.estender(template, rotuloMes); ok {
			template = estendido
		} else {
			// drift de template: marcador ausente é no-op recuperável, mas
			// precisa aparecer nos logs para ser corrigido cedo
			s.logger.Warn("marcador de extensão não encontrado; fórmula mantida sem o novo mês",
				zap.String("coluna", t.nome),
				zap.String("template", template))
		}

		for l := 2; l <= ultima; l++ {
			if err := f.SetCellFormula(domain.AbaBase, cel(t.coluna, l), reancorarFormula(template, l)); err != nil {
				return 0, fmt.Errorf("erro ao reaplicar fórmula de %s na linha %d: %w", t.nome, l, err)
			}
			if l > 2 {
				copiarEstilo(f, domain.AbaBase, cel(t.coluna, l-1), domain.AbaBase, cel(t.coluna, l))
			}
		}
	}

	return ultima - 1, nil
}

// aplicarFormulasEstaticas escreve as fórmulas locais de linha (% recebido,
// saldo pendente e data normalizada) apenas nas linhas recém-anexadas. A
// coluna DATA é localizada pelo cabeçalho e aqui é obrigatória.
func aplicarFormulasEstaticas(f *excelize.File, primeiraNova int) (int, error) {
	colData := colunaPorCabecalho(f, domain.AbaBase, domain.CabecalhoData)
	if colData == 0 {
		return 0, fmt.Errorf("coluna %q não encontrada no cabeçalho da BASE", domain.CabecalhoData)
	}

	ultima := ultimaLinhaColunaA(f, domain.AbaBase)
	if ultima < primeiraNova {
		return 0, nil
	}

	aplicadas := 0
	for l := primeiraNova; l <= ultima; l++ {
		if err := f.SetCellFormula(domain.AbaBase, cel(colPercentual, l), fmt.Sprintf("N%d/E%d", l, l)); err != nil {
			return 0, fmt.Errorf("erro ao aplicar fórmula de percentual na linha %d: %w", l, err)
		}
		_ = f.SetCellFormula(domain.AbaBase, cel(colSaldo, l), fmt.Sprintf("E%d-N%d", l, l))
		_ = f.SetCellFormula(domain.AbaBase, cel(colData, l), fmt.Sprintf(`TEXT(J%d,"DD/MM/AAAA")`, l))

		if l > 2 {
			copiarEstilo(f, domain.AbaBase, cel(colPercentual, l-1), domain.AbaBase, cel(colPercentual, l))
			copiarEstilo(f, domain.AbaBase, cel(colSaldo, l-1), domain.AbaBase, cel(colSaldo, l))
			copiarEstilo(f, domain.AbaBase, cel(colData, l-1), domain.AbaBase, cel(colData, l))
		}
		aplicadas++
	}
	return aplicadas, nil
}
