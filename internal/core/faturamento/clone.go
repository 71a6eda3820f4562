package faturamento

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// cel monta o endereço A1 de (coluna, linha) 1-indexados.
func cel(coluna, linha int) string {
	nome, _ := excelize.CoordinatesToCellName(coluna, linha)
	return nome
}

// copiarEstilo replica os atributos visuais (fonte, borda, preenchimento,
// formato numérico, alinhamento) de uma célula para outra. O estilo é tratado
// como objeto opaco: apenas o id é transportado.
func copiarEstilo(f *excelize.File, abaOrigem, celulaOrigem, abaDestino, celulaDestino string) {
	estilo, err := f.GetCellStyle(abaOrigem, celulaOrigem)
	if err != nil || estilo == 0 {
		return
	}
	_ = f.SetCellStyle(abaDestino, celulaDestino, celulaDestino, estilo)
}

// garantirEscrita dissolve qualquer mesclagem que cubra a célula antes de uma
// escrita. Regiões do RESUMO (linha 9, linhas 20–23) carregam mesclagens
// legadas; escrever numa célula não âncora de um intervalo mesclado é ignorado
// pela aplicação de planilha, então a mesclagem é desfeita primeiro.
func garantirEscrita(f *excelize.File, aba, celula string) {
	col, linha, err := excelize.CellNameToCoordinates(celula)
	if err != nil {
		return
	}
	mesclas, err := f.GetMergeCells(aba)
	if err != nil {
		return
	}
	for _, m := range mesclas {
		c1, l1, err1 := excelize.CellNameToCoordinates(m.GetStartAxis())
		c2, l2, err2 := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err1 != nil || err2 != nil {
			continue
		}
		if col >= c1 && col <= c2 && linha >= l1 && linha <= l2 {
			_ = f.UnmergeCell(aba, m.GetStartAxis(), m.GetEndAxis())
		}
	}
}

// clonarModeloComoMes duplica a aba modelo sob o nome do mês alvo, preservando
// layout e estilos. Uma aba homônima pré-existente é removida antes, o que
// torna o reprocessamento do mesmo mês idempotente. Modelo ausente é erro
// fatal: é fixture obrigatória, não configuração opcional.
func clonarModeloComoMes(f *excelize.File, modelo, alvo string) error {
	idxModelo, err := f.GetSheetIndex(modelo)
	if err != nil || idxModelo < 0 {
		return fmt.Errorf("aba modelo %q não encontrada no arquivo BASE", modelo)
	}

	if idxAlvo, _ := f.GetSheetIndex(alvo); idxAlvo >= 0 {
		if err := f.DeleteSheet(alvo); err != nil {
			return fmt.Errorf("falha ao remover aba %q pré-existente: %w", alvo, err)
		}
	}

	idxNovo, err := f.NewSheet(alvo)
	if err != nil {
		return fmt.Errorf("falha ao criar aba %q: %w", alvo, err)
	}
	// GetSheetIndex de novo: DeleteSheet pode ter deslocado o índice do modelo.
	idxModelo, err = f.GetSheetIndex(modelo)
	if err != nil || idxModelo < 0 {
		return fmt.Errorf("aba modelo %q não encontrada após remoção: %w", modelo, err)
	}
	if err := f.CopySheet(idxModelo, idxNovo); err != nil {
		return fmt.Errorf("falha ao clonar aba modelo %q: %w", modelo, err)
	}
	return nil
}

// limparLinhasDeDados apaga os valores das linhas de dados, de baixo para
// cima. A limpeza é só de valores e não desloca linhas, mas a ordem inversa é
// um invariante defensivo mantido também na reescrita de inadimplência.
func limparLinhasDeDados(f *excelize.File, aba string, manterCabecalho bool) {
	ultima := ultimaLinha(f, aba)
	if ultima == 0 {
		return
	}
	primeira := 1
	if manterCabecalho {
		primeira = 2
	}
	linhas, err := f.GetRows(aba)
	if err != nil {
		return
	}
	for l := ultima; l >= primeira; l-- {
		if l-1 >= len(linhas) {
			continue
		}
		for c := range linhas[l-1] {
			_ = f.SetCellValue(aba, cel(c+1, l), nil)
		}
	}
}
