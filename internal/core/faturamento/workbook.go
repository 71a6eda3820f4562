package faturamento

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"faturamento-service/internal/domain"
)

// ---------------------- carga de arquivos ----------------------

// abrirParceiro carrega o arquivo PARCEIRO. Arquivos .xlsx/.xlsm abrem direto;
// o formato legado .xls é convertido em memória para um workbook excelize,
// preservando nomes de abas e valores (o apêndice à BASE descarta a formatação
// de origem de qualquer forma).
func abrirParceiro(arquivo io.Reader, nomeArquivo string) (*excelize.File, error) {
	dados, err := io.ReadAll(arquivo)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler arquivo do parceiro: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(nomeArquivo))
	if ext == ".xls" {
		return converterXLS(dados)
	}

	f, err := excelize.OpenReader(bytes.NewReader(dados))
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir arquivo do parceiro: %w", err)
	}
	return f, nil
}

func converterXLS(dados []byte) (*excelize.File, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(dados))
	if err != nil {
		// talvez seja xlsx com extensão errada; tentar excelize
		if f, errX := excelize.OpenReader(bytes.NewReader(dados)); errX == nil {
			return f, nil
		}
		return nil, fmt.Errorf("erro ao abrir arquivo .xls do parceiro: %w", err)
	}

	f := excelize.NewFile()
	for i, sheet := range workbook.GetSheets() {
		nome := strings.TrimSpace(sheet.GetName())
		if nome == "" {
			nome = fmt.Sprintf("Plan%d", i+1)
		}
		if i == 0 {
			_ = f.SetSheetName(f.GetSheetName(0), nome)
		} else {
			if _, err := f.NewSheet(nome); err != nil {
				return nil, fmt.Errorf("erro ao converter aba %q do .xls: %w", nome, err)
			}
		}
		for li, row := range sheet.GetRows() {
			for ci, c := range row.GetCols() {
				valor := strings.TrimSpace(c.GetString())
				if valor == "" {
					continue
				}
				if num, ok := tentarNumero(valor); ok {
					_ = f.SetCellValue(nome, cel(ci+1, li+1), num)
					continue
				}
				_ = f.SetCellValue(nome, cel(ci+1, li+1), valor)
			}
		}
	}
	return f, nil
}

// abrirBase abre o workbook BASE em modo bruto (fórmulas preservadas como
// texto, nunca avaliadas por este motor).
func abrirBase(dados []byte) (*excelize.File, error) {
	f, err := excelize.OpenReader(bytes.NewReader(dados))
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir arquivo BASE: %w", err)
	}
	return f, nil
}

// snapshotBase é a projeção tabular da aba BASE carregada em modo avaliado:
// células de fórmula aparecem pelo último resultado calculado gravado no
// arquivo, não pelo texto da fórmula. É um grafo de objetos independente do
// workbook mutável — as leituras de "quem já pagou" vêm daqui, as escritas vão
// sempre para a cópia bruta.
type snapshotBase struct {
	linhas [][]string
}

// abrirSnapshotAvaliado faz a segunda carga dos mesmos bytes da BASE e projeta
// a aba BASE para leitura de valores calculados.
func abrirSnapshotAvaliado(dados []byte) (*snapshotBase, error) {
	f, err := excelize.OpenReader(bytes.NewReader(dados))
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar snapshot avaliado da BASE: %w", err)
	}
	defer f.Close()

	linhas, err := f.GetRows(domain.AbaBase)
	if err != nil {
		return nil, fmt.Errorf("erro ao projetar aba %s do snapshot: %w", domain.AbaBase, err)
	}
	return &snapshotBase{linhas: linhas}, nil
}

// celula devolve o valor (linha, coluna) 1-indexado do snapshot, ou "" fora da
// extensão.
func (s *snapshotBase) celula(linha, coluna int) string {
	if linha < 1 || linha > len(s.linhas) {
		return ""
	}
	l := s.linhas[linha-1]
	if coluna < 1 || coluna > len(l) {
		return ""
	}
	return l[coluna-1]
}
