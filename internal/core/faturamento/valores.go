package faturamento

import (
	"strconv"
	"strings"
	"time"
)

// ---------------------- coerção de valores de célula ----------------------

// normalizarID prepara um id de CCB para comparação: trim e remoção do
// artefato ".0" que aparece quando ids numéricos transitam como texto.
func normalizarID(valor string) string {
	valor = strings.TrimSpace(valor)
	return strings.TrimSuffix(valor, ".0")
}

// tentarNumero tenta interpretar o texto de uma célula como número, aceitando
// tanto o formato anglo quanto o brasileiro (1.234,56). Valores não numéricos
// devolvem (0, false); a coerção é deliberadamente leniente.
func tentarNumero(valor string) (float64, bool) {
	s := strings.TrimSpace(valor)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, false
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimPrefix(strings.TrimSuffix(s, ")"), "(")
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimPrefix(s, "-")
	}

	// a última ocorrência de . ou , decide qual é o separador decimal
	ultimoPonto := strings.LastIndex(s, ".")
	ultimaVirgula := strings.LastIndex(s, ",")
	if ultimaVirgula > ultimoPonto {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else if strings.Count(s, ".") > 1 {
		partes := strings.Split(s, ".")
		s = strings.Join(partes[:len(partes)-1], "") + "." + partes[len(partes)-1]
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// numeroOuZero coage o texto de uma célula a número, tratando qualquer valor
// não numérico como zero (contribui nada, não erra).
func numeroOuZero(valor string) float64 {
	f, _ := tentarNumero(valor)
	return f
}

// Intervalo plausível de serial Excel (~1995 a ~2028); fora disso um número
// solto não é tratado como data.
const (
	serialExcelMin = 35000
	serialExcelMax = 47000
)

// serialExcelParaData converte um serial de data do Excel (base 1899-12-30).
func serialExcelParaData(serial float64) time.Time {
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	dias := int(serial)
	frac := serial - float64(dias)
	return base.AddDate(0, 0, dias).Add(time.Duration(frac * 24 * float64(time.Hour)))
}

var formatosDataBR = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006 15:04:05",
	"02/01/06 15:04",
}

// parseDataBR interpreta o texto de uma célula como data (dia primeiro, ou
// ISO, ou serial Excel dentro do intervalo plausível). Valores ilegíveis
// devolvem (zero, false) e são excluídos do filtro, nunca erro.
func parseDataBR(valor string) (time.Time, bool) {
	s := strings.TrimSpace(valor)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range formatosDataBR {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > serialExcelMin && f < serialExcelMax {
		return serialExcelParaData(f), true
	}
	return time.Time{}, false
}

// semHora zera o componente de hora de uma data.
func semHora(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
