package faturamento

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ---------------------- templates de fórmula ----------------------
//
// As fórmulas são tratadas como strings opacas levemente templatizadas: nunca
// são avaliadas aqui, apenas reescritas por substituição textual de tokens de
// linha e por emenda de termos em cadeias OR/IFERROR/soma.

var refLinhaRegex = regexp.MustCompile(`([A-Za-z]+)(\d+)`)

// reancorarFormula substitui TODO token "letras+dígitos" (referência de célula)
// pelo mesmo prefixo de letras seguido de novaLinha. É uma substituição cega:
// só é segura porque as fórmulas usadas neste motor são templates de linha
// única (VLOOKUP/SUMIF/COUNTIF ancorados numa linha só), sem offsets relativos
// entre linhas distintas. Não reutilizar para fórmulas arbitrárias.
func reancorarFormula(formula string, novaLinha int) string {
	return refLinhaRegex.ReplaceAllString(formula, "${1}"+strconv.Itoa(novaLinha))
}

// normalizarSeparadores unifica o separador de argumentos em vírgula. Arquivos
// salvos por versões PT-BR do Excel podem carregar ponto e vírgula.
func normalizarSeparadores(formula string) string {
	return strings.ReplaceAll(formula, ";", ",")
}

// referenciaAba informa se a fórmula já menciona a aba (checagem por
// substring, o que torna as extensões de cadeia idempotentes).
func referenciaAba(formula, aba string) bool {
	return strings.Contains(formula, "'"+aba+"'!")
}

// inserirAntesDoMarcador emenda termo imediatamente antes da última ocorrência
// de marcador. Marcador ausente resulta em no-op silencioso: a fórmula volta
// inalterada e o segundo retorno é false (o chamador decide se registra).
func inserirAntesDoMarcador(formula, termo, marcador string) (string, bool) {
	pos := strings.LastIndex(formula, marcador)
	if pos < 0 {
		return formula, false
	}
	return formula[:pos] + termo + formula[pos:], true
}

// substituirUltimaOcorrencia troca a última ocorrência de alvo por substituto.
func substituirUltimaOcorrencia(formula, alvo, substituto string) (string, bool) {
	pos := strings.LastIndex(formula, alvo)
	if pos < 0 {
		return formula, false
	}
	return formula[:pos] + substituto + formula[pos+len(alvo):], true
}

// Marcadores fixos das três cadeias dinâmicas da BASE.
const (
	marcadorCadeiaOR      = `),"Sim"`
	fallbackCadeiaIFERROR = `"-"`
)

// estenderCadeiaOR acrescenta um teste de presença na aba do novo mês à cadeia
// OR(...) da fórmula de quitação. Exemplo de template na linha 2:
//
//	=IF(OR(ISNUMBER(MATCH(A2,'JAN.26'!Q:Q,0))),"Sim","Não")
func estenderCadeiaOR(formula, aba string) (string, bool) {
	if referenciaAba(formula, aba) {
		return formula, true
	}
	termo := fmt.Sprintf(",ISNUMBER(MATCH(A2,'%s'!Q:Q,0))", aba)
	return inserirAntesDoMarcador(formula, termo, marcadorCadeiaOR)
}

// estenderCadeiaIFERROR embrulha o fallback terminal "-" da cadeia aninhada de
// IFERROR num novo nível que consulta a aba do mês recém-criado:
//
//	=IFERROR(VLOOKUP(A2,'JAN.26'!Q:T,4,0),"-")
//	=IFERROR(VLOOKUP(A2,'JAN.26'!Q:T,4,0),IFERROR(VLOOKUP(A2,'FEV.26'!Q:T,4,0),"-"))
func estenderCadeiaIFERROR(formula, aba string) (string, bool) {
	if referenciaAba(formula, aba) {
		return formula, true
	}
	substituto := fmt.Sprintf(`IFERROR(VLOOKUP(A2,'%s'!Q:T,4,0),"-")`, aba)
	return substituirUltimaOcorrencia(formula, fallbackCadeiaIFERROR, substituto)
}

// estenderCadeiaSoma anexa mais um COUNTIF à cadeia somada de parcelas
// recebidas:
//
//	=COUNTIF('JAN.26'!A:A,A2)+COUNTIF('FEV.26'!A:A,A2)
func estenderCadeiaSoma(formula, aba string) (string, bool) {
	if referenciaAba(formula, aba) {
		return formula, true
	}
	if !strings.HasPrefix(formula, "COUNTIF(") && !strings.HasPrefix(formula, "=COUNTIF(") {
		return formula, false
	}
	return formula + fmt.Sprintf("+COUNTIF('%s'!A:A,A2)", aba), true
}

// ---------------------- templates canônicos ----------------------
//
// Quando a BASE chega sem fórmula na linha 2 (ledger recém-criado), os
// templates são sintetizados do zero cobrindo todas as abas mensais
// conhecidas, na mesma forma que as cadeias acima esperam encontrar.

func templateQuitacao(meses []string) string {
	termos := make([]string, 0, len(meses))
	for _, m := range meses {
		termos = append(termos, fmt.Sprintf("ISNUMBER(MATCH(A2,'%s'!Q:Q,0))", m))
	}
	return fmt.Sprintf(`IF(OR(%s),"Sim","Não")`, strings.Join(termos, ","))
}

func templateDataPagamento(meses []string) string {
	formula := `"-"`
	for i := len(meses) - 1; i >= 0; i-- {
		formula = fmt.Sprintf(`IFERROR(VLOOKUP(A2,'%s'!Q:T,4,0),%s)`, meses[i], formula)
	}
	return formula
}

func templateParcelasRecebidas(meses []string) string {
	termos := make([]string, 0, len(meses))
	for _, m := range meses {
		termos = append(termos, fmt.Sprintf("COUNTIF('%s'!A:A,A2)", m))
	}
	return strings.Join(termos, "+")
}
