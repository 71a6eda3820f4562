// package domain/models.go
package domain

import "time"

// Nomes de abas exigidos pelo contrato de layout dos arquivos de entrada.
const (
	AbaBase          = "BASE"
	AbaInadimplentes = "INADIMPLENTES"
	AbaResumo        = "RESUMO"
	AbaModelo        = "JAN.26"
	AbaParcelasPagas = "Parcelas Pagas"
	AbaProducao      = "Produção"
)

// CabecalhoData é o texto exato do cabeçalho que delimita o bloco de colunas
// mensais na aba BASE. A busca é sensível a maiúsculas.
const CabecalhoData = "DATA"

// ParametrosProcessamento agrupa os escalares que o handler entrega ao motor.
type ParametrosProcessamento struct {
	MesAlvo    string // rótulo MMM.YY, ex.: FEV.26
	DataInicio time.Time
	DataFim    time.Time
	// ColunaDataCiclo é a letra da coluna da BASE usada no filtro do ciclo
	// de cobrança; vazio usa a coluna da data de desembolso.
	ColunaDataCiclo string
}

// EstatisticasProcessamento são os contadores devolvidos para exibição.
type EstatisticasProcessamento struct {
	ParcelasCopiadas int  `json:"parcelas_copiadas"`
	CCBsUnicos       int  `json:"ccbs_unicos"`
	ProducaoAnexada  int  `json:"producao_anexada"`
	LinhasReescritas int  `json:"linhas_reescritas"`
	CoorteCiclo      int  `json:"coorte_ciclo"`
	Inadimplentes    int  `json:"inadimplentes"`
	ResumoAtualizado bool `json:"resumo_atualizado"`
}

// ColunaMes identifica uma coluna mensal de presença na aba BASE.
type ColunaMes struct {
	Nome   string
	Indice int // 1-indexado
}

// MembroCoorte é uma linha da BASE cuja data de desembolso cai dentro da
// janela do ciclo de cobrança.
type MembroCoorte struct {
	CCB            string // id normalizado (trim + sufixo ".0" removido)
	CCBOriginal    string // valor como lido da planilha
	DataDesembolso time.Time
	Linha          []string // registro completo da linha de origem (snapshot)
}
