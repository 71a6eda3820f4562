package faturamento

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"faturamento-service/internal/domain"
)

// Service define a interface do motor de faturamento mensal.
type Service interface {
	ProcessarFaturamento(parceiroFile io.Reader, baseFile io.Reader, parceiroFilename string, params domain.ParametrosProcessamento) ([]byte, *domain.EstatisticasProcessamento, error)
}

type service struct {
	logger *zap.Logger
}

// NewService cria uma nova instância do serviço de faturamento.
func NewService(logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{logger: logger}
}

// ProcessarFaturamento executa o ciclo mensal completo contra o arquivo BASE e
// devolve os bytes do arquivo atualizado:
//
//  1. clona a aba modelo como a aba do mês alvo e a preenche com as parcelas
//     pagas do parceiro (A–M, derivados N–P, bloco de CCBs únicos Q–T);
//  2. anexa a produção nova ao fim da BASE;
//  3. insere a coluna mensal de presença e reescreve as fórmulas dinâmicas de
//     todas as linhas, estendendo as cadeias para enxergar o mês novo;
//  4. roda o ciclo de inadimplência contra o snapshot avaliado dos bytes
//     ORIGINAIS da BASE — os resultados calculados gravados no arquivo, nunca
//     as fórmulas recém-escritas, que este motor não avalia;
//  5. atualiza os blocos do RESUMO, quando a aba existe.
//
// A ordem importa: o snapshot precisa vir dos bytes de entrada (passo 4), e o
// RESUMO referencia a coluna mensal e a aba do mês criadas nos passos 1–3.
func (s *service) ProcessarFaturamento(parceiroFile io.Reader, baseFile io.Reader, parceiroFilename string, params domain.ParametrosProcessamento) ([]byte, *domain.EstatisticasProcessamento, error) {
	if _, err := parseRotuloMes(params.MesAlvo); err != nil {
		return nil, nil, err
	}

	parceiro, err := abrirParceiro(parceiroFile, parceiroFilename)
	if err != nil {
		return nil, nil, err
	}
	defer parceiro.Close()

	for _, aba := range []string{domain.AbaParcelasPagas, domain.AbaProducao} {
		if idx, _ := parceiro.GetSheetIndex(aba); idx < 0 {
			return nil, nil, fmt.Errorf("aba %q não encontrada no arquivo do parceiro", aba)
		}
	}

	dadosBase, err := io.ReadAll(baseFile)
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao ler arquivo BASE: %w", err)
	}
	f, err := abrirBase(dadosBase)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	stats := &domain.EstatisticasProcessamento{}

	if err := clonarModeloComoMes(f, domain.AbaModelo, params.MesAlvo); err != nil {
		return nil, nil, err
	}
	stats.ParcelasCopiadas, stats.CCBsUnicos, err = preencherAbaDoMes(f, parceiro, params.MesAlvo, params.MesAlvo)
	if err != nil {
		return nil, nil, err
	}

	anexadas, primeiraNova, err := anexarProducao(f, parceiro)
	if err != nil {
		return nil, nil, err
	}
	stats.ProducaoAnexada = anexadas

	existentes := colunasDeMes(f, domain.AbaBase)
	if _, err := inserirColunaDoMes(f, params.MesAlvo, existentes); err != nil {
		return nil, nil, err
	}

	stats.LinhasReescritas, err = s.estenderEReaplicarFormulas(f, params.MesAlvo)
	if err != nil {
		return nil, nil, err
	}
	if _, err := aplicarFormulasEstaticas(f, primeiraNova); err != nil {
		return nil, nil, err
	}

	snap, err := abrirSnapshotAvaliado(dadosBase)
	if err != nil {
		return nil, nil, err
	}
	stats.CoorteCiclo, stats.Inadimplentes, err = s.processarCicloInadimplencia(f, snap, params.MesAlvo, params)
	if err != nil {
		return nil, nil, err
	}

	if idx, _ := f.GetSheetIndex(domain.AbaResumo); idx >= 0 {
		if err := s.atualizarResumo(f, params.MesAlvo, params.MesAlvo); err != nil {
			return nil, nil, err
		}
		stats.ResumoAtualizado = true
	} else {
		s.logger.Info("aba RESUMO ausente; blocos de resumo não atualizados")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao gerar arquivo BASE atualizado: %w", err)
	}

	s.logger.Info("faturamento processado",
		zap.String("mes", params.MesAlvo),
		zap.Int("parcelas", stats.ParcelasCopiadas),
		zap.Int("ccbs_unicos", stats.CCBsUnicos),
		zap.Int("producao", stats.ProducaoAnexada),
		zap.Int("coorte", stats.CoorteCiclo),
		zap.Int("inadimplentes", stats.Inadimplentes))

	return buf.Bytes(), stats, nil
}
