package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faturamento-service/internal/domain"
)

type stubService struct {
	saida  []byte
	stats  *domain.EstatisticasProcessamento
	err    error
	params domain.ParametrosProcessamento
}

func (s *stubService) ProcessarFaturamento(parceiroFile io.Reader, baseFile io.Reader, parceiroFilename string, params domain.ParametrosProcessamento) ([]byte, *domain.EstatisticasProcessamento, error) {
	s.params = params
	return s.saida, s.stats, s.err
}

func novoRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/faturamento/processar", NewFaturamentoHandler(svc).HandleProcessarFaturamento)
	return router
}

type formFaturamento struct {
	parceiro, base string // nomes de arquivo; vazio omite o campo
	campos         map[string]string
}

func requisicao(t *testing.T, form formFaturamento) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if form.parceiro != "" {
		parte, err := writer.CreateFormFile("parceiroFile", form.parceiro)
		require.NoError(t, err)
		_, err = parte.Write([]byte("conteudo"))
		require.NoError(t, err)
	}
	if form.base != "" {
		parte, err := writer.CreateFormFile("baseFile", form.base)
		require.NoError(t, err)
		_, err = parte.Write([]byte("conteudo"))
		require.NoError(t, err)
	}
	for k, v := range form.campos {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/faturamento/processar", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func camposValidos() map[string]string {
	return map[string]string{
		"targetMonth": "fev.26",
		"dataInicio":  "01/01/2026",
		"dataFim":     "31/01/2026",
	}
}

func TestHandleProcessarFaturamento(t *testing.T) {
	svc := &stubService{
		saida: []byte("xlsx-bytes"),
		stats: &domain.EstatisticasProcessamento{ParcelasCopiadas: 3, Inadimplentes: 1},
	}
	router := novoRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, requisicao(t, formFaturamento{
		parceiro: "parceiro.xlsx",
		base:     "base.xlsx",
		campos:   camposValidos(),
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "BASE_Atualizada_FEV.26_")
	assert.Contains(t, rec.Header().Get("X-Processing-Stats"), `"parcelas_copiadas":3`)

	assert.Equal(t, "FEV.26", svc.params.MesAlvo, "rótulo normalizado para caixa alta")
	assert.Equal(t, 1, svc.params.DataInicio.Day())
	assert.Equal(t, 31, svc.params.DataFim.Day())
}

func TestHandleProcessarFaturamentoArquivoAusente(t *testing.T) {
	router := novoRouter(&stubService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, requisicao(t, formFaturamento{
		base:   "base.xlsx",
		campos: camposValidos(),
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleProcessarFaturamentoExtensaoInvalida(t *testing.T) {
	router := novoRouter(&stubService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, requisicao(t, formFaturamento{
		parceiro: "parceiro.csv",
		base:     "base.xlsx",
		campos:   camposValidos(),
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleProcessarFaturamentoDatasInvalidas(t *testing.T) {
	router := novoRouter(&stubService{})

	campos := camposValidos()
	campos["dataInicio"] = "2026-01-01"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, requisicao(t, formFaturamento{
		parceiro: "parceiro.xlsx", base: "base.xlsx", campos: campos,
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	campos = camposValidos()
	campos["dataFim"] = "01/12/2025" // anterior ao início
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, requisicao(t, formFaturamento{
		parceiro: "parceiro.xlsx", base: "base.xlsx", campos: campos,
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleProcessarFaturamentoErroDoServico(t *testing.T) {
	router := novoRouter(&stubService{err: errors.New("aba \"Parcelas Pagas\" não encontrada")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, requisicao(t, formFaturamento{
		parceiro: "parceiro.xlsx",
		base:     "base.xlsx",
		campos:   camposValidos(),
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Parcelas Pagas")
}
