package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"faturamento-service/internal/api/responses"
	"faturamento-service/internal/core/faturamento"
	"faturamento-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// FaturamentoHandler lida com as requisições da API do ciclo de faturamento.
type FaturamentoHandler struct {
	service faturamento.Service
}

// NewFaturamentoHandler cria um novo handler de faturamento.
func NewFaturamentoHandler(service faturamento.Service) *FaturamentoHandler {
	return &FaturamentoHandler{
		service: service,
	}
}

const formatoDataForm = "02/01/2006"

// HandleProcessarFaturamento recebe o arquivo do parceiro e o arquivo BASE,
// roda o ciclo mensal e devolve a BASE atualizada para download. As
// estatísticas da execução seguem no header X-Processing-Stats.
func (h *FaturamentoHandler) HandleProcessarFaturamento(c *gin.Context) {
	parceiroFileHeader, err := c.FormFile("parceiroFile")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Arquivo do Parceiro (.xls, .xlsx) não encontrado ou inválido")
		return
	}

	baseFileHeader, err := c.FormFile("baseFile")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Arquivo BASE (.xlsx) não encontrado ou inválido")
		return
	}

	ext := strings.ToLower(filepath.Ext(parceiroFileHeader.Filename))
	if ext != ".xls" && ext != ".xlsx" && ext != ".xlsm" {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Extensão de arquivo do parceiro não suportada: %s", ext))
		return
	}
	if extBase := strings.ToLower(filepath.Ext(baseFileHeader.Filename)); extBase != ".xlsx" && extBase != ".xlsm" {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Extensão de arquivo BASE não suportada: %s", extBase))
		return
	}

	mesAlvo := strings.ToUpper(strings.TrimSpace(c.PostForm("targetMonth")))
	if mesAlvo == "" {
		responses.Error(c, http.StatusBadRequest, "Campo targetMonth (formato MMM.AA, ex.: FEV.26) é obrigatório")
		return
	}

	dataInicio, err := time.Parse(formatoDataForm, strings.TrimSpace(c.PostForm("dataInicio")))
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Campo dataInicio inválido; use o formato dd/mm/aaaa")
		return
	}
	dataFim, err := time.Parse(formatoDataForm, strings.TrimSpace(c.PostForm("dataFim")))
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Campo dataFim inválido; use o formato dd/mm/aaaa")
		return
	}
	if dataFim.Before(dataInicio) {
		responses.Error(c, http.StatusBadRequest, "Campo dataFim não pode ser anterior a dataInicio")
		return
	}

	params := domain.ParametrosProcessamento{
		MesAlvo:         mesAlvo,
		DataInicio:      dataInicio,
		DataFim:         dataFim,
		ColunaDataCiclo: strings.ToUpper(strings.TrimSpace(c.PostForm("colunaData"))),
	}

	parceiroFile, err := parceiroFileHeader.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível abrir o arquivo do Parceiro")
		return
	}
	defer parceiroFile.Close()

	baseFile, err := baseFileHeader.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível abrir o arquivo BASE")
		return
	}
	defer baseFile.Close()

	saida, stats, err := h.service.ProcessarFaturamento(parceiroFile, baseFile, parceiroFileHeader.Filename, params)
	if err != nil {
		responses.Error(c, http.StatusUnprocessableEntity, "Erro ao processar o ciclo de faturamento", err.Error())
		return
	}

	if statsJSON, err := json.Marshal(stats); err == nil {
		c.Header("X-Processing-Stats", string(statsJSON))
	}

	fileName := fmt.Sprintf("BASE_Atualizada_%s_%s.xlsx", mesAlvo, time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", saida)
}
