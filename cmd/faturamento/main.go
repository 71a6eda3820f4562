// cmd/faturamento/main.go
package main

import (
	"log"

	"faturamento-service/internal/api/handlers"
	"faturamento-service/internal/api/responses"
	"faturamento-service/internal/core/faturamento"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	responses.InitLogger()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	faturamentoService := faturamento.NewService(logger)
	faturamentoHandler := handlers.NewFaturamentoHandler(faturamentoService)

	router := gin.Default()

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/faturamento/processar", faturamentoHandler.HandleProcessarFaturamento)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "faturamento-service"})
	})

	const port = "8084"
	log.Printf("🚀 Faturamento Service (Go) iniciado e escutando na porta %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Falha ao iniciar o servidor de faturamento: ", err)
	}
}
