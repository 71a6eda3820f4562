package faturamento

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Abreviações PT-BR usadas nos rótulos de mês (formato MMM.YY, ex.: FEV.26).
var mesesAbreviados = []string{"JAN", "FEV", "MAR", "ABR", "MAI", "JUN", "JUL", "AGO", "SET", "OUT", "NOV", "DEZ"}

// parseRotuloMes converte um rótulo MMM.YY no primeiro dia do mês.
func parseRotuloMes(rotulo string) (time.Time, error) {
	partes := strings.Split(strings.TrimSpace(rotulo), ".")
	if len(partes) != 2 {
		return time.Time{}, fmt.Errorf("rótulo de mês inválido: %q (esperado MMM.YY)", rotulo)
	}

	mes := 0
	for i, abrev := range mesesAbreviados {
		if strings.EqualFold(partes[0], abrev) {
			mes = i + 1
			break
		}
	}
	if mes == 0 {
		return time.Time{}, fmt.Errorf("mês desconhecido no rótulo %q", rotulo)
	}

	ano, err := strconv.Atoi(partes[1])
	if err != nil || len(partes[1]) != 2 {
		return time.Time{}, fmt.Errorf("ano inválido no rótulo %q", rotulo)
	}

	return time.Date(2000+ano, time.Month(mes), 1, 0, 0, 0, 0, time.UTC), nil
}

// formatarRotuloMes devolve o rótulo MMM.YY de uma data.
func formatarRotuloMes(t time.Time) string {
	return fmt.Sprintf("%s.%02d", mesesAbreviados[int(t.Month())-1], t.Year()%100)
}

// rotuloMesesAtras recua n meses de calendário, com virada de ano.
func rotuloMesesAtras(rotulo string, n int) (string, error) {
	t, err := parseRotuloMes(rotulo)
	if err != nil {
		return "", err
	}
	return formatarRotuloMes(t.AddDate(0, -n, 0)), nil
}
