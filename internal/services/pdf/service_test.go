package pdf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestConvertMarkdownToPDF(t *testing.T) {
	logger := arbor.NewLogger()
	service := NewService(logger)

	tests := []struct {
		name     string
		markdown string
		title    string
	}{
		{
			name:     "basic contract shape",
			markdown: "# CONTRATO DE COMPRA E VENDA\n\nPelo presente instrumento particular, as partes abaixo qualificadas.\n\n- Vendedor: João da Silva\n- Comprador: Maria Souza",
			title:    "Contrato de Compra e Venda",
		},
		{
			name:     "empty markdown",
			markdown: "",
			title:    "Vazio",
		},
		{
			name:     "portuguese accents survive",
			markdown: "# CONTRATO\n\nImóvel situado em Goiânia, com matrícula nº 12.345, área total de 250m².",
			title:    "Acentuação",
		},
		{
			name: "payment schedule table",
			markdown: `# CONTRATO

## Cronograma Financeiro

| Tipo | Índice | Vencimento | Valor |
|------|--------|------------|-------|
| E | 1/36 | 10/01/2026 | R$ 50.000,00 |
| P | 2/36 | 10/02/2026 | R$ 1.500,00 |`,
			title: "Cronograma",
		},
		{
			name:     "bold and italic clauses",
			markdown: "**Cláusula Primeira** - O *objeto* deste contrato.",
			title:    "Cláusulas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfBytes, err := service.ConvertMarkdownToPDF(tt.markdown, tt.title)
			assert.NoError(t, err)
			assert.NotEmpty(t, pdfBytes)
			assert.Equal(t, "%PDF", string(pdfBytes[:4]))
		})
	}
}

func TestConvertMarkdownToPDF_LongSchedulePaginates(t *testing.T) {
	logger := arbor.NewLogger()
	service := NewService(logger)

	markdown := "# CONTRATO\n\n| Índice | Vencimento | Valor |\n|---|---|---|\n"
	for i := 1; i <= 120; i++ {
		markdown += fmt.Sprintf("| %d/120 | 10/01/2026 | R$ 1.500,00 |\n", i)
	}

	pdfBytes, err := service.ConvertMarkdownToPDF(markdown, "Cronograma Longo")
	assert.NoError(t, err)
	assert.NotEmpty(t, pdfBytes)
}
