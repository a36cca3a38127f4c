package models

// JSON-schema-shaped maps constraining the structured model responses. The
// field names here are the canonical wire vocabulary: extraction results,
// drafts, and edit instructions all speak in these keys.

// ParteSchema describes one party to the contract.
func ParteSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"nome":            map[string]any{"type": "string"},
			"cpf_cnpj":        map[string]any{"type": "string", "nullable": true},
			"rg":              map[string]any{"type": "string", "nullable": true},
			"papel":           map[string]any{"type": "string"},
			"data_nascimento": map[string]any{"type": "string", "nullable": true},
			"filiacao": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"estado_civil": map[string]any{"type": "string"},
			"profissao":    map[string]any{"type": "string"},
			"endereco":     map[string]any{"type": "string"},
		},
		"required": []any{"nome", "papel", "estado_civil", "profissao", "endereco"},
	}
}

// ImovelSchema describes the property being transacted.
func ImovelSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"endereco_completo": map[string]any{"type": "string"},
			"matricula":         map[string]any{"type": "string", "nullable": true},
			"cidade":            map[string]any{"type": "string"},
			"area_total":        map[string]any{"type": "string", "nullable": true},
			"imobiliaria":       map[string]any{"type": "string"},
		},
		"required": []any{"endereco_completo", "cidade", "imobiliaria"},
	}
}

// ParcelaSchema describes one installment in a payment schedule.
func ParcelaSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tipo": map[string]any{
				"type":        "string",
				"description": "Tipo da parcela: E (Entrada), P (Parcela Mensal), B (Balão/Intermediária)",
			},
			"indice": map[string]any{
				"type":        "string",
				"description": "Número da parcela, ex: 1/360",
			},
			"vencimento": map[string]any{"type": "string"},
			"valor":      map[string]any{"type": "number"},
			"status": map[string]any{
				"type":        "string",
				"nullable":    true,
				"description": "Ex: Pago, Aberto, Vencido",
			},
		},
		"required": []any{"tipo", "indice", "vencimento", "valor"},
	}
}

// DocumentTypes is the closed set of document classifications the extraction
// model may assign.
func DocumentTypes() []any {
	return []any{
		"Matrícula de Imóvel",
		"Contrato de Compra e Venda",
		"Contrato de Locação",
		"Extrato Financeiro / Demonstrativo de Pagamento",
		"RG", "CNH", "Certidão de Nascimento", "Certidão de Casamento",
		"Certidão de Óbito", "Certidão de Divórcio", "Comprovante de Endereço",
		"Boleto/IPTU", "Outro",
	}
}

// DocumentoSchema describes one identified document inside an uploaded file.
func DocumentoSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tipo_documento": map[string]any{
				"type": "string",
				"enum": DocumentTypes(),
			},
			"numero_documento": map[string]any{"type": "string", "nullable": true},
			"data_emissao":     map[string]any{"type": "string", "nullable": true},
			"valor_monetario":  map[string]any{"type": "number", "nullable": true},
			"partes": map[string]any{
				"type":  "array",
				"items": ParteSchema(),
			},
			"imovel": func() map[string]any {
				s := ImovelSchema()
				s["nullable"] = true
				return s
			}(),
			"cronograma_financeiro": map[string]any{
				"type":        "array",
				"items":       ParcelaSchema(),
				"description": "Lista de parcelas detalhadas encontradas",
			},
			"resumo_conteudo": map[string]any{"type": "string"},
		},
		"required": []any{"tipo_documento", "resumo_conteudo"},
	}
}

// DraftSchema describes the consolidated contract draft.
func DraftSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"partes": map[string]any{
				"type":        "array",
				"items":       ParteSchema(),
				"description": "Partes consolidadas do contrato",
			},
			"imovel": func() map[string]any {
				s := ImovelSchema()
				s["nullable"] = true
				s["description"] = "Dados consolidados do imóvel"
				return s
			}(),
			"valor_monetario": map[string]any{
				"type":        "number",
				"nullable":    true,
				"description": "Valor total do negócio",
			},
			"forma_pagamento": map[string]any{"type": "string", "nullable": true},
			"cronograma_financeiro": map[string]any{
				"type":  "array",
				"items": ParcelaSchema(),
			},
			"pendencias": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Dados ausentes ou inconsistentes",
			},
		},
		"required": []any{"partes", "pendencias"},
	}
}

// EditDetectionSchema describes the classifier output for distinguishing an
// edit instruction from ordinary conversation.
func EditDetectionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_edit_instruction": map[string]any{"type": "boolean"},
			"instruction": map[string]any{
				"type":     "object",
				"nullable": true,
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "Caminho do campo, ex: partes[0].nome",
					},
					"new_value":   map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
				},
				"required": []any{"path", "new_value"},
			},
		},
		"required": []any{"is_edit_instruction"},
	}
}
