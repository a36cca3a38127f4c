package models

// Draft is the consolidated contract data computed from the session's
// documents plus any applied instructions. Its shape is controlled by the
// drafting schema (partes, imovel, valor_monetario, forma_pagamento,
// cronograma_financeiro, pendencias) but the conversation core treats it as
// an opaque nested value: once non-nil it is the sole target of
// path-addressed edits, superseding the DocumentSet.
type Draft map[string]any

// Pendencias returns the outstanding issues the drafting step flagged, if
// any. These are gaps or conflicts in the source documents the user must
// resolve before the contract is generated.
func (d Draft) Pendencias() []string {
	if d == nil {
		return nil
	}
	raw, ok := d["pendencias"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
