package models

// Instruction is a single path-addressed edit to the contract data.
// Instructions issued before a draft exists are queued and replayed during
// draft preparation; afterwards they apply directly to the draft.
type Instruction struct {
	// Path addresses the field to change, e.g. "partes[0].nome" or
	// "imovel.endereco_completo".
	Path string `json:"path" validate:"required"`

	// NewValue is the replacement value. Type follows the target field.
	NewValue any `json:"new_value"`

	// Description is a human-readable summary of the change, shown in the
	// conversation log.
	Description string `json:"description,omitempty"`
}

// InstructionFromMap builds an Instruction from a decoded JSON object.
// Returns nil when the map carries no usable path.
func InstructionFromMap(m map[string]any) *Instruction {
	if m == nil {
		return nil
	}
	path, _ := m["path"].(string)
	if path == "" {
		return nil
	}
	inst := &Instruction{
		Path:     path,
		NewValue: m["new_value"],
	}
	if desc, ok := m["description"].(string); ok {
		inst.Description = desc
	}
	return inst
}
