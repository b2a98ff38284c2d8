package allergy

import (
	"github.com/clinica/clinica/internal/platform/validation"
	"github.com/clinica/clinica/pkg/mergepatch"
)

// Allergy maps to the alergias table.
type Allergy struct {
	ID          int64   `json:"id"`
	PacienteCPF string  `json:"paciente_cpf"`
	Agente      string  `json:"agente" validate:"required,max=120"`
	Severidade  *string `json:"severidade" validate:"omitempty,max=40"`
}

var PatchFields = []string{"agente", "severidade"}

func (a *Allergy) Apply(doc mergepatch.Document) error {
	if err := validation.SetRequired(doc, "agente", &a.Agente); err != nil {
		return err
	}
	return validation.Set(doc, "severidade", &a.Severidade)
}
