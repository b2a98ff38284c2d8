package medication

import (
	"github.com/clinica/clinica/internal/platform/validation"
	"github.com/clinica/clinica/pkg/mergepatch"
)

// Medication maps to the medicacoes table. PacienteCPF is always bound from the
// owning patient, never from the request body.
type Medication struct {
	ID          int64   `json:"id"`
	PacienteCPF string  `json:"paciente_cpf"`
	Nome        string  `json:"nome" validate:"required,max=120"`
	Dosagem     *string `json:"dosagem" validate:"omitempty,max=60"`
	Frequencia  *string `json:"frequencia" validate:"omitempty,max=60"`
}

// PatchFields are the members a PATCH body may change.
var PatchFields = []string{"nome", "dosagem", "frequencia"}

// Apply copies the members present in doc onto m.
func (m *Medication) Apply(doc mergepatch.Document) error {
	if err := validation.SetRequired(doc, "nome", &m.Nome); err != nil {
		return err
	}
	if err := validation.Set(doc, "dosagem", &m.Dosagem); err != nil {
		return err
	}
	return validation.Set(doc, "frequencia", &m.Frequencia)
}
