package surgery

import (
	"github.com/clinica/clinica/internal/platform/validation"
	"github.com/clinica/clinica/pkg/mergepatch"
)

// Surgery maps to the cirurgias table. PacienteCPF is always bound from the
// owning patient, never from the request body.
type Surgery struct {
	ID          int64   `json:"id"`
	PacienteCPF string  `json:"paciente_cpf"`
	Nome        string  `json:"nome" validate:"required,max=120"`
	Data        *string `json:"data" validate:"omitempty,max=10"`
	Observacoes *string `json:"observacoes" validate:"omitempty,max=255"`
}

// PatchFields are the members a PATCH body may change.
var PatchFields = []string{"nome", "data", "observacoes"}

// Apply copies the members present in doc onto s.
func (s *Surgery) Apply(doc mergepatch.Document) error {
	if err := validation.SetRequired(doc, "nome", &s.Nome); err != nil {
		return err
	}
	if err := validation.Set(doc, "data", &s.Data); err != nil {
		return err
	}
	return validation.Set(doc, "observacoes", &s.Observacoes)
}
