package patient

import (
	"time"

	"github.com/clinica/clinica/internal/domain/allergy"
	"github.com/clinica/clinica/internal/domain/medication"
	"github.com/clinica/clinica/internal/domain/surgery"
	"github.com/clinica/clinica/internal/platform/validation"
	"github.com/clinica/clinica/pkg/mergepatch"
)

// Patient maps to the pacientes table. CPF is the primary key and never
// changes after creation. ResponsavelCPF optionally points at the patient's
// guardian, another row of the same table.
type Patient struct {
	CPF            string    `json:"cpf" validate:"required,cpf"`
	NomeCompleto   string    `json:"nome_completo" validate:"required,min=3,max=150"`
	DataNascimento *string   `json:"data_nascimento" validate:"omitempty,max=10"`
	Telefone       *string   `json:"telefone" validate:"omitempty,max=20"`
	Email          *string   `json:"email" validate:"omitempty,email,max=120"`
	ResponsavelCPF *string   `json:"responsavel_cpf" validate:"omitempty,cpf"`
	CreatedAt      time.Time `json:"created_at"`
}

// Summary is the light representation used by lookups and listings.
type Summary struct {
	CPF            string  `json:"cpf"`
	NomeCompleto   string  `json:"nome_completo"`
	DataNascimento *string `json:"data_nascimento"`
}

func (p *Patient) Summary() *Summary {
	return &Summary{CPF: p.CPF, NomeCompleto: p.NomeCompleto, DataNascimento: p.DataNascimento}
}

// Detail is a patient together with its clinical history. The collections
// are never nil so they always encode as arrays.
type Detail struct {
	Patient
	Cirurgias  []*surgery.Surgery       `json:"cirurgias"`
	Medicacoes []*medication.Medication `json:"medicacoes"`
	Alergias   []*allergy.Allergy       `json:"alergias"`
}

func newDetail(p *Patient) *Detail {
	return &Detail{
		Patient:    *p,
		Cirurgias:  []*surgery.Surgery{},
		Medicacoes: []*medication.Medication{},
		Alergias:   []*allergy.Allergy{},
	}
}

// CreateInput is the body of POST /pacientes. The nested collections are
// optional and are stored in the same transaction as the patient.
type CreateInput struct {
	Patient
	Cirurgia  []*surgery.Surgery       `json:"cirurgia" validate:"dive,required"`
	Medicacao []*medication.Medication `json:"medicacao" validate:"dive,required"`
	Alergia   []*allergy.Allergy       `json:"alergia" validate:"dive,required"`
}

// PatchFields are the members a PATCH body may change. The nested
// collections are managed through their own endpoints.
var PatchFields = []string{"nome_completo", "data_nascimento", "telefone", "email", "responsavel_cpf"}

// Apply copies the members present in doc onto p.
func (p *Patient) Apply(doc mergepatch.Document) error {
	if err := validation.SetRequired(doc, "nome_completo", &p.NomeCompleto); err != nil {
		return err
	}
	optional := []struct {
		name string
		dst  **string
	}{
		{"data_nascimento", &p.DataNascimento},
		{"telefone", &p.Telefone},
		{"email", &p.Email},
		{"responsavel_cpf", &p.ResponsavelCPF},
	}
	for _, f := range optional {
		if err := validation.Set(doc, f.name, f.dst); err != nil {
			return err
		}
	}
	return nil
}
