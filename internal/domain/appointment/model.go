package appointment

import (
	"time"

	"github.com/clinica/clinica/internal/platform/validation"
	"github.com/clinica/clinica/pkg/mergepatch"
)

// Appointment maps to the consultas table. CPFPaciente is stored as plain
// text: patients live in another service and database.
type Appointment struct {
	ID          int64     `json:"id"`
	CPFPaciente string    `json:"cpfPaciente" validate:"required,cpf"`
	Dia         string    `json:"dia" validate:"required,min=8,max=10"`
	Hora        string    `json:"hora" validate:"required,min=4,max=8"`
	Descricao   string    `json:"descricao" validate:"required,max=255"`
	Estado      *string   `json:"estado" validate:"omitempty,max=40"`
	Observacoes *string   `json:"observacoes" validate:"omitempty,max=255"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateInput is the body of POST /pacientes/:cpf/consultas. The patient may
// be sent as cpf_paciente or cpfPaciente; either way the path wins.
type CreateInput struct {
	CPFPaciente      *string `json:"cpf_paciente" validate:"omitempty,cpf"`
	CPFPacienteCamel *string `json:"cpfPaciente" validate:"omitempty,cpf"`
	Dia              string  `json:"dia"`
	Hora             string  `json:"hora"`
	Descricao        string  `json:"descricao"`
	Estado           *string `json:"estado"`
	Observacoes      *string `json:"observacoes"`
}

func (in *CreateInput) appointment(cpf string) *Appointment {
	return &Appointment{
		CPFPaciente: cpf,
		Dia:         in.Dia,
		Hora:        in.Hora,
		Descricao:   in.Descricao,
		Estado:      in.Estado,
		Observacoes: in.Observacoes,
	}
}

const cpfField = "cpf_paciente"

// PatchFields are the members a PATCH body may change, after the camelCase
// alias has been folded into cpf_paciente.
var PatchFields = []string{cpfField, "dia", "hora", "descricao", "estado", "observacoes"}

func (a *Appointment) Apply(doc mergepatch.Document) error {
	required := []struct {
		name string
		dst  *string
	}{
		{cpfField, &a.CPFPaciente},
		{"dia", &a.Dia},
		{"hora", &a.Hora},
		{"descricao", &a.Descricao},
	}
	for _, f := range required {
		if err := validation.SetRequired(doc, f.name, f.dst); err != nil {
			return err
		}
	}
	if err := validation.Set(doc, "estado", &a.Estado); err != nil {
		return err
	}
	return validation.Set(doc, "observacoes", &a.Observacoes)
}
