package allergy

import (
	"context"

	"github.com/clinica/clinica/internal/platform/apperr"
)

var (
	ErrNotFound        = apperr.NotFound("Alergia não encontrada")
	ErrPatientNotFound = apperr.NotFound("Paciente não encontrado")
)

// Repository persists allergies. Lookups by id return ErrNotFound when the
// row does not exist.
type Repository interface {
	Create(ctx context.Context, a *Allergy) error
	GetByID(ctx context.Context, id int64) (*Allergy, error)
	GetForUpdate(ctx context.Context, id int64) (*Allergy, error)
	ListByPatient(ctx context.Context, cpf string) ([]*Allergy, error)
	Update(ctx context.Context, a *Allergy) error
	Delete(ctx context.Context, id int64) error
	DeleteByPatient(ctx context.Context, cpf string) (int64, error)
}

// PatientChecker reports whether a patient exists.
type PatientChecker interface {
	Exists(ctx context.Context, cpf string) (bool, error)
}
