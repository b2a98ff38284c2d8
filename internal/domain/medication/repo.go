package medication

import (
	"context"

	"github.com/clinica/clinica/internal/platform/apperr"
)

var (
	ErrNotFound        = apperr.NotFound("Medicação não encontrada")
	ErrPatientNotFound = apperr.NotFound("Paciente não encontrado")
)

// Repository persists medications. Lookups by id return ErrNotFound when the
// row does not exist.
type Repository interface {
	Create(ctx context.Context, s *Medication) error
	GetByID(ctx context.Context, id int64) (*Medication, error)
	GetForUpdate(ctx context.Context, id int64) (*Medication, error)
	ListByPatient(ctx context.Context, cpf string) ([]*Medication, error)
	Update(ctx context.Context, s *Medication) error
	Delete(ctx context.Context, id int64) error
	DeleteByPatient(ctx context.Context, cpf string) (int64, error)
}

// PatientChecker reports whether a patient exists.
type PatientChecker interface {
	Exists(ctx context.Context, cpf string) (bool, error)
}
