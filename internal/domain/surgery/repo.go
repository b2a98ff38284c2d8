package surgery

import (
	"context"

	"github.com/clinica/clinica/internal/platform/apperr"
)

var (
	ErrNotFound        = apperr.NotFound("Cirurgia não encontrada")
	ErrPatientNotFound = apperr.NotFound("Paciente não encontrado")
)

// Repository persists surgeries. Lookups by id return ErrNotFound when the
// row does not exist.
type Repository interface {
	Create(ctx context.Context, s *Surgery) error
	GetByID(ctx context.Context, id int64) (*Surgery, error)
	GetForUpdate(ctx context.Context, id int64) (*Surgery, error)
	ListByPatient(ctx context.Context, cpf string) ([]*Surgery, error)
	Update(ctx context.Context, s *Surgery) error
	Delete(ctx context.Context, id int64) error
	DeleteByPatient(ctx context.Context, cpf string) (int64, error)
}

// PatientChecker reports whether a patient exists.
type PatientChecker interface {
	Exists(ctx context.Context, cpf string) (bool, error)
}
