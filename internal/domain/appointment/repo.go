package appointment

import (
	"context"

	"github.com/clinica/clinica/internal/platform/apperr"
)

var ErrNotFound = apperr.NotFound("Consulta não encontrada")

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	GetForUpdate(ctx context.Context, id int64) (*Appointment, error)
	ListByPatient(ctx context.Context, cpf string) ([]*Appointment, error)
	// List returns every appointment, or only those on dia when it is set.
	List(ctx context.Context, dia string) ([]*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id int64) error
}
