package patient

import (
	"context"

	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/pkg/pagination"
)

var ErrNotFound = apperr.NotFound("Paciente não encontrado")

// Repository persists patients. Lookups by CPF return ErrNotFound when the
// row does not exist.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	Exists(ctx context.Context, cpf string) (bool, error)
	Get(ctx context.Context, cpf string) (*Patient, error)
	GetForUpdate(ctx context.Context, cpf string) (*Patient, error)
	// GetDetail loads the patient and all three collections in one round trip.
	GetDetail(ctx context.Context, cpf string) (*Detail, error)
	// List filters by a case-insensitive substring of name or CPF. An empty
	// query matches every patient; an uncapped page returns every match.
	List(ctx context.Context, query string, page pagination.Params) ([]*Summary, error)
	ListDependents(ctx context.Context, guardian string) ([]*Summary, error)
	Update(ctx context.Context, p *Patient) error
	// ClearGuardian detaches every dependent of guardian and returns how many
	// rows changed.
	ClearGuardian(ctx context.Context, guardian string) (int64, error)
	Delete(ctx context.Context, cpf string) error
}
