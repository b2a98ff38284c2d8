package appointment

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/internal/platform/sqldb"
	"github.com/clinica/clinica/internal/platform/validation"
	"github.com/clinica/clinica/pkg/mergepatch"
)

// Service manages appointments. Patient identifiers are checked for format
// only; this service has no access to the patient store.
type Service struct {
	repo Repository
	tx   sqldb.TxRunner
}

func NewService(repo Repository, tx sqldb.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

func (s *Service) Create(ctx context.Context, cpf string, in *CreateInput) (*Appointment, error) {
	if err := validation.CPF("cpf", cpf); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	a := in.appointment(cpf)
	if err := validation.Struct(a); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return nil, apperr.WithMessage(err, apperr.KindConflict, "Violação de integridade ao criar consulta")
	}

	zerolog.Ctx(ctx).Debug().Int64("consulta_id", a.ID).Str("cpf", cpf).Str("dia", a.Dia).Msg("consulta criada")
	return a, nil
}

func (s *Service) ListByPatient(ctx context.Context, cpf string) ([]*Appointment, error) {
	if err := validation.CPF("cpf", cpf); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, cpf)
}

// List returns every appointment, or the ones on dia when it is not blank.
// The day is matched exactly.
func (s *Service) List(ctx context.Context, dia string) ([]*Appointment, error) {
	return s.repo.List(ctx, strings.TrimSpace(dia))
}

func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// Patch applies the members present in doc. cpfPaciente is accepted as an
// alias of cpf_paciente.
func (s *Service) Patch(ctx context.Context, id int64, doc mergepatch.Document) (*Appointment, error) {
	doc = doc.Alias(cpfField, "cpfPaciente").Pick(PatchFields...)
	if len(doc) == 0 {
		return nil, apperr.BadRequest("Nenhum campo para atualizar")
	}

	var out *Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Apply(doc); err != nil {
			return err
		}
		if err := validation.Struct(a); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, apperr.WithMessage(err, apperr.KindConflict, "Violação de integridade ao atualizar consulta")
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().Int64("consulta_id", id).Msg("consulta removida")
	return nil
}
