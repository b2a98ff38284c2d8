package allergy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/internal/platform/validation"
	"github.com/clinica/clinica/pkg/mergepatch"
)

// Service provides the allergy operations of the patient store.
type Service struct {
	repo     Repository
	patients PatientChecker
	tx       db.TxRunner
}

func NewService(repo Repository, patients PatientChecker, tx db.TxRunner) *Service {
	return &Service{repo: repo, patients: patients, tx: tx}
}

func (s *Service) requirePatient(ctx context.Context, cpf string) error {
	ok, err := s.patients.Exists(ctx, cpf)
	if err != nil {
		return fmt.Errorf("check patient %s: %w", cpf, err)
	}
	if !ok {
		return ErrPatientNotFound
	}
	return nil
}

// Create records an allergy for the patient identified by cpf. Any owner in
// the payload is replaced by cpf.
func (s *Service) Create(ctx context.Context, cpf string, in *Allergy) (*Allergy, error) {
	if err := validation.CPF("cpf", cpf); err != nil {
		return nil, err
	}
	in.ID = 0
	in.PacienteCPF = cpf
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.requirePatient(ctx, cpf); err != nil {
			return err
		}
		return s.repo.Create(ctx, in)
	})
	if err != nil {
		return nil, apperr.WithMessage(err, apperr.KindConflict, "Violação de integridade ao criar alergia")
	}

	zerolog.Ctx(ctx).Debug().Int64("alergia_id", in.ID).Str("cpf", cpf).Msg("alergia registrada")
	return in, nil
}

// ListByPatient returns every allergy of the patient, oldest first.
func (s *Service) ListByPatient(ctx context.Context, cpf string) ([]*Allergy, error) {
	if err := validation.CPF("cpf", cpf); err != nil {
		return nil, err
	}
	if err := s.requirePatient(ctx, cpf); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, cpf)
}

// owned rejects an allergy that does not belong to owner. An empty owner
// accepts any allergy.
func owned(al *Allergy, owner string) error {
	if owner != "" && al.PacienteCPF != owner {
		return ErrNotFound
	}
	return nil
}

func checkOwner(owner string) error {
	if owner == "" {
		return nil
	}
	return validation.CPF("cpf", owner)
}

// Get returns an allergy by id, optionally scoped to the owning patient.
func (s *Service) Get(ctx context.Context, owner string, id int64) (*Allergy, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	al, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := owned(al, owner); err != nil {
		return nil, err
	}
	return al, nil
}

// Patch applies the members present in doc. A document with no recognised
// member is rejected before the store is touched.
func (s *Service) Patch(ctx context.Context, owner string, id int64, doc mergepatch.Document) (*Allergy, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	doc = doc.Pick(PatchFields...)
	if len(doc) == 0 {
		return nil, apperr.BadRequest("Nenhum campo para atualizar")
	}

	var out *Allergy
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		al, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := owned(al, owner); err != nil {
			return err
		}
		if err := al.Apply(doc); err != nil {
			return err
		}
		if err := validation.Struct(al); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, al); err != nil {
			return err
		}
		out = al
		return nil
	})
	if err != nil {
		return nil, apperr.WithMessage(err, apperr.KindConflict, "Violação de integridade ao atualizar alergia")
	}
	return out, nil
}

// Delete removes an allergy, optionally scoped to the owning patient.
func (s *Service) Delete(ctx context.Context, owner string, id int64) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		al, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := owned(al, owner); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().Int64("alergia_id", id).Msg("alergia removida")
	return nil
}
