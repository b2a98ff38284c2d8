package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clinica/clinica/internal/domain/allergy"
	"github.com/clinica/clinica/internal/domain/medication"
	"github.com/clinica/clinica/internal/domain/surgery"
	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/internal/platform/validation"
	"github.com/clinica/clinica/pkg/mergepatch"
	"github.com/clinica/clinica/pkg/pagination"
)

var (
	ErrGuardianSelf    = apperr.Unprocessable("responsavel_cpf", "responsavel_cpf não pode ser o próprio CPF")
	ErrGuardianMissing = apperr.Unprocessable("responsavel_cpf", "CPF do responsável não consta na nossa base de dados")
	ErrNothingToUpdate = apperr.BadRequest("Nenhum campo para atualizar")
)

// Service writes the patient aggregate: the patient row, its surgeries,
// medications and allergies, and the guardian link.
type Service struct {
	patients    Repository
	surgeries   surgery.Repository
	medications medication.Repository
	allergies   allergy.Repository
	tx          db.TxRunner
}

func NewService(patients Repository, surgeries surgery.Repository, medications medication.Repository, allergies allergy.Repository, tx db.TxRunner) *Service {
	return &Service{
		patients:    patients,
		surgeries:   surgeries,
		medications: medications,
		allergies:   allergies,
		tx:          tx,
	}
}

// checkGuardian enforces the guardian rules for patient cpf. A nil guardian
// always passes. Only direct self-reference is rejected; longer cycles are
// not looked for.
func (s *Service) checkGuardian(ctx context.Context, cpf string, guardian *string) error {
	if guardian == nil {
		return nil
	}
	if err := validation.CPF("responsavel_cpf", *guardian); err != nil {
		return err
	}
	if *guardian == cpf {
		return ErrGuardianSelf
	}
	ok, err := s.patients.Exists(ctx, *guardian)
	if err != nil {
		return fmt.Errorf("check responsavel %s: %w", *guardian, err)
	}
	if !ok {
		return ErrGuardianMissing
	}
	return nil
}

// Create stores a patient and its nested collections in one transaction.
// Nested rows always belong to the new patient, whatever their payload says.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*Detail, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p := &in.Patient
	if p.ResponsavelCPF != nil && *p.ResponsavelCPF == p.CPF {
		return nil, ErrGuardianSelf
	}

	var out *Detail
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checkGuardian(ctx, p.CPF, p.ResponsavelCPF); err != nil {
			return err
		}
		if err := s.patients.Create(ctx, p); err != nil {
			return err
		}

		d := newDetail(p)
		for _, c := range in.Cirurgia {
			c.ID, c.PacienteCPF = 0, p.CPF
			if err := s.surgeries.Create(ctx, c); err != nil {
				return err
			}
			d.Cirurgias = append(d.Cirurgias, c)
		}
		for _, m := range in.Medicacao {
			m.ID, m.PacienteCPF = 0, p.CPF
			if err := s.medications.Create(ctx, m); err != nil {
				return err
			}
			d.Medicacoes = append(d.Medicacoes, m)
		}
		for _, a := range in.Alergia {
			a.ID, a.PacienteCPF = 0, p.CPF
			if err := s.allergies.Create(ctx, a); err != nil {
				return err
			}
			d.Alergias = append(d.Alergias, a)
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("cpf", p.CPF).
		Int("cirurgias", len(out.Cirurgias)).
		Int("medicacoes", len(out.Medicacoes)).
		Int("alergias", len(out.Alergias)).
		Msg("paciente criado")
	return out, nil
}

// Get returns the light representation of a patient.
func (s *Service) Get(ctx context.Context, cpf string) (*Summary, error) {
	if err := validation.CPF("cpf", cpf); err != nil {
		return nil, err
	}
	p, err := s.patients.Get(ctx, cpf)
	if err != nil {
		return nil, err
	}
	return p.Summary(), nil
}

// GetDetail returns a patient with all three collections.
func (s *Service) GetDetail(ctx context.Context, cpf string) (*Detail, error) {
	if err := validation.CPF("cpf", cpf); err != nil {
		return nil, err
	}
	return s.patients.GetDetail(ctx, cpf)
}

func (s *Service) List(ctx context.Context, query string, page pagination.Params) ([]*Summary, error) {
	return s.patients.List(ctx, strings.TrimSpace(query), page)
}

// Dependents lists the patients whose guardian is cpf.
func (s *Service) Dependents(ctx context.Context, cpf string) ([]*Summary, error) {
	if err := validation.CPF("cpf", cpf); err != nil {
		return nil, err
	}
	ok, err := s.patients.Exists(ctx, cpf)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.patients.ListDependents(ctx, cpf)
}

// Patch applies the members present in doc to the patient. The guardian
// rules are checked again whenever responsavel_cpf is sent.
func (s *Service) Patch(ctx context.Context, cpf string, doc mergepatch.Document) (*Detail, error) {
	if err := validation.CPF("cpf", cpf); err != nil {
		return nil, err
	}
	doc = doc.Pick(PatchFields...)
	if len(doc) == 0 {
		return nil, ErrNothingToUpdate
	}

	var out *Detail
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.GetForUpdate(ctx, cpf)
		if err != nil {
			return err
		}
		if err := p.Apply(doc); err != nil {
			return err
		}
		if err := validation.Struct(p); err != nil {
			return err
		}
		if doc.Has("responsavel_cpf") {
			if err := s.checkGuardian(ctx, cpf, p.ResponsavelCPF); err != nil {
				return err
			}
		}
		if err := s.patients.Update(ctx, p); err != nil {
			return err
		}
		out, err = s.patients.GetDetail(ctx, cpf)
		return err
	})
	if err != nil {
		return nil, apperr.WithMessage(err, apperr.KindConflict, "Violação de unicidade em algum campo")
	}

	zerolog.Ctx(ctx).Debug().Str("cpf", cpf).Strs("campos", doc.Names()).Msg("paciente atualizado")
	return out, nil
}

// Delete removes the patient and its collections, and detaches its
// dependents, in a single transaction.
func (s *Service) Delete(ctx context.Context, cpf string) error {
	if err := validation.CPF("cpf", cpf); err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.patients.GetForUpdate(ctx, cpf); err != nil {
			return err
		}
		nc, err := s.surgeries.DeleteByPatient(ctx, cpf)
		if err != nil {
			return err
		}
		nm, err := s.medications.DeleteByPatient(ctx, cpf)
		if err != nil {
			return err
		}
		na, err := s.allergies.DeleteByPatient(ctx, cpf)
		if err != nil {
			return err
		}
		nd, err := s.patients.ClearGuardian(ctx, cpf)
		if err != nil {
			return err
		}
		if err := s.patients.Delete(ctx, cpf); err != nil {
			return err
		}

		zerolog.Ctx(ctx).Debug().
			Str("cpf", cpf).
			Int64("cirurgias", nc).
			Int64("medicacoes", nm).
			Int64("alergias", na).
			Int64("dependentes", nd).
			Msg("paciente removido")
		return nil
	})
}
