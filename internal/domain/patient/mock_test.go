package patient

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/clinica/clinica/internal/domain/allergy"
	"github.com/clinica/clinica/internal/domain/medication"
	"github.com/clinica/clinica/internal/domain/surgery"
	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/pkg/pagination"
)

// =========== In-memory children ===========

var errChildNotFound = errors.New("not found")

type memChildren[T any] struct {
	rows   []T
	nextID int64
	calls  int
	failOn int // Create call that fails with a conflict; 0 never fails

	id    func(T) int64
	setID func(T, int64)
	owner func(T) string
}

func (m *memChildren[T]) Create(_ context.Context, v T) error {
	m.calls++
	if m.failOn != 0 && m.calls == m.failOn {
		return apperr.Conflict("violação de integridade", errors.New("check violation"))
	}
	m.nextID++
	m.setID(v, m.nextID)
	m.rows = append(m.rows, v)
	return nil
}

func (m *memChildren[T]) GetByID(_ context.Context, id int64) (T, error) {
	for _, v := range m.rows {
		if m.id(v) == id {
			return v, nil
		}
	}
	var zero T
	return zero, errChildNotFound
}

func (m *memChildren[T]) GetForUpdate(ctx context.Context, id int64) (T, error) {
	return m.GetByID(ctx, id)
}

func (m *memChildren[T]) ListByPatient(_ context.Context, cpf string) ([]T, error) {
	out := []T{}
	for _, v := range m.rows {
		if m.owner(v) == cpf {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memChildren[T]) Update(_ context.Context, v T) error {
	for i, row := range m.rows {
		if m.id(row) == m.id(v) {
			m.rows[i] = v
			return nil
		}
	}
	return errChildNotFound
}

func (m *memChildren[T]) Delete(_ context.Context, id int64) error {
	for i, row := range m.rows {
		if m.id(row) == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return errChildNotFound
}

func (m *memChildren[T]) DeleteByPatient(_ context.Context, cpf string) (int64, error) {
	kept := m.rows[:0]
	var n int64
	for _, v := range m.rows {
		if m.owner(v) == cpf {
			n++
			continue
		}
		kept = append(kept, v)
	}
	m.rows = kept
	return n, nil
}

func (m *memChildren[T]) count(cpf string) int {
	rows, _ := m.ListByPatient(context.Background(), cpf)
	return len(rows)
}

// =========== In-memory patient store ===========

type memStore struct {
	patients    map[string]*Patient
	surgeries   *memChildren[*surgery.Surgery]
	medications *memChildren[*medication.Medication]
	allergies   *memChildren[*allergy.Allergy]
	updateErr   error
}

func newMemStore() *memStore {
	return &memStore{
		patients: make(map[string]*Patient),
		surgeries: &memChildren[*surgery.Surgery]{
			id:    func(s *surgery.Surgery) int64 { return s.ID },
			setID: func(s *surgery.Surgery, id int64) { s.ID = id },
			owner: func(s *surgery.Surgery) string { return s.PacienteCPF },
		},
		medications: &memChildren[*medication.Medication]{
			id:    func(m *medication.Medication) int64 { return m.ID },
			setID: func(m *medication.Medication, id int64) { m.ID = id },
			owner: func(m *medication.Medication) string { return m.PacienteCPF },
		},
		allergies: &memChildren[*allergy.Allergy]{
			id:    func(a *allergy.Allergy) int64 { return a.ID },
			setID: func(a *allergy.Allergy, id int64) { a.ID = id },
			owner: func(a *allergy.Allergy) string { return a.PacienteCPF },
		},
	}
}

type snapshot struct {
	patients                          map[string]Patient
	surgeries, medications, allergies int
}

func (m *memStore) snapshot() snapshot {
	s := snapshot{
		patients:    make(map[string]Patient, len(m.patients)),
		surgeries:   len(m.surgeries.rows),
		medications: len(m.medications.rows),
		allergies:   len(m.allergies.rows),
	}
	for k, p := range m.patients {
		s.patients[k] = *p
	}
	return s
}

// restore undoes the writes made after s was taken. Only appends and
// patient changes are undone, which covers what the service does inside a
// failing transaction.
func (m *memStore) restore(s snapshot) {
	m.patients = make(map[string]*Patient, len(s.patients))
	for k, p := range s.patients {
		cp := p
		m.patients[k] = &cp
	}
	m.surgeries.rows = m.surgeries.rows[:s.surgeries]
	m.medications.rows = m.medications.rows[:s.medications]
	m.allergies.rows = m.allergies.rows[:s.allergies]
}

func (m *memStore) Create(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.CPF]; ok {
		return apperr.Conflict(ErrDuplicate.Message, errors.New("duplicate key"))
	}
	cp := *p
	m.patients[p.CPF] = &cp
	return nil
}

func (m *memStore) Exists(_ context.Context, cpf string) (bool, error) {
	_, ok := m.patients[cpf]
	return ok, nil
}

func (m *memStore) Get(_ context.Context, cpf string) (*Patient, error) {
	p, ok := m.patients[cpf]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetForUpdate(ctx context.Context, cpf string) (*Patient, error) {
	return m.Get(ctx, cpf)
}

func (m *memStore) GetDetail(ctx context.Context, cpf string) (*Detail, error) {
	p, err := m.Get(ctx, cpf)
	if err != nil {
		return nil, err
	}
	d := newDetail(p)
	d.Cirurgias, _ = m.surgeries.ListByPatient(ctx, cpf)
	d.Medicacoes, _ = m.medications.ListByPatient(ctx, cpf)
	d.Alergias, _ = m.allergies.ListByPatient(ctx, cpf)
	return d, nil
}

func (m *memStore) sorted(keep func(*Patient) bool) []*Summary {
	out := []*Summary{}
	for _, p := range m.patients {
		if keep(p) {
			out = append(out, p.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NomeCompleto < out[j].NomeCompleto })
	return out
}

func (m *memStore) List(_ context.Context, query string, page pagination.Params) ([]*Summary, error) {
	q := strings.ToLower(query)
	out := m.sorted(func(p *Patient) bool {
		return q == "" || strings.Contains(strings.ToLower(p.NomeCompleto), q) || strings.Contains(p.CPF, q)
	})
	if page.Capped() && len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func (m *memStore) ListDependents(_ context.Context, guardian string) ([]*Summary, error) {
	return m.sorted(func(p *Patient) bool {
		return p.ResponsavelCPF != nil && *p.ResponsavelCPF == guardian
	}), nil
}

func (m *memStore) Update(_ context.Context, p *Patient) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.patients[p.CPF]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.patients[p.CPF] = &cp
	return nil
}

func (m *memStore) ClearGuardian(_ context.Context, guardian string) (int64, error) {
	var n int64
	for _, p := range m.patients {
		if p.ResponsavelCPF != nil && *p.ResponsavelCPF == guardian {
			p.ResponsavelCPF = nil
			n++
		}
	}
	return n, nil
}

func (m *memStore) Delete(_ context.Context, cpf string) error {
	if _, ok := m.patients[cpf]; !ok {
		return ErrNotFound
	}
	delete(m.patients, cpf)
	return nil
}

// memTx runs fn directly and rolls the store back when it fails.
type memTx struct {
	store *memStore
	calls int
}

func (t *memTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}
