package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/clinica/clinica/internal/domain/allergy"
	"github.com/clinica/clinica/internal/domain/medication"
	"github.com/clinica/clinica/internal/domain/surgery"
	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/pkg/mergepatch"
	"github.com/clinica/clinica/pkg/pagination"
)

const (
	anaCPF   = "111.111.111-11"
	beaCPF   = "222.222.222-22"
	caioCPF  = "333.333.333-33"
	ghostCPF = "999.999.999-99"
)

func newTestService() (*Service, *memStore, *memTx) {
	store := newMemStore()
	tx := &memTx{store: store}
	return NewService(store, store.surgeries, store.medications, store.allergies, tx), store, tx
}

func strPtr(s string) *string { return &s }

func mustDoc(t *testing.T, body string) mergepatch.Document {
	t.Helper()
	doc, err := mergepatch.Parse([]byte(body))
	if err != nil {
		t.Fatalf("parse %s: %v", body, err)
	}
	return doc
}

func wantKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, got, err)
	}
	var ae *apperr.Error
	errors.As(err, &ae)
	return ae
}

func seed(t *testing.T, svc *Service, cpf, nome string, guardian *string) *Detail {
	t.Helper()
	d, err := svc.Create(context.Background(), &CreateInput{
		Patient: Patient{CPF: cpf, NomeCompleto: nome, ResponsavelCPF: guardian},
	})
	if err != nil {
		t.Fatalf("seed %s: %v", cpf, err)
	}
	return d
}

// =========== Create ===========

func TestService_Create(t *testing.T) {
	svc, store, _ := newTestService()
	d, err := svc.Create(context.Background(), &CreateInput{
		Patient: Patient{CPF: anaCPF, NomeCompleto: "Ana Silva", Email: strPtr("ana@example.com")},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.CPF != anaCPF || d.NomeCompleto != "Ana Silva" {
		t.Errorf("unexpected patient: %+v", d.Patient)
	}
	if d.Cirurgias == nil || d.Medicacoes == nil || d.Alergias == nil {
		t.Error("collections must be empty arrays, not nil")
	}
	if _, ok := store.patients[anaCPF]; !ok {
		t.Error("patient not stored")
	}
}

func TestService_Create_Nested(t *testing.T) {
	svc, store, _ := newTestService()
	d, err := svc.Create(context.Background(), &CreateInput{
		Patient:   Patient{CPF: anaCPF, NomeCompleto: "Ana Silva"},
		Cirurgia:  []*surgery.Surgery{{Nome: "Apendicectomia", PacienteCPF: beaCPF}},
		Medicacao: []*medication.Medication{{Nome: "Losartana"}, {Nome: "Metformina"}},
		Alergia:   []*allergy.Allergy{{Agente: "Penicilina", PacienteCPF: ghostCPF}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(d.Cirurgias) != 1 || len(d.Medicacoes) != 2 || len(d.Alergias) != 1 {
		t.Fatalf("unexpected collections: %+v", d)
	}
	if d.Cirurgias[0].PacienteCPF != anaCPF || d.Alergias[0].PacienteCPF != anaCPF {
		t.Error("nested rows must belong to the new patient")
	}
	if store.surgeries.count(beaCPF) != 0 || store.allergies.count(ghostCPF) != 0 {
		t.Error("owner from the payload must be ignored")
	}
	if store.medications.count(anaCPF) != 2 {
		t.Error("medications not stored")
	}
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"bad cpf", CreateInput{Patient: Patient{CPF: "11111111111", NomeCompleto: "Ana Silva"}}, "cpf"},
		{"missing name", CreateInput{Patient: Patient{CPF: anaCPF}}, "nome_completo"},
		{"short name", CreateInput{Patient: Patient{CPF: anaCPF, NomeCompleto: "An"}}, "nome_completo"},
		{"bad email", CreateInput{Patient: Patient{CPF: anaCPF, NomeCompleto: "Ana", Email: strPtr("ana")}}, "email"},
		{"bad guardian", CreateInput{Patient: Patient{CPF: anaCPF, NomeCompleto: "Ana", ResponsavelCPF: strPtr("x")}}, "responsavel_cpf"},
		{"nested surgery", CreateInput{Patient: Patient{CPF: anaCPF, NomeCompleto: "Ana"}, Cirurgia: []*surgery.Surgery{{}}}, "cirurgia[0].nome"},
		{"nil allergy", CreateInput{Patient: Patient{CPF: anaCPF, NomeCompleto: "Ana"}, Alergia: []*allergy.Allergy{nil}}, "alergia[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService()
			in := tt.in
			_, err := svc.Create(context.Background(), &in)
			ae := wantKind(t, err, apperr.KindUnprocessable)
			if ae.Field != tt.field {
				t.Errorf("field = %q, want %q", ae.Field, tt.field)
			}
			if len(store.patients) != 0 {
				t.Error("nothing should be stored")
			}
		})
	}
}

func TestService_Create_GuardianSelf(t *testing.T) {
	svc, store, tx := newTestService()
	_, err := svc.Create(context.Background(), &CreateInput{
		Patient: Patient{CPF: anaCPF, NomeCompleto: "Ana Silva", ResponsavelCPF: strPtr(anaCPF)},
	})
	ae := wantKind(t, err, apperr.KindUnprocessable)
	if ae.Message != "responsavel_cpf não pode ser o próprio CPF" {
		t.Errorf("unexpected message: %q", ae.Message)
	}
	if len(store.patients) != 0 || tx.calls != 0 {
		t.Error("self-guardian must be rejected before any write")
	}
}

func TestService_Create_GuardianMissing(t *testing.T) {
	svc, store, _ := newTestService()
	_, err := svc.Create(context.Background(), &CreateInput{
		Patient: Patient{CPF: anaCPF, NomeCompleto: "Ana Silva", ResponsavelCPF: strPtr(ghostCPF)},
	})
	ae := wantKind(t, err, apperr.KindUnprocessable)
	if ae.Message != "CPF do responsável não consta na nossa base de dados" {
		t.Errorf("unexpected message: %q", ae.Message)
	}
	if len(store.patients) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestService_Create_WithGuardian(t *testing.T) {
	svc, _, _ := newTestService()
	seed(t, svc, beaCPF, "Beatriz Souza", nil)
	d := seed(t, svc, anaCPF, "Ana Silva", strPtr(beaCPF))
	if d.ResponsavelCPF == nil || *d.ResponsavelCPF != beaCPF {
		t.Errorf("guardian not stored: %v", d.ResponsavelCPF)
	}
}

func TestService_Create_Duplicate(t *testing.T) {
	svc, store, _ := newTestService()
	seed(t, svc, anaCPF, "Ana Silva", nil)
	_, err := svc.Create(context.Background(), &CreateInput{Patient: Patient{CPF: anaCPF, NomeCompleto: "Outra Ana"}})
	ae := wantKind(t, err, apperr.KindConflict)
	if ae.Message != "CPF já cadastrado" {
		t.Errorf("unexpected message: %q", ae.Message)
	}
	if store.patients[anaCPF].NomeCompleto != "Ana Silva" {
		t.Error("existing patient must be untouched")
	}
}

func TestService_Create_RollsBackOnChildFailure(t *testing.T) {
	svc, store, _ := newTestService()
	store.allergies.failOn = 2
	_, err := svc.Create(context.Background(), &CreateInput{
		Patient:   Patient{CPF: anaCPF, NomeCompleto: "Ana Silva"},
		Cirurgia:  []*surgery.Surgery{{Nome: "Apendicectomia"}},
		Alergia:   []*allergy.Allergy{{Agente: "Penicilina"}, {Agente: "Dipirona"}},
		Medicacao: []*medication.Medication{{Nome: "Losartana"}},
	})
	wantKind(t, err, apperr.KindConflict)
	if len(store.patients) != 0 {
		t.Error("patient must be rolled back")
	}
	if len(store.surgeries.rows)+len(store.medications.rows)+len(store.allergies.rows) != 0 {
		t.Error("no child row may survive a failed create")
	}
}

// =========== Read ===========

func TestService_Get(t *testing.T) {
	svc, _, _ := newTestService()
	seed(t, svc, anaCPF, "Ana Silva", nil)

	s, err := svc.Get(context.Background(), anaCPF)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.CPF != anaCPF || s.NomeCompleto != "Ana Silva" {
		t.Errorf("unexpected summary: %+v", s)
	}

	_, err = svc.Get(context.Background(), ghostCPF)
	ae := wantKind(t, err, apperr.KindNotFound)
	if ae.Message != "Paciente não encontrado" {
		t.Errorf("unexpected message: %q", ae.Message)
	}

	_, err = svc.Get(context.Background(), "abc")
	wantKind(t, err, apperr.KindUnprocessable)
}

func TestService_List(t *testing.T) {
	svc, _, _ := newTestService()
	seed(t, svc, anaCPF, "Ana Silva", nil)
	seed(t, svc, beaCPF, "Beatriz Souza", nil)
	seed(t, svc, caioCPF, "Caio Silva", nil)

	items, err := svc.List(context.Background(), " silva ", pagination.Params{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 matches, got %d", len(items))
	}

	items, _ = svc.List(context.Background(), "222.222", pagination.Params{})
	if len(items) != 1 || items[0].CPF != beaCPF {
		t.Errorf("expected cpf match, got %+v", items)
	}

	items, _ = svc.List(context.Background(), "", pagination.Params{Limit: 2})
	if len(items) != 2 {
		t.Errorf("expected limit to cap results, got %d", len(items))
	}
}

func TestService_Dependents(t *testing.T) {
	svc, _, _ := newTestService()
	seed(t, svc, beaCPF, "Beatriz Souza", nil)
	seed(t, svc, anaCPF, "Ana Silva", strPtr(beaCPF))
	seed(t, svc, caioCPF, "Caio Silva", strPtr(beaCPF))

	deps, err := svc.Dependents(context.Background(), beaCPF)
	if err != nil {
		t.Fatalf("Dependents: %v", err)
	}
	if len(deps) != 2 {
		t.Errorf("expected 2 dependents, got %d", len(deps))
	}

	deps, _ = svc.Dependents(context.Background(), anaCPF)
	if deps == nil || len(deps) != 0 {
		t.Errorf("expected empty list, got %#v", deps)
	}

	_, err = svc.Dependents(context.Background(), ghostCPF)
	wantKind(t, err, apperr.KindNotFound)
}

// =========== Patch ===========

func TestService_Patch_OneField(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	svc.Create(ctx, &CreateInput{Patient: Patient{
		CPF: anaCPF, NomeCompleto: "Ana Silva", Email: strPtr("ana@example.com"), DataNascimento: strPtr("1990-05-01"),
	}})

	if _, err := svc.Patch(ctx, anaCPF, mustDoc(t, `{"telefone":"11 99999-0000"}`)); err != nil {
		t.Fatalf("Patch: %v", err)
	}
	d, _ := svc.GetDetail(ctx, anaCPF)
	if d.Telefone == nil || *d.Telefone != "11 99999-0000" {
		t.Errorf("telefone not updated: %v", d.Telefone)
	}
	if d.NomeCompleto != "Ana Silva" || *d.Email != "ana@example.com" || *d.DataNascimento != "1990-05-01" {
		t.Errorf("other fields changed: %+v", d.Patient)
	}
}

func TestService_Patch_NullClears(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	svc.Create(ctx, &CreateInput{Patient: Patient{CPF: anaCPF, NomeCompleto: "Ana Silva", Email: strPtr("ana@example.com")}})

	d, err := svc.Patch(ctx, anaCPF, mustDoc(t, `{"email":null}`))
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if d.Email != nil {
		t.Errorf("expected email cleared, got %v", *d.Email)
	}
}

func TestService_Patch_NothingToUpdate(t *testing.T) {
	svc, _, tx := newTestService()
	for _, body := range []string{`{}`, `{"cpf":"222.222.222-22","cirurgia":[]}`} {
		_, err := svc.Patch(context.Background(), anaCPF, mustDoc(t, body))
		ae := wantKind(t, err, apperr.KindBadRequest)
		if ae.Message != "Nenhum campo para atualizar" {
			t.Errorf("unexpected message: %q", ae.Message)
		}
	}
	if tx.calls != 0 {
		t.Error("the store must not be touched")
	}
}

func TestService_Patch_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Patch(context.Background(), ghostCPF, mustDoc(t, `{"telefone":"1"}`))
	wantKind(t, err, apperr.KindNotFound)
}

func TestService_Patch_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"null name", `{"nome_completo":null}`, "nome_completo"},
		{"short name", `{"nome_completo":"Al"}`, "nome_completo"},
		{"bad email", `{"email":"nope"}`, "email"},
		{"wrong type", `{"telefone":123}`, "telefone"},
		{"bad guardian format", `{"responsavel_cpf":"222"}`, "responsavel_cpf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService()
			seed(t, svc, anaCPF, "Ana Silva", nil)
			_, err := svc.Patch(context.Background(), anaCPF, mustDoc(t, tt.body))
			ae := wantKind(t, err, apperr.KindUnprocessable)
			if ae.Field != tt.field {
				t.Errorf("field = %q, want %q", ae.Field, tt.field)
			}
			if store.patients[anaCPF].NomeCompleto != "Ana Silva" {
				t.Error("failed patch must not change the row")
			}
		})
	}
}

func TestService_Patch_Guardian(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seed(t, svc, anaCPF, "Ana Silva", nil)
	seed(t, svc, beaCPF, "Beatriz Souza", nil)

	_, err := svc.Patch(ctx, anaCPF, mustDoc(t, `{"responsavel_cpf":"111.111.111-11"}`))
	if ae := wantKind(t, err, apperr.KindUnprocessable); ae.Message != ErrGuardianSelf.Message {
		t.Errorf("unexpected message: %q", ae.Message)
	}

	_, err = svc.Patch(ctx, anaCPF, mustDoc(t, `{"responsavel_cpf":"999.999.999-99"}`))
	if ae := wantKind(t, err, apperr.KindUnprocessable); ae.Message != ErrGuardianMissing.Message {
		t.Errorf("unexpected message: %q", ae.Message)
	}
	if store.patients[anaCPF].ResponsavelCPF != nil {
		t.Error("rejected guardian must not be stored")
	}

	d, err := svc.Patch(ctx, anaCPF, mustDoc(t, `{"responsavel_cpf":"222.222.222-22"}`))
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if d.ResponsavelCPF == nil || *d.ResponsavelCPF != beaCPF {
		t.Errorf("guardian not set: %v", d.ResponsavelCPF)
	}

	d, err = svc.Patch(ctx, anaCPF, mustDoc(t, `{"responsavel_cpf":null}`))
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if d.ResponsavelCPF != nil {
		t.Error("null must clear the guardian")
	}
}

func TestService_Patch_Conflict(t *testing.T) {
	svc, store, _ := newTestService()
	seed(t, svc, anaCPF, "Ana Silva", nil)
	store.updateErr = apperr.Conflict("violação de integridade", errors.New("unique"))

	_, err := svc.Patch(context.Background(), anaCPF, mustDoc(t, `{"email":"a@b.com"}`))
	ae := wantKind(t, err, apperr.KindConflict)
	if ae.Message != "Violação de unicidade em algum campo" {
		t.Errorf("unexpected message: %q", ae.Message)
	}
}

// =========== Delete ===========

func TestService_Delete_Cascades(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seed(t, svc, beaCPF, "Beatriz Souza", nil)
	if _, err := svc.Create(ctx, &CreateInput{
		Patient:   Patient{CPF: anaCPF, NomeCompleto: "Ana Silva", ResponsavelCPF: strPtr(beaCPF)},
		Cirurgia:  []*surgery.Surgery{{Nome: "Apendicectomia"}, {Nome: "Amigdalectomia"}},
		Medicacao: []*medication.Medication{{Nome: "Losartana"}},
		Alergia:   []*allergy.Allergy{{Agente: "Penicilina"}, {Agente: "Dipirona"}, {Agente: "Lactose"}},
	}); err != nil {
		t.Fatalf("Create %s: %v", anaCPF, err)
	}
	if _, err := svc.Create(ctx, &CreateInput{
		Patient:  Patient{CPF: caioCPF, NomeCompleto: "Caio Silva"},
		Cirurgia: []*surgery.Surgery{{Nome: "Cesariana"}},
	}); err != nil {
		t.Fatalf("Create %s: %v", caioCPF, err)
	}
	if n := store.surgeries.count(anaCPF) + store.medications.count(anaCPF) + store.allergies.count(anaCPF); n != 6 {
		t.Fatalf("expected 6 children before delete, got %d", n)
	}

	if err := svc.Delete(ctx, anaCPF); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.surgeries.count(anaCPF)+store.medications.count(anaCPF)+store.allergies.count(anaCPF) != 0 {
		t.Error("children of the deleted patient must be gone")
	}
	if store.surgeries.count(caioCPF) != 1 {
		t.Error("other patients' children must survive")
	}
	if _, err := svc.Get(ctx, anaCPF); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if _, err := svc.GetDetail(ctx, beaCPF); err != nil {
		t.Errorf("guardian must survive: %v", err)
	}
}

func TestService_Delete_DetachesDependents(t *testing.T) {
	svc, store, _ := newTestService()
	seed(t, svc, beaCPF, "Beatriz Souza", nil)
	seed(t, svc, anaCPF, "Ana Silva", strPtr(beaCPF))

	if err := svc.Delete(context.Background(), beaCPF); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.patients[anaCPF].ResponsavelCPF != nil {
		t.Error("dependent must lose its guardian reference")
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	wantKind(t, svc.Delete(context.Background(), ghostCPF), apperr.KindNotFound)
	wantKind(t, svc.Delete(context.Background(), "bad"), apperr.KindUnprocessable)
}
