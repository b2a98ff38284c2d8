package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinica/clinica/internal/platform/apperr"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func newContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Create(t *testing.T) {
	h, e := newTestHandler()
	c, rec := newContext(e, http.MethodPost, "/",
		`{"cpfPaciente":"999.999.999-99","dia":"2025-03-10","hora":"14:30","descricao":"Retorno"}`)
	c.SetParamNames("cpf")
	c.SetParamValues(patientCPF)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, patientCPF, body["cpfPaciente"])
	assert.NotContains(t, body, "cpf_paciente")
}

func TestHandler_Create_Invalid(t *testing.T) {
	h, e := newTestHandler()
	c, _ := newContext(e, http.MethodPost, "/", `{"dia":"2025-03-10","hora":"14:30"}`)
	c.SetParamNames("cpf")
	c.SetParamValues(patientCPF)
	assert.Equal(t, apperr.KindUnprocessable, apperr.KindOf(h.Create(c)))

	c, _ = newContext(e, http.MethodPost, "/", `{"dia":"2025-03-10","hora":"14:30","descricao":"x"}`)
	c.SetParamNames("cpf")
	c.SetParamValues("111")
	assert.Equal(t, apperr.KindUnprocessable, apperr.KindOf(h.Create(c)))
}

func TestHandler_List_ByDay(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Create(context.Background(), patientCPF, validInput())

	c, rec := newContext(e, http.MethodGet, "/?dia=2025-03-10", "")
	require.NoError(t, h.List(c))
	var items []Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 1)

	c, rec = newContext(e, http.MethodGet, "/?dia=2025-01-01", "")
	require.NoError(t, h.List(c))
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandler_ListByPatient(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Create(context.Background(), patientCPF, validInput())

	c, rec := newContext(e, http.MethodGet, "/", "")
	c.SetParamNames("cpf")
	c.SetParamValues(patientCPF)
	require.NoError(t, h.ListByPatient(c))
	var items []Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 1)
}

func TestHandler_Get(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Create(context.Background(), patientCPF, validInput())

	c, rec := newContext(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = newContext(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("2")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(h.Get(c)))

	c, _ = newContext(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	assert.Equal(t, apperr.KindUnprocessable, apperr.KindOf(h.Get(c)))
}

func TestHandler_Patch(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Create(context.Background(), patientCPF, validInput())

	c, rec := newContext(e, http.MethodPatch, "/", `{"hora":"16:00"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Patch(c))
	var got Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "16:00", got.Hora)
	assert.Equal(t, "Retorno", got.Descricao)

	c, _ = newContext(e, http.MethodPatch, "/", `[]`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	assert.Equal(t, apperr.KindUnprocessable, apperr.KindOf(h.Patch(c)))

	c, _ = newContext(e, http.MethodPatch, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(h.Patch(c)))
}

func TestHandler_Delete(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Create(context.Background(), patientCPF, validInput())

	c, rec := newContext(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
