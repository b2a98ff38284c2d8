package allergy

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/internal/platform/validation"
)

// Handler provides HTTP handlers for allergies.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the collection under its patient and the item both
// at the top level and nested under its patient. "allergies" is accepted as
// an alias of "alergias".
func (h *Handler) RegisterRoutes(api *echo.Group) {
	for _, seg := range []string{"alergias", "allergies"} {
		api.POST("/pacientes/:cpf/"+seg, h.Create)
		api.GET("/pacientes/:cpf/"+seg, h.List)
		api.GET("/pacientes/:cpf/"+seg+"/:id", h.Get)
		api.PATCH("/pacientes/:cpf/"+seg+"/:id", h.Patch)
		api.DELETE("/pacientes/:cpf/"+seg+"/:id", h.Delete)

		api.GET("/"+seg+"/:id", h.Get)
		api.PATCH("/"+seg+"/:id", h.Patch)
		api.DELETE("/"+seg+"/:id", h.Delete)
	}
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Unprocessable("id", "id deve ser um inteiro positivo")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	var in Allergy
	if err := validation.Bind(c, &in); err != nil {
		return err
	}
	al, err := h.svc.Create(c.Request().Context(), c.Param("cpf"), &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, al)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.ListByPatient(c.Request().Context(), c.Param("cpf"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	al, err := h.svc.Get(c.Request().Context(), c.Param("cpf"), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, al)
}

func (h *Handler) Patch(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	doc, err := validation.Patch(c)
	if err != nil {
		return err
	}
	al, err := h.svc.Patch(c.Request().Context(), c.Param("cpf"), id, doc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, al)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), c.Param("cpf"), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
