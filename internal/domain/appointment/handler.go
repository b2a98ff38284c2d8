package appointment

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/internal/platform/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/pacientes/:cpf/consultas", h.Create)
	api.GET("/pacientes/:cpf/consultas", h.ListByPatient)

	api.GET("/consultas", h.List)
	api.GET("/consultas/:id", h.Get)
	api.PATCH("/consultas/:id", h.Patch)
	api.DELETE("/consultas/:id", h.Delete)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Unprocessable("id", "id deve ser um inteiro positivo")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := validation.Bind(c, &in); err != nil {
		return err
	}
	a, err := h.svc.Create(c.Request().Context(), c.Param("cpf"), &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	items, err := h.svc.ListByPatient(c.Request().Context(), c.Param("cpf"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// List answers GET /consultas?dia=.
func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), c.QueryParam("dia"))
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
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
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
	a, err := h.svc.Patch(c.Request().Context(), id, doc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
