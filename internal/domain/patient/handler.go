package patient

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/internal/platform/validation"
	"github.com/clinica/clinica/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/pacientes")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/todos", h.ListAll)
	g.GET("/:cpf", h.Get)
	g.GET("/:cpf/details", h.GetDetail)
	g.GET("/:cpf/dependentes", h.Dependents)
	g.PATCH("/:cpf", h.Patch)
	g.DELETE("/:cpf", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := validation.Bind(c, &in); err != nil {
		return err
	}
	d, err := h.svc.Create(c.Request().Context(), &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

// List answers GET /pacientes?q=&limit=.
func (h *Handler) List(c echo.Context) error {
	page, err := pagination.FromContext(c)
	if err != nil {
		return apperr.Unprocessable("limit", err.Error())
	}
	items, err := h.svc.List(c.Request().Context(), c.QueryParam("q"), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListAll(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), "", pagination.Params{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	s, err := h.svc.Get(c.Request().Context(), c.Param("cpf"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) GetDetail(c echo.Context) error {
	d, err := h.svc.GetDetail(c.Request().Context(), c.Param("cpf"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Dependents(c echo.Context) error {
	items, err := h.svc.Dependents(c.Request().Context(), c.Param("cpf"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Patch(c echo.Context) error {
	doc, err := validation.Patch(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Patch(c.Request().Context(), c.Param("cpf"), doc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("cpf")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
