package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/usecase"
	xhttp "TransWatcher/pkg/http"
	xlogger "TransWatcher/pkg/logger"
)

type ItemsHandler struct {
	logger *xlogger.Logger
	items  *usecase.ItemService
}

func NewItemsHandler(logger *xlogger.Logger, items *usecase.ItemService) *ItemsHandler {
	return &ItemsHandler{logger: logger, items: items}
}

func (h *ItemsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/items")
	g.GET("", h.List)
	g.GET("/", h.List)
	g.POST("", h.Create)
	g.POST("/", h.Create)
	g.GET("/search/:query", h.Search)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type deleteResponse struct {
	Message     string      `json:"message"`
	DeletedItem models.Item `json:"deleted_item"`
}

func (h *ItemsHandler) id(c echo.Context) (int, *xhttp.AppError) {
	id, err := xhttp.ParamInt(c, "id")
	if err != nil {
		return 0, xhttp.BadRequestError("id must be an integer").WithError(err)
	}
	return id, nil
}

func (h *ItemsHandler) List(c echo.Context) error {
	items, err := h.items.List(c.Request().Context())
	if err != nil {
		return fail(c, h.logger, "list items", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, items)
}

func (h *ItemsHandler) Get(c echo.Context) error {
	id, appErr := h.id(c)
	if appErr != nil {
		return xhttp.AppErrorResponse(c, appErr)
	}
	item, err := h.items.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.logger, "get item", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, item)
}

func (h *ItemsHandler) Create(c echo.Context) error {
	req := &models.ItemInput{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	item, err := h.items.Create(c.Request().Context(), *req)
	if err != nil {
		return fail(c, h.logger, "create item", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, item)
}

func (h *ItemsHandler) Update(c echo.Context) error {
	id, appErr := h.id(c)
	if appErr != nil {
		return xhttp.AppErrorResponse(c, appErr)
	}
	req := &models.ItemInput{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	item, err := h.items.Update(c.Request().Context(), id, *req)
	if err != nil {
		return fail(c, h.logger, "update item", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, item)
}

func (h *ItemsHandler) Delete(c echo.Context) error {
	id, appErr := h.id(c)
	if appErr != nil {
		return xhttp.AppErrorResponse(c, appErr)
	}
	item, err := h.items.Delete(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.logger, "delete item", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, deleteResponse{
		Message:     fmt.Sprintf("Item %d deleted successfully", id),
		DeletedItem: *item,
	})
}

func (h *ItemsHandler) Search(c echo.Context) error {
	items, err := h.items.Search(c.Request().Context(), c.Param("query"))
	if err != nil {
		return fail(c, h.logger, "search items", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, items)
}
