package handler

import (
	"net/http"
	"strconv"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 成功・失敗どちらも { "message": ... } で返す
type MessageResponse struct {
	Message interface{} `json:"message"`
}

func statusOf(kind usecase.Kind) int {
	switch kind {
	case usecase.KindValidation, usecase.KindEmptyCart:
		return http.StatusBadRequest
	case usecase.KindUnauthorized, usecase.KindForbidden:
		return http.StatusUnauthorized
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := usecase.AsError(err); ok && e.Kind != usecase.KindInternal {
		return c.JSON(statusOf(e.Kind), MessageResponse{Message: e.Message})
	}

	// 500 は原因をログにだけ残す
	c.Logger().Errorj(map[string]interface{}{
		"path":  c.Path(),
		"error": err.Error(),
	})
	return c.JSON(http.StatusInternalServerError, MessageResponse{Message: "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, MessageResponse{Message: msg})
}

// /product の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/product", h.list)
	e.GET("/product/:productId", h.detail)
	e.GET("/product/search/:term", h.search)
	e.GET("/product/category/:name", h.byCategory)
}

func (h *ProductHandler) list(c echo.Context) error {
	// limit（0ならusecase側で既定値）
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		limit = l
	}

	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid offset")
		}
		offset = o
	}

	out, err := h.uc.ListProducts(c.Request().Context(), usecase.ListProductsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: out})
}

func (h *ProductHandler) detail(c echo.Context) error {
	p, err := h.uc.GetProduct(c.Request().Context(), c.Param("productId"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: p})
}

func (h *ProductHandler) search(c echo.Context) error {
	out, err := h.uc.SearchProducts(c.Request().Context(), c.Param("term"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: out})
}

func (h *ProductHandler) byCategory(c echo.Context) error {
	out, err := h.uc.ListByCategory(c.Request().Context(), c.Param("name"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: out})
}
