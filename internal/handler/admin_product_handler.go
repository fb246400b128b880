package handler

import (
	"net/http"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/middleware"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ProductRequest は登録・更新で共通。price は "19.90" でも 19.90 でも受け付ける。
type ProductRequest struct {
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	Picture           string           `json:"picture"`
	Price             *decimal.Decimal `json:"price"`
	AvailableQuantity int64            `json:"available_quantity"`
	Category          string           `json:"category"`
	Tags              []string         `json:"tags"`
}

func (r ProductRequest) toInput() usecase.ProductInput {
	return usecase.ProductInput{
		Name:              r.Name,
		Description:       r.Description,
		Picture:           r.Picture,
		Price:             *r.Price,
		AvailableQuantity: r.AvailableQuantity,
		Category:          r.Category,
		Tags:              r.Tags,
	}
}

// 管理者向けの商品API
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// 公開ルートと同じ /product 配下なので Group は使わずルート単位で守る
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, tokens middleware.TokenParser, userRepo repository.UserRepository) {
	guard := []echo.MiddlewareFunc{
		middleware.AuthJWT(tokens),
		middleware.AdminRoleGuard(userRepo),
	}

	e.POST("/product/add", h.createProduct, guard...)
	e.PUT("/product/update/:productId", h.updateProduct, guard...)
	e.DELETE("/product/delete/:productId", h.deleteProduct, guard...)
}

func (h *AdminProductHandler) bindProduct(c echo.Context) (usecase.ProductInput, error) {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return usecase.ProductInput{}, usecase.Validation("invalid body")
	}
	if req.Price == nil {
		return usecase.ProductInput{}, usecase.Validation("price is required")
	}
	return req.toInput(), nil
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, MessageResponse{Message: "unauthorized"})
	}

	in, err := h.bindProduct(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, MessageResponse{Message: out})
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, MessageResponse{Message: "unauthorized"})
	}

	in, err := h.bindProduct(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, c.Param("productId"), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: out})
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, MessageResponse{Message: "unauthorized"})
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, c.Param("productId")); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "product deleted"})
}

// AuthJWT が入れた user_id を取り出す
func getUserIDFromContext(c echo.Context) (string, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	id, ok := v.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
