package middleware

import (
	"errors"
	"net/http"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"

	"github.com/labstack/echo/v4"
)

// AuthJWT の後ろで使う。
// ロールはトークンに載せず、毎回DBの users.role を見る。
// 管理者以外は 401（商品の管理APIは 403 を返さない）。
func AdminRoleGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(CtxUserIDKey).(string)
			if !ok || userID == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if errors.Is(err, repository.ErrNotFound) || (err == nil && user == nil) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if err != nil {
				c.Logger().Errorf("admin guard: find user %s: %v", userID, err)
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}

			//USERは拒否、ADMINだけ許可
			if !user.IsAdmin() {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			return next(c)
		}
	}
}
